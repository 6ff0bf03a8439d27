package cache

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/itheroservices-hub/hybridmind-sub004/internal/metrics"
)

// Config configures the cache store.
type Config struct {
	// Profiles overrides the category registry. Nil uses DefaultProfiles.
	Profiles map[Category]Profile `yaml:"profiles" json:"profiles"`

	// SweepInterval is the period of the background expiry sweep.
	// Zero disables the sweep goroutine.
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
}

// DefaultConfig returns the production cache configuration.
func DefaultConfig() Config {
	return Config{
		Profiles:      DefaultProfiles(),
		SweepInterval: 5 * time.Minute,
	}
}

type entry struct {
	value      any
	createdAt  time.Time
	lastAccess time.Time
	hits       int
	seq        uint64
	deps       []string
}

type ref struct {
	category Category
	key      string
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Hits        uint64           `json:"hits"`
	Misses      uint64           `json:"misses"`
	Evictions   uint64           `json:"evictions"`
	Expirations uint64           `json:"expirations"`
	Sizes       map[Category]int `json:"sizes"`
}

// Cache is the in-memory category store. All operations are safe for
// concurrent use; the background sweep shares the same mutex as the
// foreground operations.
type Cache struct {
	mu         sync.Mutex
	config     Config
	store      map[Category]map[string]*entry
	dependents map[string][]ref
	seq        uint64
	stats      Stats

	group   singleflight.Group
	logger  *zap.Logger
	metrics *metrics.Collector

	stop      chan struct{}
	closeOnce sync.Once

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a cache and starts its background sweep when the
// configured interval is positive. collector may be nil.
func New(config Config, logger *zap.Logger, collector *metrics.Collector) *Cache {
	if config.Profiles == nil {
		config.Profiles = DefaultProfiles()
	}
	c := &Cache{
		config:     config,
		store:      make(map[Category]map[string]*entry),
		dependents: make(map[string][]ref),
		logger:     logger.With(zap.String("component", "cache")),
		metrics:    collector,
		stop:       make(chan struct{}),
		now:        time.Now,
	}
	if config.SweepInterval > 0 {
		go c.sweepLoop()
	}
	return c
}

func (c *Cache) profile(category Category) Profile {
	if p, ok := c.config.Profiles[category]; ok {
		return p
	}
	return defaultProfile
}

// Get returns the stored value for key, or false on a miss. A hit
// refreshes the entry's last-access time and hit counter. An entry past
// its category TTL is removed and reported as a miss.
func (c *Cache) Get(category Category, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.store[category][key]
	if !ok {
		c.stats.Misses++
		c.metrics.RecordCacheMiss(string(category))
		return nil, false
	}

	if c.expired(category, e) {
		c.remove(category, key)
		c.stats.Expirations++
		c.stats.Misses++
		c.metrics.RecordCacheExpiration(string(category))
		c.metrics.RecordCacheMiss(string(category))
		return nil, false
	}

	e.lastAccess = c.now()
	e.hits++
	c.stats.Hits++
	c.metrics.RecordCacheHit(string(category))
	return e.value, true
}

// Set stores value under key. When the category is at its size cap the
// least-recently-used entry is evicted first; entries sharing the
// oldest access time are broken by insertion order. dependencies are
// keys this entry is derived from, used by cascade invalidation.
func (c *Cache) Set(category Category, key string, value any, dependencies ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bucket, ok := c.store[category]
	if !ok {
		bucket = make(map[string]*entry)
		c.store[category] = bucket
	}

	if e, ok := bucket[key]; ok {
		c.unregisterDeps(category, key, e.deps)
		e.value = value
		e.createdAt = c.now()
		e.lastAccess = e.createdAt
		e.deps = dependencies
		c.registerDeps(category, key, dependencies)
		return
	}

	if max := c.profile(category).MaxEntries; max > 0 && len(bucket) >= max {
		c.evictLRU(category)
	}

	c.seq++
	now := c.now()
	bucket[key] = &entry{
		value:      value,
		createdAt:  now,
		lastAccess: now,
		seq:        c.seq,
		deps:       dependencies,
	}
	c.registerDeps(category, key, dependencies)
}

// GetOrCompute returns the cached value for key, or runs producer and
// caches its result. Concurrent calls for the same (category, key)
// share a single in-flight computation. A failed producer is not
// cached and its error is returned to every waiter.
func (c *Cache) GetOrCompute(category Category, key string, producer func() (any, error), dependencies ...string) (any, error) {
	if v, ok := c.Get(category, key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(string(category)+"\x00"+key, func() (any, error) {
		// Another waiter may have populated the key while this call
		// was queued behind the in-flight computation. The outer Get
		// already counted this lookup, so re-check without counters.
		if v, ok := c.peek(category, key); ok {
			return v, nil
		}
		v, err := producer()
		if err != nil {
			return nil, fmt.Errorf("cache producer for %s/%s: %w", category, key, err)
		}
		c.Set(category, key, v, dependencies...)
		return v, nil
	})
	return v, err
}

// peek is Get without hit/miss accounting, for lookups that were
// already counted once.
func (c *Cache) peek(category Category, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.store[category][key]
	if !ok || c.expired(category, e) {
		return nil, false
	}
	e.lastAccess = c.now()
	return e.value, true
}

// Invalidate removes key from category. With cascade set, every entry
// that declared key as a dependency is removed as well, transitively.
// A visited set bounds the walk, so cyclic dependency declarations
// terminate.
func (c *Cache) Invalidate(category Category, key string, cascade bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(category, key)
	if !cascade {
		return
	}

	visited := map[ref]bool{{category: category, key: key}: true}
	worklist := []string{key}
	for len(worklist) > 0 {
		depKey := worklist[0]
		worklist = worklist[1:]

		// Removing a dependent rewrites dependency indexes, so walk a
		// snapshot of the refs rather than the live slice.
		refs := append([]ref(nil), c.dependents[depKey]...)
		delete(c.dependents, depKey)
		for _, r := range refs {
			if visited[r] {
				continue
			}
			visited[r] = true
			if _, ok := c.store[r.category][r.key]; !ok {
				continue
			}
			c.remove(r.category, r.key)
			worklist = append(worklist, r.key)
		}
	}
}

// InvalidateCategory removes every entry of one category.
func (c *Cache) InvalidateCategory(category Category) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.store[category] {
		c.unregisterDeps(category, key, e.deps)
	}
	delete(c.store, category)
}

// ClearAll removes every entry of every category.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[Category]map[string]*entry)
	c.dependents = make(map[string][]ref)
}

// Statistics returns a snapshot of cache counters and per-category sizes.
func (c *Cache) Statistics() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Sizes = make(map[Category]int, len(c.store))
	for category, bucket := range c.store {
		s.Sizes[category] = len(bucket)
	}
	return s
}

// Close stops the background sweep. The cache remains usable.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.stop) })
}

// ---- internals (callers hold c.mu) ----

func (c *Cache) expired(category Category, e *entry) bool {
	ttl := c.profile(category).TTL
	return ttl > 0 && c.now().Sub(e.createdAt) > ttl
}

func (c *Cache) remove(category Category, key string) {
	e, ok := c.store[category][key]
	if !ok {
		return
	}
	c.unregisterDeps(category, key, e.deps)
	delete(c.store[category], key)
}

// evictLRU removes the entry with the oldest last-access time; equal
// access times resolve to the earliest-inserted entry.
func (c *Cache) evictLRU(category Category) {
	bucket := c.store[category]
	var victim string
	var victimEntry *entry
	for key, e := range bucket {
		if victimEntry == nil ||
			e.lastAccess.Before(victimEntry.lastAccess) ||
			(e.lastAccess.Equal(victimEntry.lastAccess) && e.seq < victimEntry.seq) {
			victim, victimEntry = key, e
		}
	}
	if victimEntry == nil {
		return
	}
	c.remove(category, victim)
	c.stats.Evictions++
	c.metrics.RecordCacheEviction(string(category))
	c.logger.Debug("evicted lru entry",
		zap.String("category", string(category)),
		zap.String("key", victim))
}

func (c *Cache) registerDeps(category Category, key string, deps []string) {
	for _, dep := range deps {
		c.dependents[dep] = append(c.dependents[dep], ref{category: category, key: key})
	}
}

func (c *Cache) unregisterDeps(category Category, key string, deps []string) {
	for _, dep := range deps {
		refs := c.dependents[dep]
		for i, r := range refs {
			if r.category == category && r.key == key {
				c.dependents[dep] = append(refs[:i], refs[i+1:]...)
				break
			}
		}
		if len(c.dependents[dep]) == 0 {
			delete(c.dependents, dep)
		}
	}
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(c.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep removes TTL-expired entries regardless of access patterns, so
// entries that are never read again do not accumulate.
func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for category, bucket := range c.store {
		for key, e := range bucket {
			if c.expired(category, e) {
				c.remove(category, key)
				c.stats.Expirations++
				c.metrics.RecordCacheExpiration(string(category))
				removed++
			}
		}
	}
	if removed > 0 {
		c.logger.Debug("sweep removed expired entries", zap.Int("removed", removed))
	}
}
