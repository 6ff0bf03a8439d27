package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(profiles map[Category]Profile) *Cache {
	return New(Config{Profiles: profiles}, zap.NewNop(), nil)
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache(nil)
	defer c.Close()

	c.Set(CategoryChunks, "k1", "v1")

	v, ok := c.Get(CategoryChunks, "k1")
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	_, ok = c.Get(CategoryChunks, "missing")
	assert.False(t, ok)

	// Categories are independent namespaces.
	_, ok = c.Get(CategoryScores, "k1")
	assert.False(t, ok)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := newTestCache(map[Category]Profile{
		CategoryChunks: {TTL: 30 * time.Minute, MaxEntries: 10},
	})
	defer c.Close()

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Set(CategoryChunks, "k1", "v1")

	// Read before the TTL elapses: returned unchanged.
	c.now = func() time.Time { return base.Add(29 * time.Minute) }
	v, ok := c.Get(CategoryChunks, "k1")
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	// Read after: treated as a miss and removed immediately.
	c.now = func() time.Time { return base.Add(31 * time.Minute) }
	_, ok = c.Get(CategoryChunks, "k1")
	assert.False(t, ok)

	stats := c.Statistics()
	assert.Equal(t, uint64(1), stats.Expirations)
	assert.Equal(t, 0, stats.Sizes[CategoryChunks])
}

func TestCache_LRUEviction(t *testing.T) {
	c := newTestCache(map[Category]Profile{
		CategoryChunks: {TTL: time.Hour, MaxEntries: 2},
	})
	defer c.Close()

	base := time.Now()
	tick := 0
	c.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	// Three inserts with no intervening reads evict k1.
	c.Set(CategoryChunks, "k1", 1)
	c.Set(CategoryChunks, "k2", 2)
	c.Set(CategoryChunks, "k3", 3)

	_, ok := c.Get(CategoryChunks, "k1")
	assert.False(t, ok)
	_, ok = c.Get(CategoryChunks, "k2")
	assert.True(t, ok)
	_, ok = c.Get(CategoryChunks, "k3")
	assert.True(t, ok)

	stats := c.Statistics()
	assert.Equal(t, uint64(1), stats.Evictions)
	assert.Equal(t, 2, stats.Sizes[CategoryChunks])
}

func TestCache_EvictionSparesJustAccessedEntry(t *testing.T) {
	c := newTestCache(map[Category]Profile{
		CategoryChunks: {TTL: time.Hour, MaxEntries: 2},
	})
	defer c.Close()

	base := time.Now()
	tick := 0
	c.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	c.Set(CategoryChunks, "k1", 1)
	c.Set(CategoryChunks, "k2", 2)

	// Touch k1 so k2 becomes the least recently used.
	_, ok := c.Get(CategoryChunks, "k1")
	require.True(t, ok)

	c.Set(CategoryChunks, "k3", 3)

	_, ok = c.Get(CategoryChunks, "k1")
	assert.True(t, ok)
	_, ok = c.Get(CategoryChunks, "k2")
	assert.False(t, ok)
}

func TestCache_EvictionTieBreaksByInsertionOrder(t *testing.T) {
	c := newTestCache(map[Category]Profile{
		CategoryChunks: {TTL: time.Hour, MaxEntries: 2},
	})
	defer c.Close()

	// A frozen clock gives every entry the same access time, so the
	// tie must resolve to the earliest-inserted entry.
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set(CategoryChunks, "k1", 1)
	c.Set(CategoryChunks, "k2", 2)
	c.Set(CategoryChunks, "k3", 3)

	_, ok := c.Get(CategoryChunks, "k1")
	assert.False(t, ok)
	_, ok = c.Get(CategoryChunks, "k2")
	assert.True(t, ok)
}

func TestCache_InvalidateCascade(t *testing.T) {
	c := newTestCache(nil)
	defer c.Close()

	c.Set(CategoryChunks, "base", "b")
	c.Set(CategoryScores, "derived", "d", "base")
	c.Set(CategoryContext, "assembled", "a", "derived")
	c.Set(CategoryContext, "unrelated", "u")

	c.Invalidate(CategoryChunks, "base", true)

	_, ok := c.Get(CategoryChunks, "base")
	assert.False(t, ok)
	_, ok = c.Get(CategoryScores, "derived")
	assert.False(t, ok, "direct dependent should be removed")
	_, ok = c.Get(CategoryContext, "assembled")
	assert.False(t, ok, "transitive dependent should be removed")
	_, ok = c.Get(CategoryContext, "unrelated")
	assert.True(t, ok)
}

func TestCache_InvalidateWithoutCascade(t *testing.T) {
	c := newTestCache(nil)
	defer c.Close()

	c.Set(CategoryChunks, "base", "b")
	c.Set(CategoryScores, "derived", "d", "base")

	c.Invalidate(CategoryChunks, "base", false)

	_, ok := c.Get(CategoryChunks, "base")
	assert.False(t, ok)
	_, ok = c.Get(CategoryScores, "derived")
	assert.True(t, ok)
}

func TestCache_CascadeTerminatesOnCycle(t *testing.T) {
	c := newTestCache(nil)
	defer c.Close()

	// a depends on b, b depends on a.
	c.Set(CategoryChunks, "a", 1, "b")
	c.Set(CategoryChunks, "b", 2, "a")

	done := make(chan struct{})
	go func() {
		c.Invalidate(CategoryChunks, "a", true)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cascade invalidation did not terminate on a cyclic dependency graph")
	}

	_, ok := c.Get(CategoryChunks, "a")
	assert.False(t, ok)
	_, ok = c.Get(CategoryChunks, "b")
	assert.False(t, ok)
}

func TestCache_InvalidateCategoryAndClearAll(t *testing.T) {
	c := newTestCache(nil)
	defer c.Close()

	c.Set(CategoryChunks, "k1", 1)
	c.Set(CategoryScores, "k2", 2)

	c.InvalidateCategory(CategoryChunks)
	_, ok := c.Get(CategoryChunks, "k1")
	assert.False(t, ok)
	_, ok = c.Get(CategoryScores, "k2")
	assert.True(t, ok)

	c.ClearAll()
	_, ok = c.Get(CategoryScores, "k2")
	assert.False(t, ok)
}

func TestCache_GetOrCompute(t *testing.T) {
	c := newTestCache(nil)
	defer c.Close()

	calls := 0
	producer := func() (any, error) {
		calls++
		return "computed", nil
	}

	v, err := c.GetOrCompute(CategoryScores, "k", producer)
	require.NoError(t, err)
	assert.Equal(t, "computed", v)

	v, err = c.GetOrCompute(CategoryScores, "k", producer)
	require.NoError(t, err)
	assert.Equal(t, "computed", v)
	assert.Equal(t, 1, calls, "second call should be served from cache")
}

func TestCache_GetOrComputeFailureNotCached(t *testing.T) {
	c := newTestCache(nil)
	defer c.Close()

	boom := errors.New("boom")
	_, err := c.GetOrCompute(CategoryScores, "k", func() (any, error) {
		return nil, boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// The failure must not be cached: a later producer runs and wins.
	v, err := c.GetOrCompute(CategoryScores, "k", func() (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestCache_GetOrComputeSingleFlight(t *testing.T) {
	c := newTestCache(nil)
	defer c.Close()

	var calls int32
	release := make(chan struct{})
	producer := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "v", nil
	}

	const waiters = 8
	var wg sync.WaitGroup
	results := make([]any, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrCompute(CategoryScores, "hot", producer)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Give the goroutines time to pile onto the same key.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "expensive computation must run at most once per key")
	for _, v := range results {
		assert.Equal(t, "v", v)
	}
}

func TestCache_BackgroundSweep(t *testing.T) {
	c := New(Config{
		Profiles: map[Category]Profile{
			CategoryChunks: {TTL: time.Millisecond, MaxEntries: 10},
		},
		SweepInterval: 10 * time.Millisecond,
	}, zap.NewNop(), nil)
	defer c.Close()

	c.Set(CategoryChunks, "k1", 1)

	assert.Eventually(t, func() bool {
		return c.Statistics().Sizes[CategoryChunks] == 0
	}, time.Second, 5*time.Millisecond, "sweep should remove the expired entry without any read")
}

func TestCache_GetOrComputeCountsOneMissPerLookup(t *testing.T) {
	c := newTestCache(nil)
	defer c.Close()

	v, err := c.GetOrCompute(CategoryScores, "k", func() (any, error) { return "v", nil })
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	stats := c.Statistics()
	assert.Equal(t, uint64(1), stats.Misses, "the re-check inside the flight must not count again")
	assert.Equal(t, uint64(0), stats.Hits)

	v, err = c.GetOrCompute(CategoryScores, "k", func() (any, error) { return "ignored", nil })
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	stats = c.Statistics()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Hits)
}

func TestFingerprint(t *testing.T) {
	// String keys pass through untouched.
	assert.Equal(t, "plain-key", Fingerprint("plain-key"))

	type req struct {
		A string
		B int
	}
	f1 := Fingerprint(req{A: "x", B: 1})
	f2 := Fingerprint(req{A: "x", B: 1})
	f3 := Fingerprint(req{A: "y", B: 1})
	assert.Equal(t, f1, f2, "fingerprints must be stable")
	assert.NotEqual(t, f1, f3)
	assert.Len(t, f1, 32)
}
