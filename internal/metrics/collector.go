package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates the engine's prometheus metrics. All record
// methods are nil-safe so components can run without instrumentation.
type Collector struct {
	registry *prometheus.Registry

	// Cache metrics
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	cacheEvictions   *prometheus.CounterVec
	cacheExpirations *prometheus.CounterVec

	// Pipeline metrics
	stageDuration  *prometheus.HistogramVec
	chunksProduced prometheus.Histogram
	routingTotal   *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a collector backed by its own registry, so
// multiple instances can coexist in one process (and in tests).
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	c := &Collector{
		registry: registry,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.cacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"category"},
	)

	c.cacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"category"},
	)

	c.cacheEvictions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Total number of LRU evictions",
		},
		[]string{"category"},
	)

	c.cacheExpirations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_expirations_total",
			Help:      "Total number of TTL expirations",
		},
		[]string{"category"},
	)

	c.stageDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	c.chunksProduced = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunks_produced",
			Help:      "Number of chunks produced per chunking pass",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
		},
	)

	c.routingTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_plans_total",
			Help:      "Total number of routing plans by strategy",
		},
		[]string{"strategy"},
	)

	return c
}

// Registry returns the underlying registry for scraping.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordCacheHit records a hit in the given category.
func (c *Collector) RecordCacheHit(category string) {
	if c == nil {
		return
	}
	c.cacheHits.WithLabelValues(category).Inc()
}

// RecordCacheMiss records a miss in the given category.
func (c *Collector) RecordCacheMiss(category string) {
	if c == nil {
		return
	}
	c.cacheMisses.WithLabelValues(category).Inc()
}

// RecordCacheEviction records an LRU eviction in the given category.
func (c *Collector) RecordCacheEviction(category string) {
	if c == nil {
		return
	}
	c.cacheEvictions.WithLabelValues(category).Inc()
}

// RecordCacheExpiration records a TTL expiration in the given category.
func (c *Collector) RecordCacheExpiration(category string) {
	if c == nil {
		return
	}
	c.cacheExpirations.WithLabelValues(category).Inc()
}

// ObserveStage records the duration of one pipeline stage.
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	if c == nil {
		return
	}
	c.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveChunks records the chunk count of one chunking pass.
func (c *Collector) ObserveChunks(n int) {
	if c == nil {
		return
	}
	c.chunksProduced.Observe(float64(n))
}

// RecordRoutingPlan records a completed routing plan by strategy.
func (c *Collector) RecordRoutingPlan(strategy string) {
	if c == nil {
		return
	}
	c.routingTotal.WithLabelValues(strategy).Inc()
}
