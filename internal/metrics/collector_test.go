package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_RecordsAndGathers(t *testing.T) {
	c := NewCollector("hybridmind_test", zap.NewNop())

	c.RecordCacheHit("chunks")
	c.RecordCacheMiss("chunks")
	c.RecordCacheEviction("scores")
	c.RecordCacheExpiration("context")
	c.ObserveStage("chunking", 5*time.Millisecond)
	c.ObserveChunks(7)
	c.RecordRoutingPlan("sequential")

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordCacheHit("chunks")
		c.RecordCacheMiss("chunks")
		c.RecordCacheEviction("chunks")
		c.RecordCacheExpiration("chunks")
		c.ObserveStage("routing", time.Second)
		c.ObserveChunks(1)
		c.RecordRoutingPlan("adaptive")
	})
	assert.Nil(t, c.Registry())
}

func TestCollector_IndependentRegistries(t *testing.T) {
	// Two collectors with the same namespace must not collide, each
	// owns its registry.
	a := NewCollector("hybridmind_test", zap.NewNop())
	b := NewCollector("hybridmind_test", zap.NewNop())
	assert.NotSame(t, a.Registry(), b.Registry())
}
