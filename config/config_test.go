package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itheroservices-hub/hybridmind-sub004/cache"
	"github.com/itheroservices-hub/hybridmind-sub004/scoring"
	"github.com/itheroservices-hub/hybridmind-sub004/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidate(t *testing.T) {
	mutate := func(f func(*Config)) *Config {
		cfg := DefaultConfig()
		f(cfg)
		return cfg
	}

	tests := []struct {
		name string
		cfg  *Config
	}{
		{"zero max tokens", mutate(func(c *Config) { c.Context.MaxTokens = 0 })},
		{"zero step budget", mutate(func(c *Config) { c.Context.MaxTokensPerStep = 0 })},
		{"threshold above one", mutate(func(c *Config) { c.Context.RelevanceThreshold = 1.5 })},
		{"negative threshold", mutate(func(c *Config) { c.Context.RelevanceThreshold = -0.1 })},
		{"zero chunk size", mutate(func(c *Config) { c.Chunking.MaxChunkTokens = 0 })},
		{"overlap at chunk size", mutate(func(c *Config) {
			c.Chunking.MaxChunkTokens = 100
			c.Chunking.OverlapTokens = 100
		})},
		{"absurd sweep interval", mutate(func(c *Config) { c.Cache.SweepInterval = 48 * time.Hour })},
		{"zero ttl profile", mutate(func(c *Config) {
			c.Cache.Profiles[cache.CategoryChunks] = cache.Profile{TTL: 0, MaxEntries: 10}
		})},
		{"negative scoring weight", mutate(func(c *Config) {
			c.Scoring = map[types.TaskType]scoring.Weights{
				types.TaskDebug: {Keyword: -1},
			}
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
context:
  max_tokens: 12000
  relevance_threshold: 0.4
chunking:
  max_chunk_tokens: 256
scoring:
  debug:
    keyword: 0.7
    position: 0.1
    structure: 0.1
    recency: 0.1
cache:
  sweep_interval: 1m
  profiles:
    chunks:
      ttl: 45m
      max_entries: 50
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12000, cfg.Context.MaxTokens)
	assert.Equal(t, 0.4, cfg.Context.RelevanceThreshold)
	assert.Equal(t, 256, cfg.Chunking.MaxChunkTokens)
	assert.Equal(t, time.Minute, cfg.Cache.SweepInterval)
	assert.Equal(t, cache.Profile{TTL: 45 * time.Minute, MaxEntries: 50},
		cfg.Cache.Profiles[cache.CategoryChunks])
	assert.Equal(t, scoring.Weights{Keyword: 0.7, Position: 0.1, Structure: 0.1, Recency: 0.1},
		cfg.Scoring[types.TaskDebug])

	// Unset fields keep their defaults.
	assert.Equal(t, 4000, cfg.Context.MaxTokensPerStep)
	assert.Equal(t, DefaultContextConfig().Separator, cfg.Context.Separator)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("context: [not a map"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("context:\n  max_tokens: -5\n"), 0o644))
	_, err = Load(invalid)
	assert.Error(t, err)
}
