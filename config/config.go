// Package config defines the engine's configuration: token budgets,
// relevance thresholds, chunking defaults and cache category profiles.
// Configuration is loaded from YAML on top of defaults and validated
// before use.
package config

import (
	"fmt"
	"time"

	"github.com/itheroservices-hub/hybridmind-sub004/cache"
	"github.com/itheroservices-hub/hybridmind-sub004/chunking"
	"github.com/itheroservices-hub/hybridmind-sub004/scoring"
	"github.com/itheroservices-hub/hybridmind-sub004/types"
)

// Config is the complete engine configuration.
type Config struct {
	// Context drives single-task and chain processing.
	Context ContextConfig `yaml:"context"`

	// Chunking is the default chunking pass configuration.
	Chunking chunking.Options `yaml:"chunking"`

	// Cache configures category profiles and the expiry sweep.
	Cache cache.Config `yaml:"cache"`

	// Scoring overrides the built-in weight profiles per task type.
	// Task types absent from the map keep their defaults.
	Scoring map[types.TaskType]scoring.Weights `yaml:"scoring,omitempty"`

	// TokenizerModel selects a tiktoken encoding when set; empty uses
	// the character estimator.
	TokenizerModel string `yaml:"tokenizer_model"`
}

// ContextConfig holds the orchestration budgets and thresholds.
type ContextConfig struct {
	// MaxTokens is the default budget for single-task processing.
	MaxTokens int `yaml:"max_tokens"`

	// MaxTokensPerStep is the default per-step budget for chains.
	MaxTokensPerStep int `yaml:"max_tokens_per_step"`

	// RelevanceThreshold drops chunks scoring below it before
	// budget selection.
	RelevanceThreshold float64 `yaml:"relevance_threshold"`

	// Separator joins selected chunks in the assembled output.
	Separator string `yaml:"separator"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Context:  DefaultContextConfig(),
		Chunking: chunking.DefaultOptions(),
		Cache:    cache.DefaultConfig(),
	}
}

// DefaultContextConfig returns the default orchestration settings.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		MaxTokens:          8000,
		MaxTokensPerStep:   4000,
		RelevanceThreshold: 0.6,
		Separator:          "\n\n---\n\n",
	}
}

// Validate checks the configuration for values the engine cannot run
// with.
func (c *Config) Validate() error {
	if c.Context.MaxTokens <= 0 {
		return fmt.Errorf("context.max_tokens must be positive, got %d", c.Context.MaxTokens)
	}
	if c.Context.MaxTokensPerStep <= 0 {
		return fmt.Errorf("context.max_tokens_per_step must be positive, got %d", c.Context.MaxTokensPerStep)
	}
	if c.Context.RelevanceThreshold < 0 || c.Context.RelevanceThreshold > 1 {
		return fmt.Errorf("context.relevance_threshold must be in [0,1], got %v", c.Context.RelevanceThreshold)
	}
	if c.Chunking.MaxChunkTokens <= 0 {
		return fmt.Errorf("chunking.max_chunk_tokens must be positive, got %d", c.Chunking.MaxChunkTokens)
	}
	if c.Chunking.OverlapTokens < 0 {
		return fmt.Errorf("chunking.overlap_tokens must not be negative, got %d", c.Chunking.OverlapTokens)
	}
	if c.Chunking.OverlapTokens >= c.Chunking.MaxChunkTokens {
		return fmt.Errorf("chunking.overlap_tokens (%d) must be smaller than max_chunk_tokens (%d)",
			c.Chunking.OverlapTokens, c.Chunking.MaxChunkTokens)
	}
	if c.Cache.SweepInterval < 0 || c.Cache.SweepInterval > maxSweepInterval {
		return fmt.Errorf("cache.sweep_interval must be in [0, %v], got %v", maxSweepInterval, c.Cache.SweepInterval)
	}
	for taskType, w := range c.Scoring {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("scoring profile %s: %w", taskType, err)
		}
	}
	for category, profile := range c.Cache.Profiles {
		if profile.TTL <= 0 {
			return fmt.Errorf("cache profile %s: ttl must be positive, got %v", category, profile.TTL)
		}
		if profile.MaxEntries <= 0 {
			return fmt.Errorf("cache profile %s: max_entries must be positive, got %d", category, profile.MaxEntries)
		}
	}
	return nil
}

// sanity bound on sweep intervals to catch unit mistakes in yaml.
const maxSweepInterval = 24 * time.Hour
