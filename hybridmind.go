// Package hybridmind provides a top-level convenience entry point for
// the context optimization engine.
//
// Usage:
//
//	import hybridmind "github.com/itheroservices-hub/hybridmind-sub004"
//
//	m, err := hybridmind.New()
//	m, err := hybridmind.New(hybridmind.WithLogger(logger))
//
// This is a thin wrapper around [contextmgr.NewManager]; both produce
// identical results. Use this package when you prefer the shorter
// import path.
package hybridmind

import (
	"github.com/itheroservices-hub/hybridmind-sub004/config"
	"github.com/itheroservices-hub/hybridmind-sub004/contextmgr"
)

// Option configures the manager created by [New].
type Option = contextmgr.Option

// New creates a [contextmgr.Manager] with the default configuration.
func New(opts ...Option) (*contextmgr.Manager, error) {
	return contextmgr.NewManager(config.DefaultConfig(), opts...)
}

// NewFromConfig creates a manager from an explicit configuration.
func NewFromConfig(cfg *config.Config, opts ...Option) (*contextmgr.Manager, error) {
	return contextmgr.NewManager(cfg, opts...)
}

// Re-export manager options so callers never need to import contextmgr.

// WithLogger sets a custom zap logger.
var WithLogger = contextmgr.WithLogger

// WithTokenizer overrides the token counter.
var WithTokenizer = contextmgr.WithTokenizer

// WithMetrics enables prometheus instrumentation.
var WithMetrics = contextmgr.WithMetrics
