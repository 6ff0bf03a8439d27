package contextmgr

import (
	"go.uber.org/zap"

	"github.com/itheroservices-hub/hybridmind-sub004/tokenizer"
)

type managerOptions struct {
	logger           *zap.Logger
	tokenizer        tokenizer.Tokenizer
	metricsNamespace string
}

// Option customizes a Manager at construction time.
type Option func(*managerOptions)

// WithLogger sets a custom zap logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *managerOptions) { o.logger = logger }
}

// WithTokenizer overrides the token counter used for chunking and
// budget accounting.
func WithTokenizer(tok tokenizer.Tokenizer) Option {
	return func(o *managerOptions) { o.tokenizer = tok }
}

// WithMetrics enables prometheus instrumentation under the given
// namespace. The registry is reachable via Manager.MetricsRegistry.
func WithMetrics(namespace string) Option {
	return func(o *managerOptions) { o.metricsNamespace = namespace }
}

// Overrides adjusts budgets and thresholds at runtime; nil fields keep
// their current value.
type Overrides struct {
	MaxTokens          *int
	MaxTokensPerStep   *int
	RelevanceThreshold *float64
	Separator          *string
	MaxChunkTokens     *int
	OverlapTokens      *int
	PreserveStructure  *bool
}
