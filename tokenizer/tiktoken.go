package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// modelEncodings maps model names to their tiktoken encoding.
var modelEncodings = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4o-mini":   "o200k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

// Tiktoken is an exact token counter for OpenAI-family models. The
// encoding is loaded lazily on first use; if loading fails the counter
// falls back to the character estimator and keeps working.
type Tiktoken struct {
	model    string
	encoding string
	logger   *zap.Logger

	once     sync.Once
	enc      *tiktoken.Tiktoken
	fallback *Estimator
}

// NewTiktoken creates a tiktoken-backed counter for model. Unknown
// models use the cl100k_base encoding.
func NewTiktoken(model string, logger *zap.Logger) *Tiktoken {
	encoding, ok := modelEncodings[model]
	if !ok {
		// Versioned model names resolve by their longest known prefix.
		best := ""
		for prefix, e := range modelEncodings {
			if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
				best, encoding, ok = prefix, e, true
			}
		}
	}
	if !ok {
		encoding = "cl100k_base"
	}
	return &Tiktoken{
		model:    model,
		encoding: encoding,
		logger:   logger,
		fallback: NewEstimator(),
	}
}

// CountTokens returns the exact token count when the encoding is
// available, otherwise the estimator's approximation.
func (t *Tiktoken) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.logger.Warn("tiktoken encoding unavailable, using estimator",
				zap.String("model", t.model),
				zap.String("encoding", t.encoding),
				zap.Error(err))
			return
		}
		t.enc = enc
	})
	if t.enc == nil {
		return t.fallback.CountTokens(text)
	}
	n := len(t.enc.Encode(text, nil, nil))
	if n < 1 {
		n = 1
	}
	return n
}
