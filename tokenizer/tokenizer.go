package tokenizer

import "math"

// Tokenizer counts tokens in text. Counting never fails; imprecise
// counters return an estimate instead of an error.
type Tokenizer interface {
	CountTokens(text string) int
}

// charsPerToken is the fixed approximation used by the estimator:
// roughly four characters of prose or code per token.
const charsPerToken = 4.0

// Estimator is a character-count token estimator. It is deterministic,
// allocation-free and intentionally crude: length divided by four,
// rounded up, never less than 1 for non-empty text.
type Estimator struct{}

// NewEstimator creates the default estimator.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// CountTokens returns the estimated token count for text.
func (e *Estimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	n := int(math.Ceil(float64(len(text)) / charsPerToken))
	if n < 1 {
		n = 1
	}
	return n
}
