package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/itheroservices-hub/hybridmind-sub004/types"
)

const (
	// neutralScore is assigned to every chunk when scoring degrades.
	neutralScore = 0.5
	// identifierBonus is the flat raw-score bonus per identifier-like
	// task token found verbatim in a chunk.
	identifierBonus = 2.0
	// keywordScale maps the normalized raw keyword score into [0,1].
	keywordScale = 0.5
	// recencyHorizon is the age at which the recency factor reaches 0.
	recencyHorizon = 24 * time.Hour
)

var (
	chunkCommentPattern = regexp.MustCompile(`(?m)(^\s*//|^\s*#\s|/\*|^\s*--\s)`)
	exportPattern       = regexp.MustCompile(`(?m)(\bexport\s|\bpublic\s|^func\s+[A-Z]|^type\s+[A-Z])`)
	errorKeywordPattern = regexp.MustCompile(`(?i)\b(error|err|exception|panic|throw|catch|fail|failed)\b`)
	controlFlowPattern  = regexp.MustCompile(`\b(if|for|while|switch|case|return)\b`)
)

// Scorer assigns relevance scores using task-type weight profiles.
// Profiles can be replaced at runtime; reads and writes are guarded by
// a single RWMutex.
type Scorer struct {
	mu       sync.RWMutex
	profiles map[types.TaskType]Weights
	logger   *zap.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewScorer creates a scorer with the built-in weight profiles.
func NewScorer(logger *zap.Logger) *Scorer {
	return &Scorer{
		profiles: DefaultProfiles(),
		logger:   logger.With(zap.String("component", "scorer")),
		now:      time.Now,
	}
}

// Weights returns the profile for taskType, falling back to the
// general profile for unrecognized types.
func (s *Scorer) Weights(taskType types.TaskType) Weights {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if w, ok := s.profiles[taskType]; ok {
		return w
	}
	return s.profiles[types.TaskGeneral]
}

// UpdateWeights replaces the profile for taskType.
func (s *Scorer) UpdateWeights(taskType types.TaskType, w Weights) error {
	if err := w.Validate(); err != nil {
		return fmt.Errorf("update weights for %s: %w", taskType, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[taskType] = w
	s.logger.Info("weight profile updated", zap.String("task_type", string(taskType)))
	return nil
}

// ScoreChunks scores every chunk against the task description. The
// result preserves chunk order. Any internal failure degrades to a
// neutral score of 0.5 for all chunks instead of surfacing an error.
func (s *Scorer) ScoreChunks(chunks []types.Chunk, task string, taskType types.TaskType) (scored []types.ScoredChunk) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("scoring failed, returning neutral scores",
				zap.Any("panic", r),
				zap.String("task_type", string(taskType)))
			scored = neutralScores(chunks)
		}
	}()

	if len(chunks) == 0 {
		return nil
	}

	weights := s.Weights(taskType)
	freq, identifiers := taskKeywords(task)

	scored = make([]types.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		b := types.ScoreBreakdown{
			Keyword:   keywordFactor(chunk.Text, freq, identifiers),
			Position:  positionFactor(chunk.Position, len(chunks)),
			Structure: structureFactor(chunk, taskType),
			Recency:   s.recencyFactor(chunk.Metadata.Timestamp),
		}
		total := b.Keyword*weights.Keyword +
			b.Position*weights.Position +
			b.Structure*weights.Structure +
			b.Recency*weights.Recency
		breakdown := b
		scored = append(scored, types.ScoredChunk{
			Chunk:     chunk,
			Score:     clamp01(total),
			Breakdown: &breakdown,
		})
	}
	return scored
}

// keywordFactor measures vocabulary overlap between the chunk and the
// task: whole-word matches weighted by log(1 + task frequency), a flat
// bonus per identifier token found verbatim, normalized by the square
// root of the chunk's word count.
func keywordFactor(text string, freq map[string]int, identifiers []string) float64 {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 || (len(freq) == 0 && len(identifiers) == 0) {
		return 0
	}

	raw := 0.0
	for _, w := range words {
		if n, ok := freq[w]; ok {
			raw += math.Log(1 + float64(n))
		}
	}
	for _, id := range identifiers {
		if strings.Contains(text, id) {
			raw += identifierBonus
		}
	}

	return clamp01(raw / math.Sqrt(float64(len(words))) * keywordScale)
}

// positionFactor favors chunks at the very start and end of the
// content: 4·(p−0.5)² over the normalized position p, which peaks at
// 1.0 for the first and last chunk and bottoms out at the midpoint. A
// single-chunk sequence always scores 1.0.
func positionFactor(position, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	p := float64(position) / float64(total-1)
	return clamp01(4 * (p - 0.5) * (p - 0.5))
}

// structureFactor rewards structurally significant chunks, with extra
// weight on error handling for debug tasks and on control flow for
// refactor tasks.
func structureFactor(chunk types.Chunk, taskType types.TaskType) float64 {
	score := 0.5
	switch chunk.Kind {
	case types.KindFunction, types.KindClass:
		score += 0.3
	case types.KindMethod:
		score += 0.2
	}
	if chunkCommentPattern.MatchString(chunk.Text) {
		score += 0.1
	}
	if exportPattern.MatchString(chunk.Text) {
		score += 0.1
	}
	switch taskType {
	case types.TaskDebug:
		if errorKeywordPattern.MatchString(chunk.Text) {
			score += 0.2
		}
	case types.TaskRefactor:
		if controlFlowPattern.MatchString(chunk.Text) {
			score += 0.1
		}
	}
	return clamp01(score)
}

// recencyFactor decays linearly from 1 to 0 over 24 hours. Chunks
// without a timestamp score a neutral 0.5.
func (s *Scorer) recencyFactor(ts time.Time) float64 {
	if ts.IsZero() {
		return neutralScore
	}
	age := s.now().Sub(ts)
	if age < 0 {
		age = 0
	}
	return clamp01(1 - float64(age)/float64(recencyHorizon))
}

func neutralScores(chunks []types.Chunk) []types.ScoredChunk {
	scored := make([]types.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		scored = append(scored, types.ScoredChunk{Chunk: chunk, Score: neutralScore})
	}
	return scored
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
