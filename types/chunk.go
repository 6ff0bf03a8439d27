package types

import "time"

// ChunkKind tags the structural role a chunk played in its source content.
type ChunkKind string

const (
	// KindFunction is a free-standing function or top-level declaration.
	KindFunction ChunkKind = "function"
	// KindClass is a class, struct or interface declaration.
	KindClass ChunkKind = "class"
	// KindMethod is a method attached to a receiver or class.
	KindMethod ChunkKind = "method"
	// KindSection is a heading-delimited document section.
	KindSection ChunkKind = "section"
	// KindBlock is a fenced or brace-delimited block without a declaration.
	KindBlock ChunkKind = "block"
	// KindGeneral is content with no detected structure.
	KindGeneral ChunkKind = "general"
)

// ChunkMetadata carries auxiliary measurements taken at chunking time.
type ChunkMetadata struct {
	CharLength int       `json:"char_length"`
	LineCount  int       `json:"line_count"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
}

// Chunk is one bounded unit of split content. Positions are contiguous
// and monotonically increasing within a single chunking pass, and
// Tokens is at least 1 for non-empty text.
type Chunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Tokens   int           `json:"tokens"`
	Position int           `json:"position"`
	Kind     ChunkKind     `json:"kind"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ScoreBreakdown records the per-factor contributions behind a
// relevance score, before weighting.
type ScoreBreakdown struct {
	Keyword   float64 `json:"keyword"`
	Position  float64 `json:"position"`
	Structure float64 `json:"structure"`
	Recency   float64 `json:"recency"`
}

// ScoredChunk is a Chunk with a relevance score in [0,1]. Breakdown is
// nil when the scorer degraded to neutral scoring.
type ScoredChunk struct {
	Chunk
	Score     float64         `json:"score"`
	Breakdown *ScoreBreakdown `json:"breakdown,omitempty"`
}
