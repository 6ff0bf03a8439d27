package types

// ProcessMetadata describes what optimization did to a single piece of
// content. CompressionRatio is optimized tokens over original tokens;
// 1.0 means the content was returned untouched.
type ProcessMetadata struct {
	OriginalTokens   int     `json:"original_tokens"`
	OptimizedTokens  int     `json:"optimized_tokens"`
	CompressionRatio float64 `json:"compression_ratio"`
	ChunkCount       int     `json:"chunk_count"`
	SelectedCount    int     `json:"selected_count"`
	CacheHit         bool    `json:"cache_hit"`
	Error            string  `json:"error,omitempty"`
}

// ProcessResult is the outcome of optimizing content for one task.
type ProcessResult struct {
	Text     string          `json:"text"`
	Chunks   []ScoredChunk   `json:"chunks,omitempty"`
	Metadata ProcessMetadata `json:"metadata"`
}

// ChainMetadata describes a multi-step optimization pass.
type ChainMetadata struct {
	Strategy    string  `json:"strategy"`
	ChunkCount  int     `json:"chunk_count"`
	StepCount   int     `json:"step_count"`
	TotalTokens int     `json:"total_tokens"`
	AvgReuse    float64 `json:"avg_reuse"`
	CacheHit    bool    `json:"cache_hit"`
	Error       string  `json:"error,omitempty"`
}

// ChainResult holds one assembled context blob per step plus the
// metadata of the routing pass that produced them.
type ChainResult struct {
	StepContexts map[string]string `json:"step_contexts"`
	Metadata     ChainMetadata     `json:"metadata"`
}
