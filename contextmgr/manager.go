package contextmgr

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/itheroservices-hub/hybridmind-sub004/cache"
	"github.com/itheroservices-hub/hybridmind-sub004/chunking"
	"github.com/itheroservices-hub/hybridmind-sub004/config"
	"github.com/itheroservices-hub/hybridmind-sub004/internal/metrics"
	"github.com/itheroservices-hub/hybridmind-sub004/routing"
	"github.com/itheroservices-hub/hybridmind-sub004/scoring"
	"github.com/itheroservices-hub/hybridmind-sub004/tokenizer"
	"github.com/itheroservices-hub/hybridmind-sub004/types"
)

// Statistics is a snapshot of manager activity since creation.
type Statistics struct {
	TasksProcessed  uint64      `json:"tasks_processed"`
	ChainsProcessed uint64      `json:"chains_processed"`
	Degraded        uint64      `json:"degraded"`
	Cache           cache.Stats `json:"cache"`
}

// Manager orchestrates the optimization pipeline. It is safe for
// concurrent use.
type Manager struct {
	mu       sync.RWMutex
	context  config.ContextConfig
	chunking chunking.Options

	cache     *cache.Cache
	chunker   *chunking.Chunker
	scorer    *scoring.Scorer
	router    *routing.Router
	tokenizer tokenizer.Tokenizer
	logger    *zap.Logger
	metrics   *metrics.Collector

	tasksProcessed  uint64
	chainsProcessed uint64
	degraded        uint64
}

// NewManager creates a manager from cfg. A nil cfg uses the defaults.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("context manager config: %w", err)
	}

	options := managerOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&options)
	}
	logger := options.logger.With(zap.String("component", "context_manager"))

	var collector *metrics.Collector
	if options.metricsNamespace != "" {
		collector = metrics.NewCollector(options.metricsNamespace, options.logger)
	}

	tok := options.tokenizer
	if tok == nil {
		if cfg.TokenizerModel != "" {
			tok = tokenizer.NewTiktoken(cfg.TokenizerModel, options.logger)
		} else {
			tok = tokenizer.NewEstimator()
		}
	}

	scorer := scoring.NewScorer(options.logger)
	for taskType, w := range cfg.Scoring {
		if err := scorer.UpdateWeights(taskType, w); err != nil {
			return nil, fmt.Errorf("context manager config: %w", err)
		}
	}
	m := &Manager{
		context:   cfg.Context,
		chunking:  cfg.Chunking,
		cache:     cache.New(cfg.Cache, options.logger, collector),
		chunker:   chunking.NewChunker(tok, options.logger, collector),
		scorer:    scorer,
		router:    routing.NewRouter(scorer, options.logger, collector),
		tokenizer: tok,
		logger:    logger,
		metrics:   collector,
	}
	logger.Info("context manager initialized",
		zap.Int("max_tokens", cfg.Context.MaxTokens),
		zap.Int("max_tokens_per_step", cfg.Context.MaxTokensPerStep),
		zap.Float64("relevance_threshold", cfg.Context.RelevanceThreshold))
	return m, nil
}

// ProcessContext optimizes content for a single task under maxTokens.
// A non-positive maxTokens uses the configured default. Failures never
// propagate: the worst outcome is the raw content with a compression
// ratio of 1.0 and an error note in the metadata.
func (m *Manager) ProcessContext(content, task string, taskType types.TaskType, maxTokens int) (result *types.ProcessResult) {
	requestID := uuid.NewString()
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error("context processing panicked, returning raw content",
				zap.String("request_id", requestID),
				zap.Any("panic", rec))
			result = m.rawResult(content, fmt.Sprintf("processing failed: %v", rec))
			m.countDegraded()
		}
		m.metrics.ObserveStage("process_context", time.Since(start))
	}()
	m.countTask()

	ctxCfg, chunkOpts := m.snapshot()
	if maxTokens <= 0 {
		maxTokens = ctxCfg.MaxTokens
	}

	if strings.TrimSpace(content) == "" {
		return &types.ProcessResult{Metadata: types.ProcessMetadata{CompressionRatio: 1.0}}
	}
	originalTokens := m.tokenizer.CountTokens(content)

	fingerprint := cache.Fingerprint(struct {
		Content   string         `json:"content"`
		Task      string         `json:"task"`
		TaskType  types.TaskType `json:"task_type"`
		MaxTokens int            `json:"max_tokens"`
	}{content, task, taskType, maxTokens})

	if v, ok := m.cache.Get(cache.CategoryContext, fingerprint); ok {
		if cached, ok := v.(*types.ProcessResult); ok {
			hit := cloneProcessResult(cached)
			hit.Metadata.CacheHit = true
			return hit
		}
	}

	chunks, chunksKey := m.chunkCached(content, chunkOpts)
	scored := m.scorer.ScoreChunks(chunks, task, taskType)

	relevant := make([]types.ScoredChunk, 0, len(scored))
	for _, sc := range scored {
		if sc.Score >= ctxCfg.RelevanceThreshold {
			relevant = append(relevant, sc)
		}
	}
	// Nothing above the threshold: optimize best-effort over the full
	// set rather than returning an empty context.
	if len(relevant) == 0 {
		relevant = scored
	}

	selected, usedTokens := routing.SelectWithinBudget(relevant, maxTokens)
	text := assemble(selected, ctxCfg.Separator)

	result = &types.ProcessResult{
		Text:   text,
		Chunks: selected,
		Metadata: types.ProcessMetadata{
			OriginalTokens:   originalTokens,
			OptimizedTokens:  usedTokens,
			CompressionRatio: ratio(usedTokens, originalTokens),
			ChunkCount:       len(chunks),
			SelectedCount:    len(selected),
		},
	}
	// Store a copy so callers can mutate the returned result without
	// corrupting the cached entry.
	m.cache.Set(cache.CategoryContext, fingerprint, cloneProcessResult(result), chunksKey)

	m.logger.Debug("context processed",
		zap.String("request_id", requestID),
		zap.Int("chunks", len(chunks)),
		zap.Int("selected", len(selected)),
		zap.Int("tokens", usedTokens),
		zap.Int("budget", maxTokens))
	return result
}

// ProcessChainContext optimizes content for a chain of steps, chunking
// once and delegating the per-step assignment to the router.
// globalContext, when set, is appended to every step's task text
// before scoring. Failures degrade to giving every step the raw
// content.
func (m *Manager) ProcessChainContext(content string, steps []types.Step, globalContext string) (result *types.ChainResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error("chain processing panicked, returning raw content",
				zap.Any("panic", rec))
			result = m.rawChainResult(content, steps, fmt.Sprintf("chain processing failed: %v", rec))
			m.countDegraded()
		}
		m.metrics.ObserveStage("process_chain", time.Since(start))
	}()
	m.countChain()

	ctxCfg, chunkOpts := m.snapshot()
	if len(steps) == 0 {
		return &types.ChainResult{StepContexts: map[string]string{}}
	}

	fingerprint := cache.Fingerprint(struct {
		Content string       `json:"content"`
		Steps   []types.Step `json:"steps"`
		Global  string       `json:"global"`
		Budget  int          `json:"budget"`
	}{content, steps, globalContext, ctxCfg.MaxTokensPerStep})

	if v, ok := m.cache.Get(cache.CategoryRouting, fingerprint); ok {
		if cached, ok := v.(*types.ChainResult); ok {
			hit := cloneChainResult(cached)
			hit.Metadata.CacheHit = true
			return hit
		}
	}

	chunks, chunksKey := m.chunkCached(content, chunkOpts)

	scoringSteps := steps
	if globalContext != "" {
		scoringSteps = make([]types.Step, len(steps))
		copy(scoringSteps, steps)
		for i := range scoringSteps {
			scoringSteps[i].Description = strings.TrimSpace(scoringSteps[i].Description + " " + globalContext)
		}
	}

	plan := m.router.CreatePlan(chunks, scoringSteps, ctxCfg.MaxTokensPerStep, routing.StrategyAuto)

	stepContexts := make(map[string]string, len(steps))
	for _, step := range steps {
		sp := plan.Steps[step.ID]
		if sp == nil {
			stepContexts[step.ID] = ""
			continue
		}
		stepContexts[step.ID] = assemble(sp.Chunks, ctxCfg.Separator)
	}

	result = &types.ChainResult{
		StepContexts: stepContexts,
		Metadata: types.ChainMetadata{
			Strategy:    string(plan.Strategy),
			ChunkCount:  len(chunks),
			StepCount:   len(steps),
			TotalTokens: plan.TotalTokens(),
			AvgReuse:    plan.AvgReuse(),
		},
	}
	m.cache.Set(cache.CategoryRouting, fingerprint, cloneChainResult(result), chunksKey)
	return result
}

// Configure applies runtime overrides to budgets and thresholds.
func (m *Manager) Configure(o Overrides) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.context
	nextChunking := m.chunking
	if o.MaxTokens != nil {
		next.MaxTokens = *o.MaxTokens
	}
	if o.MaxTokensPerStep != nil {
		next.MaxTokensPerStep = *o.MaxTokensPerStep
	}
	if o.RelevanceThreshold != nil {
		next.RelevanceThreshold = *o.RelevanceThreshold
	}
	if o.Separator != nil {
		next.Separator = *o.Separator
	}
	if o.MaxChunkTokens != nil {
		nextChunking.MaxChunkTokens = *o.MaxChunkTokens
	}
	if o.OverlapTokens != nil {
		nextChunking.OverlapTokens = *o.OverlapTokens
	}
	if o.PreserveStructure != nil {
		nextChunking.PreserveStructure = *o.PreserveStructure
	}

	check := config.Config{Context: next, Chunking: nextChunking, Cache: cache.DefaultConfig()}
	if err := check.Validate(); err != nil {
		return fmt.Errorf("configure: %w", err)
	}
	m.context = next
	m.chunking = nextChunking
	m.logger.Info("configuration updated",
		zap.Int("max_tokens", next.MaxTokens),
		zap.Float64("relevance_threshold", next.RelevanceThreshold))
	return nil
}

// UpdateWeights replaces the scoring weight profile for a task type.
func (m *Manager) UpdateWeights(taskType types.TaskType, w scoring.Weights) error {
	return m.scorer.UpdateWeights(taskType, w)
}

// ClearCache drops every cached result.
func (m *Manager) ClearCache() {
	m.cache.ClearAll()
	m.logger.Info("cache cleared")
}

// GetStatistics returns a snapshot of processing and cache counters.
func (m *Manager) GetStatistics() Statistics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Statistics{
		TasksProcessed:  m.tasksProcessed,
		ChainsProcessed: m.chainsProcessed,
		Degraded:        m.degraded,
		Cache:           m.cache.Statistics(),
	}
}

// MetricsRegistry returns the prometheus registry when metrics are
// enabled, nil otherwise.
func (m *Manager) MetricsRegistry() *prometheus.Registry {
	return m.metrics.Registry()
}

// Close stops background work. The manager remains usable; only the
// cache sweep is shut down.
func (m *Manager) Close() {
	m.cache.Close()
}

// ---- internals ----

// chunkCached memoizes the chunking pass per (content, options).
func (m *Manager) chunkCached(content string, opts chunking.Options) ([]types.Chunk, string) {
	key := cache.Fingerprint(struct {
		Content string           `json:"content"`
		Options chunking.Options `json:"options"`
	}{content, opts})

	v, err := m.cache.GetOrCompute(cache.CategoryChunks, key, func() (any, error) {
		return m.chunker.Chunk(content, opts), nil
	})
	if err == nil {
		if chunks, ok := v.([]types.Chunk); ok {
			return chunks, key
		}
	}
	return m.chunker.Chunk(content, opts), key
}

// assemble re-sorts selected chunks into original position order and
// joins them with the configured separator, so the output reads in
// source order regardless of score order.
func assemble(selected []types.ScoredChunk, separator string) string {
	ordered := append([]types.ScoredChunk(nil), selected...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})
	parts := make([]string, 0, len(ordered))
	for _, sc := range ordered {
		parts = append(parts, sc.Text)
	}
	return strings.Join(parts, separator)
}

// cloneProcessResult deep-copies a result so cached entries and caller
// copies never share chunk storage.
func cloneProcessResult(r *types.ProcessResult) *types.ProcessResult {
	out := *r
	if r.Chunks != nil {
		out.Chunks = append([]types.ScoredChunk(nil), r.Chunks...)
		for i, sc := range out.Chunks {
			if sc.Breakdown != nil {
				b := *sc.Breakdown
				out.Chunks[i].Breakdown = &b
			}
		}
	}
	return &out
}

// cloneChainResult deep-copies a result so cached entries and caller
// copies never share the step context map.
func cloneChainResult(r *types.ChainResult) *types.ChainResult {
	out := *r
	if r.StepContexts != nil {
		out.StepContexts = make(map[string]string, len(r.StepContexts))
		for id, text := range r.StepContexts {
			out.StepContexts[id] = text
		}
	}
	return &out
}

func (m *Manager) rawResult(content, errNote string) *types.ProcessResult {
	tokens := safeCount(m.tokenizer, content)
	return &types.ProcessResult{
		Text: content,
		Metadata: types.ProcessMetadata{
			OriginalTokens:   tokens,
			OptimizedTokens:  tokens,
			CompressionRatio: 1.0,
			Error:            errNote,
		},
	}
}

func (m *Manager) rawChainResult(content string, steps []types.Step, errNote string) *types.ChainResult {
	stepContexts := make(map[string]string, len(steps))
	for _, step := range steps {
		stepContexts[step.ID] = content
	}
	return &types.ChainResult{
		StepContexts: stepContexts,
		Metadata: types.ChainMetadata{
			StepCount: len(steps),
			Error:     errNote,
		},
	}
}

func (m *Manager) snapshot() (config.ContextConfig, chunking.Options) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.context, m.chunking
}

func (m *Manager) countTask() {
	m.mu.Lock()
	m.tasksProcessed++
	m.mu.Unlock()
}

func (m *Manager) countChain() {
	m.mu.Lock()
	m.chainsProcessed++
	m.mu.Unlock()
}

func (m *Manager) countDegraded() {
	m.mu.Lock()
	m.degraded++
	m.mu.Unlock()
}

// safeCount tolerates a broken tokenizer; the degraded path must never
// panic a second time.
func safeCount(tok tokenizer.Tokenizer, content string) (n int) {
	defer func() {
		if recover() != nil {
			n = len(content) / 4
		}
	}()
	return tok.CountTokens(content)
}

func ratio(optimized, original int) float64 {
	if original <= 0 {
		return 1.0
	}
	return float64(optimized) / float64(original)
}
