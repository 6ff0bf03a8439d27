package routing

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/itheroservices-hub/hybridmind-sub004/internal/metrics"
	"github.com/itheroservices-hub/hybridmind-sub004/scoring"
	"github.com/itheroservices-hub/hybridmind-sub004/types"
)

const (
	// budgetFillCutoff stops greedy selection once this share of the
	// budget is used, avoiding near-miss overflow from the next
	// candidate.
	budgetFillCutoff = 0.95
	// sharedBaseShare is the fraction of the per-step budget filled by
	// the shared pool under the parallel strategy.
	sharedBaseShare = 0.60
	// childBudgetShare is the budget fraction given to non-root steps
	// under the hierarchical strategy.
	childBudgetShare = 0.70
	// refactorPoolThreshold filters the adaptive refactor pool.
	refactorPoolThreshold = 0.70
	// generatePoolThreshold filters the adaptive generate pool.
	generatePoolThreshold = 0.50
	// DefaultMaxTokensPerStep is used when the caller passes no budget.
	DefaultMaxTokensPerStep = 4000
)

// Router produces per-step chunk assignments.
type Router struct {
	scorer  *scoring.Scorer
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewRouter creates a router. collector may be nil.
func NewRouter(scorer *scoring.Scorer, logger *zap.Logger, collector *metrics.Collector) *Router {
	return &Router{
		scorer:  scorer,
		logger:  logger.With(zap.String("component", "router")),
		metrics: collector,
	}
}

// CreatePlan assigns chunks to steps under maxTokensPerStep. With
// StrategyAuto the strategy is chosen from the steps' dependency
// structure. A failing strategy falls back to sequential; the returned
// plan records the strategy that actually ran.
func (r *Router) CreatePlan(chunks []types.Chunk, steps []types.Step, maxTokensPerStep int, strategy Strategy) *Plan {
	if maxTokensPerStep <= 0 {
		maxTokensPerStep = DefaultMaxTokensPerStep
	}

	resolved := strategy
	if resolved == StrategyAuto || resolved == "" {
		resolved = selectStrategy(steps)
	}
	switch resolved {
	case StrategySequential, StrategyParallel, StrategyHierarchical, StrategyAdaptive:
	default:
		// Unknown strategy names run, and are recorded, as sequential.
		resolved = StrategySequential
	}

	start := time.Now()
	plan, ok := r.tryStrategy(resolved, chunks, steps, maxTokensPerStep)
	if !ok {
		r.logger.Warn("strategy failed, falling back to sequential",
			zap.String("strategy", string(resolved)))
		resolved = StrategySequential
		plan = r.sequential(chunks, steps, maxTokensPerStep)
	}
	plan.Strategy = resolved

	computeReuse(plan)
	r.metrics.RecordRoutingPlan(string(resolved))
	r.metrics.ObserveStage("routing", time.Since(start))
	r.logger.Debug("routing plan created",
		zap.String("strategy", string(resolved)),
		zap.Int("steps", len(steps)),
		zap.Int("chunks", len(chunks)),
		zap.Int("total_tokens", plan.TotalTokens()))
	return plan
}

func (r *Router) tryStrategy(strategy Strategy, chunks []types.Chunk, steps []types.Step, budget int) (plan *Plan, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("routing strategy panicked",
				zap.String("strategy", string(strategy)),
				zap.Any("panic", rec))
			plan, ok = nil, false
		}
	}()

	switch strategy {
	case StrategySequential:
		return r.sequential(chunks, steps, budget), true
	case StrategyParallel:
		return r.parallel(chunks, steps, budget), true
	case StrategyHierarchical:
		return r.hierarchical(chunks, steps, budget), true
	case StrategyAdaptive:
		return r.adaptive(chunks, steps, budget), true
	default:
		return r.sequential(chunks, steps, budget), true
	}
}

// selectStrategy picks a strategy from the dependency structure:
// several independent steps run parallel, fan-in dependencies go
// hierarchical, a strict linear chain goes sequential, anything else
// adaptive.
func selectStrategy(steps []types.Step) Strategy {
	if allIndependent(steps) && len(steps) > 2 {
		return StrategyParallel
	}
	for _, s := range steps {
		if len(s.Dependencies) > 1 {
			return StrategyHierarchical
		}
	}
	if isLinearChain(steps) {
		return StrategySequential
	}
	return StrategyAdaptive
}

func allIndependent(steps []types.Step) bool {
	for _, s := range steps {
		if len(s.Dependencies) > 0 {
			return false
		}
	}
	return true
}

// isLinearChain reports whether steps form a single path: one root,
// every other step depending on exactly one step, and no step being
// depended on twice.
func isLinearChain(steps []types.Step) bool {
	if len(steps) == 0 {
		return false
	}
	roots := 0
	dependedOn := make(map[string]int)
	for _, s := range steps {
		switch len(s.Dependencies) {
		case 0:
			roots++
		case 1:
			dependedOn[s.Dependencies[0]]++
		default:
			return false
		}
	}
	if roots != 1 {
		return false
	}
	for _, n := range dependedOn {
		if n > 1 {
			return false
		}
	}
	return true
}

// ---- strategies ----

func (r *Router) sequential(chunks []types.Chunk, steps []types.Step, budget int) *Plan {
	plan := newPlan(steps)
	for _, step := range steps {
		scored := r.scorer.ScoreChunks(chunks, step.TaskText(), classifyStep(step))
		selected, used := SelectWithinBudget(scored, budget)
		plan.Steps[step.ID] = &StepPlan{
			StepID:     step.ID,
			Chunks:     selected,
			TokenCount: used,
			Budget:     budget,
		}
	}
	return plan
}

// parallel scores one pool against the concatenated task texts, fills
// 60% of the budget with a shared base every step receives, then tops
// each step up from its own scoring pass.
func (r *Router) parallel(chunks []types.Chunk, steps []types.Step, budget int) *Plan {
	plan := newPlan(steps)

	var tasks []string
	for _, step := range steps {
		tasks = append(tasks, step.TaskText())
	}
	pool := r.scorer.ScoreChunks(chunks, strings.Join(tasks, " "), types.TaskGeneral)

	sharedBudget := int(float64(budget) * sharedBaseShare)
	shared, sharedTokens := SelectWithinBudget(pool, sharedBudget)
	sharedIDs := make(map[string]bool, len(shared))
	for _, chunk := range shared {
		sharedIDs[chunk.ID] = true
	}

	for _, step := range steps {
		assigned := append([]types.ScoredChunk(nil), shared...)
		used := sharedTokens

		scored := r.scorer.ScoreChunks(chunks, step.TaskText(), classifyStep(step))
		sortByScore(scored)
		limit := int(float64(budget) * budgetFillCutoff)
		for _, sc := range scored {
			if used >= limit {
				break
			}
			if sharedIDs[sc.ID] || used+sc.Tokens > budget {
				continue
			}
			assigned = append(assigned, sc)
			used += sc.Tokens
		}

		plan.Steps[step.ID] = &StepPlan{
			StepID:     step.ID,
			Chunks:     assigned,
			TokenCount: used,
			Budget:     budget,
		}
	}
	return plan
}

// hierarchical budgets steps by dependency depth: roots receive the
// full budget, deeper steps 70% of it. Steps at the same depth are
// recorded as siblings.
func (r *Router) hierarchical(chunks []types.Chunk, steps []types.Step, budget int) *Plan {
	plan := newPlan(steps)
	depths := dependencyDepths(steps)

	byDepth := make(map[int][]string)
	for _, step := range steps {
		byDepth[depths[step.ID]] = append(byDepth[depths[step.ID]], step.ID)
	}

	for _, step := range steps {
		depth := depths[step.ID]
		stepBudget := budget
		if depth > 0 {
			stepBudget = int(float64(budget) * childBudgetShare)
		}

		scored := r.scorer.ScoreChunks(chunks, step.TaskText(), classifyStep(step))
		selected, used := SelectWithinBudget(scored, stepBudget)

		var siblings []string
		for _, other := range byDepth[depth] {
			if other != step.ID {
				siblings = append(siblings, other)
			}
		}
		sort.Strings(siblings)

		plan.Steps[step.ID] = &StepPlan{
			StepID:     step.ID,
			Chunks:     selected,
			TokenCount: used,
			Budget:     stepBudget,
			Depth:      depth,
			Siblings:   siblings,
		}
	}
	return plan
}

// adaptive classifies each step by task keywords, draws from a
// category-filtered chunk pool and scales the budget by the step's
// declared complexity.
func (r *Router) adaptive(chunks []types.Chunk, steps []types.Step, budget int) *Plan {
	plan := newPlan(steps)
	for _, step := range steps {
		category := classifyStep(step)
		scored := r.scorer.ScoreChunks(chunks, step.TaskText(), category)

		pool := scored
		switch category {
		case types.TaskRefactor:
			pool = filterByScore(scored, refactorPoolThreshold)
		case types.TaskGenerate:
			pool = filterByScore(scored, generatePoolThreshold)
		}

		stepBudget := int(float64(budget) * step.Complexity.BudgetMultiplier())
		selected, used := SelectWithinBudget(pool, stepBudget)
		plan.Steps[step.ID] = &StepPlan{
			StepID:     step.ID,
			Chunks:     selected,
			TokenCount: used,
			Budget:     stepBudget,
		}
	}
	return plan
}

// ---- helpers ----

func newPlan(steps []types.Step) *Plan {
	order := make([]string, 0, len(steps))
	for _, s := range steps {
		order = append(order, s.ID)
	}
	return &Plan{
		Steps: make(map[string]*StepPlan, len(steps)),
		Order: order,
	}
}

// classifyStep maps a step's free text (and category hint) to a task
// type for scoring and pool selection.
func classifyStep(step types.Step) types.TaskType {
	if t := types.TaskType(step.Category); t != "" {
		switch t {
		case types.TaskAnalysis, types.TaskRefactor, types.TaskGenerate, types.TaskDebug:
			return t
		}
	}

	text := strings.ToLower(step.TaskText())
	switch {
	case containsAny(text, "analyz", "analys", "review", "inspect", "audit", "understand"):
		return types.TaskAnalysis
	case containsAny(text, "refactor", "restructur", "rename", "simplify", "cleanup", "extract"):
		return types.TaskRefactor
	case containsAny(text, "generat", "creat", "write", "implement", "build", "add "):
		return types.TaskGenerate
	case containsAny(text, "debug", "fix", "bug", "crash", "error"):
		return types.TaskDebug
	default:
		return types.TaskGeneral
	}
}

func containsAny(text string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(text, sub) {
			return true
		}
	}
	return false
}

// SelectWithinBudget greedily takes the highest-scoring chunks until
// 95% of the budget is filled. The token sum never exceeds the budget.
func SelectWithinBudget(scored []types.ScoredChunk, budget int) ([]types.ScoredChunk, int) {
	sorted := append([]types.ScoredChunk(nil), scored...)
	sortByScore(sorted)

	limit := int(float64(budget) * budgetFillCutoff)
	used := 0
	var selected []types.ScoredChunk
	for _, sc := range sorted {
		if used >= limit {
			break
		}
		if used+sc.Tokens > budget {
			continue
		}
		selected = append(selected, sc)
		used += sc.Tokens
	}
	return selected, used
}

// sortByScore orders chunks by descending score, breaking ties by
// original position for determinism.
func sortByScore(chunks []types.ScoredChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Score != chunks[j].Score {
			return chunks[i].Score > chunks[j].Score
		}
		return chunks[i].Position < chunks[j].Position
	})
}

func filterByScore(scored []types.ScoredChunk, min float64) []types.ScoredChunk {
	var out []types.ScoredChunk
	for _, sc := range scored {
		if sc.Score >= min {
			out = append(out, sc)
		}
	}
	return out
}
