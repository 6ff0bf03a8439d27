package routing

import (
	"sort"

	"github.com/itheroservices-hub/hybridmind-sub004/types"
)

// Strategy names one chunk-to-step assignment algorithm.
type Strategy string

const (
	// StrategyAuto lets the router pick from the dependency structure.
	StrategyAuto Strategy = "auto"
	// StrategySequential plans each step independently against its own
	// task text.
	StrategySequential Strategy = "sequential"
	// StrategyParallel gives dependency-free steps a shared chunk base
	// plus per-step additions.
	StrategyParallel Strategy = "parallel"
	// StrategyHierarchical budgets steps by their depth in the
	// dependency DAG.
	StrategyHierarchical Strategy = "hierarchical"
	// StrategyAdaptive filters chunk pools and scales budgets by step
	// category and complexity.
	StrategyAdaptive Strategy = "adaptive"
)

// StepPlan is the routing outcome for one step. TokenCount never
// exceeds the step's effective budget. SharedWithSteps and ReuseRatio
// are filled by the reuse post-pass, Depth and Siblings only by the
// hierarchical strategy.
type StepPlan struct {
	StepID          string              `json:"step_id"`
	Chunks          []types.ScoredChunk `json:"chunks"`
	TokenCount      int                 `json:"token_count"`
	Budget          int                 `json:"budget"`
	Depth           int                 `json:"depth,omitempty"`
	Siblings        []string            `json:"siblings,omitempty"`
	SharedWithSteps []string            `json:"shared_with_steps,omitempty"`
	ReuseRatio      float64             `json:"reuse_ratio"`
}

// Plan is the per-step assignment produced by one routing pass.
type Plan struct {
	Strategy Strategy             `json:"strategy"`
	Steps    map[string]*StepPlan `json:"steps"`
	Order    []string             `json:"order"`
}

// TotalTokens sums the token counts of every step plan.
func (p *Plan) TotalTokens() int {
	total := 0
	for _, sp := range p.Steps {
		total += sp.TokenCount
	}
	return total
}

// AvgReuse returns the mean reuse ratio across steps.
func (p *Plan) AvgReuse() float64 {
	if len(p.Steps) == 0 {
		return 0
	}
	sum := 0.0
	for _, sp := range p.Steps {
		sum += sp.ReuseRatio
	}
	return sum / float64(len(p.Steps))
}

// computeReuse derives, for every chunk, the set of steps using it,
// then fills each step's shared-step list and reuse ratio.
func computeReuse(plan *Plan) {
	usedBy := make(map[string][]string)
	for _, stepID := range plan.Order {
		sp := plan.Steps[stepID]
		if sp == nil {
			continue
		}
		for _, chunk := range sp.Chunks {
			usedBy[chunk.ID] = append(usedBy[chunk.ID], stepID)
		}
	}

	for _, sp := range plan.Steps {
		sharedChunks := 0
		sharedSteps := make(map[string]bool)
		for _, chunk := range sp.Chunks {
			users := usedBy[chunk.ID]
			if len(users) < 2 {
				continue
			}
			sharedChunks++
			for _, other := range users {
				if other != sp.StepID {
					sharedSteps[other] = true
				}
			}
		}

		sp.SharedWithSteps = sp.SharedWithSteps[:0]
		for other := range sharedSteps {
			sp.SharedWithSteps = append(sp.SharedWithSteps, other)
		}
		sort.Strings(sp.SharedWithSteps)
		if len(sp.Chunks) > 0 {
			sp.ReuseRatio = float64(sharedChunks) / float64(len(sp.Chunks))
		}
	}
}
