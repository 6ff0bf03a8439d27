package scoring

import (
	"fmt"

	"github.com/itheroservices-hub/hybridmind-sub004/types"
)

// Weights holds the per-factor weights of one task-type profile.
type Weights struct {
	Keyword   float64 `yaml:"keyword" json:"keyword"`
	Position  float64 `yaml:"position" json:"position"`
	Structure float64 `yaml:"structure" json:"structure"`
	Recency   float64 `yaml:"recency" json:"recency"`
}

// Validate rejects profiles that cannot produce a usable score.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"keyword":   w.Keyword,
		"position":  w.Position,
		"structure": w.Structure,
		"recency":   w.Recency,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s is negative: %v", name, v)
		}
	}
	if w.Keyword+w.Position+w.Structure+w.Recency <= 0 {
		return fmt.Errorf("weights sum to zero")
	}
	return nil
}

// DefaultProfiles returns the built-in weight profiles. Debug tasks
// lean hardest on keyword overlap, refactor tasks on structure.
func DefaultProfiles() map[types.TaskType]Weights {
	return map[types.TaskType]Weights{
		types.TaskAnalysis: {Keyword: 0.40, Position: 0.20, Structure: 0.30, Recency: 0.10},
		types.TaskRefactor: {Keyword: 0.35, Position: 0.15, Structure: 0.40, Recency: 0.10},
		types.TaskGenerate: {Keyword: 0.45, Position: 0.25, Structure: 0.20, Recency: 0.10},
		types.TaskDebug:    {Keyword: 0.50, Position: 0.10, Structure: 0.30, Recency: 0.10},
		types.TaskGeneral:  {Keyword: 0.40, Position: 0.20, Structure: 0.25, Recency: 0.15},
	}
}
