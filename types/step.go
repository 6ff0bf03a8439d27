package types

// TaskType classifies a task so the scorer can pick a weight profile.
// An unrecognized value falls back to TaskGeneral.
type TaskType string

const (
	TaskAnalysis TaskType = "analysis"
	TaskRefactor TaskType = "refactor"
	TaskGenerate TaskType = "generate"
	TaskDebug    TaskType = "debug"
	TaskGeneral  TaskType = "general"
)

// Complexity is an optional caller-declared effort hint on a Step. It
// scales the step's effective token budget under the adaptive routing
// strategy.
type Complexity string

const (
	ComplexitySimple      Complexity = "simple"
	ComplexityModerate    Complexity = "moderate"
	ComplexityComplex     Complexity = "complex"
	ComplexityVeryComplex Complexity = "very_complex"
)

// BudgetMultiplier returns the budget scale factor for the complexity
// hint. Unset or unknown hints behave as moderate.
func (c Complexity) BudgetMultiplier() float64 {
	switch c {
	case ComplexitySimple:
		return 0.6
	case ComplexityComplex:
		return 1.3
	case ComplexityVeryComplex:
		return 1.5
	default:
		return 1.0
	}
}

// Step is one unit of a workflow chain, supplied by the chain
// orchestrator. The engine never mutates a Step; it only reads it.
type Step struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Dependencies []string   `json:"dependencies,omitempty"`
	Complexity   Complexity `json:"complexity,omitempty"`
	Category     string     `json:"category,omitempty"`
}

// TaskText returns the free text the scorer matches chunks against for
// this step.
func (s Step) TaskText() string {
	if s.Description == "" {
		return s.Name
	}
	return s.Name + " " + s.Description
}
