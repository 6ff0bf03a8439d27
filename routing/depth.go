package routing

import "github.com/itheroservices-hub/hybridmind-sub004/types"

// dependencyDepths computes each step's depth in the dependency DAG by
// fixed-point iteration: a dependency-free step has depth 0, every
// other step sits one level below the deepest of its dependencies.
// Dependencies on unknown step IDs are ignored; steps left unresolved
// after |steps| rounds (a dependency cycle) settle at depth 0.
func dependencyDepths(steps []types.Step) map[string]int {
	known := make(map[string]bool, len(steps))
	for _, s := range steps {
		known[s.ID] = true
	}

	const unresolved = -1
	depths := make(map[string]int, len(steps))
	for _, s := range steps {
		if countKnownDeps(s, known) == 0 {
			depths[s.ID] = 0
		} else {
			depths[s.ID] = unresolved
		}
	}

	for round := 0; round < len(steps); round++ {
		changed := false
		for _, s := range steps {
			if depths[s.ID] != unresolved {
				continue
			}
			max, ok := maxDepDepth(s, known, depths)
			if !ok {
				continue
			}
			depths[s.ID] = max + 1
			changed = true
		}
		if !changed {
			break
		}
	}

	for id, d := range depths {
		if d == unresolved {
			depths[id] = 0
		}
	}
	return depths
}

func countKnownDeps(s types.Step, known map[string]bool) int {
	n := 0
	for _, dep := range s.Dependencies {
		if known[dep] {
			n++
		}
	}
	return n
}

func maxDepDepth(s types.Step, known map[string]bool, depths map[string]int) (int, bool) {
	max := 0
	for _, dep := range s.Dependencies {
		if !known[dep] {
			continue
		}
		d := depths[dep]
		if d < 0 {
			return 0, false
		}
		if d > max {
			max = d
		}
	}
	return max, true
}
