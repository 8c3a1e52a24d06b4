// Package policy provides fixed selector policies for exercising the
// session engine without a remote orchestrator. They take an observation
// and return a selector action, the same shape the orchestrator sends.
//
// Policies emit the concept_index selector form, never the legacy
// command field: a command-form selector always falls through to concept
// two, so coast could never drive concept one with it.
package policy

import (
	"fmt"
	"math/rand"

	"github.com/plateworks/moab-session/internal/session"
)

// Selector picks a concept selector action for a given state.
type Selector func(state map[string]float64) session.Action

func command(v float64) session.Action {
	return session.Action{ConceptIndex: &v}
}

// Random ignores the state and selects a concept at random.
func Random(rng *rand.Rand) Selector {
	return func(state map[string]float64) session.Action {
		return command(float64(rng.Intn(2) + 1))
	}
}

// Coast ignores the state and always selects concept one.
func Coast() Selector {
	return func(state map[string]float64) session.Action {
		return command(1)
	}
}

// ByName resolves a policy by its flag name.
func ByName(name string, rng *rand.Rand) (Selector, error) {
	switch name {
	case "random":
		return Random(rng), nil
	case "coast":
		return Coast(), nil
	default:
		return nil, fmt.Errorf("unknown policy %q (want random or coast)", name)
	}
}
