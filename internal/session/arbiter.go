package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/plateworks/moab-session/internal/brain"
	"github.com/plateworks/moab-session/internal/sim"
)

// ErrNoPredictor reports a selector that mapped to a concept with no
// configured predictor, a wiring bug rather than a transport failure.
var ErrNoPredictor = errors.New("no predictor configured")

// Concept identifies one of the decision services a step can be routed
// to.
type Concept int

const (
	ConceptOne Concept = 1
	ConceptTwo Concept = 2
)

func (c Concept) String() string {
	switch c {
	case ConceptOne:
		return "concept-1"
	case ConceptTwo:
		return "concept-2"
	default:
		return fmt.Sprintf("concept-%d", int(c))
	}
}

// Arbiter routes each step's observation to exactly one concept
// predictor and clamps the returned controls to their legal range. The
// predictor handles are long-lived, opened once at construction and
// shared for the process lifetime.
type Arbiter struct {
	predictors map[Concept]brain.Predictor
}

// NewArbiter creates an arbiter over the two concept predictors.
func NewArbiter(one, two brain.Predictor) *Arbiter {
	return &Arbiter{predictors: map[Concept]brain.Predictor{
		ConceptOne: one,
		ConceptTwo: two,
	}}
}

// selectConcept maps the incoming action's discrete selector onto a
// concept. concept_index == 1 picks concept one; every other value,
// including an absent selector and the legacy command field, falls
// through to concept two.
func selectConcept(act Action) Concept {
	if act.ConceptIndex != nil && *act.ConceptIndex == 1 {
		return ConceptOne
	}
	return ConceptTwo
}

// clamp bounds val to [minVal, maxVal].
func clamp(val, minVal, maxVal float64) float64 {
	return min(maxVal, max(minVal, val))
}

// clampPtr clamps an optional control in place, leaving nil untouched.
func clampPtr(v *float64, minVal, maxVal float64) *float64 {
	if v == nil {
		return nil
	}
	c := clamp(*v, minVal, maxVal)
	return &c
}

// Route dispatches the observation to the selected predictor and returns
// its control frame with every present control clamped to [-1, 1].
// Exactly one predictor call is made per step; a predictor failure is
// fatal to the session and propagates untouched.
func (a *Arbiter) Route(ctx context.Context, obs sim.Observation, act Action, iteration int) (brain.Action, Concept, error) {
	concept := selectConcept(act)
	predictor, ok := a.predictors[concept]
	if !ok || predictor == nil {
		return brain.Action{}, concept, fmt.Errorf("%w for %s", ErrNoPredictor, concept)
	}

	resolved, err := predictor.GetAction(ctx, obs.Map(), iteration)
	if err != nil {
		return brain.Action{}, concept, fmt.Errorf("failed to get action from %s: %w", concept, err)
	}

	resolved.InputRoll = clampPtr(resolved.InputRoll, -1.0, 1.0)
	resolved.InputPitch = clampPtr(resolved.InputPitch, -1.0, 1.0)
	resolved.InputHeightZ = clampPtr(resolved.InputHeightZ, -1.0, 1.0)
	return resolved, concept, nil
}
