package session

import (
	"context"
	"errors"
	"testing"

	"github.com/plateworks/moab-session/internal/brain"
	"github.com/plateworks/moab-session/internal/sim"
)

// fakePredictor counts calls and plays back a fixed action or error.
type fakePredictor struct {
	action brain.Action
	err    error
	calls  int
}

func (p *fakePredictor) GetAction(ctx context.Context, state map[string]float64, iteration int) (brain.Action, error) {
	p.calls++
	if p.err != nil {
		return brain.Action{}, p.err
	}
	return p.action, nil
}

func TestRouteSelectsExactlyOnePredictor(t *testing.T) {
	tests := []struct {
		name    string
		act     Action
		wantOne bool
	}{
		{"concept_index 1", Action{ConceptIndex: f(1)}, true},
		{"concept_index 2", Action{ConceptIndex: f(2)}, false},
		{"concept_index absent", Action{}, false},
		{"concept_index out of range", Action{ConceptIndex: f(7)}, false},
		{"concept_index zero", Action{ConceptIndex: f(0)}, false},
		{"legacy command 1", Action{Command: f(1)}, false},
		{"legacy command 2", Action{Command: f(2)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			one := &fakePredictor{}
			two := &fakePredictor{}
			a := NewArbiter(one, two)

			_, concept, err := a.Route(context.Background(), sim.Observation{}, tt.act, 1)
			if err != nil {
				t.Fatalf("Route() error = %v", err)
			}

			wantOneCalls, wantTwoCalls := 0, 1
			wantConcept := ConceptTwo
			if tt.wantOne {
				wantOneCalls, wantTwoCalls = 1, 0
				wantConcept = ConceptOne
			}
			if one.calls != wantOneCalls || two.calls != wantTwoCalls {
				t.Errorf("calls = (%d, %d), want (%d, %d)", one.calls, two.calls, wantOneCalls, wantTwoCalls)
			}
			if concept != wantConcept {
				t.Errorf("concept = %v, want %v", concept, wantConcept)
			}
		})
	}
}

func TestRouteClampsControls(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"above range", 2.5, 1.0},
		{"below range", -3.0, -1.0},
		{"in range", 0.3, 0.3},
		{"at upper bound", 1.0, 1.0},
		{"at lower bound", -1.0, -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			two := &fakePredictor{action: brain.Action{
				InputRoll:    f(tt.in),
				InputPitch:   f(tt.in),
				InputHeightZ: f(tt.in),
			}}
			a := NewArbiter(&fakePredictor{}, two)

			got, _, err := a.Route(context.Background(), sim.Observation{}, Action{}, 1)
			if err != nil {
				t.Fatalf("Route() error = %v", err)
			}
			if *got.InputRoll != tt.want {
				t.Errorf("input_roll = %v, want %v", *got.InputRoll, tt.want)
			}
			if *got.InputPitch != tt.want {
				t.Errorf("input_pitch = %v, want %v", *got.InputPitch, tt.want)
			}
			if *got.InputHeightZ != tt.want {
				t.Errorf("input_height_z = %v, want %v", *got.InputHeightZ, tt.want)
			}
		})
	}
}

func TestRouteKeepsAbsentControlsAbsent(t *testing.T) {
	two := &fakePredictor{action: brain.Action{InputRoll: f(0.5)}}
	a := NewArbiter(&fakePredictor{}, two)

	got, _, err := a.Route(context.Background(), sim.Observation{}, Action{}, 1)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if got.InputPitch != nil || got.InputHeightZ != nil {
		t.Errorf("absent controls were filled in: %+v", got)
	}
}

func TestRoutePropagatesPredictorError(t *testing.T) {
	boom := errors.New("connection refused")
	one := &fakePredictor{err: boom}
	a := NewArbiter(one, &fakePredictor{})

	_, _, err := a.Route(context.Background(), sim.Observation{}, Action{ConceptIndex: f(1)}, 1)
	if !errors.Is(err, boom) {
		t.Errorf("Route() error = %v, want wrapped %v", err, boom)
	}
}

func TestRouteMissingPredictor(t *testing.T) {
	a := NewArbiter(nil, &fakePredictor{})

	_, _, err := a.Route(context.Background(), sim.Observation{}, Action{ConceptIndex: f(1)}, 1)
	if !errors.Is(err, ErrNoPredictor) {
		t.Errorf("Route() error = %v, want ErrNoPredictor", err)
	}
}

func TestClamp(t *testing.T) {
	if got := clamp(2.5, -1, 1); got != 1 {
		t.Errorf("clamp(2.5) = %v, want 1", got)
	}
	if got := clamp(-3, -1, 1); got != -1 {
		t.Errorf("clamp(-3) = %v, want -1", got)
	}
	if got := clamp(0.3, -1, 1); got != 0.3 {
		t.Errorf("clamp(0.3) = %v, want 0.3", got)
	}
}
