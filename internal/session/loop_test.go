package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/plateworks/moab-session/internal/sim"
)

// fakeOrchestrator plays back a scripted sequence of events and records
// every call.
type fakeOrchestrator struct {
	events []Event

	registerCalls int
	registerErr   error
	advanceCalls  int
	advanceErr    error
	deleteCalls   int
	states        []SimulatorState
	blockAdvance  bool
}

func (o *fakeOrchestrator) Register(ctx context.Context, iface SimulatorInterface) (string, error) {
	o.registerCalls++
	if o.registerErr != nil {
		return "", o.registerErr
	}
	return "session-123", nil
}

func (o *fakeOrchestrator) Advance(ctx context.Context, sessionID string, state SimulatorState) (Event, error) {
	o.states = append(o.states, state)
	if o.blockAdvance {
		<-ctx.Done()
		return Event{}, ctx.Err()
	}
	if o.advanceErr != nil && o.advanceCalls == len(o.events) {
		return Event{}, o.advanceErr
	}
	if o.advanceCalls >= len(o.events) {
		return Event{Type: EventUnregister, SequenceID: int64(o.advanceCalls) + 2}, nil
	}
	e := o.events[o.advanceCalls]
	o.advanceCalls++
	return e, nil
}

func (o *fakeOrchestrator) Delete(ctx context.Context, sessionID string) error {
	o.deleteCalls++
	return nil
}

func runScripted(t *testing.T, events []Event) (*fakeOrchestrator, *sim.MockModel, Outcome) {
	t.Helper()
	model := sim.NewMockModel()
	s := newTestSession(model, nil)
	orch := &fakeOrchestrator{events: events}

	outcome := Run(context.Background(), orch, s, SimulatorInterface{Name: "test-sim", Timeout: 60})
	return orch, model, outcome
}

func TestRunEpisodeDrivesModel(t *testing.T) {
	const n = 5
	events := []Event{
		{Type: EventEpisodeStart, SequenceID: 2, Start: &EpisodeStartPayload{Config: &EpisodeConfig{Gravity: f(1.62)}}},
	}
	for i := 0; i < n; i++ {
		events = append(events, Event{Type: EventEpisodeStep, SequenceID: int64(i) + 3, Step: &EpisodeStepPayload{}})
	}
	events = append(events, Event{Type: EventEpisodeFinish, SequenceID: int64(n) + 3})

	orch, model, outcome := runScripted(t, events)

	require.Equal(t, OutcomeUnregistered, outcome.Kind)
	require.Equal(t, 1, model.ResetCalls, "one EpisodeStart, one reset")
	require.Equal(t, n, model.StepCalls, "one model step per EpisodeStep event")
	require.Equal(t, 1, orch.registerCalls)
	require.Equal(t, 1, orch.deleteCalls)
}

func TestRunEchoesSequenceID(t *testing.T) {
	events := []Event{
		{Type: EventEpisodeStart, SequenceID: 7, Start: &EpisodeStartPayload{}},
		{Type: EventEpisodeFinish, SequenceID: 42},
	}

	orch, _, outcome := runScripted(t, events)

	require.Equal(t, OutcomeUnregistered, outcome.Kind)
	require.GreaterOrEqual(t, len(orch.states), 3)
	require.Equal(t, int64(1), orch.states[0].SequenceID, "first push starts at 1")
	require.Equal(t, int64(7), orch.states[1].SequenceID, "echoes EpisodeStart sequence id")
	require.Equal(t, int64(42), orch.states[2].SequenceID, "echoes EpisodeFinish sequence id")
}

func TestRunIgnoresUnknownEvents(t *testing.T) {
	events := []Event{
		{Type: EventType("Ping"), SequenceID: 2},
		{Type: EventType(""), SequenceID: 3},
	}

	orch, model, outcome := runScripted(t, events)

	require.Equal(t, OutcomeUnregistered, outcome.Kind)
	require.Zero(t, model.StepCalls)
	require.Zero(t, model.ResetCalls)
	require.Equal(t, 1, orch.deleteCalls)
}

func TestRunIdleSleeps(t *testing.T) {
	events := []Event{
		{Type: EventIdle, SequenceID: 2, Idle: &IdlePayload{CallbackTime: 0.01}},
	}

	start := time.Now()
	orch, _, outcome := runScripted(t, events)

	require.Equal(t, OutcomeUnregistered, outcome.Kind)
	require.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	require.Equal(t, 1, orch.deleteCalls)
}

func TestRunRegisterFailureDeletesNothing(t *testing.T) {
	model := sim.NewMockModel()
	s := newTestSession(model, nil)
	orch := &fakeOrchestrator{registerErr: errors.New("service unavailable")}

	outcome := Run(context.Background(), orch, s, SimulatorInterface{Name: "test-sim"})

	require.Equal(t, OutcomeFailed, outcome.Kind)
	require.Error(t, outcome.Err)
	require.Equal(t, 0, orch.deleteCalls, "nothing to delete after failed registration")
}

func TestRunAdvanceFailureTearsDownOnce(t *testing.T) {
	events := []Event{
		{Type: EventEpisodeStart, SequenceID: 2, Start: &EpisodeStartPayload{}},
	}
	model := sim.NewMockModel()
	s := newTestSession(model, nil)
	orch := &fakeOrchestrator{events: events, advanceErr: errors.New("connection reset")}

	outcome := Run(context.Background(), orch, s, SimulatorInterface{Name: "test-sim"})

	require.Equal(t, OutcomeFailed, outcome.Kind)
	require.ErrorContains(t, outcome.Err, "connection reset")
	require.Equal(t, 1, orch.deleteCalls, "exactly one delete on the error path")
	require.Equal(t, PhaseUnregistered, s.Snapshot().Phase)
}

func TestRunPredictorFailureTearsDownOnce(t *testing.T) {
	events := []Event{
		{Type: EventEpisodeStart, SequenceID: 2, Start: &EpisodeStartPayload{}},
		{Type: EventEpisodeStep, SequenceID: 3, Step: &EpisodeStepPayload{}},
	}
	model := sim.NewMockModel()
	two := &fakePredictor{err: errors.New("predictor down")}
	s := newTestSession(model, two)
	orch := &fakeOrchestrator{events: events}

	outcome := Run(context.Background(), orch, s, SimulatorInterface{Name: "test-sim"})

	require.Equal(t, OutcomeFailed, outcome.Kind)
	require.ErrorContains(t, outcome.Err, "predictor down")
	require.Equal(t, 1, orch.deleteCalls)
	require.Zero(t, model.StepCalls, "no model step after a failed routing")
}

func TestRunInterruptTearsDownOnce(t *testing.T) {
	model := sim.NewMockModel()
	s := newTestSession(model, nil)
	orch := &fakeOrchestrator{blockAdvance: true}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Outcome, 1)
	go func() {
		done <- Run(ctx, orch, s, SimulatorInterface{Name: "test-sim"})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case outcome := <-done:
		require.Equal(t, OutcomeInterrupted, outcome.Kind)
		require.Equal(t, 1, orch.registerCalls)
		require.Equal(t, 1, orch.deleteCalls, "exactly one delete on the interrupt path")
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunUnregisterStopsLoop(t *testing.T) {
	events := []Event{
		{Type: EventUnregister, SequenceID: 2},
		// Anything after Unregister must never be consumed.
		{Type: EventEpisodeStart, SequenceID: 3, Start: &EpisodeStartPayload{}},
	}

	orch, model, outcome := runScripted(t, events)

	require.Equal(t, OutcomeUnregistered, outcome.Kind)
	require.Equal(t, 1, orch.advanceCalls)
	require.Zero(t, model.ResetCalls)
	require.Equal(t, 1, orch.deleteCalls)
}

func TestRunReportsHaltedFlag(t *testing.T) {
	model := sim.NewMockModel()
	model.HaltedVal = true
	s := newTestSession(model, nil)
	orch := &fakeOrchestrator{}

	outcome := Run(context.Background(), orch, s, SimulatorInterface{Name: "test-sim"})

	require.Equal(t, OutcomeUnregistered, outcome.Kind)
	require.NotEmpty(t, orch.states)
	require.True(t, orch.states[0].Halted, "halted flag is reported, not auto-reset")
	require.Zero(t, model.ResetCalls, "halted must not trigger an auto-reset")
}
