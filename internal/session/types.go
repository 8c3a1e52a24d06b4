// Package session implements the simulation session engine: per-episode
// configuration resolution, initial-condition kinematics, concept action
// arbitration, and the event-driven lifecycle that keeps a registered
// simulator in lockstep with the remote training orchestrator.
package session

import "context"

// Phase is the session's lifecycle state.
type Phase string

const (
	PhaseUnregistered  Phase = "Unregistered"
	PhaseRegistered    Phase = "Registered"
	PhaseEpisodeIdle   Phase = "EpisodeIdle"
	PhaseEpisodeActive Phase = "EpisodeActive"
)

// EventType identifies an orchestrator event.
type EventType string

const (
	EventIdle          EventType = "Idle"
	EventEpisodeStart  EventType = "EpisodeStart"
	EventEpisodeStep   EventType = "EpisodeStep"
	EventEpisodeFinish EventType = "EpisodeFinish"
	EventUnregister    EventType = "Unregister"
)

// Event is one orchestrator instruction. Exactly one payload pointer is
// set, matching Type; unknown types carry none and are ignored.
type Event struct {
	Type       EventType            `json:"type"`
	SequenceID int64                `json:"sequenceId"`
	Idle       *IdlePayload         `json:"idle,omitempty"`
	Start      *EpisodeStartPayload `json:"episodeStart,omitempty"`
	Step       *EpisodeStepPayload  `json:"episodeStep,omitempty"`
}

// IdlePayload tells the simulator how long to wait before the next
// advance call.
type IdlePayload struct {
	// CallbackTime is the idle duration in seconds.
	CallbackTime float64 `json:"callbackTime"`
}

// EpisodeStartPayload carries the sparse episode configuration.
type EpisodeStartPayload struct {
	Config *EpisodeConfig `json:"config,omitempty"`
}

// EpisodeStepPayload carries the orchestrator's action for one step.
type EpisodeStepPayload struct {
	Action Action `json:"action"`
}

// Action is the orchestrator-side action: a discrete concept selector
// (new concept_index form or legacy command form) plus optional
// continuous controls. The selector is what the engine acts on; the
// continuous fields come back from the chosen predictor.
type Action struct {
	ConceptIndex *float64 `json:"concept_index,omitempty"`
	Command      *float64 `json:"command,omitempty"`

	InputRoll    *float64 `json:"input_roll,omitempty"`
	InputPitch   *float64 `json:"input_pitch,omitempty"`
	InputHeightZ *float64 `json:"input_height_z,omitempty"`
}

// SimulatorState is the per-iteration push to the orchestrator.
type SimulatorState struct {
	SequenceID int64              `json:"sequenceId"`
	State      map[string]float64 `json:"state"`
	Halted     bool               `json:"halted"`
}

// SimulatorInterface describes this simulator at registration time.
type SimulatorInterface struct {
	Name    string `json:"name"`
	Timeout int    `json:"timeout"`
	Context string `json:"simulatorContext,omitempty"`
}

// Orchestrator is the remote training-session contract. Registration
// must be paired with exactly one Delete on every exit path.
type Orchestrator interface {
	// Register creates a simulator session and returns its handle.
	Register(ctx context.Context, iface SimulatorInterface) (string, error)
	// Advance pushes the simulator state and returns the next event.
	Advance(ctx context.Context, sessionID string, state SimulatorState) (Event, error)
	// Delete releases the session.
	Delete(ctx context.Context, sessionID string) error
}
