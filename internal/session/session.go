package session

import (
	"context"
	"log"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/plateworks/moab-session/internal/brain"
	"github.com/plateworks/moab-session/internal/sim"
)

// Recorder persists episode steps for later inspection. Recording is
// best effort: failures are logged by the session, never fatal.
type Recorder interface {
	BeginEpisode(episode int) error
	RecordStep(episode, iteration int, obs sim.Observation, concept int, act brain.Action) error
}

// Session owns the simulator-side state of one registered training
// session: the physics model, the action arbiter, the lifecycle phase
// and the episode/iteration counters. All model access happens from the
// single event-loop goroutine; the mutex only guards the snapshot read
// by the monitoring API.
type Session struct {
	Name string

	model   sim.Model
	arbiter *Arbiter
	rec     Recorder

	mu        sync.Mutex
	phase     Phase
	episode   int
	iteration int
	lastObs   sim.Observation
	halted    bool
}

// New creates a session around the given model and arbiter. rec may be
// nil to disable recording.
func New(name string, model sim.Model, arbiter *Arbiter, rec Recorder) *Session {
	return &Session{
		Name:    name,
		model:   model,
		arbiter: arbiter,
		rec:     rec,
		phase:   PhaseUnregistered,
	}
}

// State produces a fresh observation from the model and caches it for
// Snapshot.
func (s *Session) State() sim.Observation {
	obs := s.model.State()
	halted := s.model.Halted()
	s.mu.Lock()
	s.lastObs = obs
	s.halted = halted
	s.mu.Unlock()
	return obs
}

// Halted reports the model's halted flag. The session never auto-resets
// on halt; it reports the flag and waits for the orchestrator's
// EpisodeFinish or EpisodeStart.
func (s *Session) Halted() bool {
	return s.model.Halted()
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

// EpisodeStart resets the model and applies the resolved episode
// configuration, in order: constants, plate update, ball placement,
// velocity. A nil config runs the episode on pure defaults.
func (s *Session) EpisodeStart(cfg *EpisodeConfig) {
	// Return to a pre-determined good state to avoid accidental
	// episode-to-episode dependencies.
	s.model.Reset()

	resolved := Resolve(s.model.Params(), cfg)
	s.model.SetParams(resolved)

	// Plate metrics must reflect the new constants and controls before
	// the ball is placed on it.
	s.model.UpdatePlate(true)

	bx, by, bz := s.model.BallPosition()
	if cfg != nil {
		bx = orDefault(cfg.InitialX, bx)
		by = orDefault(cfg.InitialY, by)
		bz = orDefault(cfg.InitialZ, bz)
	}
	s.model.SetInitialBall(bx, by, bz)

	// Velocity as explicit components first, then speed/direction which
	// wins when both of its fields are present.
	vx, vy, vz := s.model.BallVelocity()
	if cfg != nil {
		vx = orDefault(cfg.InitialVelX, vx)
		vy = orDefault(cfg.InitialVelY, vy)
		vz = orDefault(cfg.InitialVelZ, vz)
	}
	s.model.SetBallVelocity(vx, vy, vz)

	if cfg != nil && cfg.InitialSpeed != nil && cfg.InitialDirection != nil {
		vel := velocityForSpeedAndDirection(bx, by, resolved.TargetX, resolved.TargetY,
			r3.Vec{X: vx, Y: vy, Z: vz}, *cfg.InitialSpeed, *cfg.InitialDirection)
		s.model.SetBallVelocity(vel.X, vel.Y, vel.Z)
	}

	s.mu.Lock()
	s.phase = PhaseEpisodeActive
	s.episode++
	s.iteration = 0
	episode := s.episode
	s.mu.Unlock()

	if s.rec != nil {
		if err := s.rec.BeginEpisode(episode); err != nil {
			log.Printf("failed to record episode start: %v", err)
		}
	}
}

// EpisodeStep routes the action through the arbiter, applies the
// clamped controls and advances the model by one step. Controls the
// predictor left out keep their current value.
func (s *Session) EpisodeStep(ctx context.Context, act Action) error {
	s.mu.Lock()
	s.iteration++
	episode, iteration := s.episode, s.iteration
	s.mu.Unlock()

	obs := s.model.State()
	resolved, concept, err := s.arbiter.Route(ctx, obs, act, iteration)
	if err != nil {
		return err
	}

	p := s.model.Params()
	p.Roll = orDefault(resolved.InputRoll, p.Roll)
	p.Pitch = orDefault(resolved.InputPitch, p.Pitch)
	p.HeightZ = orDefault(resolved.InputHeightZ, p.HeightZ)
	s.model.SetParams(p)

	s.model.Step()

	if s.rec != nil {
		if err := s.rec.RecordStep(episode, iteration, obs, int(concept), resolved); err != nil {
			log.Printf("failed to record step: %v", err)
		}
	}
	return nil
}

// EpisodeFinish resets the iteration counter and returns the session to
// the idle phase.
func (s *Session) EpisodeFinish() {
	s.mu.Lock()
	s.iteration = 0
	s.phase = PhaseEpisodeIdle
	s.mu.Unlock()
}

// Status is a point-in-time snapshot for the monitoring API.
type Status struct {
	Name      string  `json:"name"`
	Phase     Phase   `json:"phase"`
	Episode   int     `json:"episode"`
	Iteration int     `json:"iteration"`
	Halted    bool    `json:"halted"`
	BallX     float64 `json:"ball_x"`
	BallY     float64 `json:"ball_y"`
}

// Snapshot returns the session's current status. Safe to call from any
// goroutine; it never touches the model.
func (s *Session) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Name:      s.Name,
		Phase:     s.phase,
		Episode:   s.episode,
		Iteration: s.iteration,
		Halted:    s.halted,
		BallX:     s.lastObs.BallX,
		BallY:     s.lastObs.BallY,
	}
}
