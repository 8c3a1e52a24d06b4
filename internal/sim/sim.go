// Package sim defines the contract between the session engine and the
// plate+ball physics model, along with a compact reference implementation
// and a scriptable mock for tests and dev mode.
package sim

// PlateRadius is the radius of the plate surface in metres.
const PlateRadius = 0.1125

// Params holds every tunable scalar of the physics model. The session
// engine resolves an episode configuration into a Params value and hands
// it to the model in one piece; the model never reads config from
// anywhere else.
type Params struct {
	// Control state, unitless in [-1..1].
	Roll    float64
	Pitch   float64
	HeightZ float64

	// Constants, SI units.
	TimeDelta          float64
	Jitter             float64
	Gravity            float64
	PlateThetaVelLimit float64
	PlateThetaAcc      float64
	PlateThetaLimit    float64
	PlateZLimit        float64

	BallMass   float64
	BallRadius float64
	BallShell  float64

	ObstacleRadius float64
	ObstacleX      float64
	ObstacleY      float64

	// A target position the policy can try to move the ball to.
	TargetX float64
	TargetY float64

	// Observation noise.
	BallNoise  float64
	PlateNoise float64
}

// DefaultParams returns the model's pre-determined good state. Episode
// configs are merged over this value field by field.
func DefaultParams() Params {
	return Params{
		Roll:    0,
		Pitch:   0,
		HeightZ: 0,

		TimeDelta:          0.045,
		Jitter:             0.004,
		Gravity:            9.81,
		PlateThetaVelLimit: 1.571,
		PlateThetaAcc:      3.142,
		PlateThetaLimit:    0.393,
		PlateZLimit:        0.02,

		BallMass:   0.0027,
		BallRadius: 0.02,
		BallShell:  0.0002,

		ObstacleRadius: 0.01,
		ObstacleX:      0.03,
		ObstacleY:      0.03,

		TargetX: 0,
		TargetY: 0,

		BallNoise:  0.0005,
		PlateNoise: 0,
	}
}

// Observation is the per-step output of the model. It is produced fresh
// on every State call and never mutated afterwards.
type Observation struct {
	Roll    float64 `json:"roll"`
	Pitch   float64 `json:"pitch"`
	HeightZ float64 `json:"height_z"`

	ElapsedTime float64 `json:"elapsed_time"`

	BallX    float64 `json:"ball_x"`
	BallY    float64 `json:"ball_y"`
	BallZ    float64 `json:"ball_z"`
	BallVelX float64 `json:"ball_vel_x"`
	BallVelY float64 `json:"ball_vel_y"`
	BallVelZ float64 `json:"ball_vel_z"`

	// Noisy position/velocity estimates, what a camera-based detector
	// would report.
	EstimatedX    float64 `json:"estimated_x"`
	EstimatedY    float64 `json:"estimated_y"`
	EstimatedVelX float64 `json:"estimated_vel_x"`
	EstimatedVelY float64 `json:"estimated_vel_y"`

	PlateThetaX float64 `json:"plate_theta_x"`
	PlateThetaY float64 `json:"plate_theta_y"`

	TargetX float64 `json:"target_x"`
	TargetY float64 `json:"target_y"`
}

// Map flattens the observation into the name->value form the wire
// protocols use.
func (o Observation) Map() map[string]float64 {
	return map[string]float64{
		"roll":            o.Roll,
		"pitch":           o.Pitch,
		"height_z":        o.HeightZ,
		"elapsed_time":    o.ElapsedTime,
		"ball_x":          o.BallX,
		"ball_y":          o.BallY,
		"ball_z":          o.BallZ,
		"ball_vel_x":      o.BallVelX,
		"ball_vel_y":      o.BallVelY,
		"ball_vel_z":      o.BallVelZ,
		"estimated_x":     o.EstimatedX,
		"estimated_y":     o.EstimatedY,
		"estimated_vel_x": o.EstimatedVelX,
		"estimated_vel_y": o.EstimatedVelY,
		"plate_theta_x":   o.PlateThetaX,
		"plate_theta_y":   o.PlateThetaY,
		"target_x":        o.TargetX,
		"target_y":        o.TargetY,
	}
}

// Model is the physics collaborator contract. The session engine drives a
// Model strictly from a single goroutine; implementations do not need to
// be safe for concurrent use.
type Model interface {
	// Reset returns the model to its pre-determined good state, dropping
	// any episode-to-episode carryover.
	Reset()
	// Params returns the current parameter set.
	Params() Params
	// SetParams replaces the full parameter set.
	SetParams(Params)
	// UpdatePlate recomputes plate orientation from the current control
	// state. With plateReset the plate snaps to the commanded angles
	// instead of slewing.
	UpdatePlate(plateReset bool)
	// SetInitialBall places the ball on the plate surface at (x, y, z).
	SetInitialBall(x, y, z float64)
	// BallPosition reports the ball's current position.
	BallPosition() (x, y, z float64)
	// BallVelocity reports the ball's current velocity vector.
	BallVelocity() (x, y, z float64)
	// SetBallVelocity replaces the ball's velocity vector.
	SetBallVelocity(x, y, z float64)
	// Step advances the simulation by one time delta.
	Step()
	// State produces a fresh observation of the current instant.
	State() Observation
	// Halted reports whether the system has left its valid operating
	// region (the ball departed the plate).
	Halted() bool
}
