package session

import "github.com/plateworks/moab-session/internal/sim"

// EpisodeConfig is the sparse per-episode configuration sent by the
// orchestrator on EpisodeStart. Only overridden fields are present;
// absent fields never overwrite the simulator's default value. The key
// set is fixed, so partial configs are safe.
type EpisodeConfig struct {
	// Initial control state, unitless in [-1..1].
	InitialRoll    *float64 `json:"initial_roll,omitempty"`
	InitialPitch   *float64 `json:"initial_pitch,omitempty"`
	InitialHeightZ *float64 `json:"initial_height_z,omitempty"`

	// Constants, SI units.
	TimeDelta          *float64 `json:"time_delta,omitempty"`
	Jitter             *float64 `json:"jitter,omitempty"`
	Gravity            *float64 `json:"gravity,omitempty"`
	PlateThetaVelLimit *float64 `json:"plate_theta_vel_limit,omitempty"`
	PlateThetaAcc      *float64 `json:"plate_theta_acc,omitempty"`
	PlateThetaLimit    *float64 `json:"plate_theta_limit,omitempty"`
	PlateZLimit        *float64 `json:"plate_z_limit,omitempty"`

	BallMass   *float64 `json:"ball_mass,omitempty"`
	BallRadius *float64 `json:"ball_radius,omitempty"`
	BallShell  *float64 `json:"ball_shell,omitempty"`

	ObstacleRadius *float64 `json:"obstacle_radius,omitempty"`
	ObstacleX      *float64 `json:"obstacle_x,omitempty"`
	ObstacleY      *float64 `json:"obstacle_y,omitempty"`

	TargetX *float64 `json:"target_x,omitempty"`
	TargetY *float64 `json:"target_y,omitempty"`

	// Observation noise.
	BallNoise  *float64 `json:"ball_noise,omitempty"`
	PlateNoise *float64 `json:"plate_noise,omitempty"`

	// Initial ball placement.
	InitialX *float64 `json:"initial_x,omitempty"`
	InitialY *float64 `json:"initial_y,omitempty"`
	InitialZ *float64 `json:"initial_z,omitempty"`

	// Initial velocity as explicit components.
	InitialVelX *float64 `json:"initial_vel_x,omitempty"`
	InitialVelY *float64 `json:"initial_vel_y,omitempty"`
	InitialVelZ *float64 `json:"initial_vel_z,omitempty"`

	// Initial velocity as speed plus heading offset toward the target;
	// when both are present they win over the explicit components.
	InitialSpeed     *float64 `json:"initial_speed,omitempty"`
	InitialDirection *float64 `json:"initial_direction,omitempty"`
}

// orDefault returns *v when present, def otherwise.
func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Resolve merges the episode overrides over the model defaults field by
// field, producing the full resolved parameter set. It is a pure
// transform: no ranges are validated here (the model enforces its own
// limits) and neither input is modified. A nil config resolves to the
// defaults unchanged.
//
// Ball placement and velocity fields are not part of the parameter set;
// the session applies them after the resolved constants and the plate
// update, in that order.
func Resolve(defaults sim.Params, cfg *EpisodeConfig) sim.Params {
	if cfg == nil {
		return defaults
	}
	p := defaults

	p.Roll = orDefault(cfg.InitialRoll, defaults.Roll)
	p.Pitch = orDefault(cfg.InitialPitch, defaults.Pitch)
	p.HeightZ = orDefault(cfg.InitialHeightZ, defaults.HeightZ)

	p.TimeDelta = orDefault(cfg.TimeDelta, defaults.TimeDelta)
	p.Jitter = orDefault(cfg.Jitter, defaults.Jitter)
	p.Gravity = orDefault(cfg.Gravity, defaults.Gravity)
	p.PlateThetaVelLimit = orDefault(cfg.PlateThetaVelLimit, defaults.PlateThetaVelLimit)
	p.PlateThetaAcc = orDefault(cfg.PlateThetaAcc, defaults.PlateThetaAcc)
	p.PlateThetaLimit = orDefault(cfg.PlateThetaLimit, defaults.PlateThetaLimit)
	p.PlateZLimit = orDefault(cfg.PlateZLimit, defaults.PlateZLimit)

	p.BallMass = orDefault(cfg.BallMass, defaults.BallMass)
	p.BallRadius = orDefault(cfg.BallRadius, defaults.BallRadius)
	p.BallShell = orDefault(cfg.BallShell, defaults.BallShell)

	p.ObstacleRadius = orDefault(cfg.ObstacleRadius, defaults.ObstacleRadius)
	p.ObstacleX = orDefault(cfg.ObstacleX, defaults.ObstacleX)
	p.ObstacleY = orDefault(cfg.ObstacleY, defaults.ObstacleY)

	p.TargetX = orDefault(cfg.TargetX, defaults.TargetX)
	p.TargetY = orDefault(cfg.TargetY, defaults.TargetY)

	p.BallNoise = orDefault(cfg.BallNoise, defaults.BallNoise)
	p.PlateNoise = orDefault(cfg.PlateNoise, defaults.PlateNoise)

	return p
}
