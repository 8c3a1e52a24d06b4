package sim

import (
	"math"
	"math/rand"
)

// MoabModel is a compact plate+ball integrator implementing Model. The
// plate slews toward the commanded tilt subject to velocity and
// acceleration limits; the ball rolls under the in-plane component of
// gravity. It is a reference stand-in for the hardware-grade simulator,
// good enough to exercise the session protocol end to end.
type MoabModel struct {
	params Params

	plateThetaX    float64
	plateThetaY    float64
	plateThetaVelX float64
	plateThetaVelY float64
	plateZ         float64

	ballX, ballY, ballZ          float64
	ballVelX, ballVelY, ballVelZ float64

	elapsed float64
	rng     *rand.Rand
}

// NewMoabModel returns a model at the default parameter set with the ball
// resting at the plate centre. The seed fixes the jitter/noise stream so
// runs are reproducible.
func NewMoabModel(seed int64) *MoabModel {
	m := &MoabModel{rng: rand.New(rand.NewSource(seed))}
	m.Reset()
	return m
}

func (m *MoabModel) Reset() {
	m.params = DefaultParams()
	m.plateThetaX = 0
	m.plateThetaY = 0
	m.plateThetaVelX = 0
	m.plateThetaVelY = 0
	m.plateZ = 0
	m.ballX, m.ballY = 0, 0
	m.ballZ = m.params.BallRadius
	m.ballVelX, m.ballVelY, m.ballVelZ = 0, 0, 0
	m.elapsed = 0
}

func (m *MoabModel) Params() Params          { return m.params }
func (m *MoabModel) SetParams(p Params)      { m.params = p }
func (m *MoabModel) BallPosition() (x, y, z float64) { return m.ballX, m.ballY, m.ballZ }
func (m *MoabModel) BallVelocity() (x, y, z float64) { return m.ballVelX, m.ballVelY, m.ballVelZ }

func (m *MoabModel) SetBallVelocity(x, y, z float64) {
	m.ballVelX, m.ballVelY, m.ballVelZ = x, y, z
}

func (m *MoabModel) SetInitialBall(x, y, z float64) {
	m.ballX, m.ballY, m.ballZ = x, y, z
}

// commandedTheta maps a unitless control in [-1..1] onto the plate's
// angular limit.
func (m *MoabModel) commandedTheta(control float64) float64 {
	return control * m.params.PlateThetaLimit
}

func (m *MoabModel) UpdatePlate(plateReset bool) {
	targetX := m.commandedTheta(m.params.Pitch)
	targetY := m.commandedTheta(m.params.Roll)

	if plateReset {
		m.plateThetaX = targetX
		m.plateThetaY = targetY
		m.plateThetaVelX = 0
		m.plateThetaVelY = 0
		m.plateZ = m.params.HeightZ * m.params.PlateZLimit
		return
	}

	dt := m.params.TimeDelta
	m.plateThetaX, m.plateThetaVelX = slew(m.plateThetaX, m.plateThetaVelX, targetX,
		m.params.PlateThetaVelLimit, m.params.PlateThetaAcc, dt)
	m.plateThetaY, m.plateThetaVelY = slew(m.plateThetaY, m.plateThetaVelY, targetY,
		m.params.PlateThetaVelLimit, m.params.PlateThetaAcc, dt)
	m.plateZ = m.params.HeightZ * m.params.PlateZLimit
}

// slew moves theta toward target with bounded acceleration and velocity,
// returning the new angle and angular velocity.
func slew(theta, vel, target, velLimit, acc, dt float64) (float64, float64) {
	err := target - theta
	want := math.Copysign(velLimit, err)
	if math.Abs(err) < velLimit*dt {
		// Close enough to reach within one tick; aim straight at it.
		want = err / dt
	}
	dv := want - vel
	maxDv := acc * dt
	if math.Abs(dv) > maxDv {
		dv = math.Copysign(maxDv, dv)
	}
	vel += dv
	theta += vel * dt
	return theta, vel
}

func (m *MoabModel) Step() {
	m.UpdatePlate(false)

	dt := m.params.TimeDelta
	if m.params.Jitter > 0 {
		dt += (m.rng.Float64()*2 - 1) * m.params.Jitter
	}

	// Rolling solid sphere: a = 5/7 g sin(theta). The shell correction
	// for a hollow ball is below the noise floor at these masses.
	ax := (5.0 / 7.0) * m.params.Gravity * math.Sin(m.plateThetaX)
	ay := (5.0 / 7.0) * m.params.Gravity * math.Sin(m.plateThetaY)

	m.ballX += m.ballVelX*dt + 0.5*ax*dt*dt
	m.ballY += m.ballVelY*dt + 0.5*ay*dt*dt
	m.ballVelX += ax * dt
	m.ballVelY += ay * dt

	m.elapsed += dt
}

func (m *MoabModel) noise(scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	return m.rng.NormFloat64() * scale
}

func (m *MoabModel) State() Observation {
	return Observation{
		Roll:    m.params.Roll,
		Pitch:   m.params.Pitch,
		HeightZ: m.params.HeightZ,

		ElapsedTime: m.elapsed,

		BallX:    m.ballX,
		BallY:    m.ballY,
		BallZ:    m.ballZ,
		BallVelX: m.ballVelX,
		BallVelY: m.ballVelY,
		BallVelZ: m.ballVelZ,

		EstimatedX:    m.ballX + m.noise(m.params.BallNoise),
		EstimatedY:    m.ballY + m.noise(m.params.BallNoise),
		EstimatedVelX: m.ballVelX + m.noise(m.params.BallNoise),
		EstimatedVelY: m.ballVelY + m.noise(m.params.BallNoise),

		PlateThetaX: m.plateThetaX + m.noise(m.params.PlateNoise),
		PlateThetaY: m.plateThetaY + m.noise(m.params.PlateNoise),

		TargetX: m.params.TargetX,
		TargetY: m.params.TargetY,
	}
}

func (m *MoabModel) Halted() bool {
	limit := PlateRadius - m.params.BallRadius
	return math.Hypot(m.ballX, m.ballY) > limit
}
