package sim

// MockModel is a scriptable Model for tests. It records every call and
// plays back canned observations.
type MockModel struct {
	params Params

	ballX, ballY, ballZ          float64
	ballVelX, ballVelY, ballVelZ float64

	// Scripted outputs.
	Obs       Observation
	HaltedVal bool

	// Call log.
	ResetCalls       int
	StepCalls        int
	UpdatePlateCalls []bool
	InitialBalls     [][3]float64
}

// NewMockModel returns a mock at the default parameter set.
func NewMockModel() *MockModel {
	return &MockModel{params: DefaultParams()}
}

func (m *MockModel) Reset() {
	m.ResetCalls++
	m.params = DefaultParams()
	m.ballX, m.ballY, m.ballZ = 0, 0, m.params.BallRadius
	m.ballVelX, m.ballVelY, m.ballVelZ = 0, 0, 0
}

func (m *MockModel) Params() Params     { return m.params }
func (m *MockModel) SetParams(p Params) { m.params = p }

func (m *MockModel) UpdatePlate(plateReset bool) {
	m.UpdatePlateCalls = append(m.UpdatePlateCalls, plateReset)
}

func (m *MockModel) SetInitialBall(x, y, z float64) {
	m.InitialBalls = append(m.InitialBalls, [3]float64{x, y, z})
	m.ballX, m.ballY, m.ballZ = x, y, z
}

func (m *MockModel) BallPosition() (x, y, z float64) { return m.ballX, m.ballY, m.ballZ }
func (m *MockModel) BallVelocity() (x, y, z float64) { return m.ballVelX, m.ballVelY, m.ballVelZ }

func (m *MockModel) SetBallVelocity(x, y, z float64) {
	m.ballVelX, m.ballVelY, m.ballVelZ = x, y, z
}

func (m *MockModel) Step() { m.StepCalls++ }

func (m *MockModel) State() Observation { return m.Obs }

func (m *MockModel) Halted() bool { return m.HaltedVal }
