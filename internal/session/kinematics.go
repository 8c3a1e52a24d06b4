package session

import "gonum.org/v1/gonum/spatial/r3"

// velocityForSpeedAndDirection derives an initial ball velocity from a
// speed and a heading offset. The base heading points from the ball to
// the target in the plate plane; it is scaled to |v| = speed and then
// rotated by direction radians about the vertical axis through the ball.
//
// When the ball already sits on the target the heading is the zero
// vector and a direction is meaningless, so the prior velocity is
// returned unchanged.
func velocityForSpeedAndDirection(ballX, ballY, targetX, targetY float64, prior r3.Vec, speed, direction float64) r3.Vec {
	heading := r3.Vec{X: targetX - ballX, Y: targetY - ballY, Z: 0}
	if heading.X == 0 && heading.Y == 0 {
		return prior
	}

	vel := r3.Scale(speed, r3.Unit(heading))
	rot := r3.NewRotation(direction, r3.Vec{X: 0, Y: 0, Z: 1})
	return rot.Rotate(vel)
}
