package session

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func vecApproxEqual(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func TestVelocityForSpeedAndDirection(t *testing.T) {
	prior := r3.Vec{X: 0.01, Y: -0.02, Z: 0.003}

	tests := []struct {
		name             string
		ballX, ballY     float64
		targetX, targetY float64
		speed, direction float64
		want             r3.Vec
	}{
		{
			name:  "toward target along +X",
			ballX: 0, ballY: 0, targetX: 10, targetY: 0,
			speed: 5, direction: 0,
			want: r3.Vec{X: 5, Y: 0, Z: 0},
		},
		{
			name:  "reversed by pi",
			ballX: 0, ballY: 0, targetX: 10, targetY: 0,
			speed: 5, direction: math.Pi,
			want: r3.Vec{X: -5, Y: 0, Z: 0},
		},
		{
			name:  "quarter turn",
			ballX: 0, ballY: 0, targetX: 10, targetY: 0,
			speed: 2, direction: math.Pi / 2,
			want: r3.Vec{X: 0, Y: 2, Z: 0},
		},
		{
			name:  "diagonal heading scaled",
			ballX: 0.01, ballY: 0.01, targetX: 0.04, targetY: 0.05,
			speed: 1, direction: 0,
			want: r3.Vec{X: 0.6, Y: 0.8, Z: 0},
		},
		{
			name:  "ball already at target keeps prior velocity",
			ballX: 0.05, ballY: -0.03, targetX: 0.05, targetY: -0.03,
			speed: 5, direction: 1.3,
			want: prior,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := velocityForSpeedAndDirection(tt.ballX, tt.ballY, tt.targetX, tt.targetY, prior, tt.speed, tt.direction)
			if !vecApproxEqual(got, tt.want, 1e-9) {
				t.Errorf("velocityForSpeedAndDirection() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestVelocityMagnitudeMatchesSpeed(t *testing.T) {
	for _, direction := range []float64{0, 0.5, 1.7, math.Pi, -2.4} {
		got := velocityForSpeedAndDirection(0, 0, 0.03, -0.07, r3.Vec{}, 5, direction)
		if mag := r3.Norm(got); math.Abs(mag-5) > 1e-9 {
			t.Errorf("direction %v: |v| = %v, want 5", direction, mag)
		}
		if math.Abs(got.Z) > 1e-9 {
			t.Errorf("direction %v: rotation about Z produced Z component %v", direction, got.Z)
		}
	}
}
