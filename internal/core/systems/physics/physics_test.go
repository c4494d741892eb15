package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func TestVectorBasics(t *testing.T) {
	a, b := V(3, 4), V(1, -2)
	assert.Equal(t, V(4, 2), a.Add(b))
	assert.Equal(t, V(2, 6), a.Sub(b))
	assert.Equal(t, V(6, 8), a.Scale(2))
	assert.InDelta(t, 5, a.Len(), eps)
	assert.InDelta(t, 25, a.LenSq(), eps)
	assert.InDelta(t, -5, a.Dot(b), eps)
	assert.InDelta(t, -10, a.Cross(b), eps)
	assert.Equal(t, Zero, Zero.Unit())
	assert.InDelta(t, 1, a.Unit().Len(), eps)
}

func TestProjectAndRotate(t *testing.T) {
	along, lateral := V(3, 4).Project(V(10, 0))
	assert.InDelta(t, 3, along.X, eps)
	assert.InDelta(t, 0, along.Y, eps)
	assert.InDelta(t, 4, lateral.Y, eps)

	r := V(1, 0).Rotate(math.Pi / 2)
	assert.InDelta(t, 0, r.X, eps)
	assert.InDelta(t, 1, r.Y, eps)
	assert.InDelta(t, math.Pi/2, r.Angle(), eps)
}

func TestNormalizeAngle(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{-3 * math.Pi / 2, math.Pi / 2},
		{7, 7 - 2*math.Pi},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, NormalizeAngle(c.in), eps, "in=%v", c.in)
	}
}

func TestRotateTowardsIsRateLimited(t *testing.T) {
	h := RotateTowards(0, math.Pi/2, 0.1)
	assert.InDelta(t, 0.1, h, eps)

	// shortest way round crosses ±π
	h = RotateTowards(3, -3, 0.1)
	assert.InDelta(t, NormalizeAngle(3.1), h, eps)

	assert.InDelta(t, 0.05, RotateTowards(0, 0.05, 0.1), eps)
}

func TestIntegrateRespectsLimits(t *testing.T) {
	b := Body{ThrustAccel: 100, MaxSpeed: 50, TurnRate: math.Pi, DesiredHeading: math.Pi / 2, Thrusting: true}
	dt := 1.0 / 60
	prev := b.Heading
	for i := 0; i < 600; i++ {
		b.Integrate(dt)
		assert.LessOrEqual(t, math.Abs(AngleDiff(prev, b.Heading)), b.TurnRate*dt+eps)
		assert.LessOrEqual(t, b.Speed(), b.MaxSpeed+SpeedEpsilon)
		prev = b.Heading
	}
	assert.InDelta(t, math.Pi/2, b.Heading, eps)
	assert.Greater(t, b.Position.Y, 0.0)
}

func TestStoppingAndTurnTime(t *testing.T) {
	assert.InDelta(t, 200, StoppingDistance(200, 100), eps)
	assert.True(t, math.IsInf(StoppingDistance(1, 0), 1))
	assert.InDelta(t, 1, TurnTime(-math.Pi, math.Pi), eps)
}
