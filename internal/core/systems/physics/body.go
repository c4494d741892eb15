package physics

import "math"

// SpeedEpsilon is the tolerance allowed above MaxSpeed after integration.
const SpeedEpsilon = 1e-6

// Body is the kinematic state of a vehicle together with its actuation limits.
// Controllers only write DesiredHeading and Thrusting; Integrate applies them.
type Body struct {
	Position       Vec2
	Velocity       Vec2
	Heading        float64
	DesiredHeading float64
	Thrusting      bool

	ThrustAccel float64 // units/s²
	MaxSpeed    float64 // units/s
	TurnRate    float64 // rad/s
}

// Integrate advances the body by dt seconds: a rate-limited turn towards
// DesiredHeading, thrust along the new heading, a speed clamp and a position step.
func (b *Body) Integrate(dt float64) {
	if dt <= 0 {
		return
	}
	b.Heading = RotateTowards(b.Heading, b.DesiredHeading, b.TurnRate*dt)

	if b.Thrusting && b.ThrustAccel > 0 {
		b.Velocity = b.Velocity.Add(FromAngle(b.Heading, b.ThrustAccel*dt))
	}
	if b.MaxSpeed > 0 {
		b.Velocity = b.Velocity.ClampLen(b.MaxSpeed)
	}
	b.Position = b.Position.Add(b.Velocity.Scale(dt))
}

func (b *Body) Speed() float64 { return b.Velocity.Len() }

// StoppingDistance is v²/2a for the body's thrust.
func (b *Body) StoppingDistance(v float64) float64 {
	return StoppingDistance(v, b.ThrustAccel)
}

// TurnTime is how long a turn of angle radians takes at the body's turn rate.
func (b *Body) TurnTime(angle float64) float64 {
	return TurnTime(angle, b.TurnRate)
}

func StoppingDistance(v, accel float64) float64 {
	if accel <= 0 {
		return math.Inf(1)
	}
	return v * v / (2 * accel)
}

func TurnTime(angle, turnRate float64) float64 {
	if turnRate <= 0 {
		return math.Inf(1)
	}
	return math.Abs(angle) / turnRate
}
