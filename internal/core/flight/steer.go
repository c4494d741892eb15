package flight

import (
	"math"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

// Zone is the approach band a Controller evaluated in.
type Zone uint8

const (
	ZoneFar Zone = iota
	ZoneMid
	ZoneFinal
	ZoneArrived
)

func (z Zone) String() string {
	switch z {
	case ZoneFar:
		return "far"
	case ZoneMid:
		return "mid"
	case ZoneFinal:
		return "final"
	case ZoneArrived:
		return "arrived"
	default:
		return "unknown"
	}
}

// Command is what a controller writes back onto the vehicle for one tick.
type Command struct {
	DesiredHeading float64
	Thrust         bool
	Zone           Zone
	Arrived        bool
}

// Intercept predicts where a target will be when the pursuer closes on it. The
// time-to-impact is distance over closing speed, capped at maxT; a target that is
// not being closed on uses the cap.
func Intercept(pos, vel, targetPos, targetVel physics.Vec2, maxT float64) (physics.Vec2, float64) {
	if targetVel.LenSq() == 0 || maxT <= 0 {
		return targetPos, 0
	}
	rel := targetPos.Sub(pos)
	dist := rel.Len()
	closing := vel.Sub(targetVel).Dot(rel.Unit())

	t := maxT
	if closing > 0 {
		t = math.Min(dist/closing, maxT)
	}
	return targetPos.Add(targetVel.Scale(t)), t
}

// velocityThreshold is the smallest velocity error worth thrusting for: one tick of
// thrust, or the configured tolerance if larger.
func velocityThreshold(tolerance, accel, dt float64) float64 {
	return math.Max(tolerance, accel*dt)
}

// steerVelocity turns a velocity error into a heading and thrust flag. Thrust is
// only enabled once the ship points within cone of the error direction. Below the
// threshold the ship turns to face against refVel, ready to brake, without thrust.
func steerVelocity(body physics.Body, velErr, refVel physics.Vec2, threshold, cone float64) (float64, bool) {
	if velErr.Len() > threshold {
		heading := velErr.Angle()
		return heading, math.Abs(physics.AngleDiff(body.Heading, heading)) <= cone
	}
	if refVel.LenSq() < 1e-12 {
		return body.Heading, false
	}
	return refVel.Neg().Angle(), false
}

// Hold brakes the body to a stop relative to frameVel and then keeps its heading.
func Hold(body physics.Body, frameVel physics.Vec2, tolerance, thrustAngleLimit, dt float64) Command {
	rel := body.Velocity.Sub(frameVel)
	threshold := velocityThreshold(tolerance, body.ThrustAccel, dt)
	if rel.Len() <= threshold {
		return Command{DesiredHeading: body.Heading}
	}
	heading := rel.Neg().Angle()
	return Command{
		DesiredHeading: heading,
		Thrust:         math.Abs(physics.AngleDiff(body.Heading, heading)) <= thrustAngleLimit,
	}
}
