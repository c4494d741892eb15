package flight

import (
	"math"
	"sync/atomic"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

const (
	// Cross-track speed above which the far zone actively cancels drift.
	lateralCancelThreshold = 5.0
	// Heading tolerance, around the reverse of velocity, for coasting in the mid zone.
	coastAlignment = math.Pi / 6
	// Forward nudge applied when the ship has stalled in the final zone.
	finalNudgeFactor = 1.2
	// Thrust cone multiplier used outside the final zone.
	wideConeFactor = 2.0
)

var controllerSerial atomic.Uint64

// Controller is the approach solver. It flies a body towards a static or moving
// target and stops within ArrivalDistance at roughly ArrivalSpeed.
//
// Between calls it only keeps the zone boundaries derived from the body's limits at
// construction and the last velocity error (for display). Once arrived it stays
// complete; a caller that needs another attempt builds a new Controller.
type Controller struct {
	id     uint64
	params Params

	farApproachDistance   float64
	closeApproachDistance float64

	zone              Zone
	complete          bool
	lastVelocityError physics.Vec2
	err               error
}

// New derives the zone boundaries from body's thrust, speed and turn limits.
func New(params Params, body physics.Body) *Controller {
	c := &Controller{
		id:     controllerSerial.Add(1),
		params: params,
	}
	c.deriveDistances(body)
	return c
}

func (c *Controller) deriveDistances(body physics.Body) {
	reverse := physics.TurnTime(math.Pi, body.TurnRate)
	if math.IsInf(reverse, 0) {
		reverse = 0
	}
	stop := func(v float64) float64 {
		d := physics.StoppingDistance(v, body.ThrustAccel)
		if math.IsInf(d, 0) {
			return 0
		}
		return d
	}
	c.closeApproachDistance = c.params.ArrivalDistance +
		stop(c.params.CloseApproachSpeed) +
		c.params.CloseApproachSpeed*reverse
	c.farApproachDistance = c.closeApproachDistance +
		stop(body.MaxSpeed) +
		body.MaxSpeed*reverse
}

func (c *Controller) ID() uint64                      { return c.id }
func (c *Controller) Params() Params                  { return c.params }
func (c *Controller) Zone() Zone                      { return c.zone }
func (c *Controller) Complete() bool                  { return c.complete }
func (c *Controller) Err() error                      { return c.err }
func (c *Controller) LastVelocityError() physics.Vec2 { return c.lastVelocityError }
func (c *Controller) FarApproachDistance() float64    { return c.farApproachDistance }
func (c *Controller) CloseApproachDistance() float64  { return c.closeApproachDistance }

// Advance computes one tick of control. It fails with TargetInvalid when the target
// state is not finite. A non-positive dt leaves the body coasting on its heading.
func (c *Controller) Advance(body physics.Body, targetPos, targetVel physics.Vec2, dt float64) (Command, error) {
	if !targetPos.IsFinite() || !targetVel.IsFinite() {
		c.err = models.NewError(models.TargetInvalid, "approach", "non-finite target state")
		return Command{DesiredHeading: body.Heading, Zone: c.zone}, c.err
	}
	if c.complete {
		return Command{DesiredHeading: body.Heading, Zone: ZoneArrived, Arrived: true}, nil
	}
	if dt <= 0 {
		return Command{DesiredHeading: body.Heading, Zone: c.zone}, nil
	}

	rel := targetPos.Sub(body.Position)
	dist := rel.Len()
	if dist <= c.params.ArrivalDistance {
		c.complete = true
		c.zone = ZoneArrived
		c.lastVelocityError = physics.Zero
		return Command{DesiredHeading: body.Heading, Zone: ZoneArrived, Arrived: true}, nil
	}

	// Outside the far zone desired velocities are expressed relative to the target,
	// so the line of sight is used instead of the predicted intercept point.
	dir := rel.Unit()
	relVel := body.Velocity.Sub(targetVel)
	threshold := velocityThreshold(c.params.VelocityTolerance, body.ThrustAccel, dt)

	var (
		desired physics.Vec2
		cone    = c.params.ThrustAngleLimit * wideConeFactor
	)
	switch {
	case dist > c.farApproachDistance:
		c.zone = ZoneFar
		aim, _ := Intercept(body.Position, body.Velocity, targetPos, targetVel, c.params.MaxTimeToIntercept)
		if lead := aim.Sub(body.Position).Unit(); lead != physics.Zero {
			dir = lead
		}
		desired = c.far(body, dir)

	case dist > c.closeApproachDistance:
		c.zone = ZoneMid
		var coast bool
		desired, coast = c.mid(body, dir, relVel, targetVel, dist)
		if coast {
			c.lastVelocityError = physics.Zero
			return Command{DesiredHeading: relVel.Neg().Angle(), Zone: ZoneMid}, nil
		}

	default:
		c.zone = ZoneFinal
		cone = c.params.ThrustAngleLimit
		desired = c.final(dir, relVel, targetVel, dist)
	}

	velErr := desired.Sub(body.Velocity)
	c.lastVelocityError = velErr

	heading, thrust := steerVelocity(body, velErr, relVel, threshold, cone)
	return Command{DesiredHeading: heading, Thrust: thrust, Zone: c.zone}, nil
}

// far flies at top speed down the intercept line and cancels sideways drift.
func (c *Controller) far(body physics.Body, dir physics.Vec2) physics.Vec2 {
	desired := dir.Scale(body.MaxSpeed)
	_, lateral := body.Velocity.Project(dir)
	if lateral.Len() > lateralCancelThreshold {
		desired = desired.Sub(lateral)
	}
	return desired
}

// mid picks between braking hard, coasting and a linear speed ramp down to
// CloseApproachSpeed. coast reports that the ship should drift with engines off.
func (c *Controller) mid(body physics.Body, dir, relVel, targetVel physics.Vec2, dist float64) (physics.Vec2, bool) {
	closeSpeed := c.params.CloseApproachSpeed
	distanceToClose := dist - c.closeApproachDistance
	closing := relVel.Dot(dir)

	if closing > closeSpeed {
		reverse := relVel.Neg().Angle()
		misalign := math.Abs(physics.AngleDiff(body.Heading, reverse))
		brakeDistance := (closing*closing - closeSpeed*closeSpeed) / (2 * body.ThrustAccel)
		stoppingDistance := brakeDistance + closing*physics.TurnTime(misalign, body.TurnRate)

		if stoppingDistance >= distanceToClose {
			return targetVel.Add(dir.Scale(closeSpeed)), false
		}
		_, lateral := relVel.Project(dir)
		if misalign <= coastAlignment && lateral.Len() <= lateralCancelThreshold {
			return relVel, true
		}
	}

	span := c.farApproachDistance - c.closeApproachDistance
	frac := 1.0
	if span > 0 {
		frac = math.Max(0, math.Min(1, distanceToClose/span))
	}
	speed := closeSpeed + (body.MaxSpeed-closeSpeed)*frac
	brakeable := math.Sqrt(closeSpeed*closeSpeed + 2*body.ThrustAccel*distanceToClose)
	speed = math.Min(speed, brakeable)
	return targetVel.Add(dir.Scale(speed)).ClampLen(body.MaxSpeed + targetVel.Len()), false
}

// final ramps speed from CloseApproachSpeed down to ArrivalSpeed.
func (c *Controller) final(dir, relVel, targetVel physics.Vec2, dist float64) physics.Vec2 {
	span := c.closeApproachDistance - c.params.ArrivalDistance
	frac := 0.0
	if span > 0 {
		frac = math.Max(0, math.Min(1, (dist-c.params.ArrivalDistance)/span))
	}
	speed := c.params.ArrivalSpeed + (c.params.CloseApproachSpeed-c.params.ArrivalSpeed)*frac
	if relVel.Dot(dir) < c.params.ArrivalSpeed {
		speed *= finalNudgeFactor
	}
	return targetVel.Add(dir.Scale(speed))
}

// Steer validates target against the vehicle's partition, advances one tick and
// writes the command to the vehicle. Arrival leaves the engines off.
func (c *Controller) Steer(v models.Vehicle, target models.Target, dt float64) (Command, error) {
	if !models.StillValid(target, v.Partition()) {
		c.err = models.NewError(models.TargetInvalid, "approach", "target lost")
		v.SetThrustEnabled(false)
		return Command{DesiredHeading: v.Heading(), Zone: c.zone}, c.err
	}
	return c.SteerTo(v, target.Position(), target.Velocity(), dt)
}

// SteerTo is Steer for a bare point, e.g. an offset from a body.
func (c *Controller) SteerTo(v models.Vehicle, pos, vel physics.Vec2, dt float64) (Command, error) {
	cmd, err := c.Advance(models.BodyOf(v), pos, vel, dt)
	v.SetDesiredHeading(cmd.DesiredHeading)
	v.SetThrustEnabled(err == nil && cmd.Thrust)
	return cmd, err
}
