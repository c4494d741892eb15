package flight

import (
	"math"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

// Leader is the state of an escorted vehicle the Follower tracks.
type Leader struct {
	Position  physics.Vec2
	Velocity  physics.Vec2
	Heading   float64
	Thrusting bool
}

func LeaderOf(v models.Vehicle) Leader {
	return Leader{
		Position:  v.Position(),
		Velocity:  v.Velocity(),
		Heading:   v.Heading(),
		Thrusting: v.Thrusting(),
	}
}

// Follower keeps a body in loose formation around a leader. Beyond twice the
// follow radius it closes at up to top speed on the leader's predicted position;
// between one and two radii it blends towards the leader's velocity; inside the
// radius it matches that velocity.
type Follower struct {
	params            FollowParams
	lastVelocityError physics.Vec2
}

func NewFollower(params FollowParams) *Follower {
	return &Follower{params: params}
}

func (f *Follower) Params() FollowParams            { return f.params }
func (f *Follower) LastVelocityError() physics.Vec2 { return f.lastVelocityError }

// DesiredVelocity is the formation velocity for body at its current position.
func (f *Follower) DesiredVelocity(body physics.Body, leader Leader) physics.Vec2 {
	r := f.params.FollowRadius
	dist := leader.Position.Dist(body.Position)
	if dist <= r {
		return leader.Velocity
	}

	aim, _ := Intercept(body.Position, body.Velocity, leader.Position, leader.Velocity, f.params.MaxTimeToIntercept)
	dir := aim.Sub(body.Position).Unit()
	if dir == physics.Zero {
		dir = leader.Position.Sub(body.Position).Unit()
	}
	closeSpeed := math.Min(body.MaxSpeed, math.Sqrt(body.ThrustAccel*(dist-r)))
	approach := leader.Velocity.Add(dir.Scale(closeSpeed)).ClampLen(math.Max(body.MaxSpeed, leader.Velocity.Len()))

	if dist >= 2*r {
		return approach
	}
	w := (dist - r) / r
	return leader.Velocity.Add(approach.Sub(leader.Velocity).Scale(w))
}

// Advance returns the follow command for one tick.
func (f *Follower) Advance(body physics.Body, leader Leader, dt float64) Command {
	if dt <= 0 {
		return Command{DesiredHeading: body.Heading}
	}
	desired := f.DesiredVelocity(body, leader)
	velErr := desired.Sub(body.Velocity)
	f.lastVelocityError = velErr

	threshold := velocityThreshold(f.params.VelocityTolerance, body.ThrustAccel, dt)
	if velErr.Len() > threshold {
		heading := velErr.Angle()
		return Command{
			DesiredHeading: heading,
			Thrust:         math.Abs(physics.AngleDiff(body.Heading, heading)) <= f.params.ThrustAngleLimit*wideConeFactor,
		}
	}
	if !leader.Thrusting {
		return Command{DesiredHeading: leader.Heading}
	}
	return Command{DesiredHeading: body.Heading}
}

// Steer follows leader and writes the command to v.
func (f *Follower) Steer(v models.Vehicle, leader models.Vehicle, dt float64) (Command, error) {
	if !models.StillValid(leader, v.Partition()) {
		v.SetThrustEnabled(false)
		return Command{DesiredHeading: v.Heading()}, models.NewError(models.TargetInvalid, "follow", "escorted vehicle lost")
	}
	cmd := f.Advance(models.BodyOf(v), LeaderOf(leader), dt)
	v.SetDesiredHeading(cmd.DesiredHeading)
	v.SetThrustEnabled(cmd.Thrust)
	return cmd, nil
}
