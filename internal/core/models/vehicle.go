package models

import (
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

// DiscreteState is the vehicle's coarse, externally owned mode.
type DiscreteState uint8

const (
	Flying DiscreteState = iota
	Landing
	Landed
	TakingOff
	JumpingOut
	JumpingIn
)

func (s DiscreteState) String() string {
	switch s {
	case Flying:
		return "flying"
	case Landing:
		return "landing"
	case Landed:
		return "landed"
	case TakingOff:
		return "taking_off"
	case JumpingOut:
		return "jumping_out"
	case JumpingIn:
		return "jumping_in"
	default:
		return "unknown"
	}
}

// Vehicle is the ship a pilot flies. Its integrator is owned elsewhere; pilots only
// read kinematics and write the desired heading and thrust flag.
type Vehicle interface {
	Target

	Heading() float64
	ThrustAccel() float64
	MaxSpeed() float64
	TurnRate() float64

	SetDesiredHeading(angle float64)
	SetThrustEnabled(on bool)
	Thrusting() bool

	// SetVelocity and SetPosition are used only by the docking speed-bleed.
	SetVelocity(v physics.Vec2)
	SetPosition(p physics.Vec2)

	DiscreteState() DiscreteState
	RequestLanding(target Landable) bool
	RequestTakeoff() bool
	RequestHyperjump(gate Gate) bool
	CanLand(target Landable) bool

	// LandedOn is the body the vehicle is landing on or landed on, nil otherwise.
	LandedOn() Landable
	// JumpGate is the gate in use while JumpingOut or JumpingIn, nil otherwise.
	JumpGate() Gate
	// SelectedTarget is the vehicle's current weapons target, possibly nil.
	SelectedTarget() Target
}

// BodyOf snapshots a vehicle's kinematics and limits for the flight controllers.
func BodyOf(v Vehicle) physics.Body {
	return physics.Body{
		Position:    v.Position(),
		Velocity:    v.Velocity(),
		Heading:     v.Heading(),
		Thrusting:   v.Thrusting(),
		ThrustAccel: v.ThrustAccel(),
		MaxSpeed:    v.MaxSpeed(),
		TurnRate:    v.TurnRate(),
	}
}
