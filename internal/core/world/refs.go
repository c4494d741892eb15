package world

import (
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

// Ref is a weak reference to an entity. Every accessor resolves the handle again,
// so a Ref never keeps a removed entity reachable and reads as zero once it is gone.
// Refs are comparable: two Refs to the same entity are ==.
type Ref struct {
	reg *Registry
	h   Handle
}

var _ models.Target = Ref{}

func (r Ref) Handle() Handle { return r.h }

func (r Ref) entity() (Entity, bool) {
	if r.reg == nil {
		return nil, false
	}
	return r.reg.Get(r.h)
}

func (r Ref) Valid() bool {
	_, ok := r.entity()
	return ok
}

func (r Ref) Name() string {
	if e, ok := r.entity(); ok {
		return e.Name()
	}
	return ""
}

func (r Ref) Position() physics.Vec2 {
	if e, ok := r.entity(); ok {
		return e.Position()
	}
	return physics.Zero
}

func (r Ref) Velocity() physics.Vec2 {
	if e, ok := r.entity(); ok {
		return e.Velocity()
	}
	return physics.Zero
}

func (r Ref) Radius() float64 {
	if e, ok := r.entity(); ok {
		return e.Radius()
	}
	return 0
}

func (r Ref) Partition() models.PartitionID {
	if e, ok := r.entity(); ok {
		return e.Partition()
	}
	return ""
}

// BodyRef is a weak reference to a Body.
type BodyRef struct{ Ref }

var _ models.Landable = BodyRef{}

func (r BodyRef) body() *Body {
	if e, ok := r.entity(); ok {
		b, _ := e.(*Body)
		return b
	}
	return nil
}

func (r BodyRef) LandingSpeedLimit() float64 {
	if b := r.body(); b != nil {
		return b.speedLimit
	}
	return 0
}

func (r BodyRef) Kind() models.LandableKind {
	if b := r.body(); b != nil {
		return b.kind
	}
	return models.KindPlanet
}

// GateRef is a weak reference to a Gate.
type GateRef struct{ Ref }

var _ models.Gate = GateRef{}

func (r GateRef) gate() *Gate {
	if e, ok := r.entity(); ok {
		g, _ := e.(*Gate)
		return g
	}
	return nil
}

func (r GateRef) Destination() models.PartitionID {
	if g := r.gate(); g != nil {
		return g.dest
	}
	return ""
}

func (r GateRef) TriggerRadius() float64 {
	if g := r.gate(); g != nil {
		return g.trigger
	}
	return 0
}

func (r GateRef) Overlaps(p physics.Vec2) bool {
	if g := r.gate(); g != nil {
		return g.Overlaps(p)
	}
	return false
}

// ShipRef is a weak reference to a Ship, used for escort leaders and attack targets.
// Commands sent through a dead ShipRef are dropped.
type ShipRef struct{ Ref }

var _ models.Vehicle = ShipRef{}

// Ship resolves the reference, returning nil once the ship is gone.
func (r ShipRef) Ship() *Ship {
	if e, ok := r.entity(); ok {
		s, _ := e.(*Ship)
		return s
	}
	return nil
}

func (r ShipRef) Faction() string {
	if s := r.Ship(); s != nil {
		return s.faction
	}
	return ""
}

func (r ShipRef) Heading() float64 {
	if s := r.Ship(); s != nil {
		return s.Heading()
	}
	return 0
}

func (r ShipRef) ThrustAccel() float64 {
	if s := r.Ship(); s != nil {
		return s.ThrustAccel()
	}
	return 0
}

func (r ShipRef) MaxSpeed() float64 {
	if s := r.Ship(); s != nil {
		return s.MaxSpeed()
	}
	return 0
}

func (r ShipRef) TurnRate() float64 {
	if s := r.Ship(); s != nil {
		return s.TurnRate()
	}
	return 0
}

func (r ShipRef) SetDesiredHeading(angle float64) {
	if s := r.Ship(); s != nil {
		s.SetDesiredHeading(angle)
	}
}

func (r ShipRef) SetThrustEnabled(on bool) {
	if s := r.Ship(); s != nil {
		s.SetThrustEnabled(on)
	}
}

func (r ShipRef) Thrusting() bool {
	if s := r.Ship(); s != nil {
		return s.Thrusting()
	}
	return false
}

func (r ShipRef) SetVelocity(v physics.Vec2) {
	if s := r.Ship(); s != nil {
		s.SetVelocity(v)
	}
}

func (r ShipRef) SetPosition(p physics.Vec2) {
	if s := r.Ship(); s != nil {
		s.SetPosition(p)
	}
}

func (r ShipRef) DiscreteState() models.DiscreteState {
	if s := r.Ship(); s != nil {
		return s.DiscreteState()
	}
	return models.Flying
}

func (r ShipRef) RequestLanding(target models.Landable) bool {
	if s := r.Ship(); s != nil {
		return s.RequestLanding(target)
	}
	return false
}

func (r ShipRef) RequestTakeoff() bool {
	if s := r.Ship(); s != nil {
		return s.RequestTakeoff()
	}
	return false
}

func (r ShipRef) RequestHyperjump(gate models.Gate) bool {
	if s := r.Ship(); s != nil {
		return s.RequestHyperjump(gate)
	}
	return false
}

func (r ShipRef) CanLand(target models.Landable) bool {
	if s := r.Ship(); s != nil {
		return s.CanLand(target)
	}
	return false
}

func (r ShipRef) LandedOn() models.Landable {
	if s := r.Ship(); s != nil {
		return s.LandedOn()
	}
	return nil
}

func (r ShipRef) JumpGate() models.Gate {
	if s := r.Ship(); s != nil {
		return s.JumpGate()
	}
	return nil
}

func (r ShipRef) SelectedTarget() models.Target {
	if s := r.Ship(); s != nil {
		return s.SelectedTarget()
	}
	return nil
}

func (r ShipRef) SetSelectedTarget(t models.Target) {
	if s := r.Ship(); s != nil {
		s.SetSelectedTarget(t)
	}
}
