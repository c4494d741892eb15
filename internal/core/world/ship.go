package world

import (
	"math"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/events"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

// ShipSpec describes a ship to spawn.
type ShipSpec struct {
	Name        string             `yaml:"name"`
	Faction     string             `yaml:"faction"`
	Partition   models.PartitionID `yaml:"partition"`
	Position    physics.Vec2       `yaml:"position"`
	Velocity    physics.Vec2       `yaml:"velocity"`
	Heading     float64            `yaml:"heading"`
	Radius      float64            `yaml:"radius"`
	ThrustAccel float64            `yaml:"thrust_accel"`
	MaxSpeed    float64            `yaml:"max_speed"`
	TurnRate    float64            `yaml:"turn_rate"`
	Hull        float64            `yaml:"hull"`
}

// Ship is a simulated vehicle. The world integrates it; a pilot steers it through
// the models.Vehicle methods.
type Ship struct {
	handle    Handle
	world     *World
	name      string
	faction   string
	partition models.PartitionID
	radius    float64

	body physics.Body

	state    models.DiscreteState
	timer    float64
	cooldown float64
	landedOn models.Landable
	jumpGate models.Gate
	selected models.Target

	hull    float64
	maxHull float64
}

var _ models.Vehicle = (*Ship)(nil)

func (s *Ship) Handle() Handle                      { return s.handle }
func (s *Ship) Name() string                        { return s.name }
func (s *Ship) Faction() string                     { return s.faction }
func (s *Ship) Partition() models.PartitionID       { return s.partition }
func (s *Ship) Position() physics.Vec2              { return s.body.Position }
func (s *Ship) Velocity() physics.Vec2              { return s.body.Velocity }
func (s *Ship) Radius() float64                     { return s.radius }
func (s *Ship) Valid() bool                         { return s.world.reg.Alive(s.handle) }
func (s *Ship) Heading() float64                    { return s.body.Heading }
func (s *Ship) DesiredHeading() float64             { return s.body.DesiredHeading }
func (s *Ship) ThrustAccel() float64                { return s.body.ThrustAccel }
func (s *Ship) MaxSpeed() float64                   { return s.body.MaxSpeed }
func (s *Ship) TurnRate() float64                   { return s.body.TurnRate }
func (s *Ship) SetDesiredHeading(angle float64)     { s.body.DesiredHeading = physics.NormalizeAngle(angle) }
func (s *Ship) Thrusting() bool                     { return s.body.Thrusting }
func (s *Ship) SetVelocity(v physics.Vec2)          { s.body.Velocity = v }
func (s *Ship) SetPosition(p physics.Vec2)          { s.body.Position = p }
func (s *Ship) DiscreteState() models.DiscreteState { return s.state }
func (s *Ship) LandedOn() models.Landable           { return s.landedOn }
func (s *Ship) JumpGate() models.Gate               { return s.jumpGate }
func (s *Ship) SelectedTarget() models.Target       { return s.selected }
func (s *Ship) SetSelectedTarget(t models.Target)   { s.selected = t }
func (s *Ship) Hull() float64                       { return s.hull }
func (s *Ship) MaxHull() float64                    { return s.maxHull }
func (s *Ship) JumpCooldown() float64               { return math.Max(0, s.cooldown) }
func (s *Ship) Ref() ShipRef                        { return ShipRef{Ref{reg: s.world.reg, h: s.handle}} }

// SetThrustEnabled is ignored unless the ship is flying.
func (s *Ship) SetThrustEnabled(on bool) {
	s.body.Thrusting = on && s.state == models.Flying
}

// CanLand reports whether target is close and slow enough, relative to the ship, to
// accept a landing right now.
func (s *Ship) CanLand(target models.Landable) bool {
	if !models.StillValid(target, s.partition) {
		return false
	}
	if s.body.Position.Dist(target.Position()) > target.Radius() {
		return false
	}
	return s.body.Velocity.Sub(target.Velocity()).Len() <= target.LandingSpeedLimit()
}

func (s *Ship) RequestLanding(target models.Landable) bool {
	if s.state != models.Flying || !s.CanLand(target) {
		return false
	}
	s.state = models.Landing
	s.timer = s.world.timings.Landing
	s.landedOn = target
	s.body.Thrusting = false
	return true
}

func (s *Ship) RequestTakeoff() bool {
	if s.state != models.Landed {
		return false
	}
	s.state = models.TakingOff
	s.timer = s.world.timings.Takeoff
	return true
}

// RequestHyperjump is rejected while the jump drive cools down, or when the ship is
// not flying inside gate's trigger area.
func (s *Ship) RequestHyperjump(gate models.Gate) bool {
	if s.state != models.Flying || s.cooldown > 0 {
		return false
	}
	if !models.StillValid(gate, s.partition) || !gate.Overlaps(s.body.Position) {
		return false
	}
	s.state = models.JumpingOut
	s.timer = s.world.timings.JumpOut
	s.jumpGate = gate
	s.body.Thrusting = false
	return true
}

func (s *Ship) step(dt float64) {
	if s.cooldown > 0 {
		s.cooldown -= dt
	}
	s.timer -= dt

	switch s.state {
	case models.Flying:
		s.body.Integrate(dt)

	case models.Landing:
		if !models.StillValid(s.landedOn, s.partition) {
			s.abortLanding()
			return
		}
		s.glideTo(s.landedOn, dt)
		if s.timer <= 0 {
			s.state = models.Landed
			s.body.Velocity = s.landedOn.Velocity()
			s.world.publish(events.ShipLanded, s.name, events.Landing{Ship: s.name, Body: s.landedOn.Name()})
		}

	case models.Landed:
		if !models.StillValid(s.landedOn, s.partition) {
			s.abortLanding()
			return
		}
		s.body.Position = s.landedOn.Position()
		s.body.Velocity = s.landedOn.Velocity()

	case models.TakingOff:
		s.body.Position = s.body.Position.Add(s.body.Velocity.Scale(dt))
		if s.timer <= 0 {
			body := ""
			if s.landedOn != nil {
				body = s.landedOn.Name()
			}
			s.state = models.Flying
			s.landedOn = nil
			s.world.publish(events.ShipTookOff, s.name, events.Landing{Ship: s.name, Body: body})
		}

	case models.JumpingOut:
		s.body.Thrusting = false
		s.body.Integrate(dt)
		if s.timer <= 0 {
			s.arrive()
		}

	case models.JumpingIn:
		s.body.Thrusting = false
		s.body.Integrate(dt)
		if s.timer <= 0 {
			s.state = models.Flying
			s.jumpGate = nil
			s.cooldown = s.world.timings.JumpCooldown
		}
	}
}

// glideTo eases the ship onto the body's centre over the remaining landing time.
func (s *Ship) glideTo(target models.Target, dt float64) {
	remaining := math.Max(s.timer, dt)
	frac := math.Min(1, dt/remaining)
	center := target.Position().Add(target.Velocity().Scale(dt))
	s.body.Position = s.body.Position.Add(center.Sub(s.body.Position).Scale(frac))
	s.body.Velocity = target.Velocity()
}

func (s *Ship) abortLanding() {
	s.state = models.Flying
	s.landedOn = nil
	s.timer = 0
}

// arrive moves the ship through the link into the destination partition.
func (s *Ship) arrive() {
	from := s.partition
	out := s.jumpGate
	exit := s.world.linkedGate(out)
	if exit == nil {
		s.state = models.Flying
		s.jumpGate = nil
		s.cooldown = s.world.timings.JumpCooldown
		return
	}
	s.partition = exit.partition
	speed := math.Min(s.body.Velocity.Len(), s.body.MaxSpeed/2)
	s.body.Position = exit.pos
	s.body.Velocity = physics.FromAngle(s.body.Heading, speed)
	s.state = models.JumpingIn
	s.timer = s.world.timings.JumpIn
	s.jumpGate = GateRef{Ref{reg: s.world.reg, h: exit.handle}}

	name := ""
	if out != nil {
		name = out.Name()
	}
	s.world.publish(events.ShipJumped, s.name, events.Jump{Ship: s.name, From: from, To: exit.partition, Gate: name})
}

func (s *Ship) damage(amount float64, attacker models.Target) {
	s.hull -= amount
	s.world.publish(events.ShipDamaged, s.name, events.Damage{
		Victim:   s.name,
		Attacker: attacker,
		Amount:   amount,
		Hull:     s.hull,
	})
}
