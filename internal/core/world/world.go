package world

import (
	"sort"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/events"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/events/bus"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/observability/log"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

// Timings are the durations, in seconds, of the ship's discrete transitions.
type Timings struct {
	Landing      float64 `yaml:"landing"`
	Takeoff      float64 `yaml:"takeoff"`
	JumpOut      float64 `yaml:"jump_out"`
	JumpIn       float64 `yaml:"jump_in"`
	JumpCooldown float64 `yaml:"jump_cooldown"`
}

func DefaultTimings() Timings {
	return Timings{Landing: 1, Takeoff: 1, JumpOut: 1, JumpIn: 1, JumpCooldown: 5}
}

// World is the reference collaborator layer: it owns bodies, gates, ships and
// projectiles, integrates them and raises events. It is not safe for concurrent use.
type World struct {
	reg     *Registry
	bus     bus.EventBus
	log     log.Log
	timings Timings
	now     float64
	hostile map[[2]string]bool

	// events raised during Integrate, delivered once the frame is settled
	stepping bool
	pending  []bus.Event
}

type Option func(*World)

func WithBus(b bus.EventBus) Option { return func(w *World) { w.bus = b } }
func WithLogger(l log.Log) Option   { return func(w *World) { w.log = l } }
func WithTimings(t Timings) Option  { return func(w *World) { w.timings = t } }

func New(opts ...Option) *World {
	w := &World{
		reg:     NewRegistry(),
		log:     log.NewNop(),
		timings: DefaultTimings(),
		hostile: make(map[[2]string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *World) Now() float64        { return w.now }
func (w *World) Registry() *Registry { return w.reg }
func (w *World) Timings() Timings    { return w.timings }

func (w *World) publish(typ, src string, data any) {
	if w.bus == nil {
		return
	}
	ev := bus.NewEvent(typ, src, w.now, data, nil)
	if w.stepping {
		w.pending = append(w.pending, ev)
		return
	}
	if err := w.bus.Publish(ev); err != nil {
		w.log.Warn("event handler failed", log.String("event", typ), log.Error(err))
	}
}

func (w *World) flush() {
	if len(w.pending) == 0 {
		return
	}
	batch := w.pending
	w.pending = nil
	if err := w.bus.PublishBatch(batch...); err != nil {
		w.log.Warn("event handlers failed", log.Int("events", len(batch)), log.Error(err))
	}
}

func (w *World) addBody(kind models.LandableKind, name string, partition models.PartitionID, pos, vel physics.Vec2, radius, speedLimit float64) BodyRef {
	h := w.reg.Insert(func(h Handle) Entity {
		return &Body{handle: h, name: name, kind: kind, partition: partition, pos: pos, vel: vel, radius: radius, speedLimit: speedLimit}
	})
	return BodyRef{Ref{reg: w.reg, h: h}}
}

func (w *World) AddPlanet(name string, partition models.PartitionID, pos physics.Vec2, radius, speedLimit float64) BodyRef {
	return w.addBody(models.KindPlanet, name, partition, pos, physics.Zero, radius, speedLimit)
}

func (w *World) AddStation(name string, partition models.PartitionID, pos physics.Vec2, radius, speedLimit float64) BodyRef {
	return w.addBody(models.KindStation, name, partition, pos, physics.Zero, radius, speedLimit)
}

func (w *World) AddAsteroid(name string, partition models.PartitionID, pos, vel physics.Vec2, radius, speedLimit float64) BodyRef {
	return w.addBody(models.KindAsteroid, name, partition, pos, vel, radius, speedLimit)
}

// GateSpec places one end of a link.
type GateSpec struct {
	Name          string             `yaml:"name"`
	Partition     models.PartitionID `yaml:"partition"`
	Position      physics.Vec2       `yaml:"position"`
	Radius        float64            `yaml:"radius"`
	TriggerRadius float64            `yaml:"trigger_radius"`
}

// LinkGates creates a gate in each partition, each leading to the other.
func (w *World) LinkGates(a, b GateSpec) (GateRef, GateRef) {
	ha := w.reg.Insert(func(h Handle) Entity {
		return &Gate{handle: h, name: a.Name, partition: a.Partition, pos: a.Position, radius: a.Radius, trigger: a.TriggerRadius, dest: b.Partition}
	})
	hb := w.reg.Insert(func(h Handle) Entity {
		return &Gate{handle: h, name: b.Name, partition: b.Partition, pos: b.Position, radius: b.Radius, trigger: b.TriggerRadius, dest: a.Partition, link: ha}
	})
	if e, ok := w.reg.Get(ha); ok {
		e.(*Gate).link = hb
	}
	return GateRef{Ref{reg: w.reg, h: ha}}, GateRef{Ref{reg: w.reg, h: hb}}
}

// linkedGate resolves the far end of a gate, nil if either end is gone.
func (w *World) linkedGate(g models.Gate) *Gate {
	if g == nil {
		return nil
	}
	ref, ok := g.(GateRef)
	if !ok {
		return nil
	}
	near := ref.gate()
	if near == nil {
		return nil
	}
	if e, ok := w.reg.Get(near.link); ok {
		far, _ := e.(*Gate)
		return far
	}
	return nil
}

// FindLinkTo returns the gate in `from` leading to `to`, or nil.
func (w *World) FindLinkTo(from, to models.PartitionID) models.Gate {
	var found models.Gate
	w.reg.Each(func(e Entity) {
		if found != nil {
			return
		}
		if g, ok := e.(*Gate); ok && g.partition == from && g.dest == to {
			found = GateRef{Ref{reg: w.reg, h: g.handle}}
		}
	})
	return found
}

func (w *World) AddShip(spec ShipSpec) *Ship {
	var ship *Ship
	w.reg.Insert(func(h Handle) Entity {
		body := physics.Body{
			Position:       spec.Position,
			Velocity:       spec.Velocity,
			Heading:        physics.NormalizeAngle(spec.Heading),
			DesiredHeading: physics.NormalizeAngle(spec.Heading),
			ThrustAccel:    spec.ThrustAccel,
			MaxSpeed:       spec.MaxSpeed,
			TurnRate:       spec.TurnRate,
		}
		ship = &Ship{
			handle:    h,
			world:     w,
			name:      spec.Name,
			faction:   spec.Faction,
			partition: spec.Partition,
			radius:    spec.Radius,
			body:      body,
			hull:      spec.Hull,
			maxHull:   spec.Hull,
		}
		return ship
	})
	return ship
}

// LandShip puts a ship down on body immediately, for scenario setup.
func (w *World) LandShip(s *Ship, body models.Landable) {
	s.state = models.Landed
	s.landedOn = body
	s.partition = body.Partition()
	s.body.Position = body.Position()
	s.body.Velocity = body.Velocity()
	s.body.Thrusting = false
}

func (w *World) Remove(h Handle) bool { return w.reg.Remove(h) }

func (w *World) Ship(h Handle) *Ship {
	if e, ok := w.reg.Get(h); ok {
		s, _ := e.(*Ship)
		return s
	}
	return nil
}

func (w *World) Ships() []*Ship {
	var out []*Ship
	w.reg.Each(func(e Entity) {
		if s, ok := e.(*Ship); ok {
			out = append(out, s)
		}
	})
	return out
}

func (w *World) ShipByName(name string) *Ship {
	for _, s := range w.Ships() {
		if s.name == name {
			return s
		}
	}
	return nil
}

func (w *World) BodyByName(name string) (BodyRef, bool) {
	var ref BodyRef
	found := false
	w.reg.Each(func(e Entity) {
		if b, ok := e.(*Body); ok && !found && b.name == name {
			ref, found = BodyRef{Ref{reg: w.reg, h: b.handle}}, true
		}
	})
	return ref, found
}

func (w *World) GateByName(name string) (GateRef, bool) {
	var ref GateRef
	found := false
	w.reg.Each(func(e Entity) {
		if g, ok := e.(*Gate); ok && !found && g.name == name {
			ref, found = GateRef{Ref{reg: w.reg, h: g.handle}}, true
		}
	})
	return ref, found
}

// Landable and Vehicle resolve names to weak references for planners.
func (w *World) Landable(name string) (models.Landable, bool) {
	b, ok := w.BodyByName(name)
	if !ok {
		return nil, false
	}
	return b, true
}

func (w *World) Vehicle(name string) (models.Vehicle, bool) {
	s := w.ShipByName(name)
	if s == nil {
		return nil, false
	}
	return s.Ref(), true
}

// Landables lists the bodies in partition as models.Landable.
func (w *World) Landables(partition models.PartitionID) []models.Landable {
	bodies := w.Bodies(partition)
	out := make([]models.Landable, len(bodies))
	for i, b := range bodies {
		out[i] = b
	}
	return out
}

// Bodies lists every landable body in partition, in creation order.
func (w *World) Bodies(partition models.PartitionID) []BodyRef {
	var out []BodyRef
	w.reg.Each(func(e Entity) {
		if b, ok := e.(*Body); ok && b.partition == partition {
			out = append(out, BodyRef{Ref{reg: w.reg, h: b.handle}})
		}
	})
	return out
}

func (w *World) Projectiles() []*Projectile {
	var out []*Projectile
	w.reg.Each(func(e Entity) {
		if p, ok := e.(*Projectile); ok {
			out = append(out, p)
		}
	})
	return out
}

// Partitions lists every partition that holds at least one entity, sorted.
func (w *World) Partitions() []models.PartitionID {
	seen := map[models.PartitionID]bool{}
	w.reg.Each(func(e Entity) { seen[e.Partition()] = true })
	out := make([]models.PartitionID, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (w *World) SetHostile(a, b string) {
	w.hostile[[2]string{a, b}] = true
	w.hostile[[2]string{b, a}] = true
}

func (w *World) Hostile(a, b string) bool { return w.hostile[[2]string{a, b}] }

type factioned interface {
	Faction() string
	Handle() Handle
}

// IsValidAttackTarget is the hostility predicate: candidate must be a live ship of a
// hostile faction, in self's partition, and out in open space.
func (w *World) IsValidAttackTarget(self models.Vehicle, candidate models.Target) bool {
	sf, ok := self.(factioned)
	if !ok {
		return false
	}
	cf, ok := candidate.(factioned)
	if !ok || cf.Handle() == sf.Handle() {
		return false
	}
	if !models.StillValid(candidate, self.Partition()) {
		return false
	}
	if v, ok := candidate.(models.Vehicle); ok {
		switch v.DiscreteState() {
		case models.Flying, models.TakingOff:
		default:
			return false
		}
	}
	return w.Hostile(sf.Faction(), cf.Faction())
}

// Hostiles lists valid attack targets for self.
func (w *World) Hostiles(self models.Vehicle) []models.Target {
	var out []models.Target
	for _, s := range w.Ships() {
		ref := s.Ref()
		if w.IsValidAttackTarget(self, ref) {
			out = append(out, ref)
		}
	}
	return out
}

// FireProjectile spawns a bolt owned by ship.
func (w *World) FireProjectile(owner *Ship, pos, vel physics.Vec2, damage, ttl float64) Handle {
	return w.reg.Insert(func(h Handle) Entity {
		return &Projectile{handle: h, owner: owner.handle, partition: owner.partition, pos: pos, vel: vel, damage: damage, ttl: ttl}
	})
}

// Integrate advances every entity by dt, resolves projectile hits and removes
// destroyed ships. Events raised along the way are delivered in order after the
// frame, so handlers see its final state.
func (w *World) Integrate(dt float64) {
	if dt <= 0 {
		return
	}
	w.now += dt
	w.stepping = true
	defer func() {
		w.stepping = false
		w.flush()
	}()

	var projectiles []*Projectile
	w.reg.Each(func(e Entity) {
		switch v := e.(type) {
		case *Body:
			v.step(dt)
		case *Ship:
			v.step(dt)
		case *Projectile:
			projectiles = append(projectiles, v)
		}
	})

	ships := w.Ships()
	for _, p := range projectiles {
		from := p.pos
		p.pos = p.pos.Add(p.vel.Scale(dt))
		p.ttl -= dt
		if hit := w.firstHit(p, from, ships); hit != nil {
			var attacker models.Target
			if owner := w.Ship(p.owner); owner != nil {
				attacker = owner.Ref()
			}
			hit.damage(p.damage, attacker)
			w.reg.Remove(p.handle)
			continue
		}
		if p.ttl <= 0 {
			w.reg.Remove(p.handle)
		}
	}

	for _, s := range ships {
		if s.hull <= 0 && s.maxHull > 0 && w.reg.Alive(s.handle) {
			w.reg.Remove(s.handle)
			w.log.Info("ship destroyed", log.String("ship", s.name), log.String("partition", string(s.partition)))
			w.publish(events.ShipDestroyed, s.name, events.Destroyed{Ship: s.name, Partition: s.partition})
		}
	}
}

// firstHit tests the segment travelled this tick against flying ships.
func (w *World) firstHit(p *Projectile, from physics.Vec2, ships []*Ship) *Ship {
	seg := p.pos.Sub(from)
	for _, s := range ships {
		if s.handle == p.owner || s.partition != p.partition || !w.reg.Alive(s.handle) {
			continue
		}
		if s.state != models.Flying && s.state != models.TakingOff {
			continue
		}
		if segmentDistance(from, seg, s.body.Position) <= s.radius {
			return s
		}
	}
	return nil
}

func segmentDistance(from, seg, p physics.Vec2) float64 {
	l2 := seg.LenSq()
	if l2 == 0 {
		return p.Dist(from)
	}
	t := p.Sub(from).Dot(seg) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Dist(from.Add(seg.Scale(t)))
}
