// Package sim runs pilots, turrets and the reference world together on a fixed
// step, and records what happened.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/events"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/events/bus"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/maneuver"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/observability/log"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/observability/metrics"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/pilot"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/turret"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/world"
)

type Option func(*Simulation)

func WithLogger(l log.Log) Option { return func(s *Simulation) { s.log = l } }

// WithMetrics counts bus traffic, shots and step timings into c.
func WithMetrics(c metrics.Collector) Option { return func(s *Simulation) { s.metrics = c } }

// WithRecorder samples every ship into r once every `every` steps.
func WithRecorder(r *Recorder, every int) Option {
	return func(s *Simulation) {
		s.rec = r
		s.recordEvery = uint64(max(every, 1))
	}
}

// Mount is a turret on a ship.
type Mount struct {
	Ship   *world.Ship
	Index  int
	Turret *turret.Turret
}

type Simulation struct {
	world   *world.World
	bus     bus.EventBus
	log     log.Log
	metrics metrics.Collector
	counter *eventCounter
	rec     *Recorder

	pilots []*pilot.Pilot
	byShip map[string]*pilot.Pilot
	mounts []Mount

	frame       uint64
	recordEvery uint64
}

func New(w *world.World, b bus.EventBus, opts ...Option) *Simulation {
	s := &Simulation{
		world:       w,
		bus:         b,
		log:         log.NewNop(),
		byShip:      make(map[string]*pilot.Pilot),
		recordEvery: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics != nil && s.bus != nil {
		s.counter = &eventCounter{collector: s.metrics}
		s.bus.AddObserver(s.counter)
	}
	return s
}

func (s *Simulation) World() *world.World    { return s.world }
func (s *Simulation) Bus() bus.EventBus      { return s.bus }
func (s *Simulation) Pilots() []*pilot.Pilot { return s.pilots }
func (s *Simulation) Mounts() []Mount        { return s.mounts }
func (s *Simulation) Frame() uint64          { return s.frame }
func (s *Simulation) Now() float64           { return s.world.Now() }

func (s *Simulation) AddPilot(p *pilot.Pilot) {
	s.pilots = append(s.pilots, p)
	s.byShip[p.Name()] = p
}

func (s *Simulation) Pilot(ship string) (*pilot.Pilot, bool) {
	p, ok := s.byShip[ship]
	return p, ok
}

// AddTurret mounts a turret on ship. Each turret gets a seed derived from the
// ship name and its index on that ship.
func (s *Simulation) AddTurret(ship *world.Ship, mount physics.Vec2, params turret.Params) *turret.Turret {
	idx := 0
	for _, m := range s.mounts {
		if m.Ship == ship {
			idx++
		}
	}
	t := turret.New(mount, params, turret.Seed(ship.Name(), idx))
	s.mounts = append(s.mounts, Mount{Ship: ship, Index: idx, Turret: t})
	return t
}

// Step advances the simulation by dt: pilots, then turrets, then the world, then
// the trace. A non-positive dt does nothing.
func (s *Simulation) Step(dt float64) error {
	if dt <= 0 {
		return nil
	}
	start := time.Now()
	s.frame++
	tc := maneuver.TickContext{
		Frame:  s.frame,
		DT:     dt,
		Now:    s.world.Now(),
		Log:    s.log,
		Events: s.bus,
		Links:  s.world,
	}
	for _, p := range s.pilots {
		p.Update(tc)
	}
	var errs []error
	for _, m := range s.mounts {
		if err := s.fire(m, dt); err != nil {
			errs = append(errs, err)
		}
	}
	s.world.Integrate(dt)

	if s.rec != nil && s.frame%s.recordEvery == 0 {
		if err := s.rec.Write(s.sample()); err != nil {
			errs = append(errs, err)
		}
	}
	if s.metrics != nil {
		s.metrics.Histogram("step_seconds", nil).Observe(time.Since(start).Seconds())
		s.metrics.Gauge("ships", nil).Set(float64(len(s.world.Ships())))
		s.metrics.Gauge("projectiles", nil).Set(float64(len(s.world.Projectiles())))
		if s.bus != nil {
			s.metrics.Gauge("bus_subscribers", nil).Set(float64(s.bus.GetMetrics().SubscribersActive))
		}
	}
	return errors.Join(errs...)
}

func (s *Simulation) fire(m Mount, dt float64) error {
	if !m.Ship.Valid() {
		return nil
	}
	cmd := m.Turret.Update(m.Ship, s.world.Hostiles(m.Ship), s.world.IsValidAttackTarget, dt)
	if !cmd.Fire {
		return nil
	}
	p := m.Turret.Params()
	s.world.FireProjectile(m.Ship, cmd.Origin, cmd.Velocity, p.ProjectileDamage, p.MaxRange/p.ProjectileSpeed)
	if s.metrics != nil {
		s.metrics.Counter("shots", map[string]string{"ship": m.Ship.Name()}).Inc()
	}
	if s.bus == nil {
		return nil
	}
	target := ""
	if cmd.Target != nil {
		target = cmd.Target.Name()
	}
	ev := bus.NewEvent(events.TurretFired, m.Ship.Name(), s.world.Now(), events.Fire{
		Ship:   m.Ship.Name(),
		Turret: m.Index,
		Angle:  cmd.Angle,
		Target: target,
	}, nil)
	if err := s.bus.Publish(ev); err != nil {
		return fmt.Errorf("publish %s: %w", events.TurretFired, err)
	}
	return nil
}

func (s *Simulation) sample() []TraceRow {
	ships := s.world.Ships()
	rows := make([]TraceRow, 0, len(ships))
	for _, sh := range ships {
		pos, vel := sh.Position(), sh.Velocity()
		row := TraceRow{
			Time:      s.world.Now(),
			Ship:      sh.Name(),
			Partition: string(sh.Partition()),
			X:         pos.X,
			Y:         pos.Y,
			VX:        vel.X,
			VY:        vel.Y,
			Heading:   sh.Heading(),
			Thrust:    sh.Thrusting(),
			State:     sh.DiscreteState().String(),
			Hull:      sh.Hull(),
		}
		if p, ok := s.byShip[sh.Name()]; ok {
			row.Mode = p.Mode().String()
			if a := p.Active(); a != nil {
				row.Maneuver = a.Name()
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Run steps the simulation for duration seconds of simulated time, stopping early
// when ctx is done.
func (s *Simulation) Run(ctx context.Context, duration, dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("invalid step %v", dt)
	}
	steps := int(math.Ceil(duration/dt - 1e-9))
	s.log.Info("simulation starting",
		log.Float64("duration", duration),
		log.Float64("dt", dt),
		log.Int("pilots", len(s.pilots)),
		log.Int("turrets", len(s.mounts)),
	)
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(dt); err != nil {
			s.log.Warn("step reported errors", log.Int64("frame", int64(s.frame)), log.Error(err))
		}
	}
	s.log.Info("simulation finished",
		log.Float64("sim_time", s.world.Now()),
		log.Int("trace_rows", s.rec.Rows()),
	)
	return nil
}

// Summary describes each piloted ship at the current time.
func (s *Simulation) Summary() []string {
	out := make([]string, 0, len(s.pilots))
	for _, p := range s.pilots {
		v := p.Vehicle()
		state := "destroyed"
		if v.Valid() {
			state = fmt.Sprintf("%s in %s", v.DiscreteState(), v.Partition())
		}
		out = append(out, fmt.Sprintf("%s: %s, %s", p.Name(), state, p.Status()))
	}
	return out
}

// Close releases every pilot's bus subscription and detaches the event counter.
func (s *Simulation) Close() error {
	if s.counter != nil {
		s.bus.RemoveObserver(s.counter)
		s.counter = nil
	}
	var errs []error
	for _, p := range s.pilots {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
