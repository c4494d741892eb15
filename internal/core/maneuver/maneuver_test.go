package maneuver

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/events"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/events/bus"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/flight"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/world"
)

const dt = 1.0 / 60

type rig struct {
	w     *world.World
	b     bus.EventBus
	frame uint64
}

func newRig() *rig {
	b := bus.New()
	return &rig{w: world.New(world.WithBus(b)), b: b}
}

func (r *rig) tc() TickContext {
	r.frame++
	return TickContext{Frame: r.frame, DT: dt, Now: r.w.Now(), Pilot: "test", Events: r.b, Links: r.w}
}

// run ticks m and integrates the world until m stops running, until returns true
// or the time runs out.
func (r *rig) run(m Maneuver, seconds float64, until func() bool) Status {
	st := StatusRunning
	for t := 0.0; t < seconds; t += dt {
		st = m.Tick(r.tc())
		if st != StatusRunning || (until != nil && until()) {
			return st
		}
		r.w.Integrate(dt)
	}
	return st
}

func (r *rig) ship(name string, pos physics.Vec2) *world.Ship {
	return r.w.AddShip(world.ShipSpec{
		Name: name, Faction: "traders", Partition: "sol", Position: pos,
		Radius: 8, ThrustAccel: 100, MaxSpeed: 200, TurnRate: math.Pi, Hull: 100,
	})
}

func (r *rig) gates() (world.GateRef, world.GateRef) {
	return r.w.LinkGates(
		world.GateSpec{Name: "sol-vega", Partition: "sol", Position: physics.V(500, 0), Radius: 60, TriggerRadius: 25},
		world.GateSpec{Name: "vega-sol", Partition: "vega", Position: physics.V(-300, 0), Radius: 60, TriggerRadius: 25},
	)
}

// thrustSpy counts engine-on commands.
type thrustSpy struct {
	*world.Ship
	thrustOn int
}

func (s *thrustSpy) SetThrustEnabled(on bool) {
	if on {
		s.thrustOn++
	}
	s.Ship.SetThrustEnabled(on)
}

func TestDockingWhenAlreadyCaptured(t *testing.T) {
	r := newRig()
	planet := r.w.AddPlanet("earth", "sol", physics.Zero, 50, 30)
	ship := r.ship("s1", physics.V(30, 0))
	ship.SetVelocity(physics.V(5, 0))
	spy := &thrustSpy{Ship: ship}

	m := NewLanding(spy, planet, flight.DefaultParams())
	st := r.run(m, 3, nil)

	assert.Equal(t, StatusSuccess, st)
	assert.True(t, m.IsComplete())
	assert.False(t, m.IsActive())
	assert.NoError(t, m.LastError())
	assert.Zero(t, spy.thrustOn)
	assert.Equal(t, models.Landed, ship.DiscreteState())
	assert.Equal(t, 0, m.Restarts())
}

func TestLandingFromAfar(t *testing.T) {
	r := newRig()
	var started, completed int
	_, _ = r.b.Subscribe(events.ManeuverStarted, func(bus.Event) error { started++; return nil })
	_, _ = r.b.Subscribe(events.ManeuverCompleted, func(bus.Event) error { completed++; return nil })

	planet := r.w.AddPlanet("earth", "sol", physics.Zero, 50, 30)
	ship := r.ship("s1", physics.V(1500, 300))

	m := NewLanding(ship, planet, flight.DefaultParams())
	assert.Equal(t, 25.0, m.Params().ArrivalDistance)
	require.Equal(t, StatusSuccess, r.run(m, 90, nil), m.Status())
	assert.Equal(t, models.Landed, ship.DiscreteState())
	assert.Equal(t, models.Landable(planet), ship.LandedOn())
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, completed)
	assert.Contains(t, m.Status(), "landed")
}

func TestOvershootStartsFreshSubPilot(t *testing.T) {
	r := newRig()
	var reasons []string
	_, _ = r.b.Subscribe(events.ApproachRestarted, func(e bus.Event) error {
		reasons = append(reasons, e.Data().(events.Restart).Reason)
		return nil
	})
	planet := r.w.AddPlanet("rock", "sol", physics.Zero, 30, 10)
	ship := r.ship("s1", physics.V(-60, 0))
	ship.SetVelocity(physics.V(200, 0))

	m := NewLanding(ship, planet, flight.DefaultParams())
	require.Equal(t, StatusRunning, m.Tick(r.tc()))
	first := m.SubPilot()
	require.NotNil(t, first)

	st := r.run(m, 10, func() bool { return m.Restarts() > 0 })
	require.Equal(t, StatusRunning, st)
	require.Equal(t, 1, m.Restarts())
	require.NotNil(t, m.SubPilot())
	assert.NotEqual(t, first.ID(), m.SubPilot().ID())
	assert.NoError(t, m.LastError())
	assert.Equal(t, []string{"overshoot"}, reasons)

	require.Equal(t, StatusSuccess, r.run(m, 90, nil), m.Status())
	assert.Equal(t, models.Landed, ship.DiscreteState())
}

func TestAsteroidDockMatchesDrift(t *testing.T) {
	r := newRig()
	rock := r.w.AddAsteroid("rock", "sol", physics.Zero, physics.V(10, -4), 20, 15)
	ship := r.ship("miner", physics.V(600, 200))

	m := NewAsteroidDock(ship, rock, flight.DefaultParams())
	assert.Equal(t, "dock", m.Name())
	require.Equal(t, StatusSuccess, r.run(m, 90, nil), m.Status())
	assert.Equal(t, models.Landable(rock), ship.LandedOn())
}

func TestLandingTakesOffFromOtherBody(t *testing.T) {
	r := newRig()
	moon := r.w.AddPlanet("moon", "sol", physics.V(400, 0), 20, 30)
	earth := r.w.AddPlanet("earth", "sol", physics.Zero, 50, 30)
	ship := r.ship("s1", physics.Zero)
	r.w.LandShip(ship, moon)
	require.Equal(t, models.Landed, ship.DiscreteState())

	m := NewLanding(ship, earth, flight.DefaultParams())
	m.Tick(r.tc())
	assert.Equal(t, models.TakingOff, ship.DiscreteState())
	require.Equal(t, StatusSuccess, r.run(m, 90, nil), m.Status())
	assert.Equal(t, models.Landable(earth), ship.LandedOn())
}

func TestLandingErrors(t *testing.T) {
	t.Run("wrong partition", func(t *testing.T) {
		r := newRig()
		planet := r.w.AddPlanet("far", "vega", physics.Zero, 50, 30)
		m := NewLanding(r.ship("s1", physics.V(500, 0)), planet, flight.DefaultParams())
		assert.Equal(t, StatusFailure, m.Tick(r.tc()))
		assert.ErrorIs(t, m.LastError(), models.ErrWrongPartition)
		assert.False(t, m.IsActive())
	})

	t.Run("target removed", func(t *testing.T) {
		r := newRig()
		planet := r.w.AddPlanet("earth", "sol", physics.Zero, 50, 30)
		m := NewLanding(r.ship("s1", physics.V(1000, 0)), planet, flight.DefaultParams())
		require.Equal(t, StatusRunning, r.run(m, 1, nil))
		r.w.Remove(planet.Handle())
		assert.Equal(t, StatusFailure, m.Tick(r.tc()))
		assert.ErrorIs(t, m.LastError(), models.ErrTargetInvalid)
		assert.Nil(t, m.SubPilot())
	})

	t.Run("jumping", func(t *testing.T) {
		r := newRig()
		out, _ := r.gates()
		planet := r.w.AddPlanet("earth", "sol", physics.Zero, 50, 30)
		ship := r.ship("s1", physics.V(495, 0))
		require.True(t, ship.RequestHyperjump(out))
		m := NewLanding(ship, planet, flight.DefaultParams())
		assert.Equal(t, StatusFailure, m.Tick(r.tc()))
		assert.ErrorIs(t, m.LastError(), models.ErrUnexpectedState)
	})
}

func TestTransitReachesDestination(t *testing.T) {
	r := newRig()
	out, _ := r.gates()
	ship := r.ship("s1", physics.V(-400, 250))

	m := NewTransit(ship, out, flight.DefaultParams())
	assert.Equal(t, models.PartitionID("vega"), m.Destination())
	require.Equal(t, StatusSuccess, r.run(m, 90, nil), m.Status())
	assert.Equal(t, models.PartitionID("vega"), ship.Partition())
	assert.Equal(t, models.Flying, ship.DiscreteState())
}

// jumpedShip returns a ship that has just come through to vega at rest, with its
// jump drive cooling down.
func jumpedShip(t *testing.T, r *rig, out world.GateRef) *world.Ship {
	t.Helper()
	ship := r.ship("s1", physics.V(495, 0))
	require.True(t, ship.RequestHyperjump(out))
	for ship.DiscreteState() != models.Flying {
		r.w.Integrate(dt)
	}
	require.Equal(t, models.PartitionID("vega"), ship.Partition())
	require.Greater(t, ship.JumpCooldown(), 1.0)
	return ship
}

func TestTransitWaitsOutCooldown(t *testing.T) {
	r := newRig()
	out, back := r.gates()
	ship := jumpedShip(t, r, out)

	m := NewTransit(ship, back, flight.DefaultParams())
	require.Equal(t, StatusRunning, m.Tick(r.tc()))
	assert.Equal(t, transitHold, m.state)
	assert.Nil(t, m.SubPilot(), "holds without an approach controller")
	assert.NoError(t, m.LastError())

	require.Equal(t, StatusSuccess, r.run(m, 10, nil), m.Status())
	assert.Equal(t, models.PartitionID("sol"), ship.Partition())
	assert.Equal(t, 0, m.Restarts())
}

func TestTransitRestartsWhenPushedOffTrigger(t *testing.T) {
	r := newRig()
	var reasons []string
	_, _ = r.b.Subscribe(events.ApproachRestarted, func(e bus.Event) error {
		reasons = append(reasons, e.Data().(events.Restart).Reason)
		return nil
	})
	out, back := r.gates()
	ship := jumpedShip(t, r, out)

	m := NewTransit(ship, back, flight.DefaultParams())
	require.Equal(t, StatusRunning, m.Tick(r.tc()))
	require.Equal(t, transitHold, m.state)

	// inside the capture ring, outside the trigger
	ship.SetPosition(back.Position().Add(physics.V(0, 40)))
	require.Equal(t, StatusRunning, m.Tick(r.tc()))
	assert.Equal(t, transitApproach, m.state)
	assert.NotNil(t, m.SubPilot())
	assert.Equal(t, []string{"misaligned"}, reasons)
}

func TestTransitWrongPartition(t *testing.T) {
	r := newRig()
	_, back := r.gates()
	ship := r.w.AddShip(world.ShipSpec{Name: "s1", Partition: "rigel", ThrustAccel: 100, MaxSpeed: 200, TurnRate: math.Pi, Hull: 10})
	m := NewTransit(ship, back, flight.DefaultParams())
	assert.Equal(t, StatusFailure, m.Tick(r.tc()))
	assert.ErrorIs(t, m.LastError(), models.ErrWrongPartition)
}

func TestEscortTraversesLeadersGate(t *testing.T) {
	r := newRig()
	out, _ := r.gates()
	leader := r.ship("leader", physics.V(400, 0))
	escort := r.ship("escort", physics.V(300, 60))

	m := NewEscort(escort, leader.Ref(), DefaultEscortConfig(), rand.New(rand.NewPCG(1, 2)))
	require.Equal(t, StatusRunning, m.Tick(r.tc()))
	assert.Equal(t, EscortFollowing, m.State())

	leader.SetPosition(physics.V(495, 0))
	require.True(t, leader.RequestHyperjump(out))
	require.Equal(t, StatusRunning, m.Tick(r.tc()))
	require.Equal(t, EscortTraversingGate, m.State())
	leg, ok := m.Leg().(*Transit)
	require.True(t, ok)
	assert.Equal(t, leader.JumpGate(), leg.Gate(), "same gate object as the leader")

	r.run(m, 60, func() bool {
		return escort.Partition() == "vega" && m.State() == EscortFollowing
	})
	assert.Equal(t, models.PartitionID("vega"), escort.Partition())
	assert.Equal(t, EscortFollowing, m.State())
	assert.NoError(t, m.LastError())
}

func TestEscortMirrorsLanding(t *testing.T) {
	r := newRig()
	planet := r.w.AddPlanet("earth", "sol", physics.Zero, 50, 30)
	leader := r.ship("leader", physics.Zero)
	r.w.LandShip(leader, planet)
	escort := r.ship("escort", physics.V(600, -200))

	m := NewEscort(escort, leader.Ref(), DefaultEscortConfig(), rand.New(rand.NewPCG(1, 2)))
	require.Equal(t, StatusRunning, m.Tick(r.tc()))
	assert.Equal(t, EscortLanding, m.State())

	r.run(m, 90, func() bool { return m.State() == EscortIdle })
	require.Equal(t, EscortIdle, m.State(), m.Status())
	assert.Equal(t, models.Landed, escort.DiscreteState())

	require.True(t, leader.RequestTakeoff())
	m.Tick(r.tc())
	assert.Equal(t, EscortTakingOff, m.State())
	r.run(m, 5, func() bool { return m.State() == EscortFollowing })
	assert.Equal(t, EscortFollowing, m.State())
	assert.Equal(t, models.Flying, escort.DiscreteState())
}

func TestEscortNoRoute(t *testing.T) {
	r := newRig()
	leader := r.w.AddShip(world.ShipSpec{Name: "leader", Partition: "vega", ThrustAccel: 100, MaxSpeed: 200, TurnRate: math.Pi, Hull: 10})
	escort := r.ship("escort", physics.Zero)

	cfg := DefaultEscortConfig()
	cfg.WaitMin, cfg.WaitMax = 0.1, 0.2
	cfg.MaxRouteFailures = 3
	m := NewEscort(escort, leader.Ref(), cfg, rand.New(rand.NewPCG(7, 7)))

	require.Equal(t, StatusRunning, m.Tick(r.tc()))
	assert.Equal(t, EscortWaiting, m.State())
	assert.ErrorIs(t, m.LegError(), models.ErrNoRoute)

	assert.Equal(t, StatusFailure, r.run(m, 10, nil))
	assert.ErrorIs(t, m.LastError(), models.ErrNoRoute)
}

func TestEscortLeaderLost(t *testing.T) {
	r := newRig()
	leader := r.ship("leader", physics.V(100, 0))
	m := NewEscort(r.ship("escort", physics.Zero), leader.Ref(), DefaultEscortConfig(), nil)
	require.Equal(t, StatusRunning, m.Tick(r.tc()))
	r.w.Remove(leader.Handle())
	assert.Equal(t, StatusFailure, m.Tick(r.tc()))
	assert.ErrorIs(t, m.LastError(), models.ErrTargetInvalid)
}

func TestTickOncePerFrame(t *testing.T) {
	r := newRig()
	m := NewWait(r.ship("s1", physics.Zero), 1, flight.DefaultParams())
	tc := r.tc()
	m.Tick(tc)
	m.Tick(tc)
	assert.InDelta(t, 1-dt, m.Remaining(), 1e-12)
	m.Tick(r.tc())
	assert.InDelta(t, 1-2*dt, m.Remaining(), 1e-12)
}

func TestWaitBrakes(t *testing.T) {
	r := newRig()
	ship := r.ship("s1", physics.Zero)
	ship.SetVelocity(physics.V(60, 0))
	m := NewWait(ship, 4, flight.DefaultParams())
	require.Equal(t, StatusSuccess, r.run(m, 5, nil))
	assert.Less(t, ship.Velocity().Len(), 5.0)
}

func TestPursueHoldsStandoff(t *testing.T) {
	r := newRig()
	quarry := r.ship("quarry", physics.V(800, 0))
	quarry.SetVelocity(physics.V(0, 20))
	hunter := r.ship("hunter", physics.Zero)

	m := NewPursue(hunter, quarry.Ref(), flight.DefaultParams(), 120)
	r.run(m, 60, m.Holding)
	require.True(t, m.Holding(), m.Status())
	assert.LessOrEqual(t, hunter.Position().Dist(quarry.Position()), 120.0)

	r.w.Remove(quarry.Handle())
	assert.Equal(t, StatusFailure, m.Tick(r.tc()))
	assert.ErrorIs(t, m.LastError(), models.ErrTargetInvalid)
}

func TestFlyToWaypoint(t *testing.T) {
	r := newRig()
	ship := r.ship("s1", physics.Zero)
	wp := Waypoint{Label: "nav-1", At: physics.V(700, -400), In: "sol"}

	m := NewFlyTo(ship, wp, flight.DefaultParams())
	require.Equal(t, StatusSuccess, r.run(m, 60, nil), m.Status())
	assert.LessOrEqual(t, ship.Position().Dist(wp.At), flight.DefaultParams().ArrivalDistance)

	far := NewFlyTo(ship, Waypoint{Label: "x", In: "vega"}, flight.DefaultParams())
	assert.Equal(t, StatusFailure, far.Tick(r.tc()))
	assert.ErrorIs(t, far.LastError(), models.ErrWrongPartition)
}
