package turret

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/world"
)

func TestLeadFollowsLateralMotion(t *testing.T) {
	origin := physics.Zero
	target := physics.V(1000, 0)

	up := LeadAngle(origin, physics.Zero, target, physics.V(0, 50), 2000, 2)
	down := LeadAngle(origin, physics.Zero, target, physics.V(0, -50), 2000, 2)
	assert.Greater(t, up, 0.0)
	assert.Less(t, down, 0.0)
	assert.InDelta(t, up, -down, 1e-12)

	prev := math.Inf(1)
	for _, speed := range []float64{50, 5, 0.5, 0.05} {
		a := math.Abs(LeadAngle(origin, physics.Zero, target, physics.V(0, speed), 2000, 2))
		assert.Less(t, a, prev)
		prev = a
	}
	assert.Zero(t, LeadAngle(origin, physics.Zero, target, physics.Zero, 2000, 2))
}

func TestLeadIgnoresClosingSpeed(t *testing.T) {
	target := physics.V(800, 0)
	aim := Lead(physics.Zero, physics.V(30, 0), target, physics.V(-200, 0), 600, 1)
	assert.InDelta(t, target.X, aim.X, 1e-9)
	assert.InDelta(t, target.Y, aim.Y, 1e-9)
}

func TestLeadUsesRelativeVelocityAndCap(t *testing.T) {
	// shooter and target drifting together need no lead
	aim := Lead(physics.Zero, physics.V(0, 40), physics.V(500, 0), physics.V(0, 40), 500, 1)
	assert.InDelta(t, 0, aim.Y, 1e-9)

	// flight time 10s capped to 0.5s
	aim = Lead(physics.Zero, physics.Zero, physics.V(5000, 0), physics.V(0, 100), 500, 0.5)
	assert.InDelta(t, 50, aim.Y, 1e-9)

	assert.Equal(t, physics.V(3, 4), Lead(physics.V(3, 4), physics.Zero, physics.V(3, 4), physics.V(1, 1), 500, 1))
}

type fixture struct {
	w     *world.World
	owner *world.Ship
}

func newFixture() *fixture {
	w := world.New()
	w.SetHostile("traders", "pirates")
	owner := w.AddShip(world.ShipSpec{
		Name: "gunship", Faction: "traders", Partition: "sol", Radius: 10,
		ThrustAccel: 100, MaxSpeed: 200, TurnRate: math.Pi, Hull: 100,
	})
	return &fixture{w: w, owner: owner}
}

func (f *fixture) pirate(name string, pos physics.Vec2) *world.Ship {
	return f.w.AddShip(world.ShipSpec{
		Name: name, Faction: "pirates", Partition: "sol", Position: pos, Radius: 10,
		ThrustAccel: 100, MaxSpeed: 200, TurnRate: math.Pi, Hull: 100,
	})
}

func (f *fixture) candidates() []models.Target { return f.w.Hostiles(f.owner) }

func TestSelectTargetByRotationTime(t *testing.T) {
	f := newFixture()
	f.pirate("near", physics.V(0, 100))
	far := f.pirate("far", physics.V(600, 10))

	tr := New(physics.Zero, DefaultParams(), Seed("gunship", 0))
	got := tr.SelectTarget(f.owner, f.candidates(), f.w.IsValidAttackTarget)
	require.NotNil(t, got)
	assert.Equal(t, far.Name(), got.Name())
}

func TestSelectTargetPrefersOwnerSelection(t *testing.T) {
	f := newFixture()
	f.pirate("aligned", physics.V(300, 0))
	chosen := f.pirate("chosen", physics.V(-300, 0))
	f.owner.SetSelectedTarget(chosen.Ref())

	tr := New(physics.Zero, DefaultParams(), 1)
	got := tr.SelectTarget(f.owner, f.candidates(), f.w.IsValidAttackTarget)
	assert.Equal(t, "chosen", got.Name())

	// outside acquisition radius the selection is ignored
	chosen.SetPosition(physics.V(-2000, 0))
	got = tr.SelectTarget(f.owner, f.candidates(), f.w.IsValidAttackTarget)
	assert.Equal(t, "aligned", got.Name())

	assert.Nil(t, tr.SelectTarget(f.owner, f.candidates(), nil))
}

func TestAimIsRateLimited(t *testing.T) {
	f := newFixture()
	f.pirate("p", physics.V(0, 300))
	tr := New(physics.Zero, DefaultParams(), 1)

	cmd := tr.Update(f.owner, f.candidates(), f.w.IsValidAttackTarget, 0.1)
	assert.InDelta(t, math.Pi*0.1, cmd.Angle, 1e-9)
	assert.False(t, cmd.Fire)
	assert.Equal(t, "tracking p", tr.Status())
}

func TestFireGating(t *testing.T) {
	f := newFixture()
	p := f.pirate("p", physics.V(300, 0))
	tr := New(physics.Zero, DefaultParams(), Seed("gunship", 0))

	const dt = 1.0 / 60
	var shots int
	for i := 0; i < 120; i++ {
		cmd := tr.Update(f.owner, f.candidates(), f.w.IsValidAttackTarget, dt)
		if cmd.Fire {
			shots++
			assert.InDelta(t, 600, cmd.Velocity.Len(), 1e-9)
			assert.Equal(t, "p", cmd.Target.Name())
		}
	}
	assert.Equal(t, tr.Shots(), shots)
	assert.GreaterOrEqual(t, shots, 7)
	assert.LessOrEqual(t, shots, 9, "cooldown bounds the rate")

	// tracked but out of range
	p.SetPosition(physics.V(700, 0))
	before := tr.Shots()
	for i := 0; i < 120; i++ {
		tr.Update(f.owner, f.candidates(), f.w.IsValidAttackTarget, dt)
	}
	assert.Equal(t, before, tr.Shots())
	assert.Equal(t, "p", tr.Target().Name())
}

func TestTurretDropsLostTarget(t *testing.T) {
	f := newFixture()
	p := f.pirate("p", physics.V(300, 0))
	tr := New(physics.Zero, DefaultParams(), 3)
	tr.Update(f.owner, f.candidates(), f.w.IsValidAttackTarget, 0.1)
	require.NotNil(t, tr.Target())

	f.w.Remove(p.Handle())
	cmd := tr.Update(f.owner, f.candidates(), f.w.IsValidAttackTarget, 0.1)
	assert.False(t, cmd.Fire)
	assert.Nil(t, tr.Target())
	assert.Equal(t, "idle", tr.Status())
}

func TestMountFollowsHeading(t *testing.T) {
	f := newFixture()
	f.owner.SetPosition(physics.V(10, 10))
	tr := New(physics.V(5, 0), DefaultParams(), 1)
	o := tr.Origin(f.owner)
	assert.InDelta(t, 15, o.X, 1e-9)
	assert.InDelta(t, 10, o.Y, 1e-9)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
	p := DefaultParams()
	p.RotationSpeed = 0
	p.RetargetMax = 0.1
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rotation_speed")
	assert.Contains(t, err.Error(), "retarget interval")
}

func TestSeedIsStable(t *testing.T) {
	assert.Equal(t, Seed("a", 1), Seed("a", 1))
	assert.NotEqual(t, Seed("a", 1), Seed("a", 2))
}
