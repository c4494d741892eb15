package flight

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

const tick = 1.0 / 60

func testBody() physics.Body {
	return physics.Body{ThrustAccel: 100, MaxSpeed: 200, TurnRate: math.Pi}
}

type approachResult struct {
	arrived     bool
	elapsed     float64
	finalDist   float64
	finalSpeed  float64
	maxDist     float64
	zonesSeen   map[Zone]bool
	headingSafe bool
}

func fly(t *testing.T, body physics.Body, target, targetVel physics.Vec2, limit float64) approachResult {
	t.Helper()
	c := New(DefaultParams(), body)
	res := approachResult{zonesSeen: map[Zone]bool{}, headingSafe: true}

	for res.elapsed < limit {
		cmd, err := c.Advance(body, target, targetVel, tick)
		require.NoError(t, err)
		res.zonesSeen[cmd.Zone] = true
		if cmd.Arrived {
			res.arrived = true
			break
		}
		prev := body.Heading
		body.DesiredHeading = cmd.DesiredHeading
		body.Thrusting = cmd.Thrust
		body.Integrate(tick)
		if math.Abs(physics.AngleDiff(prev, body.Heading)) > body.TurnRate*tick+1e-9 {
			res.headingSafe = false
		}
		target = target.Add(targetVel.Scale(tick))
		res.elapsed += tick
		res.maxDist = math.Max(res.maxDist, target.Dist(body.Position))
	}
	res.finalDist = target.Dist(body.Position)
	res.finalSpeed = body.Velocity.Sub(targetVel).Len()
	return res
}

func TestDerivedDistances(t *testing.T) {
	c := New(DefaultParams(), testBody())
	// arrival 20 + 40²/200 + 40·1s
	assert.InDelta(t, 68, c.CloseApproachDistance(), 1e-9)
	// close 68 + 200²/200 + 200·1s
	assert.InDelta(t, 468, c.FarApproachDistance(), 1e-9)
}

func TestMidZoneChoosesBrakeCoastOrRamp(t *testing.T) {
	// close 68, far 468; the target sits at the origin and the ship on +x
	cases := []struct {
		name      string
		dist      float64
		vel       physics.Vec2
		heading   float64
		wantCoast bool
		wantSpeed float64
	}{
		{name: "coast when braking fits and the nose is reversed", dist: 300, vel: physics.V(-100, 0), heading: 0, wantCoast: true},
		{name: "hard brake when stopping overruns the close boundary", dist: 150, vel: physics.V(-180, 0), heading: 0, wantSpeed: 40},
		{name: "turn time counts towards stopping distance", dist: 200, vel: physics.V(-100, 0), heading: math.Pi, wantSpeed: 40},
		{name: "ramp from rest", dist: 268, vel: physics.Zero, heading: math.Pi, wantSpeed: 120},
		{name: "ramp when misaligned for a coast", dist: 300, vel: physics.V(-100, 0), heading: math.Pi, wantSpeed: 132.8},
		{name: "ramp while drifting sideways", dist: 300, vel: physics.V(-100, 20), heading: physics.V(100, -20).Angle(), wantSpeed: 132.8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := testBody()
			body.Position = physics.V(tc.dist, 0)
			body.Velocity = tc.vel
			body.Heading = tc.heading
			c := New(DefaultParams(), testBody())
			dir := physics.V(-1, 0)

			desired, coast := c.mid(body, dir, tc.vel, physics.Zero, tc.dist)
			require.Equal(t, tc.wantCoast, coast)
			if !coast {
				assert.InDelta(t, -tc.wantSpeed, desired.X, 1e-9)
				assert.InDelta(t, 0, desired.Y, 1e-9)
			}

			cmd, err := c.Advance(body, physics.Zero, physics.Zero, tick)
			require.NoError(t, err)
			assert.Equal(t, ZoneMid, cmd.Zone)
			if tc.wantCoast {
				assert.False(t, cmd.Thrust)
				assert.InDelta(t, 0, physics.AngleDiff(tc.vel.Neg().Angle(), cmd.DesiredHeading), 1e-9)
				assert.Equal(t, physics.Zero, c.LastVelocityError())
			}
		})
	}
}

func TestControllerConvergesOnStaticTargets(t *testing.T) {
	cases := []struct {
		name   string
		target physics.Vec2
	}{
		{"straight ahead", physics.V(2000, 0)},
		{"off axis", physics.V(1500, 800)},
		{"behind", physics.V(-500, 100)},
		{"inside mid zone", physics.V(300, 0)},
		{"inside final zone", physics.V(60, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := testBody()
			start := tc.target.Len()
			res := fly(t, body, tc.target, physics.Zero, 120)

			require.True(t, res.arrived, "did not arrive, final distance %.1f", res.finalDist)
			assert.LessOrEqual(t, res.finalDist, DefaultParams().ArrivalDistance+1e-9)
			assert.Less(t, res.finalSpeed, 2*DefaultParams().ArrivalSpeed)
			assert.LessOrEqual(t, res.maxDist, start+1e-6, "diverged from target")
			assert.True(t, res.headingSafe)
		})
	}
}

func TestControllerPassesThroughZones(t *testing.T) {
	res := fly(t, testBody(), physics.V(2000, 0), physics.Zero, 120)
	require.True(t, res.arrived)
	assert.True(t, res.zonesSeen[ZoneFar])
	assert.True(t, res.zonesSeen[ZoneMid])
	assert.True(t, res.zonesSeen[ZoneFinal])
	assert.True(t, res.zonesSeen[ZoneArrived])
}

func TestControllerInterceptsMovingTarget(t *testing.T) {
	res := fly(t, testBody(), physics.V(2000, 0), physics.V(0, 30), 120)
	require.True(t, res.arrived, "final distance %.1f", res.finalDist)
	assert.Less(t, res.finalSpeed, DefaultParams().CloseApproachSpeed)
}

func TestControllerFromArbitraryStart(t *testing.T) {
	body := physics.Body{
		Velocity:    physics.V(-150, 60),
		Heading:     2.5,
		ThrustAccel: 60,
		MaxSpeed:    180,
		TurnRate:    2,
	}
	res := fly(t, body, physics.V(900, -1200), physics.V(-10, 5), 180)
	require.True(t, res.arrived, "final distance %.1f", res.finalDist)
	assert.True(t, res.headingSafe)
}

func TestAdvanceIsIdempotent(t *testing.T) {
	body := testBody()
	body.Position = physics.V(100, 40)
	body.Velocity = physics.V(120, -30)
	body.Heading = 0.3

	c := New(DefaultParams(), body)
	first, err := c.Advance(body, physics.V(400, 0), physics.Zero, tick)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := c.Advance(body, physics.V(400, 0), physics.Zero, tick)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestArrivalIsTerminal(t *testing.T) {
	body := testBody()
	body.Position = physics.V(5, 0)
	c := New(DefaultParams(), body)

	cmd, err := c.Advance(body, physics.Zero, physics.Zero, tick)
	require.NoError(t, err)
	assert.True(t, cmd.Arrived)
	assert.False(t, cmd.Thrust)
	assert.True(t, c.Complete())

	// further calls stay complete even when the body drifts away
	body.Position = physics.V(500, 0)
	cmd, _ = c.Advance(body, physics.Zero, physics.Zero, tick)
	assert.True(t, cmd.Arrived)
	assert.Equal(t, ZoneArrived, c.Zone())
}

func TestNonFiniteTargetFails(t *testing.T) {
	c := New(DefaultParams(), testBody())
	_, err := c.Advance(testBody(), physics.V(math.NaN(), 0), physics.Zero, tick)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrTargetInvalid))
	assert.ErrorIs(t, c.Err(), models.ErrTargetInvalid)
}

func TestNonPositiveDtIsNoop(t *testing.T) {
	body := testBody()
	body.Heading = 1
	c := New(DefaultParams(), body)
	cmd, err := c.Advance(body, physics.V(1000, 0), physics.Zero, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cmd.DesiredHeading)
	assert.False(t, cmd.Thrust)
}

func TestSmallErrorFacesAgainstVelocity(t *testing.T) {
	body := testBody()
	body.Velocity = physics.V(200, 0)
	body.Heading = 0
	c := New(DefaultParams(), body)

	// at the far/mid boundary the ramp asks for the current speed, so the ship
	// prepares to brake without thrusting
	target := physics.V(c.FarApproachDistance()-0.5, 0)
	cmd, err := c.Advance(body, target, physics.Zero, tick)
	require.NoError(t, err)
	assert.Equal(t, ZoneMid, cmd.Zone)
	assert.False(t, cmd.Thrust)
	assert.InDelta(t, math.Pi, math.Abs(cmd.DesiredHeading), 1e-9)
}

func TestFinalZoneNudgesStalledShip(t *testing.T) {
	body := testBody()
	body.Position = physics.V(-50, 0)
	c := New(DefaultParams(), body)

	_, err := c.Advance(body, physics.Zero, physics.Zero, tick)
	require.NoError(t, err)
	// ramp speed at 50 units is 10 + 30·(30/48); the stall nudge scales it by 1.2
	want := (10 + 30*(30.0/48)) * 1.2
	assert.InDelta(t, want, c.LastVelocityError().X, 1e-9)
}

func TestInterceptPrediction(t *testing.T) {
	p, ttl := Intercept(physics.Zero, physics.V(100, 0), physics.V(1000, 0), physics.V(0, 10), 5)
	assert.InDelta(t, 5, ttl, 1e-9)
	assert.InDelta(t, 50, p.Y, 1e-9)

	// receding target uses the cap
	_, ttl = Intercept(physics.Zero, physics.Zero, physics.V(100, 0), physics.V(10, 0), 3)
	assert.InDelta(t, 3, ttl, 1e-9)

	p, ttl = Intercept(physics.Zero, physics.Zero, physics.V(100, 0), physics.Zero, 3)
	assert.Zero(t, ttl)
	assert.Equal(t, physics.V(100, 0), p)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
	require.NoError(t, DefaultFollowParams().Validate())

	p := DefaultParams()
	p.ArrivalSpeed = 0
	p.CloseApproachSpeed = -1
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arrival_speed")
	assert.Contains(t, err.Error(), "close_approach_speed")
}

func TestHoldBrakes(t *testing.T) {
	body := testBody()
	body.Velocity = physics.V(50, 0)
	body.Heading = math.Pi
	cmd := Hold(body, physics.Zero, 2, math.Pi/12, tick)
	assert.True(t, cmd.Thrust)
	assert.InDelta(t, math.Pi, math.Abs(cmd.DesiredHeading), 1e-9)

	body.Velocity = physics.Zero
	cmd = Hold(body, physics.Zero, 2, math.Pi/12, tick)
	assert.False(t, cmd.Thrust)
	assert.Equal(t, body.Heading, cmd.DesiredHeading)
}
