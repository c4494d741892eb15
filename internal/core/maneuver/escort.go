package maneuver

import (
	"fmt"
	"math/rand/v2"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/flight"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/observability/log"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

// EscortState is the escort's current activity.
type EscortState uint8

const (
	EscortIdle EscortState = iota
	EscortFollowing
	EscortTakingOff
	EscortLanding
	EscortTraversingGate
	EscortWaiting
)

var escortStateNames = [...]string{
	EscortIdle:           "idle",
	EscortFollowing:      "following",
	EscortTakingOff:      "taking off",
	EscortLanding:        "landing",
	EscortTraversingGate: "traversing gate",
	EscortWaiting:        "waiting",
}

func (s EscortState) String() string {
	if int(s) < len(escortStateNames) {
		return escortStateNames[s]
	}
	return "unknown"
}

// EscortConfig tunes an Escort.
type EscortConfig struct {
	Follow  flight.FollowParams `yaml:"follow"`
	Landing flight.Params       `yaml:"landing"`
	Transit flight.Params       `yaml:"transit"`
	// WaitMin and WaitMax bound the randomized back-off after a failed leg.
	WaitMin float64 `yaml:"wait_min"`
	WaitMax float64 `yaml:"wait_max"`
	// MaxRouteFailures consecutive failed route lookups end the escort.
	MaxRouteFailures int `yaml:"max_route_failures"`
}

func DefaultEscortConfig() EscortConfig {
	return EscortConfig{
		Follow:           flight.DefaultFollowParams(),
		Landing:          flight.DefaultParams(),
		Transit:          flight.DefaultParams(),
		WaitMin:          2,
		WaitMax:          5,
		MaxRouteFailures: 5,
	}
}

// Escort keeps a ship with a leader: it follows in flight and mirrors the leader's
// landings, takeoffs and gate jumps. It never completes on its own; it fails when
// the leader is gone or no route to it can be found.
type Escort struct {
	base
	vehicle  models.Vehicle
	leader   models.Vehicle
	cfg      EscortConfig
	rng      *rand.Rand
	follower *flight.Follower

	state         EscortState
	leg           Maneuver
	wait          float64
	routeFailures int
	legErr        error
}

var escortHandlers = [...]func(*Escort, TickContext) Status{
	EscortIdle:           (*Escort).tickIdle,
	EscortFollowing:      (*Escort).tickFollowing,
	EscortTakingOff:      (*Escort).tickTakingOff,
	EscortLanding:        (*Escort).tickLeg,
	EscortTraversingGate: (*Escort).tickLeg,
	EscortWaiting:        (*Escort).tickWaiting,
}

// NewEscort escorts leader with v. rng drives the back-off intervals.
func NewEscort(v, leader models.Vehicle, cfg EscortConfig, rng *rand.Rand) *Escort {
	e := &Escort{
		base:     base{name: "escort"},
		vehicle:  v,
		leader:   leader,
		cfg:      cfg,
		rng:      rng,
		follower: flight.NewFollower(cfg.Follow),
	}
	if leader != nil {
		e.base.target = leader.Name()
	}
	return e
}

func (e *Escort) State() EscortState         { return e.state }
func (e *Escort) Leader() models.Vehicle     { return e.leader }
func (e *Escort) Leg() Maneuver              { return e.leg }
func (e *Escort) Follower() *flight.Follower { return e.follower }

// LegError is the error that ended the most recent landing, transit or route
// lookup, cleared when a later leg succeeds.
func (e *Escort) LegError() error { return e.legErr }

func (e *Escort) Status() string {
	switch {
	case e.err != nil:
		return fmt.Sprintf("escort %s: %v", e.base.target, e.err)
	case e.leg != nil:
		return fmt.Sprintf("escort %s: %s", e.base.target, e.leg.Status())
	case e.state == EscortWaiting:
		return fmt.Sprintf("escort %s: waiting %.1fs", e.base.target, e.wait)
	default:
		return fmt.Sprintf("escort %s: %s", e.base.target, e.state)
	}
}

func (e *Escort) Tick(tc TickContext) Status {
	return e.once(tc, func() Status {
		if e.leader == nil || !e.leader.Valid() {
			return e.fail(tc, models.NewError(models.TargetInvalid, e.name, "escorted vehicle %q lost", e.base.target))
		}
		return escortHandlers[e.state](e, tc)
	})
}

func (e *Escort) enter(tc TickContext, s EscortState) {
	if s == e.state {
		return
	}
	tc.logger().Debug("escort state",
		log.String("from", e.state.String()),
		log.String("to", s.String()),
		log.String("leader", e.base.target),
	)
	e.state = s
}

// tickIdle sits with the leader while both are landed and otherwise hands over
// to takeoff or following.
func (e *Escort) tickIdle(tc TickContext) Status {
	v := e.vehicle
	switch v.DiscreteState() {
	case models.Landed:
		if e.leaderOn(v.LandedOn()) {
			v.SetThrustEnabled(false)
			return StatusRunning
		}
		v.RequestTakeoff()
		e.enter(tc, EscortTakingOff)
		return StatusRunning
	case models.Landing, models.TakingOff:
		e.enter(tc, EscortTakingOff)
		return StatusRunning
	}
	e.enter(tc, EscortFollowing)
	return e.tickFollowing(tc)
}

// leaderOn reports whether the leader is landed, or landing, on body.
func (e *Escort) leaderOn(body models.Landable) bool {
	switch e.leader.DiscreteState() {
	case models.Landed, models.Landing:
		return sameTarget(e.leader.LandedOn(), body)
	}
	return false
}

func (e *Escort) tickTakingOff(tc TickContext) Status {
	v := e.vehicle
	switch v.DiscreteState() {
	case models.Flying:
		e.enter(tc, EscortFollowing)
		return e.tickFollowing(tc)
	case models.Landed:
		if e.leaderOn(v.LandedOn()) {
			e.enter(tc, EscortIdle)
			return StatusRunning
		}
		v.RequestTakeoff()
	}
	v.SetThrustEnabled(false)
	return StatusRunning
}

func (e *Escort) tickFollowing(tc TickContext) Status {
	v, leader := e.vehicle, e.leader
	switch v.DiscreteState() {
	case models.Flying:
	case models.JumpingOut, models.JumpingIn:
		return StatusRunning
	default:
		e.enter(tc, EscortIdle)
		return StatusRunning
	}

	if leader.Partition() != v.Partition() {
		return e.route(tc)
	}
	switch leader.DiscreteState() {
	case models.JumpingOut:
		if gate := leader.JumpGate(); gate != nil {
			e.startLeg(tc, EscortTraversingGate, NewTransit(v, gate, e.cfg.Transit))
			return e.tickLeg(tc)
		}
	case models.Landing, models.Landed:
		if body := leader.LandedOn(); body != nil {
			e.startLeg(tc, EscortLanding, e.landingOn(body))
			return e.tickLeg(tc)
		}
	}
	if _, err := e.follower.Steer(v, leader, tc.DT); err != nil {
		return e.fail(tc, err)
	}
	return StatusRunning
}

func (e *Escort) landingOn(body models.Landable) Maneuver {
	if body.Kind() == models.KindAsteroid {
		return NewAsteroidDock(e.vehicle, body, e.cfg.Landing)
	}
	return NewLanding(e.vehicle, body, e.cfg.Landing)
}

// route looks for a gate towards the leader's partition.
func (e *Escort) route(tc TickContext) Status {
	var gate models.Gate
	if tc.Links != nil {
		gate = tc.Links.FindLinkTo(e.vehicle.Partition(), e.leader.Partition())
	}
	if gate == nil {
		e.routeFailures++
		err := models.NewError(models.NoRouteFound, e.name, "no gate from %s to %s", e.vehicle.Partition(), e.leader.Partition())
		if e.cfg.MaxRouteFailures > 0 && e.routeFailures >= e.cfg.MaxRouteFailures {
			return e.fail(tc, err)
		}
		e.backOff(tc, err)
		return StatusRunning
	}
	e.startLeg(tc, EscortTraversingGate, NewTransit(e.vehicle, gate, e.cfg.Transit))
	return e.tickLeg(tc)
}

func (e *Escort) startLeg(tc TickContext, s EscortState, leg Maneuver) {
	e.leg = leg
	e.enter(tc, s)
}

// tickLeg drives the current landing or transit. A failed leg backs off and then
// re-evaluates; it never ends the escort.
func (e *Escort) tickLeg(tc TickContext) Status {
	if e.leg == nil {
		e.enter(tc, EscortFollowing)
		return StatusRunning
	}
	if e.state == EscortLanding && e.vehicle.DiscreteState() == models.Flying && e.leaderAirborne() {
		// leader left before we touched down
		e.leg = nil
		e.enter(tc, EscortFollowing)
		return e.tickFollowing(tc)
	}
	switch e.leg.Tick(tc) {
	case StatusSuccess:
		landed := e.state == EscortLanding
		e.leg = nil
		e.legErr = nil
		e.routeFailures = 0
		if landed {
			e.enter(tc, EscortIdle)
		} else {
			e.enter(tc, EscortFollowing)
		}
	case StatusFailure:
		err := e.leg.LastError()
		e.leg = nil
		e.backOff(tc, err)
	}
	return StatusRunning
}

func (e *Escort) leaderAirborne() bool {
	switch e.leader.DiscreteState() {
	case models.Flying, models.TakingOff:
		return true
	}
	return false
}

func (e *Escort) backOff(tc TickContext, err error) {
	e.legErr = err
	e.wait = e.cfg.WaitMin
	if span := e.cfg.WaitMax - e.cfg.WaitMin; span > 0 && e.rng != nil {
		e.wait += e.rng.Float64() * span
	}
	tc.logger().Info("escort backing off",
		log.String("leader", e.base.target),
		log.Float64("wait", e.wait),
		log.Error(err),
	)
	e.enter(tc, EscortWaiting)
}

func (e *Escort) tickWaiting(tc TickContext) Status {
	e.wait -= tc.DT
	v := e.vehicle
	if v.DiscreteState() == models.Flying {
		cmd := flight.Hold(models.BodyOf(v), physics.Zero, e.cfg.Follow.VelocityTolerance, e.cfg.Follow.ThrustAngleLimit, tc.DT)
		v.SetDesiredHeading(cmd.DesiredHeading)
		v.SetThrustEnabled(cmd.Thrust)
	}
	if e.wait <= 0 {
		e.enter(tc, EscortIdle)
	}
	return StatusRunning
}
