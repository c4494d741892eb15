package maneuver

import (
	"fmt"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/flight"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
)

type landingState uint8

const (
	landingTakeoff landingState = iota
	landingApproach
	landingBrake
	landingTouchdown
	landingDone
)

var landingStateNames = [...]string{
	landingTakeoff:   "taking off",
	landingApproach:  "approaching",
	landingBrake:     "braking",
	landingTouchdown: "touching down",
	landingDone:      "landed",
}

func (s landingState) String() string {
	if int(s) < len(landingStateNames) {
		return landingStateNames[s]
	}
	return "unknown"
}

// Landing tuning. Gate transit carries its own set.
const (
	landingArrivalFraction = 0.5
	landingSpeedMargin     = 0.6
	landingBleedRate       = 1.2
	landingInwardRate      = 0.5

	asteroidArrivalFraction = 0.4
	asteroidSpeedMargin     = 0.5
	asteroidBleedRate       = 2.0
	asteroidInwardRate      = 0.8
)

type landingTuning struct {
	arrivalFraction float64
	speedMargin     float64
	bleedRate       float64
	inwardRate      float64
}

var (
	planetTuning   = landingTuning{landingArrivalFraction, landingSpeedMargin, landingBleedRate, landingInwardRate}
	asteroidTuning = landingTuning{asteroidArrivalFraction, asteroidSpeedMargin, asteroidBleedRate, asteroidInwardRate}
)

// Landing approaches a landable body, sheds speed inside its capture radius and
// lands. An approach that overshoots the capture radius is retried with a fresh
// sub-pilot.
type Landing struct {
	base
	vehicle models.Vehicle
	target  models.Landable
	params  flight.Params
	tuning  landingTuning
	state   landingState
}

var landingHandlers = [...]func(*Landing, TickContext) Status{
	landingTakeoff:   (*Landing).tickTakeoff,
	landingApproach:  (*Landing).tickApproach,
	landingBrake:     (*Landing).tickBrake,
	landingTouchdown: (*Landing).tickTouchdown,
	landingDone:      (*Landing).tickDone,
}

// NewLanding lands v on target. params are the approach tuning; the arrival
// distance and speed are tightened to the body's capture predicate.
func NewLanding(v models.Vehicle, target models.Landable, params flight.Params) *Landing {
	return newLanding("land", v, target, params, planetTuning)
}

// NewAsteroidDock docks with a drifting asteroid. Capture is judged on speed
// relative to the rock and the bleed is stronger.
func NewAsteroidDock(v models.Vehicle, target models.Landable, params flight.Params) *Landing {
	return newLanding("dock", v, target, params, asteroidTuning)
}

func newLanding(name string, v models.Vehicle, target models.Landable, params flight.Params, tuning landingTuning) *Landing {
	l := &Landing{
		base:    base{name: name},
		vehicle: v,
		target:  target,
		tuning:  tuning,
		state:   landingApproach,
	}
	if target != nil {
		l.base.target = target.Name()
		params.ArrivalDistance = target.Radius() * tuning.arrivalFraction
		if limit := target.LandingSpeedLimit() * tuning.speedMargin; limit > 0 && params.ArrivalSpeed > limit {
			params.ArrivalSpeed = limit
		}
		if params.CloseApproachSpeed < params.ArrivalSpeed {
			params.CloseApproachSpeed = params.ArrivalSpeed
		}
	}
	l.params = params
	return l
}

func (l *Landing) Target() models.Landable { return l.target }
func (l *Landing) Params() flight.Params   { return l.params }

func (l *Landing) Status() string {
	switch {
	case l.err != nil:
		return fmt.Sprintf("%s %s: %v", l.name, l.base.target, l.err)
	case l.sub != nil:
		return fmt.Sprintf("%s %s: %s (%s)", l.name, l.base.target, l.state, l.sub.Zone())
	default:
		return fmt.Sprintf("%s %s: %s", l.name, l.base.target, l.state)
	}
}

func (l *Landing) Tick(tc TickContext) Status {
	return l.once(tc, func() Status {
		if st, handled := l.sync(tc); handled {
			return st
		}
		return landingHandlers[l.state](l, tc)
	})
}

// sync reconciles the machine with the vehicle's discrete state.
func (l *Landing) sync(tc TickContext) (Status, bool) {
	v := l.vehicle
	switch s := v.DiscreteState(); s {
	case models.Landed:
		if sameTarget(v.LandedOn(), l.target) {
			l.state = landingDone
			return l.succeed(tc), true
		}
		v.RequestTakeoff()
		l.state = landingTakeoff
		return StatusRunning, true
	case models.Landing:
		if sameTarget(v.LandedOn(), l.target) {
			l.state = landingTouchdown
		} else {
			l.state = landingTakeoff
		}
		return StatusRunning, true
	case models.TakingOff:
		l.state = landingTakeoff
		return StatusRunning, true
	case models.Flying:
		if l.state == landingTakeoff || l.state == landingTouchdown {
			l.state = landingApproach
		}
		return 0, false
	default:
		return l.fail(tc, models.NewError(models.UnexpectedDiscreteState, l.name, "vehicle is %s", s)), true
	}
}

func (l *Landing) tickTakeoff(TickContext) Status {
	l.vehicle.SetThrustEnabled(false)
	return StatusRunning
}

// captured applies the landing capture predicate: inside the body's radius and
// slower, relative to it, than its landing limit.
func (l *Landing) captured() (inside, slow bool) {
	v := l.vehicle
	inside = v.Position().Dist(l.target.Position()) <= l.target.Radius()
	slow = v.Velocity().Sub(l.target.Velocity()).Len() <= l.target.LandingSpeedLimit()
	return inside, slow
}

func (l *Landing) touchdown() bool {
	if !l.vehicle.RequestLanding(l.target) {
		return false
	}
	l.vehicle.SetThrustEnabled(false)
	l.sub = nil
	l.state = landingTouchdown
	return true
}

func (l *Landing) tickApproach(tc TickContext) Status {
	if err := l.checkTarget(l.name, l.vehicle, l.target); err != nil {
		return l.fail(tc, err)
	}
	if inside, slow := l.captured(); inside {
		if slow && l.touchdown() {
			return StatusRunning
		}
		l.sub = nil
		l.state = landingBrake
		return l.tickBrake(tc)
	}
	if l.sub == nil {
		l.engage(l.params, l.vehicle)
	}
	cmd, err := l.sub.Steer(l.vehicle, l.target, tc.DT)
	if err != nil {
		return l.fail(tc, err)
	}
	if cmd.Arrived {
		// arrived outside the capture radius: the body moved away
		l.restart(tc, "overshoot", l.params, l.vehicle)
	}
	return StatusRunning
}

// tickBrake runs with no sub-pilot: the ship is inside the capture radius but too
// fast, or the landing request was refused.
func (l *Landing) tickBrake(tc TickContext) Status {
	if err := l.checkTarget(l.name, l.vehicle, l.target); err != nil {
		return l.fail(tc, err)
	}
	inside, slow := l.captured()
	if !inside {
		l.state = landingApproach
		l.restart(tc, "overshoot", l.params, l.vehicle)
		return StatusRunning
	}
	if slow && l.touchdown() {
		return StatusRunning
	}
	bleed(l.vehicle, l.target, tc.DT, l.tuning.bleedRate, l.tuning.inwardRate)
	brake(l.vehicle, l.target, l.params, tc.DT)
	return StatusRunning
}

func (l *Landing) tickTouchdown(TickContext) Status {
	l.vehicle.SetThrustEnabled(false)
	return StatusRunning
}

func (l *Landing) tickDone(tc TickContext) Status {
	return l.succeed(tc)
}
