package maneuver

import (
	"fmt"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/flight"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
)

type transitState uint8

const (
	transitTakeoff transitState = iota
	transitApproach
	transitHold
	transitJumpOut
	transitJumpIn
	transitDone
)

var transitStateNames = [...]string{
	transitTakeoff:  "taking off",
	transitApproach: "approaching",
	transitHold:     "holding",
	transitJumpOut:  "jumping out",
	transitJumpIn:   "jumping in",
	transitDone:     "arrived",
}

func (s transitState) String() string {
	if int(s) < len(transitStateNames) {
		return transitStateNames[s]
	}
	return "unknown"
}

// Gate transit tuning. Kept apart from the landing constants; the two approaches
// are tuned independently.
const (
	transitArrivalFraction = 0.5
	transitArrivalSpeed    = 25.0
	transitBleedRate       = 1.5
	transitInwardRate      = 0.8
)

// Transit flies into a gate's trigger area, requests the hyperjump and completes
// once the ship is flying in the gate's destination partition.
type Transit struct {
	base
	vehicle models.Vehicle
	gate    models.Gate
	params  flight.Params
	origin  models.PartitionID
	dest    models.PartitionID
	state   transitState
}

var transitHandlers = [...]func(*Transit, TickContext) Status{
	transitTakeoff:  (*Transit).tickTakeoff,
	transitApproach: (*Transit).tickApproach,
	transitHold:     (*Transit).tickHold,
	transitJumpOut:  (*Transit).tickJumping,
	transitJumpIn:   (*Transit).tickJumping,
	transitDone:     (*Transit).tickDone,
}

// NewTransit takes v through gate.
func NewTransit(v models.Vehicle, gate models.Gate, params flight.Params) *Transit {
	t := &Transit{
		base:    base{name: "transit"},
		vehicle: v,
		gate:    gate,
		state:   transitApproach,
	}
	if gate != nil {
		t.base.target = gate.Name()
		t.dest = gate.Destination()
		t.origin = gate.Partition()
		params.ArrivalDistance = gate.TriggerRadius() * transitArrivalFraction
		if params.ArrivalSpeed < transitArrivalSpeed {
			params.ArrivalSpeed = transitArrivalSpeed
		}
		if params.CloseApproachSpeed < params.ArrivalSpeed {
			params.CloseApproachSpeed = params.ArrivalSpeed
		}
	}
	t.params = params
	return t
}

// Gate is the gate this transit was built with, unchanged for its lifetime.
func (t *Transit) Gate() models.Gate               { return t.gate }
func (t *Transit) Destination() models.PartitionID { return t.dest }
func (t *Transit) Params() flight.Params           { return t.params }

func (t *Transit) Status() string {
	switch {
	case t.err != nil:
		return fmt.Sprintf("transit %s: %v", t.base.target, t.err)
	case t.sub != nil:
		return fmt.Sprintf("transit %s to %s: %s (%s)", t.base.target, t.dest, t.state, t.sub.Zone())
	default:
		return fmt.Sprintf("transit %s to %s: %s", t.base.target, t.dest, t.state)
	}
}

func (t *Transit) Tick(tc TickContext) Status {
	return t.once(tc, func() Status {
		if t.gate == nil {
			return t.fail(tc, models.NewError(models.TargetInvalid, t.name, "no gate"))
		}
		if st, handled := t.sync(tc); handled {
			return st
		}
		return transitHandlers[t.state](t, tc)
	})
}

func (t *Transit) sync(tc TickContext) (Status, bool) {
	v := t.vehicle
	switch s := v.DiscreteState(); s {
	case models.Landed:
		v.RequestTakeoff()
		t.state = transitTakeoff
		return StatusRunning, true
	case models.TakingOff:
		t.state = transitTakeoff
		return StatusRunning, true
	case models.JumpingOut:
		t.state = transitJumpOut
		return StatusRunning, true
	case models.JumpingIn:
		t.state = transitJumpIn
		return StatusRunning, true
	case models.Flying:
		if v.Partition() == t.dest {
			t.state = transitDone
			return t.succeed(tc), true
		}
		switch t.state {
		case transitTakeoff:
			t.state = transitApproach
		case transitJumpOut, transitJumpIn:
			// jump fell through, still on this side
			t.state = transitApproach
			t.restart(tc, "jump aborted", t.params, v)
		}
		return 0, false
	default:
		return t.fail(tc, models.NewError(models.UnexpectedDiscreteState, t.name, "vehicle is %s", s)), true
	}
}

func (t *Transit) tickTakeoff(TickContext) Status {
	t.vehicle.SetThrustEnabled(false)
	return StatusRunning
}

func (t *Transit) jump() bool {
	if !t.vehicle.RequestHyperjump(t.gate) {
		return false
	}
	t.vehicle.SetThrustEnabled(false)
	t.sub = nil
	t.state = transitJumpOut
	return true
}

func (t *Transit) tickApproach(tc TickContext) Status {
	v := t.vehicle
	if err := t.checkTarget(t.name, v, t.gate); err != nil {
		return t.fail(tc, err)
	}
	pos := v.Position()
	if pos.Dist(t.gate.Position()) <= t.gate.Radius() {
		if t.gate.Overlaps(pos) {
			if t.jump() {
				return StatusRunning
			}
			// refused, most likely the drive is cooling down
			t.sub = nil
			t.state = transitHold
			return t.tickHold(tc)
		}
		if t.sub != nil && t.sub.Complete() {
			t.restart(tc, "misaligned", t.params, v)
		}
	}
	if t.sub == nil {
		t.engage(t.params, v)
	}
	cmd, err := t.sub.Steer(v, t.gate, tc.DT)
	if err != nil {
		return t.fail(tc, err)
	}
	if cmd.Arrived && !t.gate.Overlaps(v.Position()) {
		t.restart(tc, "misaligned", t.params, v)
	}
	return StatusRunning
}

// tickHold brakes inside the trigger area with no sub-pilot and retries the jump
// every tick until the drive accepts it.
func (t *Transit) tickHold(tc TickContext) Status {
	v := t.vehicle
	if err := t.checkTarget(t.name, v, t.gate); err != nil {
		return t.fail(tc, err)
	}
	pos := v.Position()
	switch {
	case pos.Dist(t.gate.Position()) > t.gate.Radius():
		t.state = transitApproach
		t.restart(tc, "overshoot", t.params, v)
		return StatusRunning
	case !t.gate.Overlaps(pos):
		t.state = transitApproach
		t.restart(tc, "misaligned", t.params, v)
		return StatusRunning
	}
	if t.jump() {
		return StatusRunning
	}
	bleed(v, t.gate, tc.DT, transitBleedRate, transitInwardRate)
	brake(v, t.gate, t.params, tc.DT)
	return StatusRunning
}

func (t *Transit) tickJumping(TickContext) Status {
	t.vehicle.SetThrustEnabled(false)
	return StatusRunning
}

func (t *Transit) tickDone(tc TickContext) Status {
	return t.succeed(tc)
}
