package maneuver

import (
	"fmt"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/flight"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

// Wait holds the ship for a fixed time: braking to a stop when flying, sitting
// still when landed.
type Wait struct {
	base
	vehicle   models.Vehicle
	params    flight.Params
	remaining float64
}

func NewWait(v models.Vehicle, seconds float64, params flight.Params) *Wait {
	return &Wait{base: base{name: "wait"}, vehicle: v, params: params, remaining: seconds}
}

func (w *Wait) Remaining() float64 { return w.remaining }

func (w *Wait) Status() string {
	return fmt.Sprintf("waiting %.1fs", max(w.remaining, 0))
}

func (w *Wait) Tick(tc TickContext) Status {
	return w.once(tc, func() Status {
		switch s := w.vehicle.DiscreteState(); s {
		case models.Flying:
			cmd := flight.Hold(models.BodyOf(w.vehicle), physics.Zero, w.params.VelocityTolerance, w.params.ThrustAngleLimit, tc.DT)
			w.vehicle.SetDesiredHeading(cmd.DesiredHeading)
			w.vehicle.SetThrustEnabled(cmd.Thrust)
		case models.JumpingOut, models.JumpingIn:
			return w.fail(tc, models.NewError(models.UnexpectedDiscreteState, w.name, "vehicle is %s", s))
		}
		w.remaining -= tc.DT
		if w.remaining <= 0 {
			w.vehicle.SetThrustEnabled(false)
			return w.succeed(tc)
		}
		return StatusRunning
	})
}

// Pursue closes to a standoff distance from a target and keeps station on it for
// the turrets. It runs until the target is lost, which ends it with TargetInvalid.
type Pursue struct {
	base
	vehicle  models.Vehicle
	quarry   models.Target
	params   flight.Params
	standoff float64
	holding  bool
}

// pursueSlack is how far past the standoff distance the quarry may drift before
// the approach is flown again.
const pursueSlack = 2.0

func NewPursue(v models.Vehicle, quarry models.Target, params flight.Params, standoff float64) *Pursue {
	params.ArrivalDistance = standoff
	p := &Pursue{base: base{name: "pursue"}, vehicle: v, quarry: quarry, params: params, standoff: standoff}
	if quarry != nil {
		p.base.target = quarry.Name()
	}
	return p
}

func (p *Pursue) Quarry() models.Target { return p.quarry }
func (p *Pursue) Holding() bool         { return p.holding }

func (p *Pursue) Status() string {
	switch {
	case p.err != nil:
		return fmt.Sprintf("pursue %s: %v", p.base.target, p.err)
	case p.holding:
		return fmt.Sprintf("pursue %s: holding", p.base.target)
	case p.sub != nil:
		return fmt.Sprintf("pursue %s: closing (%s)", p.base.target, p.sub.Zone())
	default:
		return fmt.Sprintf("pursue %s", p.base.target)
	}
}

func (p *Pursue) Tick(tc TickContext) Status {
	return p.once(tc, func() Status {
		v := p.vehicle
		if s := v.DiscreteState(); s != models.Flying {
			if s == models.Landed {
				v.RequestTakeoff()
			}
			return StatusRunning
		}
		if err := p.checkTarget(p.name, v, p.quarry); err != nil {
			return p.fail(tc, err)
		}
		dist := v.Position().Dist(p.quarry.Position())
		if p.holding {
			if dist <= p.standoff*pursueSlack {
				brake(v, p.quarry, p.params, tc.DT)
				return StatusRunning
			}
			p.holding = false
			p.restart(tc, "quarry escaped", p.params, v)
		}
		if p.sub == nil {
			p.engage(p.params, v)
		}
		cmd, err := p.sub.Steer(v, p.quarry, tc.DT)
		if err != nil {
			return p.fail(tc, err)
		}
		if cmd.Arrived {
			p.holding = true
			p.sub = nil
		}
		return StatusRunning
	})
}

// Waypoint is a fixed point in a partition, usable wherever a target is.
type Waypoint struct {
	Label string
	At    physics.Vec2
	In    models.PartitionID
}

var _ models.Target = Waypoint{}

func (w Waypoint) Name() string                  { return w.Label }
func (w Waypoint) Position() physics.Vec2        { return w.At }
func (w Waypoint) Velocity() physics.Vec2        { return physics.Zero }
func (w Waypoint) Radius() float64               { return 0 }
func (w Waypoint) Partition() models.PartitionID { return w.In }
func (w Waypoint) Valid() bool                   { return true }

// FlyTo flies to a target and completes on arrival.
type FlyTo struct {
	base
	vehicle models.Vehicle
	dest    models.Target
	params  flight.Params
}

func NewFlyTo(v models.Vehicle, dest models.Target, params flight.Params) *FlyTo {
	f := &FlyTo{base: base{name: "flyto"}, vehicle: v, dest: dest, params: params}
	if dest != nil {
		f.base.target = dest.Name()
	}
	return f
}

func (f *FlyTo) Status() string {
	switch {
	case f.err != nil:
		return fmt.Sprintf("fly to %s: %v", f.base.target, f.err)
	case f.sub != nil:
		return fmt.Sprintf("fly to %s (%s)", f.base.target, f.sub.Zone())
	default:
		return fmt.Sprintf("fly to %s", f.base.target)
	}
}

func (f *FlyTo) Tick(tc TickContext) Status {
	return f.once(tc, func() Status {
		v := f.vehicle
		switch s := v.DiscreteState(); s {
		case models.Flying:
		case models.Landed:
			v.RequestTakeoff()
			return StatusRunning
		case models.TakingOff, models.Landing:
			return StatusRunning
		default:
			return f.fail(tc, models.NewError(models.UnexpectedDiscreteState, f.name, "vehicle is %s", s))
		}
		if err := f.checkTarget(f.name, v, f.dest); err != nil {
			return f.fail(tc, err)
		}
		if f.sub == nil {
			f.engage(f.params, v)
		}
		cmd, err := f.sub.Steer(v, f.dest, tc.DT)
		if err != nil {
			return f.fail(tc, err)
		}
		if cmd.Arrived {
			return f.succeed(tc)
		}
		return StatusRunning
	})
}
