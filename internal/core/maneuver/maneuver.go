// Package maneuver holds the state machines that compose the flight controllers
// into docking, gate transit, escort and loiter behaviours.
//
// Every machine is a tagged state enum dispatched through a handler table. A
// machine owns at most one flight.Controller at a time; when an approach has to be
// retried the controller is replaced wholesale, never reset in place.
package maneuver

import (
	"math"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/events"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/events/bus"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/flight"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/observability/log"
)

// Status is the result of one Tick.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// TickContext carries the per-tick inputs shared by every maneuver.
type TickContext struct {
	// Frame numbers ticks. A maneuver ticked twice with the same non-zero Frame
	// returns its previous status without evaluating again.
	Frame uint64
	DT    float64
	Now   float64
	Pilot string

	Log    log.Log
	Events bus.EventBus
	Links  models.LinkFinder
}

func (tc TickContext) logger() log.Log {
	if tc.Log == nil {
		return log.NewNop()
	}
	return tc.Log
}

func (tc TickContext) emit(typ string, data any) {
	if tc.Events == nil {
		return
	}
	if err := tc.Events.Publish(bus.NewEvent(typ, tc.Pilot, tc.Now, data, nil)); err != nil {
		tc.logger().Warn("event handler failed", log.String("event", typ), log.Error(err))
	}
}

// Maneuver is the contract the pilot supervisor drives.
type Maneuver interface {
	Name() string
	Tick(tc TickContext) Status
	// Status is a human-readable summary for display.
	Status() string
	IsComplete() bool
	IsActive() bool
	LastError() error
}

// base carries the bookkeeping shared by the state machines.
type base struct {
	name     string
	target   string
	started  bool
	complete bool
	err      error

	sub      *flight.Controller
	restarts int
	checked  bool

	frame uint64
	last  Status
}

func (b *base) Name() string                 { return b.name }
func (b *base) IsComplete() bool             { return b.complete }
func (b *base) IsActive() bool               { return !b.complete && b.err == nil }
func (b *base) LastError() error             { return b.err }
func (b *base) SubPilot() *flight.Controller { return b.sub }
func (b *base) Restarts() int                { return b.restarts }

// once evaluates fn at most once per frame.
func (b *base) once(tc TickContext, fn func() Status) Status {
	if tc.Frame != 0 && tc.Frame == b.frame {
		return b.last
	}
	b.frame = tc.Frame
	switch {
	case b.complete:
		b.last = StatusSuccess
	case b.err != nil:
		b.last = StatusFailure
	default:
		if !b.started {
			b.started = true
			tc.emit(events.ManeuverStarted, events.Maneuver{Pilot: tc.Pilot, Maneuver: b.name, Target: b.target})
			tc.logger().Debug("maneuver started", log.String("maneuver", b.name), log.String("target", b.target))
		}
		b.last = fn()
	}
	return b.last
}

func (b *base) succeed(tc TickContext) Status {
	b.complete = true
	b.sub = nil
	tc.emit(events.ManeuverCompleted, events.Maneuver{Pilot: tc.Pilot, Maneuver: b.name, Target: b.target})
	tc.logger().Debug("maneuver completed", log.String("maneuver", b.name), log.Int("restarts", b.restarts))
	return StatusSuccess
}

func (b *base) fail(tc TickContext, err error) Status {
	b.err = err
	b.sub = nil
	tc.emit(events.ManeuverFailed, events.Maneuver{Pilot: tc.Pilot, Maneuver: b.name, Target: b.target, Err: err})
	tc.logger().Warn("maneuver failed", log.String("maneuver", b.name), log.Error(err))
	return StatusFailure
}

// engage builds the first sub-pilot of an approach.
func (b *base) engage(params flight.Params, v models.Vehicle) {
	b.sub = flight.New(params, models.BodyOf(v))
}

// restart replaces the sub-pilot with a fresh one. Overshoot and misalignment are
// recovered this way rather than reported as errors.
func (b *base) restart(tc TickContext, reason string, params flight.Params, v models.Vehicle) {
	b.sub = flight.New(params, models.BodyOf(v))
	b.restarts++
	tc.emit(events.ApproachRestarted, events.Restart{Pilot: tc.Pilot, Maneuver: b.name, Reason: reason, Restarts: b.restarts})
	tc.logger().Debug("approach restarted",
		log.String("maneuver", b.name),
		log.String("reason", reason),
		log.Int("restarts", b.restarts),
		log.Int64("controller", int64(b.sub.ID())),
	)
}

// checkTarget classifies why t cannot be pursued from v, or returns nil.
func (b *base) checkTarget(op string, v models.Vehicle, t models.Target) error {
	switch {
	case t == nil || !t.Valid():
		return models.NewError(models.TargetInvalid, op, "target %q no longer exists", b.target)
	case t.Partition() != v.Partition():
		if !b.checked {
			return models.NewError(models.WrongPartition, op, "target %q is in %s, ship in %s", b.target, t.Partition(), v.Partition())
		}
		return models.NewError(models.TargetInvalid, op, "target %q left %s", b.target, v.Partition())
	}
	b.checked = true
	return nil
}

// bleed sheds speed relative to target and eases the ship towards its centre.
// rate and inward are per-second decay constants.
func bleed(v models.Vehicle, target models.Target, dt, rate, inward float64) {
	tv := target.Velocity()
	rel := v.Velocity().Sub(tv)
	v.SetVelocity(tv.Add(rel.Scale(math.Exp(-rate * dt))))
	toCenter := target.Position().Sub(v.Position())
	v.SetPosition(v.Position().Add(toCenter.Scale(1 - math.Exp(-inward*dt))))
}

// brake points the ship against its velocity relative to frame and thrusts when aligned.
func brake(v models.Vehicle, target models.Target, params flight.Params, dt float64) flight.Command {
	cmd := flight.Hold(models.BodyOf(v), target.Velocity(), params.VelocityTolerance, params.ThrustAngleLimit, dt)
	v.SetDesiredHeading(cmd.DesiredHeading)
	v.SetThrustEnabled(cmd.Thrust)
	return cmd
}

func sameTarget(a, b models.Target) bool {
	if a == nil || b == nil {
		return false
	}
	return a == b
}
