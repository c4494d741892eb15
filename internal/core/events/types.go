// Package events names the simulation's event types and their payloads. Delivery
// happens through package bus.
package events

import (
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
)

const (
	ManeuverStarted   = "maneuver.started"
	ManeuverCompleted = "maneuver.completed"
	ManeuverFailed    = "maneuver.failed"
	ApproachRestarted = "approach.restarted"
	PilotModeChanged  = "pilot.mode_changed"

	TurretFired = "turret.fired"

	ShipDamaged   = "ship.damaged"
	ShipDestroyed = "ship.destroyed"
	ShipLanded    = "ship.landed"
	ShipTookOff   = "ship.took_off"
	ShipJumped    = "ship.jumped"
)

// Maneuver accompanies ManeuverStarted, ManeuverCompleted and ManeuverFailed.
type Maneuver struct {
	Pilot    string
	Maneuver string
	Target   string
	Err      error
}

type Restart struct {
	Pilot    string
	Maneuver string
	Reason   string
	Restarts int
}

type ModeChange struct {
	Pilot string
	From  string
	To    string
	Cause string
}

type Fire struct {
	Ship   string
	Turret int
	Angle  float64
	Target string
}

// Damage is raised when a projectile hits a ship. Attacker is a weak reference and
// may already be invalid when the event is handled.
type Damage struct {
	Victim   string
	Attacker models.Target
	Amount   float64
	Hull     float64
}

type Destroyed struct {
	Ship      string
	Partition models.PartitionID
}

type Landing struct {
	Ship string
	Body string
}

type Jump struct {
	Ship string
	From models.PartitionID
	To   models.PartitionID
	Gate string
}
