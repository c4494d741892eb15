package models

import (
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

// PartitionID names a spatial partition (a star system). Pursuer and target must
// share one for a maneuver to proceed.
type PartitionID string

// Target is anything a pilot can steer towards. Implementations are weak
// references: Valid turns false once the underlying entity is removed, and callers
// re-check it every tick.
type Target interface {
	Name() string
	Position() physics.Vec2
	// Velocity is zero for static targets.
	Velocity() physics.Vec2
	// Radius is zero for point targets.
	Radius() float64
	Partition() PartitionID
	Valid() bool
}

// StillValid reports whether t exists and is co-located with the pursuer.
func StillValid(t Target, partition PartitionID) bool {
	return t != nil && t.Valid() && t.Partition() == partition
}

type LandableKind uint8

const (
	KindPlanet LandableKind = iota
	KindStation
	KindAsteroid
)

func (k LandableKind) String() string {
	switch k {
	case KindPlanet:
		return "planet"
	case KindStation:
		return "station"
	case KindAsteroid:
		return "asteroid"
	default:
		return "unknown"
	}
}

// Landable is a body a ship can touch down on.
type Landable interface {
	Target
	// LandingSpeedLimit is the highest speed, relative to the body, at which a
	// landing request is accepted.
	LandingSpeedLimit() float64
	Kind() LandableKind
}

// Gate is one end of a transit link between two partitions.
type Gate interface {
	Target
	Destination() PartitionID
	// TriggerRadius is the jump-trigger geometry. Radius is the wider capture area.
	TriggerRadius() float64
	Overlaps(pos physics.Vec2) bool
}

// HostilityFunc is the game-rules predicate deciding whether self may attack candidate.
type HostilityFunc func(self Vehicle, candidate Target) bool

// LinkFinder resolves the gate in partition `from` that leads to partition `to`.
// It returns nil when no direct link exists.
type LinkFinder interface {
	FindLinkTo(from, to PartitionID) Gate
}

// LinkFinderFunc adapts a function to LinkFinder.
type LinkFinderFunc func(from, to PartitionID) Gate

func (f LinkFinderFunc) FindLinkTo(from, to PartitionID) Gate { return f(from, to) }
