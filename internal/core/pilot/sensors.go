package pilot

import (
	"math"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
)

// Navigator is the pilot's view of the world: name lookups for planners, gate
// links and hostility.
type Navigator interface {
	models.LinkFinder
	Landable(name string) (models.Landable, bool)
	Landables(partition models.PartitionID) []models.Landable
	Vehicle(name string) (models.Vehicle, bool)
	Hostiles(self models.Vehicle) []models.Target
	IsValidAttackTarget(self models.Vehicle, candidate models.Target) bool
}

// ThreatSensor reports the nearest hostile inside a radius.
type ThreatSensor struct {
	radius float64
}

func NewThreatSensor(radius float64) *ThreatSensor { return &ThreatSensor{radius: radius} }

func (s *ThreatSensor) Name() string    { return "threat" }
func (s *ThreatSensor) Radius() float64 { return s.radius }

// Scan returns the closest hostile within range and its distance, or nil.
func (s *ThreatSensor) Scan(self models.Vehicle, nav Navigator) (models.Target, float64) {
	if nav == nil {
		return nil, math.Inf(1)
	}
	var best models.Target
	bestDist := math.Inf(1)
	for _, c := range nav.Hostiles(self) {
		if d := self.Position().Dist(c.Position()); d <= s.radius && d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

// InRange reports whether t is still a live threat within the sensor radius.
func (s *ThreatSensor) InRange(self models.Vehicle, t models.Target) bool {
	if !models.StillValid(t, self.Partition()) {
		return false
	}
	return self.Position().Dist(t.Position()) <= s.radius
}

// Harbor picks the body to flee to: the nearest one the threat is not closer to.
func Harbor(self models.Vehicle, threat models.Target, bodies []models.Landable) models.Landable {
	var best models.Landable
	bestDist := math.Inf(1)
	for _, b := range bodies {
		if !models.StillValid(b, self.Partition()) {
			continue
		}
		d := self.Position().Dist(b.Position())
		if threat != nil && threat.Valid() && threat.Position().Dist(b.Position()) < d {
			continue
		}
		if d < bestDist {
			best, bestDist = b, d
		}
	}
	return best
}
