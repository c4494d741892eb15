// Package turret aims and fires a ship-mounted gun at hostile targets.
package turret

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"

	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

// Params tunes a turret. Angles are radians, times seconds.
type Params struct {
	RotationSpeed     float64 `yaml:"rotation_speed"`
	ProjectileSpeed   float64 `yaml:"projectile_speed"`
	ProjectileDamage  float64 `yaml:"projectile_damage"`
	MaxRange          float64 `yaml:"max_range"`
	AcquisitionRadius float64 `yaml:"acquisition_radius"`
	MaxLeadTime       float64 `yaml:"max_lead_time"`
	Cooldown          float64 `yaml:"cooldown"`
	RetargetMin       float64 `yaml:"retarget_min"`
	RetargetMax       float64 `yaml:"retarget_max"`
}

func DefaultParams() Params {
	return Params{
		RotationSpeed:     math.Pi,
		ProjectileSpeed:   600,
		ProjectileDamage:  5,
		MaxRange:          500,
		AcquisitionRadius: 800,
		MaxLeadTime:       1,
		Cooldown:          0.25,
		RetargetMin:       0.5,
		RetargetMax:       1.0,
	}
}

func (p Params) Validate() error {
	var errs []error
	if p.RotationSpeed <= 0 {
		errs = append(errs, fmt.Errorf("rotation_speed must be positive, got %v", p.RotationSpeed))
	}
	if p.ProjectileSpeed <= 0 {
		errs = append(errs, fmt.Errorf("projectile_speed must be positive, got %v", p.ProjectileSpeed))
	}
	if p.MaxRange <= 0 {
		errs = append(errs, fmt.Errorf("max_range must be positive, got %v", p.MaxRange))
	}
	if p.AcquisitionRadius < p.MaxRange {
		errs = append(errs, fmt.Errorf("acquisition_radius %v is inside max_range %v", p.AcquisitionRadius, p.MaxRange))
	}
	if p.MaxLeadTime < 0 || p.Cooldown < 0 {
		errs = append(errs, errors.New("max_lead_time and cooldown must not be negative"))
	}
	if p.RetargetMin <= 0 || p.RetargetMax < p.RetargetMin {
		errs = append(errs, fmt.Errorf("retarget interval [%v, %v] is invalid", p.RetargetMin, p.RetargetMax))
	}
	return errors.Join(errs...)
}

// Seed derives a stable RNG seed for the n-th turret of a ship.
func Seed(ship string, n int) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("turret/%s/%d", ship, n))
}

// FireCommand is the turret's output for one tick. Angle is world-frame.
type FireCommand struct {
	Fire     bool
	Angle    float64
	Origin   physics.Vec2
	Velocity physics.Vec2
	Target   models.Target
}

// Turret tracks one target at a time. The target is re-selected on a randomized
// interval rather than every tick.
type Turret struct {
	mount  physics.Vec2
	params Params
	rng    *rand.Rand

	aim      float64
	target   models.Target
	retarget float64
	cooldown float64
	shots    int
}

// New mounts a turret at offset mount in the owner's frame, x along the nose.
func New(mount physics.Vec2, params Params, seed uint64) *Turret {
	return &Turret{
		mount:  mount,
		params: params,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (t *Turret) Params() Params        { return t.params }
func (t *Turret) AimAngle() float64     { return t.aim }
func (t *Turret) Target() models.Target { return t.target }
func (t *Turret) Shots() int            { return t.shots }

func (t *Turret) Status() string {
	if t.target == nil || !t.target.Valid() {
		return "idle"
	}
	return fmt.Sprintf("tracking %s", t.target.Name())
}

// Origin is the mount's world position on owner.
func (t *Turret) Origin(owner models.Target) physics.Vec2 {
	heading := 0.0
	if v, ok := owner.(models.Vehicle); ok {
		heading = v.Heading()
	}
	return owner.Position().Add(t.mount.Rotate(heading))
}

// Update advances the turret by dt and reports whether it fires this tick.
func (t *Turret) Update(owner models.Vehicle, candidates []models.Target, hostile models.HostilityFunc, dt float64) FireCommand {
	cmd := FireCommand{Angle: t.aim}
	if dt <= 0 || owner == nil || !owner.Valid() {
		return cmd
	}
	t.cooldown -= dt
	t.retarget -= dt
	if owner.DiscreteState() != models.Flying {
		t.target = nil
		return cmd
	}

	if t.target != nil && !t.acceptable(owner, t.target, hostile) {
		t.target = nil
		t.retarget = 0
	}
	if t.retarget <= 0 {
		t.target = t.SelectTarget(owner, candidates, hostile)
		t.retarget = t.params.RetargetMin + t.rng.Float64()*(t.params.RetargetMax-t.params.RetargetMin)
	}
	if t.target == nil {
		return cmd
	}

	origin := t.Origin(owner)
	point := Lead(origin, owner.Velocity(), t.target.Position(), t.target.Velocity(), t.params.ProjectileSpeed, t.params.MaxLeadTime)
	want := point.Sub(origin).Angle()
	t.aim = physics.RotateTowards(t.aim, want, t.params.RotationSpeed*dt)

	cmd.Angle = t.aim
	cmd.Origin = origin
	cmd.Target = t.target
	cmd.Velocity = owner.Velocity().Add(physics.FromAngle(t.aim, t.params.ProjectileSpeed))

	dist := origin.Dist(t.target.Position())
	tolerance := math.Atan2(t.target.Radius(), dist)
	aligned := math.Abs(physics.AngleDiff(t.aim, want)) <= tolerance
	if aligned && dist < t.params.MaxRange && t.cooldown <= 0 {
		cmd.Fire = true
		t.cooldown = t.params.Cooldown
		t.shots++
	}
	return cmd
}

func (t *Turret) acceptable(owner models.Vehicle, c models.Target, hostile models.HostilityFunc) bool {
	if hostile == nil || !models.StillValid(c, owner.Partition()) || !hostile(owner, c) {
		return false
	}
	return t.Origin(owner).Dist(c.Position()) <= t.params.AcquisitionRadius
}

// SelectTarget prefers the owner's own selection when it is hostile and within
// acquisition range. Otherwise it picks the candidate the turret can swing onto
// soonest, which is not necessarily the nearest.
func (t *Turret) SelectTarget(owner models.Vehicle, candidates []models.Target, hostile models.HostilityFunc) models.Target {
	if sel := owner.SelectedTarget(); sel != nil && t.acceptable(owner, sel, hostile) {
		return sel
	}
	origin := t.Origin(owner)
	var best models.Target
	bestTime := math.Inf(1)
	for _, c := range candidates {
		if !t.acceptable(owner, c, hostile) {
			continue
		}
		turn := math.Abs(physics.AngleDiff(t.aim, c.Position().Sub(origin).Angle()))
		if rt := turn / t.params.RotationSpeed; rt < bestTime {
			best, bestTime = c, rt
		}
	}
	return best
}

// Lead returns the aim point for a projectile fired from origin at speed.
//
// The target is projected along its velocity relative to the shooter for the
// estimated flight time, capped at maxLead, and only the part of that offset
// lateral to the line of sight is kept. The closing component is dropped so the
// lead does not grow with range.
func Lead(origin, ownVel, targetPos, targetVel physics.Vec2, speed, maxLead float64) physics.Vec2 {
	rel := targetPos.Sub(origin)
	dist := rel.Len()
	if dist == 0 || speed <= 0 {
		return targetPos
	}
	flight := math.Min(dist/speed, maxLead)
	shift := targetVel.Sub(ownVel).Scale(flight)
	_, lateral := shift.Project(rel)
	return targetPos.Add(lateral)
}

// LeadAngle is the signed angle between the line of sight and the lead aim.
func LeadAngle(origin, ownVel, targetPos, targetVel physics.Vec2, speed, maxLead float64) float64 {
	los := targetPos.Sub(origin).Angle()
	aim := Lead(origin, ownVel, targetPos, targetVel, speed, maxLead).Sub(origin).Angle()
	return physics.AngleDiff(los, aim)
}
