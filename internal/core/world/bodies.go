package world

import (
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/models"
	"github.com/Delvar/Cosmic-Wake-sub000/internal/core/systems/physics"
)

// Body is a planet, station or asteroid. Asteroids drift; the rest are static.
type Body struct {
	handle     Handle
	name       string
	kind       models.LandableKind
	partition  models.PartitionID
	pos        physics.Vec2
	vel        physics.Vec2
	radius     float64
	speedLimit float64
}

func (b *Body) Handle() Handle                { return b.handle }
func (b *Body) Name() string                  { return b.name }
func (b *Body) Kind() models.LandableKind     { return b.kind }
func (b *Body) Partition() models.PartitionID { return b.partition }
func (b *Body) Position() physics.Vec2        { return b.pos }
func (b *Body) Velocity() physics.Vec2        { return b.vel }
func (b *Body) Radius() float64               { return b.radius }
func (b *Body) LandingSpeedLimit() float64    { return b.speedLimit }
func (b *Body) step(dt float64)               { b.pos = b.pos.Add(b.vel.Scale(dt)) }

// Gate is one end of a link. Radius is the capture area, trigger the jump zone.
type Gate struct {
	handle    Handle
	name      string
	partition models.PartitionID
	pos       physics.Vec2
	radius    float64
	trigger   float64
	dest      models.PartitionID
	link      Handle
}

func (g *Gate) Handle() Handle                  { return g.handle }
func (g *Gate) Name() string                    { return g.name }
func (g *Gate) Partition() models.PartitionID   { return g.partition }
func (g *Gate) Position() physics.Vec2          { return g.pos }
func (g *Gate) Velocity() physics.Vec2          { return physics.Zero }
func (g *Gate) Radius() float64                 { return g.radius }
func (g *Gate) TriggerRadius() float64          { return g.trigger }
func (g *Gate) Destination() models.PartitionID { return g.dest }
func (g *Gate) Overlaps(p physics.Vec2) bool    { return p.Dist(g.pos) <= g.trigger }

// Projectile is a bolt fired by a turret.
type Projectile struct {
	handle    Handle
	owner     Handle
	partition models.PartitionID
	pos       physics.Vec2
	vel       physics.Vec2
	damage    float64
	ttl       float64
}

func (p *Projectile) Handle() Handle                { return p.handle }
func (p *Projectile) Name() string                  { return "projectile" }
func (p *Projectile) Partition() models.PartitionID { return p.partition }
func (p *Projectile) Position() physics.Vec2        { return p.pos }
func (p *Projectile) Velocity() physics.Vec2        { return p.vel }
func (p *Projectile) Radius() float64               { return 0 }
func (p *Projectile) Owner() Handle                 { return p.owner }
