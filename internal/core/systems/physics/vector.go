package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec2 is a value-type 2-D vector. Arithmetic is delegated to gonum's r2 package.
type Vec2 r2.Vec

// Zero is the origin.
var Zero = Vec2{}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

// FromAngle returns a vector of length mag pointing at angle (radians, +X is 0).
func FromAngle(angle, mag float64) Vec2 {
	return Vec2{X: math.Cos(angle) * mag, Y: math.Sin(angle) * mag}
}

func (v Vec2) Add(o Vec2) Vec2       { return Vec2(r2.Add(r2.Vec(v), r2.Vec(o))) }
func (v Vec2) Sub(o Vec2) Vec2       { return Vec2(r2.Sub(r2.Vec(v), r2.Vec(o))) }
func (v Vec2) Scale(f float64) Vec2  { return Vec2(r2.Scale(f, r2.Vec(v))) }
func (v Vec2) Dot(o Vec2) float64    { return r2.Dot(r2.Vec(v), r2.Vec(o)) }
func (v Vec2) Cross(o Vec2) float64  { return r2.Cross(r2.Vec(v), r2.Vec(o)) }
func (v Vec2) Len() float64          { return r2.Norm(r2.Vec(v)) }
func (v Vec2) LenSq() float64        { return r2.Norm2(r2.Vec(v)) }
func (v Vec2) Dist(o Vec2) float64   { return v.Sub(o).Len() }
func (v Vec2) DistSq(o Vec2) float64 { return v.Sub(o).LenSq() }
func (v Vec2) Neg() Vec2             { return Vec2{X: -v.X, Y: -v.Y} }

// Angle is the direction of v in (−π, π]. The zero vector has angle 0.
func (v Vec2) Angle() float64 {
	if v.X == 0 && v.Y == 0 {
		return 0
	}
	return NormalizeAngle(math.Atan2(v.Y, v.X))
}

// Unit returns v scaled to length 1, or the zero vector when v has no length.
func (v Vec2) Unit() Vec2 {
	if v.LenSq() == 0 {
		return Zero
	}
	return Vec2(r2.Unit(r2.Vec(v)))
}

// Rotate turns v about the origin by angle radians.
func (v Vec2) Rotate(angle float64) Vec2 {
	return Vec2(r2.Rotate(r2.Vec(v), angle, r2.Vec{}))
}

// Perp is v rotated by +90°.
func (v Vec2) Perp() Vec2 { return Vec2{X: -v.Y, Y: v.X} }

// ClampLen limits the length of v to max.
func (v Vec2) ClampLen(max float64) Vec2 {
	l := v.Len()
	if l <= max || l == 0 {
		return v
	}
	return v.Scale(max / l)
}

// Project splits v into the component along dir and the remainder. dir need not be unit.
func (v Vec2) Project(dir Vec2) (along, lateral Vec2) {
	u := dir.Unit()
	along = u.Scale(v.Dot(u))
	return along, v.Sub(along)
}

func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Distance2 computes Euclidean distance between two 2D points.
func Distance2(x1, y1, x2, y2 float64) float64 { return math.Hypot(x2-x1, y2-y1) }
