package geom

import "math"

// Vec2 is a 2D world-space vector.
type Vec2 struct {
	X float64 `msgpack:"x"`
	Y float64 `msgpack:"y"`
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2       { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2       { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2  { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float64    { return v.X*o.X + v.Y*o.Y }
func (v Vec2) LenSq() float64        { return v.X*v.X + v.Y*v.Y }
func (v Vec2) Len() float64          { return math.Sqrt(v.LenSq()) }
func (v Vec2) Dist(o Vec2) float64   { return v.Sub(o).Len() }
func (v Vec2) DistSq(o Vec2) float64 { return v.Sub(o).LenSq() }
func (v Vec2) IsZero() bool          { return v.X == 0 && v.Y == 0 }

// Normalize returns the unit vector, or zero for a zero-length input.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	MinX float64 `msgpack:"x0"`
	MinY float64 `msgpack:"y0"`
	MaxX float64 `msgpack:"x1"`
	MaxY float64 `msgpack:"y1"`
}

// BoxAt returns a w×h box centered at c.
func BoxAt(c Vec2, w, h float64) AABB {
	return AABB{MinX: c.X - w/2, MinY: c.Y - h/2, MaxX: c.X + w/2, MaxY: c.Y + h/2}
}

func (b AABB) Width() float64  { return b.MaxX - b.MinX }
func (b AABB) Height() float64 { return b.MaxY - b.MinY }

func (b AABB) Center() Vec2 {
	return Vec2{(b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2}
}

// Extent is the larger half-dimension, used as a bounding radius.
func (b AABB) Extent() float64 {
	return math.Max(b.Width(), b.Height()) / 2
}

// Overlap returns the overlap depth on each axis. Colliding is true only when
// both depths are strictly positive; touching edges do not collide.
func Overlap(a, b AABB) (overlapX, overlapY float64, colliding bool) {
	overlapX = math.Min(a.MaxX, b.MaxX) - math.Max(a.MinX, b.MinX)
	overlapY = math.Min(a.MaxY, b.MaxY) - math.Max(a.MinY, b.MinY)
	return overlapX, overlapY, overlapX > 0 && overlapY > 0
}

// SegmentDistance returns the distance from p to the segment a-b.
func SegmentDistance(p, a, b Vec2) float64 {
	ab := b.Sub(a)
	lenSq := ab.LenSq()
	if lenSq == 0 {
		return p.Dist(a)
	}
	t := p.Sub(a).Dot(ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Dist(a.Add(ab.Scale(t)))
}
