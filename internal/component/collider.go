package component

import (
	"math"

	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/geom"
)

// Shape selects the narrow-phase test for a collider.
type Shape uint8

const (
	ShapeBox Shape = iota
	ShapeCircle
	ShapeLaser // segment from the position along Angle, Length long
)

func (s Shape) String() string {
	switch s {
	case ShapeBox:
		return "box"
	case ShapeCircle:
		return "circle"
	case ShapeLaser:
		return "laser"
	}
	return "unknown"
}

func (s *Shape) UnmarshalText(b []byte) error {
	switch string(b) {
	case "box", "":
		*s = ShapeBox
	case "circle":
		*s = ShapeCircle
	case "laser":
		*s = ShapeLaser
	default:
		return &shapeError{string(b)}
	}
	return nil
}

type shapeError struct{ name string }

func (e *shapeError) Error() string { return "unknown collider shape " + e.name }

type ColliderProps struct {
	Shape     Shape
	Width     float64
	Height    float64
	Radius    float64
	Length    float64 // laser
	Angle     float64 // laser, radians
	HalfWidth float64 // laser
	Offset    geom.Vec2
	Trigger   bool
	Immovable bool
}

// Collider is the collidable capability.
type Collider struct {
	ecs.Base
	ColliderProps
	Sleeping bool
}

func NewCollider() *Collider {
	return &Collider{Base: ecs.NewBase("collider")}
}

func (c *Collider) Recreate(p ColliderProps) { c.ColliderProps = p }

func (c *Collider) Reset() {
	c.ResetBase()
	c.ColliderProps = ColliderProps{}
	c.Sleeping = false
}

// Bounds computes the collision box at pos.
func (c *Collider) Bounds(pos geom.Vec2) geom.AABB {
	center := pos.Add(c.Offset)
	switch c.Shape {
	case ShapeCircle:
		return geom.BoxAt(center, c.Radius*2, c.Radius*2)
	case ShapeLaser:
		a, b := c.Segment(pos)
		return geom.AABB{
			MinX: math.Min(a.X, b.X) - c.HalfWidth,
			MinY: math.Min(a.Y, b.Y) - c.HalfWidth,
			MaxX: math.Max(a.X, b.X) + c.HalfWidth,
			MaxY: math.Max(a.Y, b.Y) + c.HalfWidth,
		}
	}
	return geom.BoxAt(center, c.Width, c.Height)
}

// Segment returns the laser's end points at pos.
func (c *Collider) Segment(pos geom.Vec2) (geom.Vec2, geom.Vec2) {
	a := pos.Add(c.Offset)
	dir := geom.V(math.Cos(c.Angle), math.Sin(c.Angle))
	return a, a.Add(dir.Scale(c.Length))
}

// BoundingRadius is the radius used by circle tests and the laser distance test.
func (c *Collider) BoundingRadius() float64 {
	switch c.Shape {
	case ShapeCircle:
		return c.Radius
	case ShapeLaser:
		return c.HalfWidth
	}
	return math.Max(c.Width, c.Height) / 2
}

func (c *Collider) IsLaser() bool     { return c.Shape == ShapeLaser }
func (c *Collider) TriggerOnly() bool { return c.Trigger }
