package collision

import (
	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/geom"
)

// Result is one confirmed collision of the current tick.
type Result struct {
	A, B         ecs.EntityID
	TypeA, TypeB ecs.EntityType
	OverlapX     float64
	OverlapY     float64
	BoxA, BoxB   geom.AABB
}

// Involves reports whether id is one side of the result.
func (r Result) Involves(id ecs.EntityID) bool { return r.A == id || r.B == id }

// Other returns the opposite side to id.
func (r Result) Other(id ecs.EntityID) (ecs.EntityID, ecs.EntityType) {
	if r.A == id {
		return r.B, r.TypeB
	}
	return r.A, r.TypeA
}

// narrow confirms overlap between two resolved bodies. A laser on either side
// switches to the segment distance test.
func narrow(a, b *body) (Result, bool) {
	res := Result{
		A: a.e.NID, B: b.e.NID,
		TypeA: a.e.Type, TypeB: b.e.Type,
		BoxA: a.box, BoxB: b.box,
	}
	switch {
	case a.col.IsLaser() && !b.col.IsLaser():
		depth, hit := laserHit(a, b)
		res.OverlapX, res.OverlapY = depth, depth
		return res, hit
	case b.col.IsLaser() && !a.col.IsLaser():
		depth, hit := laserHit(b, a)
		res.OverlapX, res.OverlapY = depth, depth
		return res, hit
	}
	ox, oy, hit := geom.Overlap(a.box, b.box)
	res.OverlapX, res.OverlapY = ox, oy
	return res, hit
}

// laserHit compares the target center's perpendicular distance to the laser
// segment against half-width plus the target's radius.
func laserHit(laser, target *body) (depth float64, hit bool) {
	p0, p1 := laser.col.Segment(laser.pos)
	d := geom.SegmentDistance(target.box.Center(), p0, p1)
	reach := laser.col.HalfWidth + target.col.BoundingRadius()
	return reach - d, d < reach
}
