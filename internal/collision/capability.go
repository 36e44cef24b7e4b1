package collision

import (
	"github.com/l1jgo/collision/internal/component"
	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/geom"
)

// Positionable exposes a world position.
type Positionable interface {
	Position() geom.Vec2
	SetPosition(geom.Vec2)
}

// Collidable computes a collision area from a position.
type Collidable interface {
	Bounds(pos geom.Vec2) geom.AABB
	TriggerOnly() bool
}

// Movable exposes a velocity for impulse response.
type Movable interface {
	Velocity() geom.Vec2
	SetVelocity(geom.Vec2)
}

// EntityLookup resolves owner handles to live entities.
type EntityLookup interface {
	Lookup(nid ecs.EntityID) (*ecs.Entity, bool)
}

var (
	_ Positionable = (*component.Transform)(nil)
	_ Collidable   = (*component.Collider)(nil)
	_ Movable      = (*component.Velocity)(nil)
)

// Stores are the component indices the collision systems iterate.
type Stores struct {
	Transforms *ecs.Store[*component.Transform]
	Colliders  *ecs.Store[*component.Collider]
	Velocities *ecs.Store[*component.Velocity]
}

// body is the per-pair view of one entity, resolved on the game loop.
type body struct {
	e   *ecs.Entity
	tr  *component.Transform
	col *component.Collider
	vel *component.Velocity // nil for static bodies
	pos geom.Vec2
	box geom.AABB
}

func resolveBody(e *ecs.Entity) (body, error) {
	tr, err := ecs.Require[*component.Transform](e)
	if err != nil {
		return body{}, err
	}
	col, err := ecs.Require[*component.Collider](e)
	if err != nil {
		return body{}, err
	}
	vel, _ := ecs.Get[*component.Velocity](e)
	b := body{e: e, tr: tr, col: col, vel: vel}
	b.refresh()
	return b, nil
}

func (b *body) refresh() {
	b.pos = b.tr.Position()
	b.box = b.col.Bounds(b.pos)
}

func (b *body) velocity() geom.Vec2 {
	if b.vel == nil {
		return geom.Vec2{}
	}
	return b.vel.Velocity()
}

func (b *body) setVelocity(v geom.Vec2) {
	if b.vel != nil {
		b.vel.SetVelocity(v)
	}
}

func (b *body) moveBy(d geom.Vec2) {
	b.tr.SetPosition(b.tr.Position().Add(d))
	b.refresh()
}
