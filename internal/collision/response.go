package collision

import (
	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/geom"
)

// TriggerType reports whether typ only records collisions and never pushes.
func TriggerType(typ ecs.EntityType) bool {
	return typ == ecs.TypeProjectile || typ == ecs.TypeAreaEffect
}

// respond applies the physical response. It returns false when the pair is
// trigger-only.
func (s *TieredSystem) respond(a, b *body, res Result) bool {
	if TriggerType(a.e.Type) || TriggerType(b.e.Type) ||
		a.col.TriggerOnly() || b.col.TriggerOnly() ||
		a.col.IsLaser() || b.col.IsLaser() {
		return false
	}
	aFixed, bFixed := immovable(a, b), immovable(b, a)
	switch {
	case aFixed && bFixed:
	case aFixed:
		push(b, a, res)
	case bFixed:
		push(a, b, res)
	default:
		s.bounce(a, b, res)
	}
	return true
}

// immovable: static colliders, bodies without velocity, and players against
// enemies (a player pushes an enemy, never the reverse).
func immovable(x, other *body) bool {
	if x.col.Immovable || x.vel == nil || x.e.Type == ecs.TypeObstacle {
		return true
	}
	return x.e.Type == ecs.TypePlayer && other.e.Type == ecs.TypeEnemy
}

// push moves m fully out of fixed along the axis of least overlap, cancels
// m's velocity into fixed and wakes m.
func push(m, fixed *body, res Result) {
	mc, fc := m.box.Center(), fixed.box.Center()
	v := m.velocity()
	if res.OverlapX < res.OverlapY {
		dir := 1.0
		if mc.X < fc.X {
			dir = -1
		}
		m.moveBy(geom.V(dir*res.OverlapX, 0))
		if v.X*dir < 0 {
			v.X = 0
		}
	} else {
		dir := 1.0
		if mc.Y < fc.Y {
			dir = -1
		}
		m.moveBy(geom.V(0, dir*res.OverlapY))
		if v.Y*dir < 0 {
			v.Y = 0
		}
	}
	m.setVelocity(v)
	wake(m)
}

// bounce resolves two mobile bodies of equal mass: restitution impulse along
// the normal when closing, equal and opposite separation, then damping. Both
// bodies are woken so the impulse is integrated next tick.
func (s *TieredSystem) bounce(a, b *body, res Result) {
	n := b.box.Center().Sub(a.box.Center()).Normalize()
	if n.IsZero() {
		n = geom.V(1, 0)
	}
	va, vb := a.velocity(), b.velocity()
	if vn := vb.Sub(va).Dot(n); vn < 0 {
		j := -(1 + s.cfg.Restitution) * vn / 2
		va = va.Sub(n.Scale(j))
		vb = vb.Add(n.Scale(j))
	}

	depth := min(res.OverlapX, res.OverlapY)
	a.moveBy(n.Scale(-depth / 2))
	b.moveBy(n.Scale(depth / 2))

	a.setVelocity(va.Scale(s.cfg.Damping))
	b.setVelocity(vb.Scale(s.cfg.Damping))
	wake(a)
	wake(b)
}
