package system

import (
	"time"

	"github.com/l1jgo/collision/internal/component"
	"github.com/l1jgo/collision/internal/core/ecs"
	coresys "github.com/l1jgo/collision/internal/core/system"
	"github.com/l1jgo/collision/internal/geom"
	"github.com/l1jgo/collision/internal/world"
)

type MovementConfig struct {
	WorldSize  float64
	SleepSpeed float64 // below this a body counts as still
	SleepTicks int     // still ticks before the body sleeps
}

// MovementSystem integrates velocities (units per tick), keeps bodies inside
// the world and puts still bodies to sleep. Projectiles that leave the world
// are removed instead of bounced. Phase 1 (Movement).
type MovementSystem struct {
	cfg        MovementConfig
	reg        *world.Registry
	velocities *ecs.Store[*component.Velocity]
	transforms *ecs.Store[*component.Transform]
	colliders  *ecs.Store[*component.Collider]
	moved      int
}

func NewMovementSystem(cfg MovementConfig, reg *world.Registry) *MovementSystem {
	return &MovementSystem{
		cfg:        cfg,
		reg:        reg,
		velocities: world.StoreOf[*component.Velocity](reg),
		transforms: world.StoreOf[*component.Transform](reg),
		colliders:  world.StoreOf[*component.Collider](reg),
	}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

// Moved returns how many bodies changed position last tick.
func (s *MovementSystem) Moved() int { return s.moved }

func (s *MovementSystem) Update(_ time.Duration) {
	s.moved = 0
	ecs.Each2(s.velocities, s.transforms, func(id ecs.EntityID, vel *component.Velocity, tr *component.Transform) {
		col, _ := s.colliders.Get(id)
		v := vel.Velocity()
		if col != nil && col.Sleeping {
			if !s.awake(v) {
				return
			}
			col.Sleeping = false
			vel.StillTicks = 0
		}
		s.settle(vel, col, v)
		if v.IsZero() {
			return
		}

		pos := tr.Position().Add(v)
		if s.cfg.WorldSize > 0 {
			var out bool
			pos, v, out = s.bounds(pos, v)
			if out {
				if e, ok := s.reg.Lookup(id); ok && e.Type == ecs.TypeProjectile {
					s.reg.MarkForRemoval(e)
					return
				}
				vel.SetVelocity(v)
			}
		}
		tr.SetPosition(pos)
		s.moved++
	})
}

// awake reports whether a sleeping body was given enough velocity to move
// again, by a collision response or by any caller of SetVelocity.
func (s *MovementSystem) awake(v geom.Vec2) bool {
	l := v.Len()
	return l > 0 && l >= s.cfg.SleepSpeed
}

// settle counts still ticks and puts the body to sleep once it has been
// still long enough.
func (s *MovementSystem) settle(vel *component.Velocity, col *component.Collider, v geom.Vec2) {
	if s.cfg.SleepTicks <= 0 || v.Len() >= s.cfg.SleepSpeed {
		vel.StillTicks = 0
		return
	}
	vel.StillTicks++
	if vel.StillTicks >= s.cfg.SleepTicks && col != nil {
		col.Sleeping = true
		vel.SetVelocity(geom.Vec2{})
	}
}

// bounds clamps pos to the world square and reflects the velocity component
// that pushed it out.
func (s *MovementSystem) bounds(pos, v geom.Vec2) (geom.Vec2, geom.Vec2, bool) {
	out := false
	size := s.cfg.WorldSize
	if pos.X < 0 || pos.X > size {
		pos.X = min(max(pos.X, 0), size)
		v.X = -v.X
		out = true
	}
	if pos.Y < 0 || pos.Y > size {
		pos.Y = min(max(pos.Y, 0), size)
		v.Y = -v.Y
		out = true
	}
	return pos, v, out
}
