package component

import (
	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/geom"
)

type VelocityProps struct {
	Velocity geom.Vec2
	MaxSpeed float64 // 0 = unbounded
}

// Velocity is the movable capability. StillTicks counts consecutive ticks
// below the sleep threshold.
type Velocity struct {
	ecs.Base
	v          geom.Vec2
	MaxSpeed   float64
	StillTicks int
}

func NewVelocity() *Velocity {
	return &Velocity{Base: ecs.NewBase("velocity")}
}

func (v *Velocity) Recreate(p VelocityProps) {
	v.v = p.Velocity
	v.MaxSpeed = p.MaxSpeed
}

func (v *Velocity) Reset() {
	v.ResetBase()
	v.v = geom.Vec2{}
	v.MaxSpeed = 0
	v.StillTicks = 0
}

func (v *Velocity) Velocity() geom.Vec2 { return v.v }

// SetVelocity stores nv, clamped to MaxSpeed when one is set.
func (v *Velocity) SetVelocity(nv geom.Vec2) {
	if v.MaxSpeed > 0 {
		if l := nv.Len(); l > v.MaxSpeed {
			nv = nv.Scale(v.MaxSpeed / l)
		}
	}
	v.v = nv
}
