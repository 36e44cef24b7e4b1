package component

import (
	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/geom"
)

// TransformProps are the construction-time properties of a Transform.
type TransformProps struct {
	Position geom.Vec2
}

// Transform holds an entity's world position.
type Transform struct {
	ecs.Base
	pos geom.Vec2
}

func NewTransform() *Transform {
	return &Transform{Base: ecs.NewBase("transform")}
}

func (t *Transform) Recreate(p TransformProps) { t.pos = p.Position }

func (t *Transform) Reset() {
	t.ResetBase()
	t.pos = geom.Vec2{}
}

func (t *Transform) Position() geom.Vec2     { return t.pos }
func (t *Transform) SetPosition(p geom.Vec2) { t.pos = p }
