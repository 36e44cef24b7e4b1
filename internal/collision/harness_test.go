package collision

import (
	"testing"

	"github.com/l1jgo/collision/internal/component"
	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/core/event"
	"github.com/l1jgo/collision/internal/geom"
	"github.com/l1jgo/collision/internal/pool"
	"github.com/l1jgo/collision/internal/spatial"
	"github.com/l1jgo/collision/internal/world"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	reg    *world.Registry
	stores Stores
	grid   *spatial.Grid
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	pm := pool.NewManager(zap.NewNop())
	for _, typ := range ecs.AllEntityTypes() {
		pm.RegisterEntity(typ, 64)
	}
	pool.RegisterComponent(pm, component.NewTransform, 256)
	pool.RegisterComponent(pm, component.NewCollider, 256)
	pool.RegisterComponent(pm, component.NewVelocity, 256)
	reg := world.NewRegistry(pm, event.NewBus(), zap.NewNop())
	return &harness{
		reg: reg,
		stores: Stores{
			Transforms: world.StoreOf[*component.Transform](reg),
			Colliders:  world.StoreOf[*component.Collider](reg),
			Velocities: world.StoreOf[*component.Velocity](reg),
		},
		grid: spatial.New(spatial.Config{CellSize: 100}, zap.NewNop()),
	}
}

func box(w, h float64) component.ColliderProps {
	return component.ColliderProps{Shape: component.ShapeBox, Width: w, Height: h}
}

// spawn creates an entity; a nil vel makes it static.
func (h *harness) spawn(t *testing.T, typ ecs.EntityType, pos geom.Vec2, col component.ColliderProps, vel *geom.Vec2) *ecs.Entity {
	t.Helper()
	e, err := h.reg.Create(typ)
	require.NoError(t, err)
	_, err = world.AddComponent[*component.Transform](h.reg, e, component.TransformProps{Position: pos})
	require.NoError(t, err)
	_, err = world.AddComponent[*component.Collider](h.reg, e, col)
	require.NoError(t, err)
	if vel != nil {
		_, err = world.AddComponent[*component.Velocity](h.reg, e, component.VelocityProps{Velocity: *vel})
		require.NoError(t, err)
	}
	return e
}

func (h *harness) rebuild() {
	entries := make([]spatial.Entry, 0, h.stores.Transforms.Len())
	h.stores.Transforms.Each(func(id ecs.EntityID, tr *component.Transform) {
		e, _ := h.reg.Lookup(id)
		entries = append(entries, spatial.Entry{ID: id, Pos: tr.Position(), Type: e.Type})
	})
	h.grid.Rebuild(entries)
}

func (h *harness) pos(e *ecs.Entity) geom.Vec2 {
	tr, _ := ecs.Get[*component.Transform](e)
	return tr.Position()
}

func (h *harness) vel(e *ecs.Entity) geom.Vec2 {
	v, _ := ecs.Get[*component.Velocity](e)
	return v.Velocity()
}

func vp(x, y float64) *geom.Vec2 {
	v := geom.V(x, y)
	return &v
}
