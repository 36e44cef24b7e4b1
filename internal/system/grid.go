package system

import (
	"time"

	"github.com/l1jgo/collision/internal/component"
	"github.com/l1jgo/collision/internal/core/ecs"
	coresys "github.com/l1jgo/collision/internal/core/system"
	"github.com/l1jgo/collision/internal/spatial"
	"github.com/l1jgo/collision/internal/world"
)

// GridSystem rebuilds the spatial grid from every positioned entity and
// advances the grid's frame and cache sweep. Phase 2 (Spatial).
type GridSystem struct {
	reg        *world.Registry
	grid       *spatial.Grid
	transforms *ecs.Store[*component.Transform]
	entries    []spatial.Entry
}

func NewGridSystem(reg *world.Registry, grid *spatial.Grid) *GridSystem {
	return &GridSystem{
		reg:        reg,
		grid:       grid,
		transforms: world.StoreOf[*component.Transform](reg),
		entries:    make([]spatial.Entry, 0, 1024),
	}
}

func (s *GridSystem) Phase() coresys.Phase { return coresys.PhaseSpatial }

func (s *GridSystem) Update(_ time.Duration) {
	s.entries = s.entries[:0]
	s.transforms.Each(func(id ecs.EntityID, tr *component.Transform) {
		e, ok := s.reg.Lookup(id)
		if !ok || !e.Active || e.ToRemove {
			return
		}
		s.entries = append(s.entries, spatial.Entry{ID: id, Pos: tr.Position(), Type: e.Type})
	})
	s.grid.Rebuild(s.entries)
	s.grid.Tick()
}
