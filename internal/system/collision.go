package system

import (
	"time"

	"github.com/l1jgo/collision/internal/collision"
	coresys "github.com/l1jgo/collision/internal/core/system"
)

// CollisionSystem runs the tiered path and, when configured, the parallel
// bulk path. Phase 3 (Collision), strictly before damage reads the results.
type CollisionSystem struct {
	tiered   *collision.TieredSystem
	parallel *collision.ParallelSystem // nil when disabled
}

func NewCollisionSystem(tiered *collision.TieredSystem, parallel *collision.ParallelSystem) *CollisionSystem {
	return &CollisionSystem{tiered: tiered, parallel: parallel}
}

func (s *CollisionSystem) Phase() coresys.Phase { return coresys.PhaseCollision }

func (s *CollisionSystem) Update(dt time.Duration) {
	s.tiered.Update(dt)
	if s.parallel != nil {
		s.parallel.Update(dt)
	}
}

// Results is this tick's tiered collision list.
func (s *CollisionSystem) Results() []collision.Result { return s.tiered.Results() }

func (s *CollisionSystem) TieredStats() collision.TieredStats { return s.tiered.Stats() }

// ParallelStats reports false when the parallel path is disabled.
func (s *CollisionSystem) ParallelStats() (collision.ParallelStats, bool) {
	if s.parallel == nil {
		return collision.ParallelStats{}, false
	}
	return s.parallel.Stats(), true
}
