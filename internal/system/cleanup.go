package system

import (
	"time"

	coresys "github.com/l1jgo/collision/internal/core/system"
	"github.com/l1jgo/collision/internal/world"
)

// CleanupSystem flushes the deferred entity removal queue at tick end.
// Phase 6 (Cleanup).
type CleanupSystem struct {
	reg     *world.Registry
	removed int
}

func NewCleanupSystem(reg *world.Registry) *CleanupSystem {
	return &CleanupSystem{reg: reg}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.removed = s.reg.Flush()
}

// Removed returns how many entities the last flush released.
func (s *CleanupSystem) Removed() int { return s.removed }
