package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseEvents    Phase = iota // 0: dispatch last tick's events
	PhaseMovement               // 1: integrate velocities, sleep detection
	PhaseSpatial                // 2: rebuild the spatial grid
	PhaseCollision              // 3: tiered + parallel collision
	PhaseDamage                 // 4: consume collision results
	PhasePersist                // 5: stats batching
	PhaseCleanup                // 6: destroy queued entities

	NumPhases = int(PhaseCleanup) + 1
)

var phaseNames = [...]string{"events", "movement", "spatial", "collision", "damage", "persist", "cleanup"}

func (p Phase) String() string {
	if int(p) >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
