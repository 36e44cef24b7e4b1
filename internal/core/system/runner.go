package system

import (
	"cmp"
	"slices"
	"time"
)

// Timings holds how long each phase took during one tick.
type Timings [NumPhases]time.Duration

// Total sums every phase.
func (t Timings) Total() time.Duration {
	var d time.Duration
	for _, p := range t {
		d += p
	}
	return d
}

// Slowest returns the phase that took longest.
func (t Timings) Slowest() Phase {
	slow := Phase(0)
	for i, p := range t {
		if p > t[slow] {
			slow = Phase(i)
		}
	}
	return slow
}

// Runner executes systems in phase order each tick. Systems sharing a phase
// keep their registration order.
type Runner struct {
	systems []System
	sorted  bool
	ticks   uint64

	now       func() time.Time
	last      Timings
	budget    time.Duration
	overruns  uint64
	onOverrun func(tick uint64, t Timings)
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
		now:     time.Now,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// SetBudget reports every tick slower than d to fn. A zero d disables the
// check.
func (r *Runner) SetBudget(d time.Duration, fn func(tick uint64, t Timings)) {
	r.budget, r.onOverrun = d, fn
}

// Tick runs every system exactly once.
func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	var t Timings
	for _, s := range r.systems {
		start := r.now()
		s.Update(dt)
		if p := int(s.Phase()); p >= 0 && p < NumPhases {
			t[p] += r.now().Sub(start)
		}
	}
	r.ticks++
	r.last = t
	if r.budget > 0 && t.Total() > r.budget {
		r.overruns++
		if r.onOverrun != nil {
			r.onOverrun(r.ticks, t)
		}
	}
}

// TickPhase runs only the systems registered for the given phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

// Ticks returns the number of completed full ticks.
func (r *Runner) Ticks() uint64 { return r.ticks }

func (r *Runner) Len() int { return len(r.systems) }

// LastTimings returns the per-phase durations of the last full tick.
func (r *Runner) LastTimings() Timings { return r.last }

// Overruns counts ticks that exceeded the budget.
func (r *Runner) Overruns() uint64 { return r.overruns }

func (r *Runner) ensureSorted() {
	if !r.sorted {
		slices.SortStableFunc(r.systems, func(a, b System) int {
			return cmp.Compare(a.Phase(), b.Phase())
		})
		r.sorted = true
	}
}
