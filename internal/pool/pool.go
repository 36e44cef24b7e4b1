package pool

// Resettable is implemented by anything a Pool can recycle.
type Resettable interface {
	Reset()
}

// Stats counts pool traffic since creation.
type Stats struct {
	Created  uint64 // factory calls
	Reused   uint64 // Get served from the free list
	Released uint64 // Put calls
	Dropped  uint64 // Put calls discarded at capacity
}

func (s *Stats) add(o Stats) {
	s.Created += o.Created
	s.Reused += o.Reused
	s.Released += o.Released
	s.Dropped += o.Dropped
}

// Pool is a bounded free list. An empty pool falls back to the factory; a full
// pool silently drops the returned instance. Game-loop only, no locks.
type Pool[T Resettable] struct {
	free    []T
	factory func() T
	max     int
	stats   Stats
}

func New[T Resettable](factory func() T, max int) *Pool[T] {
	if max < 0 {
		max = 0
	}
	return &Pool[T]{
		free:    make([]T, 0, min(max, 1024)),
		factory: factory,
		max:     max,
	}
}

// Get pops the most recently released instance or builds a new one.
func (p *Pool[T]) Get() T {
	if n := len(p.free); n > 0 {
		v := p.free[n-1]
		var zero T
		p.free[n-1] = zero
		p.free = p.free[:n-1]
		p.stats.Reused++
		return v
	}
	p.stats.Created++
	return p.factory()
}

// Put resets v, then keeps it unless the pool is at capacity.
func (p *Pool[T]) Put(v T) {
	v.Reset()
	p.stats.Released++
	if len(p.free) >= p.max {
		p.stats.Dropped++
		return
	}
	p.free = append(p.free, v)
}

// Prewarm fills the free list up to n instances (bounded by capacity).
func (p *Pool[T]) Prewarm(n int) {
	for len(p.free) < n && len(p.free) < p.max {
		v := p.factory()
		v.Reset()
		p.free = append(p.free, v)
	}
}

func (p *Pool[T]) Len() int     { return len(p.free) }
func (p *Pool[T]) Cap() int     { return p.max }
func (p *Pool[T]) Stats() Stats { return p.stats }
