package collision

import "github.com/l1jgo/collision/internal/geom"

// ResolverConfig bounds the iterative overlap pass of the parallel path.
type ResolverConfig struct {
	MaxIterations int
	Bias          float64 // fraction of penetration corrected per iteration
	Slop          float64 // penetration tolerated without correction
	Restitution   float64
}

func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{MaxIterations: 10, Bias: 0.8, Slop: 0.01, Restitution: 0.5}
}

// ResolveStats describes one Resolve call.
type ResolveStats struct {
	Iterations  int
	Corrections int
	Remaining   int // pairs still overlapping when the pass gave up
	Skipped     int // pairs whose entities vanished or lost a component
}

// Resolver separates broad-phase pairs on the game loop goroutine.
type Resolver struct {
	cfg    ResolverConfig
	lookup EntityLookup
}

func NewResolver(cfg ResolverConfig, lookup EntityLookup) *Resolver {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}
	if cfg.Bias <= 0 || cfg.Bias > 1 {
		cfg.Bias = 0.8
	}
	return &Resolver{cfg: cfg, lookup: lookup}
}

type contact struct {
	a, b body
}

// Resolve runs at most MaxIterations passes over pairs. Each pass re-tests
// every remaining pair with a circle distance test, corrects Bias of the
// penetration of pairs deeper than Slop, applies a restitution impulse to closing bodies
// and wakes both. Separated pairs leave the set; the pass stops once an
// iteration corrects nothing.
func (r *Resolver) Resolve(pairs []Pair) ResolveStats {
	var st ResolveStats
	active := make([]contact, 0, len(pairs))
	for _, p := range pairs {
		ea, okA := r.lookup.Lookup(p.A)
		eb, okB := r.lookup.Lookup(p.B)
		if !okA || !okB || ea.ToRemove || eb.ToRemove {
			st.Skipped++
			continue
		}
		a, err := resolveBody(ea)
		if err != nil {
			st.Skipped++
			continue
		}
		b, err := resolveBody(eb)
		if err != nil {
			st.Skipped++
			continue
		}
		active = append(active, contact{a: a, b: b})
	}

	for st.Iterations < r.cfg.MaxIterations && len(active) > 0 {
		st.Iterations++
		corrected := 0
		keep := active[:0]
		for _, c := range active {
			if r.correct(&c.a, &c.b) {
				corrected++
				keep = append(keep, c)
			}
		}
		active = keep
		st.Corrections += corrected
		if corrected == 0 {
			break
		}
	}
	st.Remaining = len(active)
	return st
}

// correct applies one iteration to a pair and reports whether it was still
// overlapping beyond the slop.
func (r *Resolver) correct(a, b *body) bool {
	a.refresh()
	b.refresh()
	ca, cb := a.box.Center(), b.box.Center()
	delta := cb.Sub(ca)
	dist := delta.Len()
	pen := a.col.BoundingRadius() + b.col.BoundingRadius() - dist
	if pen <= r.cfg.Slop {
		return false
	}
	n := geom.V(1, 0)
	if dist > 0 {
		n = delta.Scale(1 / dist)
	}

	fixedA := a.col.Immovable || a.vel == nil
	fixedB := b.col.Immovable || b.vel == nil
	corr := pen * r.cfg.Bias
	switch {
	case fixedA && fixedB:
		return false
	case fixedA:
		b.moveBy(n.Scale(corr))
	case fixedB:
		a.moveBy(n.Scale(-corr))
	default:
		a.moveBy(n.Scale(-corr / 2))
		b.moveBy(n.Scale(corr / 2))
	}

	va, vb := a.velocity(), b.velocity()
	if vn := vb.Sub(va).Dot(n); vn < 0 {
		j := -(1 + r.cfg.Restitution) * vn
		switch {
		case fixedA:
			vb = vb.Add(n.Scale(j))
		case fixedB:
			va = va.Sub(n.Scale(j))
		default:
			va = va.Sub(n.Scale(j / 2))
			vb = vb.Add(n.Scale(j / 2))
		}
		a.setVelocity(va)
		b.setVelocity(vb)
	}
	wake(a)
	wake(b)
	return true
}

func wake(b *body) {
	b.col.Sleeping = false
	if b.vel != nil {
		b.vel.StillTicks = 0
	}
}
