package collision

import (
	"math"
	"time"

	"github.com/l1jgo/collision/internal/component"
	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/geom"
	"github.com/l1jgo/collision/internal/spatial"
	"go.uber.org/zap"
)

// Tier is one distance band of the level-of-detail schedule.
type Tier struct {
	Name        string
	MaxDistance float64 // inclusive; the last tier also takes everything beyond
	Every       uint64  // process on frames where frame%Every == 0
	RadiusScale float64
	Query       string // grid query type
}

// DefaultTiers: CRITICAL ≤100 every tick, NORMAL ≤300 every 2nd, DISTANT
// beyond every 4th.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "critical", MaxDistance: 100, Every: 1, RadiusScale: 1.0, Query: spatial.QueryCritical},
		{Name: "normal", MaxDistance: 300, Every: 2, RadiusScale: 1.2, Query: spatial.QueryNormal},
		{Name: "distant", MaxDistance: 500, Every: 4, RadiusScale: 1.5, Query: spatial.QueryDistant},
	}
}

type TieredConfig struct {
	Tiers       []Tier
	Restitution float64
	Damping     float64
	// SkipTypes are not iterated as the processing side (another path owns
	// them) but still show up as candidates.
	SkipTypes []ecs.EntityType
}

func DefaultTieredConfig() TieredConfig {
	return TieredConfig{Tiers: DefaultTiers(), Restitution: 0.5, Damping: 0.98}
}

// TieredStats describes the last Update.
type TieredStats struct {
	Frame      uint64
	PerTier    []int // entities classified per tier
	Processed  int
	Candidates int
	Checks     int // narrow-phase tests run
	Results    int
	Triggers   int
	Skipped    int // candidates dropped for missing components
	Elapsed    time.Duration
}

// TieredSystem is the single-threaded broad+narrow phase. Entities are
// bucketed by distance from the focus point and processed on a fixed
// schedule per tier; collisions get an immediate physical response and are
// recorded for the damage consumer.
type TieredSystem struct {
	cfg    TieredConfig
	lookup EntityLookup
	stores Stores
	grid   *spatial.Grid
	matrix *Matrix
	focus  func() geom.Vec2
	log    *zap.Logger

	frame   uint64
	skip    [ecs.NumEntityTypes]bool
	checked map[PairKey]struct{}
	results []Result
	stats   TieredStats
}

func NewTieredSystem(cfg TieredConfig, lookup EntityLookup, stores Stores, grid *spatial.Grid, matrix *Matrix, focus func() geom.Vec2, log *zap.Logger) *TieredSystem {
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = DefaultTiers()
	}
	for i := range cfg.Tiers {
		if cfg.Tiers[i].Every == 0 {
			cfg.Tiers[i].Every = 1
		}
		if cfg.Tiers[i].RadiusScale <= 0 {
			cfg.Tiers[i].RadiusScale = 1
		}
	}
	if focus == nil {
		focus = func() geom.Vec2 { return geom.Vec2{} }
	}
	s := &TieredSystem{
		cfg:     cfg,
		lookup:  lookup,
		stores:  stores,
		grid:    grid,
		matrix:  matrix,
		focus:   focus,
		log:     log,
		checked: make(map[PairKey]struct{}, 4096),
		results: make([]Result, 0, 256),
	}
	for _, t := range cfg.SkipTypes {
		if int(t) < ecs.NumEntityTypes {
			s.skip[t] = true
		}
	}
	s.stats.PerTier = make([]int, len(cfg.Tiers))
	return s
}

// Classify returns the tier index for a distance from the focus point.
func (s *TieredSystem) Classify(dist float64) int {
	for i, t := range s.cfg.Tiers {
		if dist <= t.MaxDistance {
			return i
		}
	}
	return len(s.cfg.Tiers) - 1
}

// Due reports whether tier i runs on frame.
func (s *TieredSystem) Due(i int, frame uint64) bool {
	return frame%s.cfg.Tiers[i].Every == 0
}

func (s *TieredSystem) Frame() uint64 { return s.frame }

// Results returns this tick's collisions. The slice is reused next tick.
func (s *TieredSystem) Results() []Result { return s.results }

func (s *TieredSystem) Stats() TieredStats { return s.stats }

// Update runs one tick of the tiered pipeline.
func (s *TieredSystem) Update(_ time.Duration) {
	start := time.Now()
	s.frame++
	clear(s.checked)
	s.results = s.results[:0]
	perTier := s.stats.PerTier[:0]
	for range s.cfg.Tiers {
		perTier = append(perTier, 0)
	}
	s.stats = TieredStats{Frame: s.frame, PerTier: perTier}

	focus := s.focus()
	ecs.Each2(s.stores.Colliders, s.stores.Transforms, func(id ecs.EntityID, col *component.Collider, tr *component.Transform) {
		if !col.Enabled() {
			return
		}
		e, ok := s.lookup.Lookup(id)
		if !ok || !e.Active || e.ToRemove || s.skip[e.Type] {
			return
		}
		tier := s.Classify(tr.Position().Dist(focus))
		s.stats.PerTier[tier]++
		if !s.Due(tier, s.frame) {
			return
		}
		s.process(e, tier)
	})

	s.stats.Results = len(s.results)
	s.stats.Elapsed = time.Since(start)
}

func (s *TieredSystem) process(e *ecs.Entity, tierIdx int) {
	a, err := resolveBody(e)
	if err != nil {
		s.stats.Skipped++
		return
	}
	s.stats.Processed++
	tier := &s.cfg.Tiers[tierIdx]

	radius := math.Max(a.box.Width(), a.box.Height()) * tier.RadiusScale
	ids, err := s.grid.NearbyEntities(a.pos, radius, tier.Query)
	if err != nil {
		s.log.Debug("tier query failed", zap.String("tier", tier.Name), zap.Error(err))
		return
	}
	s.stats.Candidates += len(ids)

	for _, oid := range ids {
		if oid == e.NID {
			continue
		}
		key := MakePairKey(e.NID, oid)
		if _, seen := s.checked[key]; seen {
			continue
		}
		s.checked[key] = struct{}{}

		other, ok := s.lookup.Lookup(oid)
		if !ok || !other.Active || other.ToRemove {
			continue
		}
		if !s.matrix.ShouldCollide(e.Type, other.Type) {
			continue
		}
		b, err := resolveBody(other)
		if err != nil {
			s.stats.Skipped++
			s.log.Debug("collision candidate skipped", zap.Error(err))
			continue
		}
		if !b.col.Enabled() {
			continue
		}

		s.stats.Checks++
		res, hit := narrow(&a, &b)
		if !hit {
			continue
		}
		s.results = append(s.results, res)
		if s.respond(&a, &b, res) {
			continue
		}
		s.stats.Triggers++
	}
}
