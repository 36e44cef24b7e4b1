package system

import (
	"context"
	"time"

	coresys "github.com/l1jgo/collision/internal/core/system"
	"github.com/l1jgo/collision/internal/persist"
	"github.com/l1jgo/collision/internal/pool"
	"github.com/l1jgo/collision/internal/spatial"
	"github.com/l1jgo/collision/internal/world"
	"go.uber.org/zap"
)

// StatsSink receives batches of per-tick rows.
type StatsSink interface {
	WriteBatch(ctx context.Context, rows []persist.TickStats) error
}

// StatsSources are the services a tick row is sampled from.
type StatsSources struct {
	Registry  *world.Registry
	Grid      *spatial.Grid
	Pools     *pool.Manager
	Collision *CollisionSystem
	Damage    *DamageSystem
	Cleanup   *CleanupSystem
}

// StatsSystem samples one row per tick and flushes every flushEvery ticks.
// A failed flush is logged and the batch dropped. Phase 5 (Persist).
type StatsSystem struct {
	src        StatsSources
	sink       StatsSink
	flushEvery uint64
	log        *zap.Logger

	tick      uint64
	lastStart time.Time
	prevGrid  spatial.Stats
	buf       []persist.TickStats
}

func NewStatsSystem(src StatsSources, sink StatsSink, flushEvery uint64, log *zap.Logger) *StatsSystem {
	if flushEvery == 0 {
		flushEvery = 60
	}
	return &StatsSystem{
		src:        src,
		sink:       sink,
		flushEvery: flushEvery,
		log:        log,
		buf:        make([]persist.TickStats, 0, flushEvery),
	}
}

func (s *StatsSystem) Phase() coresys.Phase { return coresys.PhasePersist }

// Buffered returns rows not yet flushed.
func (s *StatsSystem) Buffered() int { return len(s.buf) }

func (s *StatsSystem) Update(_ time.Duration) {
	s.tick++
	s.buf = append(s.buf, s.sample())
	if uint64(len(s.buf)) >= s.flushEvery {
		s.Flush()
	}
}

func (s *StatsSystem) sample() persist.TickStats {
	row := persist.TickStats{Tick: s.tick}
	now := time.Now()
	if !s.lastStart.IsZero() {
		row.Elapsed = now.Sub(s.lastStart)
	}
	s.lastStart = now

	if s.src.Registry != nil {
		row.Entities = s.src.Registry.Len()
	}
	if g := s.src.Grid; g != nil {
		gs := g.Stats()
		row.Cells = g.CellCount()
		row.CacheHits = gs.Hits - s.prevGrid.Hits
		row.CacheMisses = gs.Misses - s.prevGrid.Misses
		s.prevGrid = gs
	}
	if c := s.src.Collision; c != nil {
		ts := c.TieredStats()
		row.TieredChecks, row.TieredResults = ts.Checks, ts.Results
		if ps, ok := c.ParallelStats(); ok {
			row.ParallelPairs = ps.Pairs
			row.ParallelFailed = ps.Failed
			row.ResolveIters = ps.Resolve.Iterations
		}
	}
	if s.src.Damage != nil {
		row.DamageEvents = s.src.Damage.Hits()
	}
	if s.src.Cleanup != nil {
		row.Removed = s.src.Cleanup.Removed()
	}
	if s.src.Pools != nil {
		ents, comps := s.src.Pools.Totals()
		row.PoolReused = ents.Reused + comps.Reused
		row.PoolCreated = ents.Created + comps.Created
	}
	return row
}

// Flush writes buffered rows now. Called on shutdown for the partial batch.
func (s *StatsSystem) Flush() {
	if len(s.buf) == 0 || s.sink == nil {
		s.buf = s.buf[:0]
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.sink.WriteBatch(ctx, s.buf); err != nil {
		s.log.Warn("stats flush failed", zap.Int("rows", len(s.buf)), zap.Error(err))
	}
	s.buf = s.buf[:0]
}

// LogSink summarizes each batch at info level.
type LogSink struct {
	Log *zap.Logger
}

func (l LogSink) WriteBatch(_ context.Context, rows []persist.TickStats) error {
	if len(rows) == 0 {
		return nil
	}
	last := rows[len(rows)-1]
	var pairs, results, hits int
	var elapsed time.Duration
	for _, r := range rows {
		pairs += r.ParallelPairs
		results += r.TieredResults
		hits += r.DamageEvents
		elapsed += r.Elapsed
	}
	l.Log.Info("simulation stats",
		zap.Uint64("tick", last.Tick),
		zap.Int("entities", last.Entities),
		zap.Int("cells", last.Cells),
		zap.Int("tiered_results", results),
		zap.Int("parallel_pairs", pairs),
		zap.Int("damage", hits),
		zap.Duration("avg_tick", elapsed/time.Duration(len(rows))),
	)
	return nil
}
