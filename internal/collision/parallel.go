package collision

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/l1jgo/collision/internal/component"
	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/geom"
	"github.com/l1jgo/collision/internal/spatial"
	"github.com/l1jgo/collision/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ParallelConfig struct {
	Types       []ecs.EntityType // populations handled by this path
	TaskTimeout time.Duration
	Priority    int
	Encode      bool // ship msgpack bytes instead of a shared read-only index
	Resolver    ResolverConfig
}

func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		Types:       []ecs.EntityType{ecs.TypeObject},
		TaskTimeout: 250 * time.Millisecond,
		Encode:      true,
		Resolver:    DefaultResolverConfig(),
	}
}

// ParallelStats describes the last Update.
type ParallelStats struct {
	Bodies    int
	Cells     int
	Tasks     int
	Failed    int
	Candidate int // pairs returned by workers before dedupe
	Pairs     int
	Resolve   ResolveStats
	Elapsed   time.Duration
}

// ParallelSystem fans broad-phase detection out to the worker pool and
// resolves the merged pairs on the game loop once every task has settled.
type ParallelSystem struct {
	ctx      context.Context
	cfg      ParallelConfig
	lookup   EntityLookup
	stores   Stores
	grid     *spatial.Grid
	matrix   *Matrix
	pool     *worker.Pool
	resolver *Resolver
	log      *zap.Logger

	eligible [ecs.NumEntityTypes]bool
	pairs    []Pair
	stats    ParallelStats
}

// NewParallelSystem registers the broad-phase handler on pool. ctx bounds
// every fan-in wait.
func NewParallelSystem(ctx context.Context, cfg ParallelConfig, lookup EntityLookup, stores Stores, grid *spatial.Grid, matrix *Matrix, pool *worker.Pool, log *zap.Logger) *ParallelSystem {
	if len(cfg.Types) == 0 {
		cfg.Types = DefaultParallelConfig().Types
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = DefaultParallelConfig().TaskTimeout
	}
	s := &ParallelSystem{
		ctx:      ctx,
		cfg:      cfg,
		lookup:   lookup,
		stores:   stores,
		grid:     grid,
		matrix:   matrix,
		pool:     pool,
		resolver: NewResolver(cfg.Resolver, lookup),
		log:      log,
	}
	for _, t := range cfg.Types {
		if int(t) < ecs.NumEntityTypes {
			s.eligible[t] = true
		}
	}
	pool.Handle(KindBroadphase, BroadphaseHandler)
	return s
}

// Types lists the populations this path owns, for the tiered system to skip.
func (s *ParallelSystem) Types() []ecs.EntityType { return s.cfg.Types }

// Pairs returns the colliding pairs found this tick in key order.
func (s *ParallelSystem) Pairs() []Pair { return s.pairs }

func (s *ParallelSystem) Stats() ParallelStats { return s.stats }

// Snapshot copies every eligible body and the grid cells that hold them.
func (s *ParallelSystem) Snapshot() *Frame {
	f := &Frame{}
	ecs.Each2(s.stores.Colliders, s.stores.Transforms, func(id ecs.EntityID, col *component.Collider, tr *component.Transform) {
		if !col.Enabled() || col.IsLaser() {
			return
		}
		e, ok := s.lookup.Lookup(id)
		if !ok || !e.Active || e.ToRemove || !s.eligible[e.Type] {
			return
		}
		pos := tr.Position()
		box := col.Bounds(pos)
		f.Bodies = append(f.Bodies, BodySnapshot{
			ID:       e.ID,
			NID:      id,
			Sleeping: col.Sleeping,
			Pos:      pos,
			Box:      box,
			Size:     geom.V(box.Width(), box.Height()),
			Type:     e.Type,
		})
	})

	in := make(map[ecs.EntityID]struct{}, len(f.Bodies))
	for _, b := range f.Bodies {
		in[b.NID] = struct{}{}
	}
	cells := s.grid.Snapshot()
	for _, k := range slices.Sorted(maps.Keys(cells)) {
		var ids []ecs.EntityID
		for _, id := range cells[k] {
			if _, ok := in[id]; ok {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			f.Cells = append(f.Cells, CellSnapshot{Key: k, IDs: ids})
		}
	}
	return f
}

// Update runs one fan-out/fan-in round and resolves the result.
func (s *ParallelSystem) Update(_ time.Duration) {
	start := time.Now()
	s.pairs = s.pairs[:0]
	s.stats = ParallelStats{}

	frame := s.Snapshot()
	s.stats.Bodies = len(frame.Bodies)
	s.stats.Cells = len(frame.Cells)
	if len(frame.Cells) == 0 {
		return
	}

	keys := make([]spatial.CellKey, len(frame.Cells))
	for i, c := range frame.Cells {
		keys[i] = c.Key
	}
	marks := worker.NewMarks(len(keys))
	base := BroadphaseTask{Marks: marks}
	if s.cfg.Encode {
		b, err := EncodeFrame(frame)
		if err != nil {
			s.log.Error("parallel snapshot encode failed", zap.Error(err))
			return
		}
		base.Encoded = b
	} else {
		base.Index = IndexFrame(frame)
	}

	chunks := Partition(keys, s.pool.Workers())
	results := make([][]Pair, len(chunks))
	errs := make([]error, len(chunks))
	var g errgroup.Group
	offset := 0
	for i, chunk := range chunks {
		t := base
		t.Cells, t.Offset = chunk, offset
		offset += len(chunk)
		fut, err := s.pool.Submit(worker.Request{
			Kind:     KindBroadphase,
			Priority: s.cfg.Priority,
			Payload:  &t,
			Timeout:  s.cfg.TaskTimeout,
		})
		if err != nil {
			errs[i] = err
			continue
		}
		s.stats.Tasks++
		g.Go(func() error {
			v, err := fut.Wait(s.ctx)
			if err != nil {
				errs[i] = err
				return err
			}
			results[i], _ = v.([]Pair)
			return nil
		})
	}
	// the tick goes on without failed chunks
	_ = g.Wait()
	for i, err := range errs {
		if err != nil {
			s.stats.Failed++
			s.log.Warn("broadphase chunk dropped", zap.Int("chunk", i), zap.Int("cells", len(chunks[i])), zap.Error(err))
		}
	}

	types := make(map[ecs.EntityID]ecs.EntityType, len(frame.Bodies))
	for _, b := range frame.Bodies {
		types[b.NID] = b.Type
	}
	for _, r := range results {
		s.stats.Candidate += len(r)
	}
	for _, p := range DedupePairs(results...) {
		if s.matrix.ShouldCollide(types[p.A], types[p.B]) {
			s.pairs = append(s.pairs, p)
		}
	}
	s.stats.Pairs = len(s.pairs)
	if !marks.Complete() {
		s.log.Debug("broadphase cells unprocessed", zap.Int("marked", marks.Count()), zap.Int("cells", marks.Len()))
	}

	s.stats.Resolve = s.resolver.Resolve(s.pairs)
	s.stats.Elapsed = time.Since(start)
}
