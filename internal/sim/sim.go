package sim

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/l1jgo/collision/internal/collision"
	"github.com/l1jgo/collision/internal/component"
	"github.com/l1jgo/collision/internal/config"
	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/core/event"
	coresys "github.com/l1jgo/collision/internal/core/system"
	"github.com/l1jgo/collision/internal/geom"
	"github.com/l1jgo/collision/internal/pool"
	"github.com/l1jgo/collision/internal/scripting"
	"github.com/l1jgo/collision/internal/spatial"
	"github.com/l1jgo/collision/internal/system"
	"github.com/l1jgo/collision/internal/worker"
	"github.com/l1jgo/collision/internal/world"
	"go.uber.org/zap"
)

// Options carries the optional collaborators of a Simulation.
type Options struct {
	Scripts *scripting.Engine // nil uses the built-in damage formula
	Sink    system.StatsSink  // nil discards stats
	Clock   func() time.Time  // grid cache clock, nil = time.Now
	Rules   []collision.Rule  // nil = collision.DefaultRules
}

// Simulation holds every service of one simulated world. Nothing here is
// global; tests build as many as they like.
type Simulation struct {
	Config   *config.Config
	Pools    *pool.Manager
	Bus      *event.Bus
	Registry *world.Registry
	Grid     *spatial.Grid
	Matrix   *collision.Matrix
	Workers  *worker.Pool // nil when the parallel path is disabled
	Tiered   *collision.TieredSystem
	Parallel *collision.ParallelSystem
	Runner   *coresys.Runner

	Movement  *system.MovementSystem
	Collision *system.CollisionSystem
	Damage    *system.DamageSystem
	Stats     *system.StatsSystem
	Cleanup   *system.CleanupSystem

	focusID ecs.EntityID
	focus   geom.Vec2
	log     *zap.Logger
}

// New wires the services and systems described by cfg.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*Simulation, error) {
	s := &Simulation{
		Config: cfg,
		Bus:    event.NewBus(),
		focus:  geom.V(cfg.Simulation.FocusX, cfg.Simulation.FocusY),
		log:    log,
	}

	s.Pools = newPools(cfg.Pools, log)
	s.Registry = world.NewRegistry(s.Pools, s.Bus, log)

	policies, err := gridPolicies(cfg.Grid)
	if err != nil {
		return nil, err
	}
	var gridOpts []spatial.Option
	if opts.Clock != nil {
		gridOpts = append(gridOpts, spatial.WithClock(opts.Clock))
	}
	s.Grid = spatial.New(spatial.Config{
		CellSize:      cfg.Grid.CellSize,
		SweepInterval: cfg.Grid.SweepInterval,
		Policies:      policies,
	}, log, gridOpts...)

	rules := opts.Rules
	if rules == nil {
		rules = collision.DefaultRules()
	}
	s.Matrix = collision.NewMatrix(rules)

	stores := collision.Stores{
		Transforms: world.StoreOf[*component.Transform](s.Registry),
		Colliders:  world.StoreOf[*component.Collider](s.Registry),
		Velocities: world.StoreOf[*component.Velocity](s.Registry),
	}

	tierList := tiers(cfg.Collision.Tiers)
	for _, t := range tierList {
		if !s.Grid.HasQueryType(t.Query) {
			return nil, fmt.Errorf("collision tier %q query %q: %w", t.Name, t.Query, spatial.ErrUnknownQueryType)
		}
	}
	tieredCfg := collision.TieredConfig{
		Tiers:       tierList,
		Restitution: cfg.Collision.Restitution,
		Damping:     cfg.Collision.Damping,
	}
	if cfg.Parallel.Enabled {
		types, err := parseTypes(cfg.Parallel.Types)
		if err != nil {
			return nil, fmt.Errorf("parallel.types: %w", err)
		}
		workers := cfg.Parallel.Workers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		s.Workers = worker.New(worker.Config{Workers: workers, DefaultTimeout: cfg.Parallel.TaskTimeout}, log)
		s.Parallel = collision.NewParallelSystem(ctx, collision.ParallelConfig{
			Types:       types,
			TaskTimeout: cfg.Parallel.TaskTimeout,
			Encode:      cfg.Parallel.Encode,
			Resolver: collision.ResolverConfig{
				MaxIterations: cfg.Parallel.MaxIterations,
				Bias:          cfg.Parallel.Bias,
				Slop:          cfg.Parallel.Slop,
				Restitution:   cfg.Collision.Restitution,
			},
		}, s.Registry, stores, s.Grid, s.Matrix, s.Workers, log)
		tieredCfg.SkipTypes = types
	}
	s.Tiered = collision.NewTieredSystem(tieredCfg, s.Registry, stores, s.Grid, s.Matrix, s.Focus, log)

	s.Movement = system.NewMovementSystem(system.MovementConfig{
		WorldSize:  cfg.Simulation.WorldSize,
		SleepSpeed: cfg.Simulation.SleepSpeed,
		SleepTicks: cfg.Simulation.SleepTicks,
	}, s.Registry)
	s.Collision = system.NewCollisionSystem(s.Tiered, s.Parallel)
	s.Damage = system.NewDamageSystem(s.Registry, s.Collision, opts.Scripts, s.Bus, log)
	s.Cleanup = system.NewCleanupSystem(s.Registry)
	s.Stats = system.NewStatsSystem(system.StatsSources{
		Registry:  s.Registry,
		Grid:      s.Grid,
		Pools:     s.Pools,
		Collision: s.Collision,
		Damage:    s.Damage,
		Cleanup:   s.Cleanup,
	}, opts.Sink, cfg.Stats.FlushEvery, log)

	event.Subscribe(s.Bus, func(ev event.EntityRemoved) {
		if ev.NID == s.focusID {
			s.focusID = 0
		}
	})

	s.Runner = coresys.NewRunner()
	s.Runner.Register(system.NewEventDispatchSystem(s.Bus))
	s.Runner.Register(s.Movement)
	s.Runner.Register(system.NewGridSystem(s.Registry, s.Grid))
	s.Runner.Register(s.Collision)
	s.Runner.Register(s.Damage)
	s.Runner.Register(s.Stats)
	s.Runner.Register(s.Cleanup)
	s.Runner.SetBudget(cfg.Simulation.TickRate, func(tick uint64, t coresys.Timings) {
		log.Debug("tick over budget",
			zap.Uint64("tick", tick),
			zap.Duration("took", t.Total()),
			zap.Stringer("slowest", t.Slowest()),
			zap.Duration("collision", t[coresys.PhaseCollision]),
		)
	})
	return s, nil
}

// Tick runs every system once.
func (s *Simulation) Tick(dt time.Duration) {
	s.Runner.Tick(dt)
}

// Focus is the tier reference point: the tracked player when there is one,
// otherwise the configured point.
func (s *Simulation) Focus() geom.Vec2 {
	if s.focusID != 0 {
		if e, ok := s.Registry.Lookup(s.focusID); ok {
			if tr, ok := ecs.Get[*component.Transform](e); ok {
				return tr.Position()
			}
		}
	}
	return s.focus
}

// Close flushes buffered stats and stops the worker pool.
func (s *Simulation) Close() {
	s.Stats.Flush()
	if s.Workers != nil {
		s.Workers.Close()
	}
}

func newPools(cfg config.PoolsConfig, log *zap.Logger) *pool.Manager {
	pm := pool.NewManager(log)
	for _, typ := range ecs.AllEntityTypes() {
		pm.RegisterEntity(typ, cfg.EntityMax)
	}
	pool.RegisterComponent(pm, component.NewTransform, cfg.ComponentMax)
	pool.RegisterComponent(pm, component.NewCollider, cfg.ComponentMax)
	pool.RegisterComponent(pm, component.NewVelocity, cfg.ComponentMax)
	pool.RegisterComponent(pm, component.NewHealth, cfg.ComponentMax)
	pool.RegisterComponent(pm, component.NewDamage, cfg.ComponentMax)
	if cfg.Prewarm > 0 {
		pm.Prewarm(cfg.Prewarm)
	}
	return pm
}

func parseTypes(names []string) ([]ecs.EntityType, error) {
	out := make([]ecs.EntityType, 0, len(names))
	for _, n := range names {
		t, err := ecs.ParseEntityType(n)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func gridPolicies(cfg config.GridConfig) (map[string]spatial.Policy, error) {
	policies := spatial.DefaultPolicies()
	for name, q := range cfg.Queries {
		p, known := policies[name]
		if q.TTL > 0 || !known {
			p.TTL = q.TTL
		}
		if q.RadiusMultiplier > 0 {
			p.RadiusMultiplier = q.RadiusMultiplier
		}
		if q.UpdateFrequency > 0 {
			p.UpdateFrequency = q.UpdateFrequency
		}
		if len(q.Types) > 0 {
			types, err := parseTypes(q.Types)
			if err != nil {
				return nil, fmt.Errorf("grid.queries.%s: %w", name, err)
			}
			p.Types = types
		} else if !known {
			p.Types = spatial.SolidTypes
		}
		policies[name] = p
	}
	return policies, nil
}

func tiers(cfg []config.TierConfig) []collision.Tier {
	if len(cfg) == 0 {
		return collision.DefaultTiers()
	}
	out := make([]collision.Tier, len(cfg))
	for i, t := range cfg {
		out[i] = collision.Tier{
			Name:        t.Name,
			MaxDistance: t.MaxDistance,
			Every:       t.Every,
			RadiusScale: t.RadiusScale,
			Query:       t.Query,
		}
	}
	return out
}
