package sim

import (
	"context"
	"testing"
	"time"

	"github.com/l1jgo/collision/internal/component"
	"github.com/l1jgo/collision/internal/config"
	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/data"
	"github.com/l1jgo/collision/internal/geom"
	"github.com/l1jgo/collision/internal/persist"
	"github.com/l1jgo/collision/internal/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureSink struct {
	batches [][]persist.TickStats
}

func (c *captureSink) WriteBatch(_ context.Context, rows []persist.TickStats) error {
	c.batches = append(c.batches, append([]persist.TickStats(nil), rows...))
	return nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Simulation.Objects = 200
	cfg.Parallel.Workers = 2
	return cfg
}

func newSim(t *testing.T, cfg *config.Config, opts Options) *Simulation {
	t.Helper()
	s, err := New(context.Background(), cfg, zap.NewNop(), opts)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestScatterScenarioRuns(t *testing.T) {
	s := newSim(t, testConfig(), Options{})
	n, err := s.Populate(nil)
	require.NoError(t, err)
	assert.Equal(t, 200, n)
	assert.Equal(t, 200, s.Registry.Len())
	assert.Equal(t, 7, s.Runner.Len())
	require.NotNil(t, s.Workers)

	for range 5 {
		s.Tick(16 * time.Millisecond)
	}
	assert.Equal(t, uint64(5), s.Runner.Ticks())
	ps, ok := s.Collision.ParallelStats()
	require.True(t, ok)
	assert.Equal(t, 200, ps.Bodies)
	assert.Zero(t, ps.Failed)
}

func TestScatterIsSeeded(t *testing.T) {
	positions := func() []geom.Vec2 {
		s := newSim(t, testConfig(), Options{})
		_, err := s.Populate(nil)
		require.NoError(t, err)
		out := make([]geom.Vec2, 0, s.Registry.Len())
		for nid := ecs.EntityID(1); nid <= s.Registry.LastNID(); nid++ {
			e, ok := s.Registry.Lookup(nid)
			require.True(t, ok)
			tr, _ := ecs.Get[*component.Transform](e)
			out = append(out, tr.Position())
		}
		return out
	}
	assert.Equal(t, positions(), positions())
}

func TestSpawnListScenario(t *testing.T) {
	list, err := data.LoadSpawnList("../../data/yaml/spawn_list.yaml")
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Simulation.Scenario = "spawn_list"
	s := newSim(t, cfg, Options{})

	n, err := s.Populate(list)
	require.NoError(t, err)
	assert.Equal(t, list.Count(), n)
	assert.Equal(t, 1, s.Registry.CountOfType(ecs.TypePlayer))
	assert.Equal(t, geom.V(1000, 1000), s.Focus(), "focus starts on the hero")

	s.Tick(16 * time.Millisecond)
	var hero *ecs.Entity
	s.Registry.EachOfType(ecs.TypePlayer, func(e *ecs.Entity) { hero = e })
	require.NotNil(t, hero)
	tr, _ := ecs.Get[*component.Transform](hero)
	assert.Equal(t, tr.Position(), s.Focus(), "focus follows the hero")
}

func TestFocusFallsBackWhenPlayerLeaves(t *testing.T) {
	s := newSim(t, testConfig(), Options{})
	hero, err := s.Spawn(&data.SpawnTemplate{Name: "hero", Type: ecs.TypePlayer, Width: 10, Height: 10}, geom.V(10, 10), geom.Vec2{})
	require.NoError(t, err)
	assert.Equal(t, geom.V(10, 10), s.Focus())

	s.Registry.MarkForRemoval(hero)
	s.Tick(0) // cleanup flushes, removal event queued
	s.Tick(0) // event delivered
	assert.Equal(t, geom.V(1000, 1000), s.Focus())
}

func TestPopulateSpawnListNeedsList(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.Scenario = "spawn_list"
	s := newSim(t, cfg, Options{})
	_, err := s.Populate(nil)
	assert.ErrorIs(t, err, ErrNoSpawnList)
}

func TestSpawnAttachesTemplateComponents(t *testing.T) {
	s := newSim(t, testConfig(), Options{})

	slime, err := s.Spawn(&data.SpawnTemplate{
		Name: "slime", Type: ecs.TypeEnemy, Shape: component.ShapeCircle, Radius: 6,
		MaxSpeed: 2, HP: 20, Damage: 3,
	}, geom.V(50, 50), geom.Vec2{})
	require.NoError(t, err)
	assert.True(t, ecs.Has[*component.Velocity](slime))
	hp, ok := ecs.Get[*component.Health](slime)
	require.True(t, ok)
	assert.Equal(t, 20, hp.MaxHP)
	dmg, ok := ecs.Get[*component.Damage](slime)
	require.True(t, ok)
	assert.Equal(t, 3, dmg.Amount)

	wall, err := s.Spawn(&data.SpawnTemplate{
		Name: "wall", Type: ecs.TypeObstacle, Width: 200, Height: 10, Immovable: true,
	}, geom.V(100, 100), geom.Vec2{})
	require.NoError(t, err)
	assert.False(t, ecs.Has[*component.Velocity](wall), "static bodies carry no velocity")
	assert.False(t, ecs.Has[*component.Health](wall))
	col, _ := ecs.Get[*component.Collider](wall)
	assert.True(t, col.Immovable)
}

func TestParallelDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Parallel.Enabled = false
	s := newSim(t, cfg, Options{})
	assert.Nil(t, s.Workers)
	assert.Nil(t, s.Parallel)

	_, err := s.Populate(nil)
	require.NoError(t, err)
	s.Tick(16 * time.Millisecond)
	_, ok := s.Collision.ParallelStats()
	assert.False(t, ok)
}

func TestStatsReachSink(t *testing.T) {
	cfg := testConfig()
	cfg.Stats.FlushEvery = 2
	sink := &captureSink{}
	s := newSim(t, cfg, Options{Sink: sink})
	_, err := s.Populate(nil)
	require.NoError(t, err)

	for range 5 {
		s.Tick(16 * time.Millisecond)
	}
	require.Len(t, sink.batches, 2)
	assert.Equal(t, uint64(1), sink.batches[0][0].Tick)
	assert.Equal(t, 200, sink.batches[1][1].Entities)

	s.Close()
	require.Len(t, sink.batches, 3, "close flushes the partial batch")
	assert.Len(t, sink.batches[2], 1)
}

func TestGridPolicyOverrides(t *testing.T) {
	policies, err := gridPolicies(config.GridConfig{Queries: map[string]config.QueryConfig{
		"normal": {RadiusMultiplier: 2},
		"custom": {UpdateFrequency: 3, TTL: time.Second},
	}})
	require.NoError(t, err)
	assert.Equal(t, 33*time.Millisecond, policies["normal"].TTL, "unset ttl keeps the stock value")
	assert.Equal(t, 2.0, policies["normal"].RadiusMultiplier)
	assert.Equal(t, 3, policies["custom"].UpdateFrequency)
	assert.Equal(t, spatial.SolidTypes, policies["custom"].Types)

	_, err = gridPolicies(config.GridConfig{Queries: map[string]config.QueryConfig{
		"bad": {Types: []string{"dragon"}},
	}})
	assert.Error(t, err)
}

func TestTiersFromConfig(t *testing.T) {
	assert.Len(t, tiers(nil), 3)
	got := tiers([]config.TierConfig{{Name: "near", MaxDistance: 50, Every: 1, RadiusScale: 1, Query: "critical"}})
	require.Len(t, got, 1)
	assert.Equal(t, "near", got[0].Name)
	assert.Equal(t, 50.0, got[0].MaxDistance)
}

func TestNewRejectsTierWithoutGridQuery(t *testing.T) {
	cfg := testConfig()
	cfg.Collision.Tiers = append(cfg.Collision.Tiers, config.TierConfig{
		Name: "horizon", MaxDistance: 900, Every: 8, RadiusScale: 2, Query: "horizon",
	})
	_, err := New(context.Background(), cfg, zap.NewNop(), Options{})
	assert.ErrorIs(t, err, spatial.ErrUnknownQueryType)

	cfg.Grid.Queries = map[string]config.QueryConfig{"horizon": {TTL: 200 * time.Millisecond, UpdateFrequency: 8}}
	s := newSim(t, cfg, Options{})
	assert.Len(t, s.Tiered.Stats().PerTier, 4)
	assert.Equal(t, 3, s.Tiered.Classify(1000), "the extra tier takes the farthest bodies")
}
