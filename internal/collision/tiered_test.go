package collision

import (
	"math"
	"testing"

	"github.com/l1jgo/collision/internal/component"
	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTiered(h *harness) *TieredSystem {
	return NewTieredSystem(DefaultTieredConfig(), h.reg, h.stores, h.grid, NewMatrix(DefaultRules()), nil, zap.NewNop())
}

func hasPair(results []Result, a, b ecs.EntityID) bool {
	for _, r := range results {
		if r.Involves(a) && r.Involves(b) {
			return true
		}
	}
	return false
}

func TestClassifyTiers(t *testing.T) {
	s := newTiered(newHarness(t))
	assert.Equal(t, 0, s.Classify(50))
	assert.Equal(t, 0, s.Classify(100))
	assert.Equal(t, 1, s.Classify(250))
	assert.Equal(t, 2, s.Classify(400))
	assert.Equal(t, 2, s.Classify(5000), "beyond the last band stays distant")
}

func TestTierScheduling(t *testing.T) {
	h := newHarness(t)
	// static pairs: recorded every processed frame, never pushed apart
	nearA := h.spawn(t, ecs.TypeEnemy, geom.V(50, 0), box(10, 10), nil)
	nearB := h.spawn(t, ecs.TypeObstacle, geom.V(55, 0), box(10, 10), nil)
	farA := h.spawn(t, ecs.TypeEnemy, geom.V(400, 0), box(10, 10), nil)
	farB := h.spawn(t, ecs.TypeObstacle, geom.V(405, 0), box(10, 10), nil)
	h.rebuild()
	s := newTiered(h)

	for frame := uint64(1); frame <= 8; frame++ {
		s.Update(0)
		require.Equal(t, frame, s.Frame())
		assert.True(t, hasPair(s.Results(), nearA.NID, nearB.NID), "near pair on frame %d", frame)
		assert.Equal(t, frame%4 == 0, hasPair(s.Results(), farA.NID, farB.NID), "far pair on frame %d", frame)
	}
	assert.Equal(t, []int{2, 0, 2}, s.Stats().PerTier)
}

func TestMatrixFiltersCandidates(t *testing.T) {
	h := newHarness(t)
	a := h.spawn(t, ecs.TypePlayer, geom.V(0, 0), box(10, 10), nil)
	b := h.spawn(t, ecs.TypePlayer, geom.V(4, 0), box(10, 10), nil)
	h.rebuild()
	s := newTiered(h)
	s.Update(0)
	assert.False(t, hasPair(s.Results(), a.NID, b.NID))
	assert.Zero(t, s.Stats().Checks)
}

func TestPushOutOfImmovable(t *testing.T) {
	h := newHarness(t)
	p := h.spawn(t, ecs.TypePlayer, geom.V(0, 0), box(10, 10), vp(5, 0))
	h.spawn(t, ecs.TypeObstacle, geom.V(8, 2), box(10, 10), nil)
	h.rebuild()
	s := newTiered(h)
	s.Update(0)

	require.Len(t, s.Results(), 1)
	assert.InDelta(t, 2.0, s.Results()[0].OverlapX, 1e-9)
	assert.Equal(t, geom.V(-2, 0), h.pos(p))
	assert.Equal(t, geom.V(0, 0), h.vel(p), "velocity into the obstacle is cancelled")
}

func TestPlayerPushesEnemy(t *testing.T) {
	h := newHarness(t)
	p := h.spawn(t, ecs.TypePlayer, geom.V(0, 0), box(10, 10), vp(1, 0))
	e := h.spawn(t, ecs.TypeEnemy, geom.V(6, 0), box(10, 10), vp(-1, 0))
	h.rebuild()
	s := newTiered(h)
	s.Update(0)

	assert.Equal(t, geom.V(0, 0), h.pos(p), "player never yields to an enemy")
	assert.Equal(t, geom.V(10, 0), h.pos(e))
	assert.Equal(t, geom.V(1, 0), h.vel(p))
}

func TestBounceBetweenMobileBodies(t *testing.T) {
	h := newHarness(t)
	a := h.spawn(t, ecs.TypeEnemy, geom.V(0, 0), box(10, 10), vp(1, 0))
	b := h.spawn(t, ecs.TypeEnemy, geom.V(8, 0), box(10, 10), vp(-1, 0))
	h.rebuild()
	s := newTiered(h)
	s.Update(0)

	assert.InDelta(t, -1.0, h.pos(a).X, 1e-9)
	assert.InDelta(t, 9.0, h.pos(b).X, 1e-9)
	// restitution 0.5 impulse, then 0.98 damping
	assert.InDelta(t, -0.49, h.vel(a).X, 1e-9)
	assert.InDelta(t, 0.49, h.vel(b).X, 1e-9)
	assert.Len(t, s.Results(), 1, "the pair is checked once per frame")
}

func TestResponseWakesSleepingBodies(t *testing.T) {
	h := newHarness(t)
	a := h.spawn(t, ecs.TypeEnemy, geom.V(0, 0), box(10, 10), vp(1, 0))
	b := h.spawn(t, ecs.TypeEnemy, geom.V(8, 0), box(10, 10), vp(0, 0))
	p := h.spawn(t, ecs.TypePlayer, geom.V(60, 0), box(10, 10), vp(0, 0))
	h.spawn(t, ecs.TypeObstacle, geom.V(68, 0), box(10, 10), nil)
	for _, e := range []*ecs.Entity{b, p} {
		col, _ := ecs.Get[*component.Collider](e)
		col.Sleeping = true
		v, _ := ecs.Get[*component.Velocity](e)
		v.StillTicks = 12
	}
	h.rebuild()
	s := newTiered(h)
	s.Update(0)

	require.Len(t, s.Results(), 2)
	for _, e := range []*ecs.Entity{a, b, p} {
		col, _ := ecs.Get[*component.Collider](e)
		assert.False(t, col.Sleeping, "%s woken", e.ID)
		v, _ := ecs.Get[*component.Velocity](e)
		assert.Zero(t, v.StillTicks)
	}
	assert.Greater(t, h.vel(b).X, 0.0, "the resting body took the impulse")
}

func TestProjectileIsTriggerOnly(t *testing.T) {
	h := newHarness(t)
	pr := h.spawn(t, ecs.TypeProjectile, geom.V(0, 0), box(4, 4), vp(10, 0))
	en := h.spawn(t, ecs.TypeEnemy, geom.V(3, 0), box(10, 10), vp(0, 0))
	h.rebuild()
	s := newTiered(h)
	s.Update(0)

	require.True(t, hasPair(s.Results(), pr.NID, en.NID))
	assert.Equal(t, geom.V(0, 0), h.pos(pr))
	assert.Equal(t, geom.V(3, 0), h.pos(en))
	assert.Equal(t, 1, s.Stats().Triggers)
}

func TestLaserUsesSegmentDistance(t *testing.T) {
	h := newHarness(t)
	laser := component.ColliderProps{Shape: component.ShapeLaser, Length: 100, Angle: math.Pi / 4, HalfWidth: 2}
	beam := h.spawn(t, ecs.TypeAreaEffect, geom.V(0, 0), laser, nil)
	onLine := h.spawn(t, ecs.TypeEnemy, geom.V(40, 42), box(10, 10), nil)
	// inside the beam's bounding box but 35 units off the line
	offLine := h.spawn(t, ecs.TypeEnemy, geom.V(60, 10), box(10, 10), nil)
	h.rebuild()
	s := newTiered(h)
	s.Update(0)

	assert.True(t, hasPair(s.Results(), beam.NID, onLine.NID))
	assert.False(t, hasPair(s.Results(), beam.NID, offLine.NID))
}

func TestMissingComponentSkipsPairOnly(t *testing.T) {
	h := newHarness(t)
	a := h.spawn(t, ecs.TypeEnemy, geom.V(0, 0), box(10, 10), nil)
	b := h.spawn(t, ecs.TypeObstacle, geom.V(5, 0), box(10, 10), nil)
	ghost, err := h.reg.Create(ecs.TypeEnemy)
	require.NoError(t, err)
	h.rebuild()
	h.grid.Insert(ghost.NID, geom.V(2, 0), ecs.TypeEnemy)

	s := newTiered(h)
	s.Update(0)
	assert.True(t, hasPair(s.Results(), a.NID, b.NID))
	assert.Positive(t, s.Stats().Skipped)
}

func TestSkipTypesStillCandidates(t *testing.T) {
	h := newHarness(t)
	obj := h.spawn(t, ecs.TypeObject, geom.V(0, 0), box(10, 10), nil)
	en := h.spawn(t, ecs.TypeEnemy, geom.V(5, 0), box(10, 10), nil)
	h.rebuild()
	cfg := DefaultTieredConfig()
	cfg.SkipTypes = []ecs.EntityType{ecs.TypeObject}
	s := NewTieredSystem(cfg, h.reg, h.stores, h.grid, NewMatrix(DefaultRules()), nil, zap.NewNop())
	s.Update(0)

	assert.Equal(t, 1, s.Stats().Processed)
	assert.True(t, hasPair(s.Results(), obj.NID, en.NID))
}

func TestResultsClearedEachTick(t *testing.T) {
	h := newHarness(t)
	a := h.spawn(t, ecs.TypeEnemy, geom.V(0, 0), box(10, 10), nil)
	h.spawn(t, ecs.TypeObstacle, geom.V(5, 0), box(10, 10), nil)
	h.rebuild()
	s := newTiered(h)
	s.Update(0)
	require.Len(t, s.Results(), 1)

	h.reg.MarkForRemoval(a)
	h.reg.Flush()
	h.rebuild()
	s.Update(0)
	assert.Empty(t, s.Results())
}
