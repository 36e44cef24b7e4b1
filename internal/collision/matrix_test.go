package collision

import (
	"math"
	"testing"

	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/stretchr/testify/assert"
)

func TestMatrixSymmetry(t *testing.T) {
	m := NewMatrix(DefaultRules())
	for _, a := range ecs.AllEntityTypes() {
		for _, b := range ecs.AllEntityTypes() {
			assert.Equal(t, m.ShouldCollide(a, b), m.ShouldCollide(b, a), "%s/%s", a, b)
		}
	}
	assert.True(t, m.ShouldCollide(ecs.TypeEnemy, ecs.TypePlayer))
	assert.False(t, m.ShouldCollide(ecs.TypeProjectile, ecs.TypeProjectile))
	assert.False(t, m.ShouldCollide(ecs.TypeOther, ecs.TypePlayer), "unlisted pairs default to false")
}

func TestMatrixSetRuleEitherOrder(t *testing.T) {
	m := NewMatrix(nil)
	m.SetRule(ecs.TypeObstacle, ecs.TypePickup, true)
	assert.True(t, m.ShouldCollide(ecs.TypePickup, ecs.TypeObstacle))
	m.SetRule(ecs.TypePickup, ecs.TypeObstacle, false)
	assert.False(t, m.ShouldCollide(ecs.TypeObstacle, ecs.TypePickup))
	assert.Empty(t, m.Rules())

	m.SetRule(ecs.EntityType(200), ecs.TypePlayer, true)
	assert.False(t, m.ShouldCollide(ecs.EntityType(200), ecs.TypePlayer))
}

func TestMatrixRulesRoundTrip(t *testing.T) {
	m := NewMatrix(DefaultRules())
	again := NewMatrix(m.Rules())
	assert.Equal(t, m, again)
}

func TestPairKeyOrderIndependent(t *testing.T) {
	for _, c := range [][2]ecs.EntityID{{1, 2}, {7, 3}, {0, math.MaxUint32}, {math.MaxUint32 - 1, math.MaxUint32}} {
		assert.Equal(t, MakePairKey(c[0], c[1]), MakePairKey(c[1], c[0]))
		lo, hi := MakePairKey(c[0], c[1]).IDs()
		assert.Equal(t, min(c[0], c[1]), lo)
		assert.Equal(t, max(c[0], c[1]), hi)
	}
}

func TestPairKeyDistinct(t *testing.T) {
	ids := []ecs.EntityID{1, 2, 3, 65535, 65536, 1 << 20, 1<<20 + 1, math.MaxUint32 - 1, math.MaxUint32}
	seen := make(map[PairKey][2]ecs.EntityID)
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			k := MakePairKey(a, b)
			prev, dup := seen[k]
			assert.False(t, dup, "(%d,%d) collides with %v", a, b, prev)
			seen[k] = [2]ecs.EntityID{a, b}
		}
	}
	assert.Equal(t, NewPair(9, 4), Pair{A: 4, B: 9})
}
