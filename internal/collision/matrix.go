package collision

import "github.com/l1jgo/collision/internal/core/ecs"

// Rule is one entry of the collision matrix.
type Rule struct {
	A       ecs.EntityType `yaml:"a"`
	B       ecs.EntityType `yaml:"b"`
	Collide bool           `yaml:"collide"`
}

// Matrix is a symmetric relation over entity types. Only the canonical
// (lower, higher) cell is ever written, so ShouldCollide(a, b) and
// ShouldCollide(b, a) read the same slot.
type Matrix struct {
	rel [ecs.NumEntityTypes][ecs.NumEntityTypes]bool
}

// NewMatrix builds a matrix where every pair defaults to false.
func NewMatrix(rules []Rule) *Matrix {
	m := &Matrix{}
	for _, r := range rules {
		m.SetRule(r.A, r.B, r.Collide)
	}
	return m
}

func canonical(a, b ecs.EntityType) (ecs.EntityType, ecs.EntityType) {
	if a > b {
		return b, a
	}
	return a, b
}

func (m *Matrix) SetRule(a, b ecs.EntityType, collide bool) {
	if int(a) >= ecs.NumEntityTypes || int(b) >= ecs.NumEntityTypes {
		return
	}
	lo, hi := canonical(a, b)
	m.rel[lo][hi] = collide
}

func (m *Matrix) ShouldCollide(a, b ecs.EntityType) bool {
	if int(a) >= ecs.NumEntityTypes || int(b) >= ecs.NumEntityTypes {
		return false
	}
	lo, hi := canonical(a, b)
	return m.rel[lo][hi]
}

// Rules lists every enabled pair in canonical order.
func (m *Matrix) Rules() []Rule {
	var out []Rule
	for lo := 0; lo < ecs.NumEntityTypes; lo++ {
		for hi := lo; hi < ecs.NumEntityTypes; hi++ {
			if m.rel[lo][hi] {
				out = append(out, Rule{A: ecs.EntityType(lo), B: ecs.EntityType(hi), Collide: true})
			}
		}
	}
	return out
}

// DefaultRules mirrors data/yaml/collision_matrix.yaml. Pairs not listed do
// not collide.
func DefaultRules() []Rule {
	const (
		player     = ecs.TypePlayer
		enemy      = ecs.TypeEnemy
		projectile = ecs.TypeProjectile
		pickup     = ecs.TypePickup
		area       = ecs.TypeAreaEffect
		object     = ecs.TypeObject
		obstacle   = ecs.TypeObstacle
	)
	return []Rule{
		{player, enemy, true},
		{player, projectile, true},
		{player, area, true},
		{player, pickup, true},
		{player, object, true},
		{player, obstacle, true},
		{enemy, enemy, true},
		{enemy, projectile, true},
		{enemy, area, true},
		{enemy, object, true},
		{enemy, obstacle, true},
		{projectile, object, true},
		{projectile, obstacle, true},
		{object, object, true},
		{object, obstacle, true},
		{player, player, false},
		{projectile, projectile, false},
	}
}
