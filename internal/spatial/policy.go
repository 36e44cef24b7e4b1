package spatial

import (
	"errors"
	"time"

	"github.com/l1jgo/collision/internal/core/ecs"
)

var ErrUnknownQueryType = errors.New("unknown query type")

// Query type names used by the collision systems.
const (
	QueryCritical  = "critical"
	QueryNormal    = "normal"
	QueryDistant   = "distant"
	QueryCollision = "collision"
	QueryDamage    = "damage"
	QueryPickup    = "pickup"
)

// Policy controls how one query type reads the grid. A frame whose counter is
// not a multiple of UpdateFrequency serves any cached entry as is; on refresh
// frames an entry younger than TTL is reused, otherwise recomputed.
type Policy struct {
	TTL              time.Duration
	RadiusMultiplier float64
	UpdateFrequency  int
	Types            []ecs.EntityType
}

// SolidTypes are the entity types that take part in physical collision.
var SolidTypes = []ecs.EntityType{
	ecs.TypePlayer, ecs.TypeEnemy, ecs.TypeProjectile,
	ecs.TypeAreaEffect, ecs.TypeObject, ecs.TypeObstacle,
}

// DefaultPolicies returns the stock query channels.
func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		QueryCritical:  {TTL: 0, RadiusMultiplier: 1.0, UpdateFrequency: 1, Types: SolidTypes},
		QueryNormal:    {TTL: 33 * time.Millisecond, RadiusMultiplier: 1.2, UpdateFrequency: 2, Types: SolidTypes},
		QueryDistant:   {TTL: 100 * time.Millisecond, RadiusMultiplier: 1.5, UpdateFrequency: 4, Types: SolidTypes},
		QueryCollision: {TTL: 16 * time.Millisecond, RadiusMultiplier: 1.0, UpdateFrequency: 1, Types: SolidTypes},
		QueryDamage: {TTL: 50 * time.Millisecond, RadiusMultiplier: 1.0, UpdateFrequency: 2,
			Types: []ecs.EntityType{ecs.TypeProjectile, ecs.TypeAreaEffect, ecs.TypeEnemy}},
		QueryPickup: {TTL: 100 * time.Millisecond, RadiusMultiplier: 1.5, UpdateFrequency: 4,
			Types: []ecs.EntityType{ecs.TypePickup}},
	}
}

type policy struct {
	ttl       time.Duration
	mult      float64
	frequency uint64
	mask      [ecs.NumEntityTypes]bool
}

func compile(p Policy) *policy {
	c := &policy{ttl: p.TTL, mult: p.RadiusMultiplier, frequency: uint64(p.UpdateFrequency)}
	if c.mult <= 0 {
		c.mult = 1
	}
	if c.frequency == 0 {
		c.frequency = 1
	}
	for _, t := range p.Types {
		if int(t) < ecs.NumEntityTypes {
			c.mask[t] = true
		}
	}
	return c
}
