package event

import "github.com/l1jgo/collision/internal/core/ecs"

// EntityAdded fires after an entity is registered.
type EntityAdded struct {
	NID  ecs.EntityID
	ID   string
	Type ecs.EntityType
}

// EntityRemoved fires after an entity has left every index. The entity struct
// has already gone back to its pool; only the ids are safe to read.
type EntityRemoved struct {
	NID  ecs.EntityID
	ID   string
	Type ecs.EntityType
}

// EntityDamaged fires when the damage consumer applies contact damage.
type EntityDamaged struct {
	Target   ecs.EntityID
	Source   ecs.EntityID
	Amount   int
	Remained int
}

// PickupCollected fires when a player touches a pickup.
type PickupCollected struct {
	Player ecs.EntityID
	Pickup ecs.EntityID
}
