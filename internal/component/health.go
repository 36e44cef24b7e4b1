package component

import "github.com/l1jgo/collision/internal/core/ecs"

type HealthProps struct {
	HP    int
	MaxHP int
}

type Health struct {
	ecs.Base
	HP    int
	MaxHP int
}

func NewHealth() *Health {
	return &Health{Base: ecs.NewBase("health")}
}

func (h *Health) Recreate(p HealthProps) {
	h.HP, h.MaxHP = p.HP, p.MaxHP
	if h.MaxHP < h.HP {
		h.MaxHP = h.HP
	}
}

func (h *Health) Reset() {
	h.ResetBase()
	h.HP, h.MaxHP = 0, 0
}

// Apply subtracts dmg and returns the remaining HP (never below zero).
func (h *Health) Apply(dmg int) int {
	h.HP -= dmg
	if h.HP < 0 {
		h.HP = 0
	}
	return h.HP
}

func (h *Health) Dead() bool { return h.HP <= 0 }

type DamageProps struct {
	Amount int
	Pierce bool // survives the first hit
}

// Damage marks an entity as a damage dealer.
type Damage struct {
	ecs.Base
	Amount int
	Pierce bool
}

func NewDamage() *Damage {
	return &Damage{Base: ecs.NewBase("damage")}
}

func (d *Damage) Recreate(p DamageProps) { d.Amount, d.Pierce = p.Amount, p.Pierce }

func (d *Damage) Reset() {
	d.ResetBase()
	d.Amount, d.Pierce = 0, false
}
