package system

import (
	"time"

	"github.com/l1jgo/collision/internal/collision"
	"github.com/l1jgo/collision/internal/component"
	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/core/event"
	coresys "github.com/l1jgo/collision/internal/core/system"
	"github.com/l1jgo/collision/internal/scripting"
	"github.com/l1jgo/collision/internal/world"
	"go.uber.org/zap"
)

// ResultSource exposes the collision results of the current tick.
type ResultSource interface {
	Results() []collision.Result
}

// DamageSystem consumes the collision results once per tick: damage dealers
// hurt bodies with health, players collect pickups, dead bodies and spent
// projectiles are queued for removal. Phase 4 (Damage).
type DamageSystem struct {
	reg     *world.Registry
	source  ResultSource
	scripts *scripting.Engine // nil uses the built-in formula
	bus     *event.Bus
	log     *zap.Logger

	hits      int
	collected int
}

func NewDamageSystem(reg *world.Registry, source ResultSource, scripts *scripting.Engine, bus *event.Bus, log *zap.Logger) *DamageSystem {
	return &DamageSystem{reg: reg, source: source, scripts: scripts, bus: bus, log: log}
}

func (s *DamageSystem) Phase() coresys.Phase { return coresys.PhaseDamage }

// Hits returns the damage applications of the last tick.
func (s *DamageSystem) Hits() int { return s.hits }

// Collected returns the pickups collected last tick.
func (s *DamageSystem) Collected() int { return s.collected }

func (s *DamageSystem) Update(_ time.Duration) {
	s.hits, s.collected = 0, 0
	for _, r := range s.source.Results() {
		a, okA := s.reg.Lookup(r.A)
		b, okB := s.reg.Lookup(r.B)
		if !okA || !okB {
			continue
		}
		if s.collect(a, b) || s.collect(b, a) {
			continue
		}
		s.hit(a, b, r)
		s.hit(b, a, r)
	}
}

func (s *DamageSystem) collect(player, pickup *ecs.Entity) bool {
	if player.Type != ecs.TypePlayer || pickup.Type != ecs.TypePickup || pickup.ToRemove {
		return false
	}
	s.reg.MarkForRemoval(pickup)
	event.Emit(s.bus, event.PickupCollected{Player: player.NID, Pickup: pickup.NID})
	s.collected++
	return true
}

// hit applies src's contact damage to dst.
func (s *DamageSystem) hit(src, dst *ecs.Entity, r collision.Result) {
	if src.ToRemove || dst.ToRemove || src.Type == dst.Type {
		return
	}
	dmg, ok := ecs.Get[*component.Damage](src)
	if !ok || !dmg.Enabled() {
		return
	}
	hp, ok := ecs.Get[*component.Health](dst)
	if !ok || hp.Dead() {
		return
	}

	ctx := scripting.ContactContext{
		SourceType:  src.Type.String(),
		TargetType:  dst.Type.String(),
		BaseDamage:  dmg.Amount,
		Pierce:      dmg.Pierce,
		OverlapX:    r.OverlapX,
		OverlapY:    r.OverlapY,
		TargetHP:    hp.HP,
		TargetMaxHP: hp.MaxHP,
	}
	var res scripting.ContactResult
	if s.scripts != nil {
		res = s.scripts.CalcContactDamage(ctx)
	} else {
		res = scripting.FallbackContact(ctx)
	}
	if res.Consume {
		s.reg.MarkForRemoval(src)
	}
	if res.Damage <= 0 {
		return
	}

	left := hp.Apply(res.Damage)
	s.hits++
	event.Emit(s.bus, event.EntityDamaged{Target: dst.NID, Source: src.NID, Amount: res.Damage, Remained: left})
	if hp.Dead() && dst.Type != ecs.TypePlayer {
		s.reg.MarkForRemoval(dst)
		s.log.Debug("entity destroyed", zap.String("id", dst.ID), zap.String("by", src.ID))
	}
}
