package sim

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/l1jgo/collision/internal/component"
	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/data"
	"github.com/l1jgo/collision/internal/geom"
	"github.com/l1jgo/collision/internal/world"
	"go.uber.org/zap"
)

var ErrNoSpawnList = errors.New("spawn_list scenario needs a spawn list")

// Populate spawns the configured scenario and returns how many bodies it
// created. list is only read by the spawn_list scenario.
func (s *Simulation) Populate(list *data.SpawnList) (int, error) {
	seed := uint64(s.Config.Simulation.Seed)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	var (
		n   int
		err error
	)
	switch s.Config.Simulation.Scenario {
	case "spawn_list":
		if list == nil {
			return 0, ErrNoSpawnList
		}
		n, err = s.SpawnFromList(list, rng)
	default:
		n, err = s.Scatter(s.Config.Simulation.Objects, s.Config.Simulation.ObjectSize, rng)
	}
	if err != nil {
		return n, err
	}
	s.log.Info("scenario populated",
		zap.String("scenario", s.Config.Simulation.Scenario),
		zap.Int("bodies", n),
		zap.Int("idle_pooled", s.Pools.Idle()),
	)
	return n, nil
}

// SpawnFromList places every entry of list, jittered by the entry's random
// range. The first player spawned becomes the tier focus.
func (s *Simulation) SpawnFromList(list *data.SpawnList, rng *rand.Rand) (int, error) {
	n := 0
	for i, entry := range list.Spawns {
		tmpl := list.Template(entry.Template)
		if tmpl == nil {
			return n, fmt.Errorf("spawn entry %d: %w: %q", i, data.ErrUnknownTemplate, entry.Template)
		}
		for range entry.Count {
			pos := geom.V(
				entry.X+jitter(rng, entry.RandomX),
				entry.Y+jitter(rng, entry.RandomY),
			)
			if _, err := s.Spawn(tmpl, pos, geom.V(entry.VX, entry.VY)); err != nil {
				return n, fmt.Errorf("spawn %s: %w", tmpl.Name, err)
			}
			n++
		}
	}
	return n, nil
}

// Scatter fills the world with count square objects drifting in random
// directions.
func (s *Simulation) Scatter(count int, size float64, rng *rand.Rand) (int, error) {
	tmpl := &data.SpawnTemplate{
		Name:     "scatter",
		Type:     ecs.TypeObject,
		Shape:    component.ShapeBox,
		Width:    size,
		Height:   size,
		MaxSpeed: 4,
	}
	ws := s.Config.Simulation.WorldSize
	for i := range count {
		pos := geom.V(rng.Float64()*ws, rng.Float64()*ws)
		vel := geom.V(rng.Float64()*2-1, rng.Float64()*2-1)
		if _, err := s.Spawn(tmpl, pos, vel); err != nil {
			return i, err
		}
	}
	return count, nil
}

// Spawn creates one body from tmpl. Velocity is attached when the template
// can move or vel is non-zero; health and damage only when the template sets
// them.
func (s *Simulation) Spawn(tmpl *data.SpawnTemplate, pos, vel geom.Vec2) (*ecs.Entity, error) {
	e, err := s.Registry.Create(tmpl.Type)
	if err != nil {
		return nil, err
	}
	if _, err := world.AddComponent[*component.Transform](s.Registry, e, component.TransformProps{Position: pos}); err != nil {
		return nil, err
	}
	if _, err := world.AddComponent[*component.Collider](s.Registry, e, tmpl.Collider()); err != nil {
		return nil, err
	}
	if tmpl.MaxSpeed > 0 || !vel.IsZero() {
		if _, err := world.AddComponent[*component.Velocity](s.Registry, e, component.VelocityProps{
			Velocity: vel,
			MaxSpeed: tmpl.MaxSpeed,
		}); err != nil {
			return nil, err
		}
	}
	if tmpl.HP > 0 {
		if _, err := world.AddComponent[*component.Health](s.Registry, e, component.HealthProps{HP: tmpl.HP, MaxHP: tmpl.HP}); err != nil {
			return nil, err
		}
	}
	if tmpl.Damage > 0 {
		if _, err := world.AddComponent[*component.Damage](s.Registry, e, component.DamageProps{
			Amount: tmpl.Damage,
			Pierce: tmpl.Pierce,
		}); err != nil {
			return nil, err
		}
	}
	if tmpl.Type == ecs.TypePlayer && s.focusID == 0 {
		s.focusID = e.NID
	}
	return e, nil
}

func jitter(rng *rand.Rand, spread float64) float64 {
	if spread <= 0 {
		return 0
	}
	return (rng.Float64()*2 - 1) * spread
}
