package pool

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/l1jgo/collision/internal/core/ecs"
	"go.uber.org/zap"
)

var ErrPoolNotFound = errors.New("pool not registered")

// Recreatable components re-apply their construction-time properties after a
// reset. Reset alone only restores defaults.
type Recreatable[P any] interface {
	ecs.Component
	Recreate(props P)
}

type componentPool interface {
	put(c ecs.Component) bool
	stats() Stats
	size() int
	prewarm(n int)
}

type typedPool[T ecs.Component] struct {
	*Pool[T]
}

func (t typedPool[T]) put(c ecs.Component) bool {
	v, ok := c.(T)
	if !ok {
		return false
	}
	t.Put(v)
	return true
}

func (t typedPool[T]) stats() Stats   { return t.Stats() }
func (t typedPool[T]) size() int      { return t.Len() }
func (t typedPool[T]) prewarm(n int) { t.Prewarm(n) }

// Manager owns one pool per entity type and one per component type. Pools are
// declared up front; every consumer goes through the manager.
type Manager struct {
	entities   map[ecs.EntityType]*Pool[*ecs.Entity]
	components map[reflect.Type]componentPool
	log        *zap.Logger
}

func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		entities:   make(map[ecs.EntityType]*Pool[*ecs.Entity], ecs.NumEntityTypes),
		components: make(map[reflect.Type]componentPool, 8),
		log:        log,
	}
}

// RegisterEntity declares the pool for an entity type.
func (m *Manager) RegisterEntity(typ ecs.EntityType, max int) {
	m.entities[typ] = New(ecs.NewEntity, max)
}

// RegisterComponent declares the pool for component type T.
func RegisterComponent[T ecs.Component](m *Manager, factory func() T, max int) {
	m.components[reflect.TypeOf((*T)(nil)).Elem()] = typedPool[T]{New(factory, max)}
}

// AcquireEntity returns a reset entity for typ.
func (m *Manager) AcquireEntity(typ ecs.EntityType) (*ecs.Entity, error) {
	p, ok := m.entities[typ]
	if !ok {
		return nil, fmt.Errorf("entity %s: %w", typ, ErrPoolNotFound)
	}
	e := p.Get()
	e.Reset()
	return e, nil
}

// ReleaseEntity resets e and returns it to its type's pool. Components must be
// released separately first.
func (m *Manager) ReleaseEntity(e *ecs.Entity) error {
	p, ok := m.entities[e.Type]
	if !ok {
		return fmt.Errorf("entity %s: %w", e.Type, ErrPoolNotFound)
	}
	p.Put(e)
	return nil
}

// AcquireComponent gets a T from its pool, resets it, then applies props.
func AcquireComponent[T Recreatable[P], P any](m *Manager, props P) (T, error) {
	key := reflect.TypeOf((*T)(nil)).Elem()
	cp, ok := m.components[key]
	if !ok {
		var zero T
		return zero, fmt.Errorf("component %s: %w", key, ErrPoolNotFound)
	}
	c := cp.(typedPool[T]).Get()
	c.Reset()
	c.Recreate(props)
	return c, nil
}

// ReleaseComponent resets c and returns it to its pool.
func (m *Manager) ReleaseComponent(c ecs.Component) error {
	key := reflect.TypeOf(c)
	cp, ok := m.components[key]
	if !ok {
		return fmt.Errorf("component %s: %w", key, ErrPoolNotFound)
	}
	if !cp.put(c) {
		m.log.Warn("component pool type mismatch", zap.Stringer("type", key))
	}
	return nil
}

// Totals sums traffic over every registered pool.
func (m *Manager) Totals() (entities, components Stats) {
	for _, p := range m.entities {
		entities.add(p.Stats())
	}
	for _, p := range m.components {
		components.add(p.stats())
	}
	return entities, components
}

// Idle returns how many released instances are currently held.
func (m *Manager) Idle() int {
	n := 0
	for _, p := range m.entities {
		n += p.Len()
	}
	for _, p := range m.components {
		n += p.size()
	}
	return n
}

// Prewarm fills every registered pool with up to n idle instances.
func (m *Manager) Prewarm(n int) {
	for _, p := range m.entities {
		p.Prewarm(n)
	}
	for _, p := range m.components {
		p.prewarm(n)
	}
}
