package world

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/core/event"
	"github.com/l1jgo/collision/internal/pool"
	"go.uber.org/zap"
)

var ErrIDSpaceExhausted = errors.New("entity id space exhausted")

// Registry owns every live entity and indexes them by numeric id, string id,
// type and component type. Entities and components are recycled through the
// pool manager. Accessed only from the game loop goroutine, no locks.
type Registry struct {
	pools *pool.Manager
	bus   *event.Bus
	log   *zap.Logger

	lastNID ecs.EntityID
	byNID   map[ecs.EntityID]*ecs.Entity
	byID    map[string]*ecs.Entity
	byType  [ecs.NumEntityTypes]map[ecs.EntityID]*ecs.Entity
	stores  map[reflect.Type]ecs.AnyStore

	removeQueue []*ecs.Entity
}

func NewRegistry(pools *pool.Manager, bus *event.Bus, log *zap.Logger) *Registry {
	r := &Registry{
		pools:       pools,
		bus:         bus,
		log:         log,
		byNID:       make(map[ecs.EntityID]*ecs.Entity, 1024),
		byID:        make(map[string]*ecs.Entity, 1024),
		stores:      make(map[reflect.Type]ecs.AnyStore, 8),
		removeQueue: make([]*ecs.Entity, 0, 64),
	}
	for i := range r.byType {
		r.byType[i] = make(map[ecs.EntityID]*ecs.Entity, 128)
	}
	return r
}

// StoreOf returns the typed component index for T, creating it on first use.
// Components attached before the store existed are back-filled.
func StoreOf[T ecs.Component](r *Registry) *ecs.Store[T] {
	key := reflect.TypeOf((*T)(nil)).Elem()
	if s, ok := r.stores[key]; ok {
		return s.(*ecs.Store[T])
	}
	s := ecs.NewStore[T]()
	r.stores[key] = s
	for id, e := range r.byNID {
		if c, ok := ecs.Get[T](e); ok {
			s.Set(id, c)
		}
	}
	return s
}

// Create takes an entity from the type's pool, assigns a fresh numeric id and
// registers it. Numeric ids are never reused.
func (r *Registry) Create(typ ecs.EntityType) (*ecs.Entity, error) {
	if r.lastNID == math.MaxUint32 {
		return nil, ErrIDSpaceExhausted
	}
	e, err := r.pools.AcquireEntity(typ)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", typ, err)
	}
	r.lastNID++
	e.NID = r.lastNID
	e.Type = typ
	e.ID = fmt.Sprintf("%s_%d", typ, e.NID)
	e.Active = true

	r.byNID[e.NID] = e
	r.byID[e.ID] = e
	r.byType[typ][e.NID] = e
	event.Emit(r.bus, event.EntityAdded{NID: e.NID, ID: e.ID, Type: typ})
	return e, nil
}

// AddComponent acquires a T from its pool with props applied and attaches it.
func AddComponent[T pool.Recreatable[P], P any](r *Registry, e *ecs.Entity, props P) (T, error) {
	c, err := pool.AcquireComponent[T](r.pools, props)
	if err != nil {
		return c, fmt.Errorf("%s: %w", e.ID, err)
	}
	if err := r.Attach(e, c); err != nil {
		_ = r.pools.ReleaseComponent(c)
		return c, err
	}
	return c, nil
}

// Attach attaches c to e and indexes it.
func (r *Registry) Attach(e *ecs.Entity, c ecs.Component) error {
	if err := e.Attach(c); err != nil {
		return err
	}
	if s, ok := r.stores[reflect.TypeOf(c)]; ok {
		s.Put(e.NID, c)
	}
	return nil
}

// RemoveComponent detaches c from e and returns it to its pool.
func (r *Registry) RemoveComponent(e *ecs.Entity, c ecs.Component) {
	if !e.Detach(c) {
		return
	}
	if s, ok := r.stores[reflect.TypeOf(c)]; ok {
		s.Remove(e.NID)
	}
	r.release(c)
}

func (r *Registry) release(c ecs.Component) {
	if err := r.pools.ReleaseComponent(c); err != nil {
		// Unpooled component types are simply dropped.
		r.log.Debug("component not pooled", zap.Error(err))
	}
}

// Lookup returns the live entity with the given numeric id.
func (r *Registry) Lookup(nid ecs.EntityID) (*ecs.Entity, bool) {
	e, ok := r.byNID[nid]
	return e, ok
}

// ByID returns the live entity with the given string id.
func (r *Registry) ByID(id string) (*ecs.Entity, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// EachOfType calls fn for every live entity of typ.
func (r *Registry) EachOfType(typ ecs.EntityType, fn func(*ecs.Entity)) {
	for _, e := range r.byType[typ] {
		fn(e)
	}
}

// Each calls fn for every live entity.
func (r *Registry) Each(fn func(*ecs.Entity)) {
	for _, e := range r.byNID {
		fn(e)
	}
}

func (r *Registry) Len() int { return len(r.byNID) }

func (r *Registry) CountOfType(typ ecs.EntityType) int { return len(r.byType[typ]) }

// LastNID returns the most recently issued numeric id.
func (r *Registry) LastNID() ecs.EntityID { return r.lastNID }

// MarkForRemoval flags e and queues it for the end-of-tick flush.
func (r *Registry) MarkForRemoval(e *ecs.Entity) {
	if e.ToRemove {
		return
	}
	e.ToRemove = true
	r.removeQueue = append(r.removeQueue, e)
}

// Pending returns the number of entities queued for removal.
func (r *Registry) Pending() int { return len(r.removeQueue) }

// Flush removes every queued entity: components are detached, reset and
// pooled, the entity leaves every index, a removed event fires and the entity
// itself goes back to its type pool. Returns the number removed.
func (r *Registry) Flush() int {
	n := 0
	for i, e := range r.removeQueue {
		r.removeQueue[i] = nil
		if _, live := r.byNID[e.NID]; !live {
			continue
		}
		comps := make([]ecs.Component, 0, e.ComponentCount())
		e.Components(func(c ecs.Component) { comps = append(comps, c) })
		for _, c := range comps {
			r.RemoveComponent(e, c)
		}

		nid, id, typ := e.NID, e.ID, e.Type
		delete(r.byNID, nid)
		delete(r.byID, id)
		delete(r.byType[typ], nid)
		event.Emit(r.bus, event.EntityRemoved{NID: nid, ID: id, Type: typ})

		e.Active = false
		if err := r.pools.ReleaseEntity(e); err != nil {
			r.log.Debug("entity not pooled", zap.String("id", id), zap.Error(err))
		}
		n++
	}
	r.removeQueue = r.removeQueue[:0]
	return n
}
