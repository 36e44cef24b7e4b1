package ecs

import "slices"

// Component is the capability every attachable component implements. The
// owner is a non-owning handle; resolve it through the registry.
type Component interface {
	Name() string
	Enabled() bool
	SetEnabled(bool)
	Owner() EntityID
	OnAttach(owner EntityID)
	OnDetach()
	Reset()
}

// Base carries the fields shared by every component. Embed it by value.
type Base struct {
	name    string
	enabled bool
	owner   EntityID
}

func NewBase(name string) Base {
	return Base{name: name, enabled: true}
}

func (b *Base) Name() string            { return b.name }
func (b *Base) Enabled() bool           { return b.enabled }
func (b *Base) SetEnabled(v bool)       { b.enabled = v }
func (b *Base) Owner() EntityID         { return b.owner }
func (b *Base) OnAttach(owner EntityID) { b.owner = owner }
func (b *Base) OnDetach()               { b.owner = 0 }

// ResetBase restores defaults. The name is part of the type and survives.
func (b *Base) ResetBase() {
	b.enabled = true
	b.owner = 0
}

// AnyStore is the untyped face of Store used by the registry, which only knows
// components by their runtime type.
type AnyStore interface {
	Put(id EntityID, c Component) bool
	Remove(id EntityID)
	Len() int
}

// Store is a typed index of one component type by entity id. Iteration runs
// in ascending id order so every tick visits entities the same way.
type Store[T Component] struct {
	data  map[EntityID]T
	ids   []EntityID // sorted, rebuilt lazily
	dirty bool
}

func NewStore[T Component]() *Store[T] {
	return &Store[T]{
		data: make(map[EntityID]T, 256),
	}
}

func (s *Store[T]) Set(id EntityID, c T) {
	if _, ok := s.data[id]; !ok {
		s.dirty = true
	}
	s.data[id] = c
}

// Put is Set for callers holding an untyped component. It reports false on a
// type mismatch.
func (s *Store[T]) Put(id EntityID, c Component) bool {
	t, ok := c.(T)
	if ok {
		s.Set(id, t)
	}
	return ok
}

func (s *Store[T]) Get(id EntityID) (T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *Store[T]) Remove(id EntityID) {
	if _, ok := s.data[id]; ok {
		delete(s.data, id)
		s.dirty = true
	}
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// IDs returns the indexed ids in ascending order. The slice is replaced, not
// mutated, when the store changes, so callers may keep iterating it while
// adding or removing entries.
func (s *Store[T]) IDs() []EntityID {
	if s.dirty || len(s.ids) != len(s.data) {
		ids := make([]EntityID, 0, len(s.data))
		for id := range s.data {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		s.ids, s.dirty = ids, false
	}
	return s.ids
}

// Each calls fn for every entry in id order. Entries removed during the walk
// are skipped; entries added are not visited.
func (s *Store[T]) Each(fn func(EntityID, T)) {
	for _, id := range s.IDs() {
		if c, ok := s.data[id]; ok {
			fn(id, c)
		}
	}
}
