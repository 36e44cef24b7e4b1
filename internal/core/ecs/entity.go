package ecs

import (
	"fmt"
	"reflect"
)

// EntityID is the numeric entity id. It is strictly increasing for the
// lifetime of the process and never reused, even when the Entity struct
// itself is recycled through a pool. Zero is never a valid id.
type EntityID uint32

func (id EntityID) IsZero() bool { return id == 0 }

// EntityType is the closed set of entity type tags.
type EntityType uint8

const (
	TypePlayer EntityType = iota
	TypeEnemy
	TypeProjectile
	TypePickup
	TypeAreaEffect
	TypeObject
	TypeObstacle
	TypeOther

	NumEntityTypes = int(TypeOther) + 1
)

var typeNames = [NumEntityTypes]string{
	"player", "enemy", "projectile", "pickup", "areaEffect", "object", "obstacle", "other",
}

func (t EntityType) String() string {
	if int(t) < NumEntityTypes {
		return typeNames[t]
	}
	return fmt.Sprintf("EntityType(%d)", uint8(t))
}

// ParseEntityType maps a config/data name to its type tag.
func ParseEntityType(s string) (EntityType, error) {
	for i, n := range typeNames {
		if n == s {
			return EntityType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown entity type %q", s)
}

// UnmarshalText lets toml and yaml decode type names directly.
func (t *EntityType) UnmarshalText(b []byte) error {
	v, err := ParseEntityType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t EntityType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// AllEntityTypes returns every type tag in declaration order.
func AllEntityTypes() []EntityType {
	out := make([]EntityType, NumEntityTypes)
	for i := range out {
		out[i] = EntityType(i)
	}
	return out
}

// Entity owns its components. At most one component per concrete type.
type Entity struct {
	ID       string // human readable, "<type>_<nid>"
	NID      EntityID
	Type     EntityType
	Active   bool
	ToRemove bool

	components map[reflect.Type]Component
}

func NewEntity() *Entity {
	return &Entity{components: make(map[reflect.Type]Component, 4)}
}

// Reset clears the entity back to defaults. Components must already have been
// detached by the owner; Reset only drops the references.
func (e *Entity) Reset() {
	e.ID = ""
	e.NID = 0
	e.Type = TypeOther
	e.Active = false
	e.ToRemove = false
	if e.components == nil {
		e.components = make(map[reflect.Type]Component, 4)
	}
	clear(e.components)
}

// Attach stores c and sets its owner handle. Replacing an existing component of
// the same type is refused so the caller can release the old one first.
func (e *Entity) Attach(c Component) error {
	t := reflect.TypeOf(c)
	if _, ok := e.components[t]; ok {
		return fmt.Errorf("%s: %w: %s", e.ID, ErrDuplicateComponent, c.Name())
	}
	e.components[t] = c
	c.OnAttach(e.NID)
	return nil
}

// Detach removes the component of c's type and clears its owner handle.
func (e *Entity) Detach(c Component) bool {
	t := reflect.TypeOf(c)
	if cur, ok := e.components[t]; !ok || cur != c {
		return false
	}
	delete(e.components, t)
	c.OnDetach()
	return true
}

// Components calls fn for every attached component.
func (e *Entity) Components(fn func(Component)) {
	for _, c := range e.components {
		fn(c)
	}
}

func (e *Entity) ComponentCount() int { return len(e.components) }

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Get returns the component of type T, if attached.
func Get[T Component](e *Entity) (T, bool) {
	c, ok := e.components[typeKey[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return c.(T), true
}

// Require is Get for components that must exist. A missing component is a
// hard error the caller handles by skipping the entity.
func Require[T Component](e *Entity) (T, error) {
	c, ok := Get[T](e)
	if !ok {
		return c, fmt.Errorf("%s: %w: %s", e.ID, ErrMissingComponent, typeKey[T]())
	}
	return c, nil
}

// Has reports whether a component of type T is attached.
func Has[T Component](e *Entity) bool {
	_, ok := e.components[typeKey[T]()]
	return ok
}
