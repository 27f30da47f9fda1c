package ecs

import (
	"math"
	"reflect"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
)

// World owns every entity and all of their component data.
// A World is not safe for concurrent use; the Scheduler gives each system
// exclusive access for the duration of its Execute call.
type World struct {
	columns   map[reflect.Type]*column
	entities  *intmap.Map[Entity, struct{}]
	nextId    Entity
	resources map[reflect.Type]any
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		columns:   make(map[reflect.Type]*column),
		entities:  intmap.New[Entity, struct{}](256),
		resources: make(map[reflect.Type]any),
	}
}

// reserve allocates a fresh entity id without making it live.
func (w *World) reserve() Entity {
	if w.nextId == math.MaxUint64 {
		panic("entity ids exhausted")
	}
	w.nextId++
	return w.nextId
}

// revive marks a reserved id as live.
func (w *World) revive(e Entity) {
	w.entities.Put(e, struct{}{})
}

// Spawn creates a new entity with the provided components and returns it.
// Components may be passed by value or by pointer; they are always copied.
// If the bundle holds two components of the same type, the last one wins.
// The entity is visible to every query started after Spawn returns.
func (w *World) Spawn(components ...any) Entity {
	e := w.reserve()
	w.revive(e)
	for _, component := range components {
		w.attach(e, component)
	}
	return e
}

// Attach adds the component to a live entity, replacing any existing
// component of the same type.
func (w *World) Attach(e Entity, component any) error {
	if !w.IsAlive(e) {
		return eris.Wrapf(ErrEntityNotLive, "attach %s to %s", componentTypeOf(component), e)
	}
	w.attach(e, component)
	return nil
}

func (w *World) attach(e Entity, component any) {
	typ, ptr := boxComponent(component)
	w.column(typ).set(e, ptr)
}

// Despawn removes the entity and all of its components. The id is never reused.
func (w *World) Despawn(e Entity) error {
	if !w.IsAlive(e) {
		return eris.Wrapf(ErrEntityNotLive, "despawn %s", e)
	}

	for _, c := range w.columns {
		c.remove(e)
	}
	w.entities.Del(e)
	return nil
}

// IsAlive reports whether e was spawned by this world and not yet despawned.
func (w *World) IsAlive(e Entity) bool {
	_, ok := w.entities.Get(e)
	return ok
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.entities.Len()
}

// column returns the storage for typ, creating it on first use.
func (w *World) column(typ reflect.Type) *column {
	c, ok := w.columns[typ]
	if !ok {
		c = newColumn(typ)
		w.columns[typ] = c
	}
	return c
}

// Attach is the typed form of World.Attach.
func Attach[T any](w *World, e Entity, component T) error {
	return w.Attach(e, component)
}

// Detach removes the component of type T from a live entity. It reports
// whether the entity had one.
func Detach[T any](w *World, e Entity) (bool, error) {
	typ := reflect.TypeFor[T]()
	if !w.IsAlive(e) {
		return false, eris.Wrapf(ErrEntityNotLive, "detach %s from %s", typ, e)
	}

	c, ok := w.columns[typ]
	if !ok {
		return false, nil
	}
	return c.remove(e), nil
}

// Get returns the entity's component of type T. It returns (nil, nil) when the
// entity is live but has no such component.
func Get[T any](w *World, e Entity) (*T, error) {
	typ := reflect.TypeFor[T]()
	if !w.IsAlive(e) {
		return nil, eris.Wrapf(ErrEntityNotLive, "get %s of %s", typ, e)
	}

	c, ok := w.columns[typ]
	if !ok {
		return nil, nil
	}

	value := c.get(e)
	if value == nil {
		return nil, nil
	}
	return value.(*T), nil
}

// Has reports whether a live entity holds a component of type T.
func Has[T any](w *World, e Entity) bool {
	c, ok := w.columns[reflect.TypeFor[T]()]
	return ok && c.has(e)
}

// Count returns the number of entities holding a component of type T.
func Count[T any](w *World) int {
	c, ok := w.columns[reflect.TypeFor[T]()]
	if !ok {
		return 0
	}
	return c.len()
}

func componentTypeOf(component any) reflect.Type {
	typ := reflect.TypeOf(component)
	if typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ
}

// boxComponent copies a component into freshly allocated memory and returns
// its type together with the *T holding the copy.
func boxComponent(component any) (reflect.Type, any) {
	if component == nil {
		panic("cannot attach a nil component")
	}

	value := reflect.ValueOf(component)
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			panic("cannot attach a nil component pointer")
		}
		value = value.Elem()
	}

	typ := value.Type()

	// Components can be structs or primitives (int, string, etc.)
	// But not pointers, maps, channels, or functions (those aren't value types)
	switch typ.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		panic("components cannot be pointers, maps, channels, or functions")
	}

	ptr := reflect.New(typ)
	ptr.Elem().Set(value)
	return typ, ptr.Interface()
}
