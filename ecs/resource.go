package ecs

import "reflect"

// Time is the clock resource the Scheduler updates before every tick.
type Time struct {
	Tick uint64
	// Delta is the time in seconds since the previous tick.
	Delta float64
	// Elapsed is the sum of all deltas so far.
	Elapsed float64
}

// SetResource stores value as the world's resource of type T. An existing
// resource is overwritten in place, so pointers returned by Resource stay valid.
func SetResource[T any](w *World, value T) {
	typ := reflect.TypeFor[T]()
	if existing, ok := w.resources[typ]; ok {
		*existing.(*T) = value
		return
	}

	ptr := new(T)
	*ptr = value
	w.resources[typ] = ptr
}

// Resource returns the world's resource of type T, or nil if none was set.
func Resource[T any](w *World) *T {
	existing, ok := w.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil
	}
	return existing.(*T)
}

// InitResource returns the resource of type T, creating it from init (or the
// zero value) when absent.
func InitResource[T any](w *World, init ...T) *T {
	if existing := Resource[T](w); existing != nil {
		return existing
	}

	var value T
	if len(init) > 0 {
		value = init[0]
	}
	SetResource(w, value)
	return Resource[T](w)
}

// RemoveResource deletes the resource of type T and reports whether it existed.
func RemoveResource[T any](w *World) bool {
	typ := reflect.TypeFor[T]()
	if _, ok := w.resources[typ]; !ok {
		return false
	}
	delete(w.resources, typ)
	return true
}
