package ecs

import (
	"iter"
	"reflect"
)

// Query returns a lazy sequence over every entity holding a component of type T,
// in the order the entities received it. Each step yields the entity and a
// pointer to its component, valid until the component is removed.
//
// Ranging over the sequence takes a shared borrow of T for the length of the
// loop. A Query may be nested inside another Query of the same type, but not
// inside a QueryMut of it. To restart, range over the sequence again.
func Query[T any](w *World) iter.Seq2[Entity, *T] {
	return query[T](w, false)
}

// QueryMut is Query with an exclusive borrow: while the loop runs, starting any
// other query of T panics with ErrBorrowConflict.
func QueryMut[T any](w *World) iter.Seq2[Entity, *T] {
	return query[T](w, true)
}

// Values returns an iterator over the components of type T only.
func Values[T any](w *World) iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for _, value := range Query[T](w) {
			if !yield(value) {
				return
			}
		}
	}
}

func query[T any](w *World, exclusive bool) iter.Seq2[Entity, *T] {
	return func(yield func(Entity, *T) bool) {
		c, ok := w.columns[reflect.TypeFor[T]()]
		if !ok {
			return
		}
		c.borrow(exclusive)
		defer c.release(exclusive)

		for e, value := range c.iter() {
			if !yield(e, value.(*T)) {
				return
			}
		}
	}
}
