package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// View joins several component types. The type S must be a struct whose fields
// are pointers to component types. Embedded fields are always required; named
// fields can be marked as optional with the `ecs:"optional"` struct tag and are
// nil when the entity lacks that component.
//
//	view := ecs.NewView[struct {
//		*Position
//		*Velocity
//		Name *Name `ecs:"optional"`
//	}](world)
type View[S any] struct {
	world       *World
	types       []reflect.Type
	optional    []bool
	fieldOffset []uintptr
	driver      int // index of the first required field
}

// NewView creates a view for the struct type S. It panics if S is not a struct
// of pointer fields or has no required field.
func NewView[S any](w *World) *View[S] {
	structType := reflect.TypeFor[S]()
	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	v := &View[S]{
		world:       w,
		types:       make([]reflect.Type, 0, structType.NumField()),
		optional:    make([]bool, 0, structType.NumField()),
		fieldOffset: make([]uintptr, 0, structType.NumField()),
		driver:      -1,
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types")
		}

		isOptional := false
		if !field.Anonymous {
			switch tag := field.Tag.Get("ecs"); tag {
			case "":
			case "optional":
				isOptional = true
			default:
				panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
			}
		}

		if !isOptional && v.driver == -1 {
			v.driver = len(v.types)
		}
		v.types = append(v.types, field.Type.Elem())
		v.optional = append(v.optional, isOptional)
		v.fieldOffset = append(v.fieldOffset, field.Offset)
	}

	if v.driver == -1 {
		panic("View struct needs at least one required component")
	}
	return v
}

// fill populates the struct at ptr for the entity. Returns false if the entity
// lacks a required component.
func (v *View[S]) fill(e Entity, ptr unsafe.Pointer) bool {
	for i, typ := range v.types {
		fieldPtr := unsafe.Add(ptr, v.fieldOffset[i])

		var component any
		if c, ok := v.world.columns[typ]; ok {
			component = c.get(e)
		}

		if component == nil {
			if !v.optional[i] {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}

		// The interface holds a *T, so its data word is the component pointer.
		*(*unsafe.Pointer)(fieldPtr) = (*iface)(unsafe.Pointer(&component)).data
	}
	return true
}

// Get returns the populated view struct for the entity, or nil if the entity
// is not live or lacks a required component.
func (v *View[S]) Get(e Entity) *S {
	if !v.world.IsAlive(e) {
		return nil
	}

	var result S
	if !v.fill(e, unsafe.Pointer(&result)) {
		return nil
	}
	return &result
}

// Iter yields every entity holding all required components, in the insertion
// order of the first required component type. It takes a shared borrow of
// every stored component type in the view while the loop runs.
func (v *View[S]) Iter() iter.Seq2[Entity, S] {
	return func(yield func(Entity, S) bool) {
		borrowed := make([]*column, 0, len(v.types))
		defer func() {
			for _, c := range borrowed {
				c.release(false)
			}
		}()
		for i, typ := range v.types {
			c, ok := v.world.columns[typ]
			if !ok {
				if v.optional[i] {
					continue
				}
				return
			}
			c.borrow(false)
			borrowed = append(borrowed, c)
		}

		var result S
		resultPtr := unsafe.Pointer(&result)

		for e := range v.world.columns[v.types[v.driver]].iter() {
			if !v.fill(e, resultPtr) {
				continue
			}
			if !yield(e, result) {
				return
			}
		}
	}
}

// Values returns an iterator over just the view structs.
func (v *View[S]) Values() iter.Seq[S] {
	return func(yield func(S) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}
