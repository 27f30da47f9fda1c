package ecs

import (
	"iter"
	"reflect"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
)

// compactThreshold is the minimum number of slots before a column considers compacting.
const compactThreshold = 64

type slot struct {
	entity Entity
	value  any // always a *T for the column's component type
	alive  bool
}

// column stores every component of a single kind.
// Slots are kept in the order entities first received the component. Removed
// slots are tombstoned and reclaimed by compact, which only runs while no query
// holds a borrow, so iteration order stays insertion order and pointers handed
// to queries stay valid for the whole iteration.
type column struct {
	typ   reflect.Type
	slots []slot
	index *intmap.Map[Entity, int]
	dead  int

	shared    int
	exclusive bool
}

func newColumn(typ reflect.Type) *column {
	return &column{
		typ:   typ,
		index: intmap.New[Entity, int](64),
	}
}

// set stores ptr for the entity. An existing component is overwritten in place
// so pointers obtained earlier observe the new value.
func (c *column) set(e Entity, ptr any) {
	if pos, ok := c.index.Get(e); ok {
		reflect.ValueOf(c.slots[pos].value).Elem().Set(reflect.ValueOf(ptr).Elem())
		return
	}

	c.index.Put(e, len(c.slots))
	c.slots = append(c.slots, slot{entity: e, value: ptr, alive: true})
}

// get returns the stored *T for the entity, or nil.
func (c *column) get(e Entity) any {
	pos, ok := c.index.Get(e)
	if !ok {
		return nil
	}
	return c.slots[pos].value
}

func (c *column) has(e Entity) bool {
	_, ok := c.index.Get(e)
	return ok
}

// remove tombstones the entity's slot. Returns false if it had no component.
func (c *column) remove(e Entity) bool {
	pos, ok := c.index.Get(e)
	if !ok {
		return false
	}

	c.index.Del(e)
	c.slots[pos].alive = false
	c.slots[pos].value = nil
	c.dead++
	c.maybeCompact()
	return true
}

func (c *column) len() int {
	return c.index.Len()
}

func (c *column) borrowed() bool {
	return c.exclusive || c.shared > 0
}

// borrow registers an active query on this column. Shared borrows may overlap
// each other; an exclusive borrow overlaps nothing.
func (c *column) borrow(exclusive bool) {
	if c.exclusive || (exclusive && c.shared > 0) {
		panic(eris.Wrapf(ErrBorrowConflict, "component %s", c.typ))
	}

	if exclusive {
		c.exclusive = true
	} else {
		c.shared++
	}
}

func (c *column) release(exclusive bool) {
	if exclusive {
		c.exclusive = false
	} else if c.shared > 0 {
		c.shared--
	}
	c.maybeCompact()
}

func (c *column) maybeCompact() {
	if c.borrowed() || len(c.slots) < compactThreshold || c.dead*2 < len(c.slots) {
		return
	}
	c.compact()
}

// compact drops tombstoned slots and rebuilds the index. Relative order of
// the surviving slots is unchanged.
func (c *column) compact() {
	writePos := 0
	for _, s := range c.slots {
		if !s.alive {
			continue
		}
		c.slots[writePos] = s
		c.index.Put(s.entity, writePos)
		writePos++
	}

	clear(c.slots[writePos:])
	c.slots = c.slots[:writePos]
	c.dead = 0
}

// iter yields live slots in insertion order. The bound is captured up front:
// components added during the iteration are not visited by it.
func (c *column) iter() iter.Seq2[Entity, any] {
	return func(yield func(Entity, any) bool) {
		n := len(c.slots)
		for i := 0; i < n; i++ {
			s := c.slots[i]
			if !s.alive {
				continue
			}
			if !yield(s.entity, s.value) {
				return
			}
		}
	}
}
