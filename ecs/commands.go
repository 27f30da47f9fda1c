package ecs

import (
	"errors"
	"reflect"

	"github.com/rotisserie/eris"
)

// Commands buffers structural changes to the world. The Scheduler flushes the
// buffer right after the system that queued them returns, so the changes are
// visible to the next system. Operations are applied in the order they were queued.
type Commands struct {
	world *World
	ops   []command
}

type commandKind uint8

const (
	cmdSpawn commandKind = iota
	cmdAttach
	cmdDetach
	cmdDespawn
	cmdDefer
)

type command struct {
	kind       commandKind
	entity     Entity
	components []any
	compType   reflect.Type
	fn         func()
}

// NewCommands creates a command buffer for the world.
func NewCommands(w *World) *Commands {
	return &Commands{world: w}
}

// Spawn queues an entity spawn with the given components. The returned id is
// reserved immediately and may be used in later commands of this buffer; the
// entity becomes live when the buffer is flushed.
func (c *Commands) Spawn(components ...any) Entity {
	e := c.world.reserve()
	c.ops = append(c.ops, command{kind: cmdSpawn, entity: e, components: components})
	return e
}

// Attach queues adding or replacing a component on the entity.
func (c *Commands) Attach(e Entity, component any) {
	c.ops = append(c.ops, command{kind: cmdAttach, entity: e, components: []any{component}})
}

// Detach queues removing the component of the given type from the entity.
func (c *Commands) Detach(e Entity, compType reflect.Type) {
	c.ops = append(c.ops, command{kind: cmdDetach, entity: e, compType: compType})
}

// Despawn queues an entity removal.
func (c *Commands) Despawn(e Entity) {
	c.ops = append(c.ops, command{kind: cmdDespawn, entity: e})
}

// Defer queues a function to run during the flush.
func (c *Commands) Defer(fn func()) {
	c.ops = append(c.ops, command{kind: cmdDefer, fn: fn})
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.ops)
}

// Flush applies every queued operation and resets the buffer. Operations that
// fail, such as attaching to an entity that is no longer live, do not stop the
// flush; their errors are joined and returned. Operations queued by a deferred
// function run in the same flush, after everything queued before them.
func (c *Commands) Flush() error {
	var errs []error
	for i := 0; i < len(c.ops); i++ {
		if err := c.apply(c.ops[i]); err != nil {
			errs = append(errs, err)
		}
	}

	c.reset()
	return errors.Join(errs...)
}

func (c *Commands) apply(op command) error {
	w := c.world
	switch op.kind {
	case cmdSpawn:
		w.revive(op.entity)
		for _, component := range op.components {
			w.attach(op.entity, component)
		}
	case cmdAttach:
		return w.Attach(op.entity, op.components[0])
	case cmdDetach:
		if !w.IsAlive(op.entity) {
			return eris.Wrapf(ErrEntityNotLive, "detach %s from %s", op.compType, op.entity)
		}
		if col, ok := w.columns[op.compType]; ok {
			col.remove(op.entity)
		}
	case cmdDespawn:
		return w.Despawn(op.entity)
	case cmdDefer:
		op.fn()
	}
	return nil
}

// reset drops queued operations without applying them. Reserved ids of
// dropped spawns are never handed out again.
func (c *Commands) reset() {
	clear(c.ops)
	c.ops = c.ops[:0]
}
