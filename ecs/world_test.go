package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/hello/ecs"
)

func collect[T any](w *ecs.World) ([]ecs.Entity, []T) {
	var entities []ecs.Entity
	var values []T
	for e, value := range ecs.Query[T](w) {
		entities = append(entities, e)
		values = append(values, *value)
	}
	return entities, values
}

func recoverError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err, _ = r.(error)
		}
	}()
	fn()
	return nil
}

func TestSpawn(t *testing.T) {
	t.Run("ids are dense and start at one", func(t *testing.T) {
		w := ecs.NewWorld()
		assert.Equal(t, ecs.Entity(1), w.Spawn(Name{"a"}))
		assert.Equal(t, ecs.Entity(2), w.Spawn(Name{"b"}))
		assert.Equal(t, ecs.Entity(3), w.Spawn())
		assert.Equal(t, 3, w.Len())
	})

	t.Run("spawn then query yields the value once", func(t *testing.T) {
		w := ecs.NewWorld()
		e := w.Spawn(Position{X: 1, Y: 2}, Velocity{DX: 3, DY: 4})

		entities, positions := collect[Position](w)
		assert.Equal(t, []ecs.Entity{e}, entities)
		assert.Equal(t, []Position{{X: 1, Y: 2}}, positions)

		entities, velocities := collect[Velocity](w)
		assert.Equal(t, []ecs.Entity{e}, entities)
		assert.Equal(t, []Velocity{{DX: 3, DY: 4}}, velocities)
	})

	t.Run("pointer components are copied", func(t *testing.T) {
		w := ecs.NewWorld()
		pos := &Position{X: 1}
		e := w.Spawn(pos)
		pos.X = 99

		got, err := ecs.Get[Position](w, e)
		require.NoError(t, err)
		assert.Equal(t, float32(1), got.X)
	})

	t.Run("primitive components", func(t *testing.T) {
		w := ecs.NewWorld()
		e := w.Spawn(Score(7), Tag("hero"))

		score, err := ecs.Get[Score](w, e)
		require.NoError(t, err)
		assert.Equal(t, Score(7), *score)
		assert.True(t, ecs.Has[Tag](w, e))
	})

	t.Run("duplicate kind in bundle keeps the last", func(t *testing.T) {
		w := ecs.NewWorld()
		e := w.Spawn(Name{"first"}, Name{"second"})

		name, err := ecs.Get[Name](w, e)
		require.NoError(t, err)
		assert.Equal(t, "second", name.Value)
		assert.Equal(t, 1, ecs.Count[Name](w))
	})

	t.Run("invalid components panic", func(t *testing.T) {
		w := ecs.NewWorld()
		assert.Panics(t, func() { w.Spawn(map[string]int{}) })
		assert.Panics(t, func() { w.Spawn(func() {}) })
		assert.Panics(t, func() { w.Spawn(nil) })
		assert.Panics(t, func() { w.Spawn((*Position)(nil)) })
	})
}

func TestAttach(t *testing.T) {
	t.Run("overwrite is observable on next query", func(t *testing.T) {
		w := ecs.NewWorld()
		e := w.Spawn(Name{"v1"})

		require.NoError(t, w.Attach(e, Name{"v2"}))

		_, names := collect[Name](w)
		assert.Equal(t, []Name{{"v2"}}, names)
	})

	t.Run("overwrite keeps earlier pointers valid", func(t *testing.T) {
		w := ecs.NewWorld()
		e := w.Spawn(Health{Current: 1, Max: 10})
		before, err := ecs.Get[Health](w, e)
		require.NoError(t, err)

		require.NoError(t, ecs.Attach(w, e, Health{Current: 5, Max: 10}))
		assert.Equal(t, 5, before.Current)
	})

	t.Run("adds a new kind", func(t *testing.T) {
		w := ecs.NewWorld()
		e := w.Spawn(Position{})
		require.NoError(t, w.Attach(e, Velocity{DX: 1}))
		assert.True(t, ecs.Has[Velocity](w, e))
	})

	t.Run("dead entity", func(t *testing.T) {
		w := ecs.NewWorld()
		err := w.Attach(ecs.Entity(42), Name{"ghost"})
		assert.ErrorIs(t, err, ecs.ErrEntityNotLive)
		assert.Equal(t, 0, ecs.Count[Name](w))

		e := w.Spawn(Name{"gone"})
		require.NoError(t, w.Despawn(e))
		assert.ErrorIs(t, w.Attach(e, Name{"back"}), ecs.ErrEntityNotLive)
	})
}

func TestDespawnAndDetach(t *testing.T) {
	w := ecs.NewWorld()
	a := w.Spawn(Name{"a"}, Position{})
	b := w.Spawn(Name{"b"})
	c := w.Spawn(Name{"c"}, Position{})

	require.NoError(t, w.Despawn(b))
	assert.False(t, w.IsAlive(b))
	assert.ErrorIs(t, w.Despawn(b), ecs.ErrEntityNotLive)

	entities, _ := collect[Name](w)
	assert.Equal(t, []ecs.Entity{a, c}, entities)

	removed, err := ecs.Detach[Position](w, a)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = ecs.Detach[Position](w, a)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = ecs.Detach[Position](w, b)
	assert.ErrorIs(t, err, ecs.ErrEntityNotLive)

	entities, _ = collect[Position](w)
	assert.Equal(t, []ecs.Entity{c}, entities)
	assert.True(t, w.IsAlive(a))

	got, err := ecs.Get[Name](w, b)
	assert.ErrorIs(t, err, ecs.ErrEntityNotLive)
	assert.Nil(t, got)

	// despawned ids are never reused
	assert.Equal(t, ecs.Entity(4), w.Spawn(Name{"d"}))
}

func TestGetMissingComponent(t *testing.T) {
	w := ecs.NewWorld()
	e := w.Spawn(Position{})

	got, err := ecs.Get[Velocity](w, e)
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, ecs.Has[Velocity](w, e))
}

func TestQuery(t *testing.T) {
	t.Run("empty world yields nothing", func(t *testing.T) {
		w := ecs.NewWorld()
		count := 0
		for range ecs.Query[Name](w) {
			count++
		}
		assert.Zero(t, count)
	})

	t.Run("insertion order", func(t *testing.T) {
		w := ecs.NewWorld()
		a := w.Spawn(Name{"A"})
		b := w.Spawn(Name{"B"})
		c := w.Spawn(Name{"C"})

		entities, names := collect[Name](w)
		assert.Equal(t, []ecs.Entity{a, b, c}, entities)
		assert.Equal(t, []Name{{"A"}, {"B"}, {"C"}}, names)
	})

	t.Run("order follows when the kind was attached", func(t *testing.T) {
		w := ecs.NewWorld()
		a := w.Spawn(Position{})
		b := w.Spawn(Name{"b"})
		require.NoError(t, w.Attach(a, Name{"a"}))

		entities, _ := collect[Name](w)
		assert.Equal(t, []ecs.Entity{b, a}, entities)
	})

	t.Run("unrelated kinds do not leak in", func(t *testing.T) {
		w := ecs.NewWorld()
		a := w.Spawn(Name{"a"})
		w.Spawn(Position{})
		b := w.Spawn(Name{"b"}, Velocity{})
		w.Spawn(Velocity{})
		require.NoError(t, w.Attach(a, Position{X: 1}))

		seen := map[ecs.Entity]int{}
		for e := range ecs.Query[Name](w) {
			seen[e]++
		}
		assert.Equal(t, map[ecs.Entity]int{a: 1, b: 1}, seen)
	})

	t.Run("mutation through query is visible", func(t *testing.T) {
		w := ecs.NewWorld()
		w.Spawn(Position{X: 1})
		w.Spawn(Position{X: 2})

		for _, pos := range ecs.QueryMut[Position](w) {
			pos.X *= 10
		}

		_, positions := collect[Position](w)
		assert.Equal(t, []Position{{X: 10}, {X: 20}}, positions)
	})

	t.Run("early break releases the borrow", func(t *testing.T) {
		w := ecs.NewWorld()
		w.Spawn(Name{"a"})
		w.Spawn(Name{"b"})

		for range ecs.QueryMut[Name](w) {
			break
		}
		assert.NotPanics(t, func() {
			for range ecs.QueryMut[Name](w) {
			}
		})
	})

	t.Run("spawn during iteration is not visited", func(t *testing.T) {
		w := ecs.NewWorld()
		w.Spawn(Name{"a"})
		w.Spawn(Name{"b"})

		visited := 0
		for range ecs.Query[Name](w) {
			visited++
			w.Spawn(Name{"late"})
		}
		assert.Equal(t, 2, visited)
		assert.Equal(t, 4, ecs.Count[Name](w))
	})

	t.Run("despawn during iteration skips the entity", func(t *testing.T) {
		w := ecs.NewWorld()
		a := w.Spawn(Name{"a"})
		b := w.Spawn(Name{"b"})
		c := w.Spawn(Name{"c"})

		var entities []ecs.Entity
		for e := range ecs.Query[Name](w) {
			entities = append(entities, e)
			if e == a {
				require.NoError(t, w.Despawn(b))
			}
		}
		assert.Equal(t, []ecs.Entity{a, c}, entities)
	})

	t.Run("values", func(t *testing.T) {
		w := ecs.NewWorld()
		w.Spawn(Health{Current: 3})
		w.Spawn(Health{Current: 4})

		total := 0
		for health := range ecs.Values[Health](w) {
			total += health.Current
		}
		assert.Equal(t, 7, total)
	})
}

func TestQueryBorrows(t *testing.T) {
	w := ecs.NewWorld()
	w.Spawn(Name{"a"}, Position{})

	t.Run("overlapping mutable queries panic", func(t *testing.T) {
		err := recoverError(func() {
			for range ecs.QueryMut[Name](w) {
				for range ecs.QueryMut[Name](w) {
				}
			}
		})
		assert.ErrorIs(t, err, ecs.ErrBorrowConflict)
	})

	t.Run("shared inside mutable panics", func(t *testing.T) {
		assert.Panics(t, func() {
			for range ecs.QueryMut[Name](w) {
				for range ecs.Query[Name](w) {
				}
			}
		})
	})

	t.Run("mutable inside shared panics", func(t *testing.T) {
		assert.Panics(t, func() {
			for range ecs.Query[Name](w) {
				for range ecs.QueryMut[Name](w) {
				}
			}
		})
	})

	t.Run("nested shared queries are fine", func(t *testing.T) {
		assert.NotPanics(t, func() {
			for range ecs.Query[Name](w) {
				for range ecs.Query[Name](w) {
				}
			}
		})
	})

	t.Run("different kinds do not conflict", func(t *testing.T) {
		assert.NotPanics(t, func() {
			for range ecs.QueryMut[Name](w) {
				for range ecs.QueryMut[Position](w) {
				}
			}
		})
	})

	t.Run("borrows are released after a panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			for range ecs.QueryMut[Name](w) {
			}
		})
	})
}

func TestCompactionKeepsOrder(t *testing.T) {
	w := ecs.NewWorld()

	var all []ecs.Entity
	for i := 0; i < 200; i++ {
		all = append(all, w.Spawn(Score(i)))
	}

	var kept []ecs.Entity
	for i, e := range all {
		if i%3 == 0 {
			kept = append(kept, e)
			continue
		}
		require.NoError(t, w.Despawn(e))
	}

	entities, scores := collect[Score](w)
	assert.Equal(t, kept, entities)
	for i, score := range scores {
		assert.Equal(t, Score(i*3), score)
	}

	stats := w.CollectStats()
	require.Len(t, stats.Components, 1)
	assert.Equal(t, len(kept), stats.Components[0].Count)
	assert.Less(t, stats.Components[0].Slots, len(all))

	for _, e := range kept {
		got, err := ecs.Get[Score](w, e)
		require.NoError(t, err)
		assert.Equal(t, Score(e-1), *got)
	}
}
