package ecs

import (
	"sort"
	"time"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	State           State
	Ticks           uint64
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Phase          Phase
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func newSystemStats(name string) *systemStatsInternal {
	return &systemStatsInternal{
		name:        name,
		minDuration: time.Duration(1<<63 - 1),
	}
}

func (st *systemStatsInternal) record(duration time.Duration) {
	st.executionCount++
	st.lastDuration = duration
	st.totalDuration += duration

	if duration < st.minDuration {
		st.minDuration = duration
	}
	if duration > st.maxDuration {
		st.maxDuration = duration
	}
}

// Stats returns statistics about system execution, startup systems first.
func (s *Scheduler) Stats() *SchedulerStats {
	stats := &SchedulerStats{
		State:       s.state,
		Ticks:       s.tick,
		SystemCount: len(s.startup) + len(s.update),
		Systems:     make([]SystemStats, 0, len(s.startup)+len(s.update)),
	}

	for _, registry := range [][]*registeredSystem{s.startup, s.update} {
		for _, sys := range registry {
			internal := sys.stats

			minDuration := internal.minDuration
			avgDuration := time.Duration(0)
			if internal.executionCount > 0 {
				avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
			} else {
				minDuration = 0
			}

			stats.Systems = append(stats.Systems, SystemStats{
				Name:           internal.name,
				Phase:          sys.phase,
				ExecutionCount: internal.executionCount,
				MinDuration:    minDuration,
				MaxDuration:    internal.maxDuration,
				AvgDuration:    avgDuration,
				LastDuration:   internal.lastDuration,
				TotalDuration:  internal.totalDuration,
			})
			stats.TotalExecutions += internal.executionCount
		}
	}

	return stats
}

// WorldStats summarizes what a world holds.
type WorldStats struct {
	EntityCount   int
	ResourceCount int
	Components    []ComponentStats
}

// ComponentStats describes the storage of one component type.
type ComponentStats struct {
	Type  string
	Count int
	// Slots includes tombstoned slots not yet compacted.
	Slots int
}

// CollectStats gathers storage statistics, with component types sorted by name.
func (w *World) CollectStats() *WorldStats {
	stats := &WorldStats{
		EntityCount:   w.Len(),
		ResourceCount: len(w.resources),
		Components:    make([]ComponentStats, 0, len(w.columns)),
	}

	for typ, c := range w.columns {
		stats.Components = append(stats.Components, ComponentStats{
			Type:  typ.String(),
			Count: c.len(),
			Slots: len(c.slots),
		})
	}

	sort.Slice(stats.Components, func(i, j int) bool {
		return stats.Components[i].Type < stats.Components[j].Type
	})
	return stats
}
