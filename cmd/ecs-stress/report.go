package main

import (
	"cmp"
	"io"
	"math"
	"slices"
	"text/template"
	"time"

	"github.com/plus3/hello/ecs"
)

// FrameTimes holds the wall time of every tick of a run.
type FrameTimes []time.Duration

// Percentile returns the nearest-rank percentile p, with p in [0, 100].
func (f FrameTimes) Percentile(p float64) time.Duration {
	if len(f) == 0 {
		return 0
	}
	sorted := slices.Sorted(slices.Values(f))
	rank := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(rank, len(sorted)-1))]
}

func (f FrameTimes) Max() time.Duration {
	if len(f) == 0 {
		return 0
	}
	return slices.Max(f)
}

// NameStats summarizes the named entities alive at the end of a run.
type NameStats struct {
	Total    int
	Distinct int
	Scored   int
	Longest  string
}

func collectNames(w *ecs.World) NameStats {
	var stats NameStats
	seen := make(map[string]struct{})
	for item := range ecs.NewView[scoredName](w).Values() {
		name := item.MyName.Name
		stats.Total++
		seen[name] = struct{}{}
		if item.Score != nil {
			stats.Scored++
		}
		if len(name) > len(stats.Longest) {
			stats.Longest = name
		}
	}
	stats.Distinct = len(seen)
	return stats
}

// Report collects the results of one stress run.
type Report struct {
	Duration time.Duration
	Entities int
	Systems  int
	Churn    int

	Ticks     uint64
	Elapsed   time.Duration
	Respawned int
	Frames    FrameTimes
	Names     NameStats
	Scheduler *ecs.SchedulerStats
	World     *ecs.WorldStats

	GCPauseMetrics bool
	HeapBefore     uint64
	HeapAfter      uint64
	GCCycles       uint32
	GCPause        time.Duration
}

// TicksPerSecond is the achieved tick rate.
func (r *Report) TicksPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ticks) / r.Elapsed.Seconds()
}

const reportTemplate = `
# ECS Stress Test Report

## Run
- **Duration:** {{.Duration}} ({{.Elapsed}} measured)
- **Initial Named Entities:** {{.Entities}}
- **View Systems:** {{.Systems}}, churn {{.Churn}}/tick
- **Ticks:** {{.Ticks}} ({{printf "%.1f" .TicksPerSecond}}/s)
- **Frame Time:** p50 {{.Frames.Percentile 50}}, p99 {{.Frames.Percentile 99}}, max {{.Frames.Max}}
- **Respawned:** {{.Respawned}}

## Names
- {{.Names.Total}} alive, {{.Names.Distinct}} distinct, {{.Names.Scored}} scored
{{- with .Names.Longest}}
- Longest: "Hello, my name is {{.}}"
{{- end}}

## Storage
- **Live Entities:** {{.World.EntityCount}}
{{range .World.Components}}- {{.Type}}: {{.Count}} live in {{.Slots}} slots ({{tombstones .}} awaiting compaction)
{{end}}
## Slowest Systems
{{range slowest .Scheduler.Systems 5}}- {{.Name}}: avg {{.AvgDuration}}, max {{.MaxDuration}} over {{.ExecutionCount}} runs
{{end}}
## Heap
- {{.HeapBefore}} -> {{.HeapAfter}} bytes, {{.GCCycles}} GC cycles
{{- if .GCPauseMetrics}}, {{.GCPause}} paused{{end}}
`

var reportFuncs = template.FuncMap{
	"tombstones": func(c ecs.ComponentStats) int {
		return c.Slots - c.Count
	},
	"slowest": func(systems []ecs.SystemStats, n int) []ecs.SystemStats {
		sorted := slices.Clone(systems)
		slices.SortFunc(sorted, func(a, b ecs.SystemStats) int {
			return cmp.Compare(b.AvgDuration, a.AvgDuration)
		})
		return sorted[:min(n, len(sorted))]
	},
}

// Generate renders the report as markdown.
func (r *Report) Generate(w io.Writer) error {
	tmpl, err := template.New("report").Funcs(reportFuncs).Parse(reportTemplate)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, r)
}
