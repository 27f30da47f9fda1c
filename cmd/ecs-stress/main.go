package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/plus3/hello/ecs"
	"github.com/plus3/hello/internal/greeter"
)

// Score is attached to a random subset of entities so queries see more than one kind.
type Score struct {
	Points int
}

type scoredName struct {
	*greeter.MyName
	Score *Score `ecs:"optional"`
}

// countSystem walks every named entity, touching the optional score.
type countSystem struct {
	view *ecs.View[scoredName]
	seen int
}

func (s *countSystem) Execute(frame *ecs.UpdateFrame) error {
	s.seen = 0
	for item := range s.view.Values() {
		s.seen += len(item.MyName.Name)
		if item.Score != nil {
			item.Score.Points++
		}
	}
	return nil
}

// churnSystem despawns and respawns a few entities per tick to exercise compaction.
type churnSystem struct {
	rate      int
	respawned int
}

func (s *churnSystem) Execute(frame *ecs.UpdateFrame) error {
	n := 0
	for e := range ecs.Query[Score](frame.World) {
		if n >= s.rate {
			break
		}
		frame.Commands.Despawn(e)
		frame.Commands.Spawn(greeter.MyName{Name: randomName()}, Score{})
		n++
	}
	s.respawned += n
	return nil
}

var syllables = []string{"pe", "dro", "ma", "ri", "a", "lu", "is", "jo", "se"}

func randomName() string {
	name := ""
	for i := rand.Intn(3) + 1; i > 0; i-- {
		name += syllables[rand.Intn(len(syllables))]
	}
	return name
}

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The initial number of entities to create.")
	systemCount := flag.Int("systems", 50, "The number of query systems to register.")
	churn := flag.Int("churn", 10, "Entities respawned per tick.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	log.Info().Msg("Starting ECS stress test...")

	// 1. Setup World and Scheduler
	world := ecs.NewWorld()
	scheduler := ecs.NewScheduler(world, ecs.WithLogger(log.Logger))
	for i := 0; i < *systemCount; i++ {
		system := &countSystem{view: ecs.NewView[scoredName](world)}
		if err := scheduler.RegisterUpdate(ecs.Named(fmt.Sprintf("count_%d", i), system)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register system")
		}
	}
	churner := &churnSystem{rate: *churn}
	if err := scheduler.RegisterUpdate(churner); err != nil {
		log.Fatal().Err(err).Msg("Failed to register system")
	}

	// 2. Populate the world with initial entities
	log.Info().Int("entities", *entityCount).Msg("Populating world...")
	for i := 0; i < *entityCount; i++ {
		if rand.Intn(2) == 0 {
			world.Spawn(greeter.MyName{Name: randomName()}, Score{})
		} else {
			world.Spawn(greeter.MyName{Name: randomName()})
		}
	}
	log.Info().Msg("Population complete.")

	// 3. Run the simulation loop
	report := &Report{
		Duration:       *duration,
		Entities:       *entityCount,
		Systems:        *systemCount,
		Churn:          *churn,
		GCPauseMetrics: *gcPauseMetrics,
	}

	var memBefore, memAfter runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	log.Info().Dur("duration", *duration).Msg("Running simulation...")
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			if _, err := scheduler.Step(deltaTime.Seconds()); err != nil {
				log.Fatal().Err(err).Msg("Tick failed")
			}
			report.Frames = append(report.Frames, time.Since(updateStart))
		}
	}
	scheduler.Stop()

	report.Elapsed = time.Since(startTime)
	report.Ticks = scheduler.Tick()
	report.Respawned = churner.respawned
	report.Names = collectNames(world)
	report.Scheduler = scheduler.Stats()
	report.World = world.CollectStats()

	runtime.ReadMemStats(&memAfter)
	report.HeapBefore = memBefore.HeapAlloc
	report.HeapAfter = memAfter.HeapAlloc
	report.GCCycles = memAfter.NumGC - memBefore.NumGC
	report.GCPause = time.Duration(memAfter.PauseTotalNs - memBefore.PauseTotalNs)

	log.Info().Msg("Simulation finished.")

	// 4. Generate Report to Console
	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Failed to generate report")
	}
	fmt.Println("--- End of Report ---")

	log.Info().Msg("Stress test complete.")
}
