// Package app composes a World and a Scheduler behind a fluent registration
// surface and a single blocking Run.
package app

import (
	"context"

	"github.com/plus3/hello/ecs"
)

// App owns one World and the Scheduler that drives it.
type App struct {
	world     *ecs.World
	scheduler *ecs.Scheduler
}

// New creates an App with an empty World and an empty Scheduler configured
// with opts.
func New(opts ...ecs.Option) *App {
	world := ecs.NewWorld()
	return &App{
		world:     world,
		scheduler: ecs.NewScheduler(world, opts...),
	}
}

// AddStartup registers systems that run once, before the first tick.
// It panics if the app is already running.
func (a *App) AddStartup(systems ...ecs.System) *App {
	if err := a.scheduler.RegisterStartup(systems...); err != nil {
		panic(err)
	}
	return a
}

// AddUpdate registers systems that run once per tick.
// It panics if the app is already running.
func (a *App) AddUpdate(systems ...ecs.System) *App {
	if err := a.scheduler.RegisterUpdate(systems...); err != nil {
		panic(err)
	}
	return a
}

// AddPlugins builds each plugin against the app, in order.
func (a *App) AddPlugins(plugins ...Plugin) *App {
	for _, plugin := range plugins {
		plugin.Build(a)
	}
	return a
}

// Run blocks until the scheduler stops. It returns nil on a clean stop and the
// fault when a system failed fatally.
func (a *App) Run() error {
	return a.RunContext(context.Background())
}

// RunContext is Run with a context; cancelling it stops the app at the next
// tick boundary.
func (a *App) RunContext(ctx context.Context) error {
	return a.scheduler.Run(ctx)
}

// RequestStop asks the app to stop at the next tick boundary.
func (a *App) RequestStop() {
	a.scheduler.RequestStop()
}

func (a *App) World() *ecs.World {
	return a.world
}

func (a *App) Scheduler() *ecs.Scheduler {
	return a.scheduler
}
