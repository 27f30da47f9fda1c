package ecs

import "github.com/rs/zerolog"

// UpdateFrame is the borrowed view of the world handed to a system. It must
// not be retained after Execute returns.
type UpdateFrame struct {
	// Tick is 0 during the startup phase and counts from 1 during updates.
	Tick      uint64
	DeltaTime float64
	World     *World
	Commands  *Commands
	// Logger carries a "system" field naming the running system.
	Logger zerolog.Logger

	scheduler *Scheduler
}

func newUpdateFrame(s *Scheduler, tick uint64, dt float64) *UpdateFrame {
	return &UpdateFrame{
		Tick:      tick,
		DeltaTime: dt,
		World:     s.world,
		Commands:  NewCommands(s.world),
		Logger:    s.logger,
		scheduler: s,
	}
}

// RequestStop asks the scheduler to stop at the next tick boundary. The
// current tick still runs every remaining system.
func (f *UpdateFrame) RequestStop() {
	f.scheduler.RequestStop()
}
