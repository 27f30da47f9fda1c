package ecs

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State is the lifecycle state of a Scheduler.
type State int32

const (
	// Configuring accepts system registrations.
	Configuring State = iota
	// StartupRunning is running the startup systems.
	StartupRunning
	// UpdateLooping runs update systems once per tick.
	UpdateLooping
	// Stopped is terminal. A stopped scheduler cannot be restarted.
	Stopped
)

func (s State) String() string {
	switch s {
	case Configuring:
		return "configuring"
	case StartupRunning:
		return "startup"
	case UpdateLooping:
		return "updating"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Phase names the registry a system belongs to.
type Phase string

const (
	Startup Phase = "startup"
	Update  Phase = "update"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for system faults and lifecycle events.
// The default is the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithErrorHandler replaces the default fault reporting, which logs the error
// at error level. The handler sees non-fatal faults only.
func WithErrorHandler(fn func(system string, err error)) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// WithMaxTicks stops the scheduler after n update ticks. Zero means unbounded.
func WithMaxTicks(n uint64) Option {
	return func(s *Scheduler) {
		s.maxTicks = n
	}
}

// WithTickInterval paces Run with a ticker. Zero runs ticks back to back.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = d
	}
}

type registeredSystem struct {
	name   string
	phase  Phase
	system System
	stats  *systemStatsInternal
}

// Scheduler runs startup systems once, then update systems once per tick, in
// registration order, until a stop is requested.
// All systems run on the goroutine that drives the scheduler.
type Scheduler struct {
	world   *World
	startup []*registeredSystem
	update  []*registeredSystem

	state         State
	tick          uint64
	stopRequested atomic.Bool

	logger   zerolog.Logger
	onError  func(system string, err error)
	maxTicks uint64
	interval time.Duration
}

// NewScheduler creates a scheduler driving the given world.
func NewScheduler(world *World, opts ...Option) *Scheduler {
	s := &Scheduler{
		world:  world,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.onError == nil {
		s.onError = func(system string, err error) {
			s.logger.Error().Err(err).Str("system", system).Msg("system returned an error")
		}
	}
	return s
}

// RegisterStartup appends systems to the startup phase.
func (s *Scheduler) RegisterStartup(systems ...System) error {
	return s.register(Startup, &s.startup, systems)
}

// RegisterUpdate appends systems to the update phase.
func (s *Scheduler) RegisterUpdate(systems ...System) error {
	return s.register(Update, &s.update, systems)
}

func (s *Scheduler) register(phase Phase, registry *[]*registeredSystem, systems []System) error {
	if s.state != Configuring {
		return eris.Wrapf(ErrRegistrationClosed, "cannot register %s systems, scheduler is %s", phase, s.state)
	}

	for _, system := range systems {
		if system == nil {
			panic("cannot register a nil system")
		}
		name := systemName(system)
		*registry = append(*registry, &registeredSystem{
			name:   name,
			phase:  phase,
			system: system,
			stats:  newSystemStats(name),
		})
	}
	return nil
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return s.state
}

// Tick returns the number of update ticks started so far.
func (s *Scheduler) Tick() uint64 {
	return s.tick
}

// World returns the world the scheduler drives.
func (s *Scheduler) World() *World {
	return s.world
}

// RequestStop asks the scheduler to stop. It is idempotent and safe to call
// from any goroutine; the flag is only read between ticks.
func (s *Scheduler) RequestStop() {
	s.stopRequested.Store(true)
}

// Stop moves the scheduler straight to Stopped. Hosts call it between ticks,
// for example when their window closes; systems use RequestStop instead.
func (s *Scheduler) Stop() {
	s.RequestStop()
	s.stop()
}

func (s *Scheduler) stop() {
	if s.state == Stopped {
		return
	}
	s.state = Stopped
	s.logger.Debug().Uint64("ticks", s.tick).Msg("scheduler stopped")
}

// Start runs every startup system once, in registration order. On return the
// scheduler is UpdateLooping, or Stopped when no update system is registered or
// a startup system failed fatally, in which case that error is returned.
func (s *Scheduler) Start() error {
	switch s.state {
	case Configuring:
	case Stopped:
		return ErrSchedulerStopped
	default:
		return ErrSchedulerStarted
	}

	s.state = StartupRunning
	s.logger.Debug().
		Int("startup_systems", len(s.startup)).
		Int("update_systems", len(s.update)).
		Msg("running startup systems")

	if err := s.runPhase(newUpdateFrame(s, 0, 0), s.startup); err != nil {
		s.stop()
		return err
	}

	if len(s.update) == 0 {
		s.stop()
		return nil
	}

	s.state = UpdateLooping
	return nil
}

// Step runs one tick: every update system once, in registration order. The
// stop flag and the tick limit are checked before the tick begins, never in the
// middle of one. Step reports whether the scheduler is still running; after a
// fatal fault it returns the fault and the scheduler is Stopped.
func (s *Scheduler) Step(dt float64) (bool, error) {
	switch s.state {
	case UpdateLooping:
	case Stopped:
		return false, nil
	default:
		return false, eris.Wrapf(ErrSchedulerNotStarted, "scheduler is %s", s.state)
	}

	if s.stopRequested.Load() || (s.maxTicks > 0 && s.tick >= s.maxTicks) {
		s.stop()
		return false, nil
	}

	s.tick++
	clock := InitResource[Time](s.world)
	clock.Tick = s.tick
	clock.Delta = dt
	clock.Elapsed += dt

	if err := s.runPhase(newUpdateFrame(s, s.tick, dt), s.update); err != nil {
		s.stop()
		return false, err
	}
	return true, nil
}

// Run starts the scheduler and loops over ticks until a stop is requested, the
// tick limit is reached, ctx is cancelled or a system fails fatally. It blocks
// the calling goroutine and returns nil on a clean stop.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	var tickC <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	lastTime := time.Now()
	for {
		if tickC != nil {
			select {
			case <-ctx.Done():
			case <-tickC:
			}
		}
		if ctx.Err() != nil {
			s.RequestStop()
		}

		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		running, err := s.Step(dt)
		if err != nil {
			return err
		}
		if !running {
			return nil
		}
	}
}

func (s *Scheduler) runPhase(frame *UpdateFrame, systems []*registeredSystem) error {
	for _, sys := range systems {
		err := s.execute(frame, sys)
		if err == nil {
			continue
		}

		var fatal *fatalError
		if errors.As(err, &fatal) {
			s.logger.Debug().Err(err).Str("system", sys.name).Msg("fatal system fault")
			return eris.Wrapf(fatal.err, "%s system %s failed", sys.phase, sys.name)
		}
		s.onError(sys.name, err)
	}
	return nil
}

// execute runs one system and flushes its commands. Flush failures are reported
// on their own, so a fatal system error never hides them. A panic is recovered
// and turned into a fatal error.
func (s *Scheduler) execute(frame *UpdateFrame, sys *registeredSystem) (err error) {
	frame.Logger = s.logger.With().Str("system", sys.name).Logger()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			frame.Commands.reset()
			err = Fatal(panicError(r))
		}
		sys.stats.record(time.Since(start))
	}()

	err = sys.system.Execute(frame)
	if flushErr := frame.Commands.Flush(); flushErr != nil {
		s.onError(sys.name, flushErr)
	}
	return err
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return eris.Wrap(err, "panic")
	}
	return eris.Wrapf(ErrSystemPanic, "%v", r)
}
