package ecs

import (
	"errors"

	"github.com/rotisserie/eris"
)

var (
	// ErrRegistrationClosed is returned when a system is registered after the scheduler left Configuring.
	ErrRegistrationClosed = eris.New("systems can only be registered before the scheduler starts")
	// ErrSchedulerStarted is returned by Start when the scheduler is already running.
	ErrSchedulerStarted = eris.New("scheduler has already been started")
	// ErrSchedulerNotStarted is returned by Step before Start has completed.
	ErrSchedulerNotStarted = eris.New("scheduler has not been started")
	// ErrSchedulerStopped is returned when a stopped scheduler is asked to start again.
	ErrSchedulerStopped = eris.New("scheduler is stopped")
	// ErrEntityNotLive is returned when an operation targets a despawned or unknown entity.
	ErrEntityNotLive = eris.New("entity is not live")
	// ErrBorrowConflict is the panic value raised when two queries of one component kind overlap
	// and at least one of them is mutable.
	ErrBorrowConflict = eris.New("overlapping borrow of component kind")
	// ErrSystemPanic wraps non-error panic values recovered from a system.
	ErrSystemPanic = eris.New("system panicked")
)

type fatalError struct {
	err error
}

func (f *fatalError) Error() string { return f.err.Error() }
func (f *fatalError) Unwrap() error { return f.err }

// Fatal marks err as fatal. A system returning a fatal error stops the scheduler.
// Fatal(nil) is nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	if IsFatal(err) {
		return err
	}
	return &fatalError{err: err}
}

// IsFatal reports whether any error in err's chain was marked with Fatal.
func IsFatal(err error) bool {
	var f *fatalError
	return errors.As(err, &f)
}
