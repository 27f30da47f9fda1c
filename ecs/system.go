package ecs

import (
	"path/filepath"
	"reflect"
	"runtime"
)

// System is a behavior registered with the Scheduler. Execute receives a frame
// giving it exclusive access to the world for the duration of the call.
// Systems may hold custom state fields that persist between ticks.
//
// A returned error is reported and the tick continues with the next system,
// unless the error was marked with Fatal, which stops the scheduler.
type System interface {
	Execute(frame *UpdateFrame) error
}

// SystemFunc adapts a plain function to the System interface.
type SystemFunc func(frame *UpdateFrame) error

// Execute calls f(frame).
func (f SystemFunc) Execute(frame *UpdateFrame) error {
	return f(frame)
}

type namedSystem struct {
	System
	name string
}

// Named gives a system an explicit name for logs and stats.
func Named(name string, system System) System {
	return namedSystem{System: system, name: name}
}

// systemName derives a name from the system: an explicit Named name, the
// function name of a SystemFunc, or the struct type name.
func systemName(system System) string {
	switch s := system.(type) {
	case namedSystem:
		return s.name
	case SystemFunc:
		// retrieves function name from system using a reflection trick
		return filepath.Base(runtime.FuncForPC(reflect.ValueOf(s).Pointer()).Name())
	}

	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	if name := systemType.Name(); name != "" {
		return name
	}
	return systemType.String()
}
