package ecs_test

import (
	"bytes"
	"strings"

	"github.com/rs/zerolog"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

// Custom primitive types for testing non-struct components
type Score int32
type Tag string

// newTestLogger returns an info level logger writing one line per event into buf.
func newTestLogger(buf *bytes.Buffer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: buf, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}).
		Level(zerolog.InfoLevel)
}

func lines(buf *bytes.Buffer) []string {
	trimmed := strings.TrimSpace(buf.String())
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}
