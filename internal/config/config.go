// Package config loads the environment configuration of the binaries.
package config

import (
	"time"

	jlconfig "github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config is read from HELLO_* environment variables. Unset variables keep
// the defaults from Default.
type Config struct {
	// Ticks bounds the headless loop. Zero runs until interrupted.
	Ticks uint64 `config:"HELLO_TICKS"`
	// TickInterval is a Go duration pacing the headless loop. Empty or zero
	// runs ticks back to back.
	TickInterval string `config:"HELLO_TICK_INTERVAL"`
	// Window drives the loop from a window instead of running headless.
	Window   bool   `config:"HELLO_WINDOW"`
	LogLevel string `config:"HELLO_LOG_LEVEL"`
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		LogLevel: zerolog.WarnLevel.String(),
	}
}

// Load reads the environment over the defaults and validates the result.
func Load() (Config, error) {
	cfg := Default()
	if err := jlconfig.FromEnv().To(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to read environment")
	}

	if _, err := cfg.Interval(); err != nil {
		return cfg, err
	}
	if _, err := cfg.Level(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Interval parses TickInterval.
func (c Config) Interval() (time.Duration, error) {
	if c.TickInterval == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid HELLO_TICK_INTERVAL %q", c.TickInterval)
	}
	if d < 0 {
		return 0, eris.Errorf("HELLO_TICK_INTERVAL must not be negative, got %s", d)
	}
	return d, nil
}

// Level parses LogLevel.
func (c Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, eris.Wrapf(err, "invalid HELLO_LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}
