package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/plus3/hello/app"
	"github.com/plus3/hello/ecs"
	ebitenhost "github.com/plus3/hello/host/ebiten"
	"github.com/plus3/hello/internal/config"
	"github.com/plus3/hello/internal/greeter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(run(cfg, os.Stdout, os.Stderr))
}

// run builds the app from cfg and blocks until it stops. It returns the
// process exit code; a fatal fault is reported as one line on stderr.
func run(cfg config.Config, stdout, stderr io.Writer, plugins ...app.Plugin) int {
	// Load validated these already.
	level, _ := cfg.Level()
	interval, _ := cfg.Interval()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true}).
		Level(level).
		With().Timestamp().Logger()

	a := app.New(
		ecs.WithLogger(logger),
		ecs.WithMaxTicks(cfg.Ticks),
		ecs.WithTickInterval(interval),
	).AddPlugins(greeter.Plugin{Out: stdout}).
		AddPlugins(plugins...)

	var err error
	if cfg.Window {
		err = ebitenhost.Run(a, ebitenhost.Options{Title: "hello", Width: 640, Height: 480})
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = a.RunContext(ctx)
		stop()
	}

	if err != nil {
		fmt.Fprintf(stderr, "hello: %v\n", err)
		return 1
	}
	return 0
}
