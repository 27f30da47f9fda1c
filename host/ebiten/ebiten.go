// Package ebiten drives an App from an Ebiten game loop. The window only
// supplies ticks and the stop signal; nothing is rendered.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/plus3/hello/app"
)

// Options configures the host window.
type Options struct {
	Title  string
	Width  int
	Height int
}

// Game implements ebiten.Game by stepping the app's scheduler once per update.
type Game struct {
	app     *app.App
	started bool
}

// NewGame wraps an app that has not been started yet.
func NewGame(a *app.App) *Game {
	return &Game{app: a}
}

// Update runs the startup systems on the first call and one tick per call.
// It ends the game loop once the scheduler stops.
func (g *Game) Update() error {
	scheduler := g.app.Scheduler()
	if !g.started {
		g.started = true
		if err := scheduler.Start(); err != nil {
			return err
		}
	}

	running, err := scheduler.Step(1 / float64(ebiten.TPS()))
	if err != nil {
		return err
	}
	if !running {
		return ebiten.Termination
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Run opens the window and blocks until the app stops or the window is
// closed. Closing the window stops the app.
func Run(a *app.App, opts Options) error {
	if opts.Width > 0 && opts.Height > 0 {
		ebiten.SetWindowSize(opts.Width, opts.Height)
	}
	if opts.Title != "" {
		ebiten.SetWindowTitle(opts.Title)
	}

	err := ebiten.RunGame(NewGame(a))
	a.Scheduler().Stop()
	return err
}
