// Package greeter is the demonstration game: it spawns named entities at
// startup and has every one of them introduce itself on each tick.
package greeter

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"

	"github.com/plus3/hello/app"
	"github.com/plus3/hello/ecs"
)

// DefaultName is the name given to the single entity of the demonstration.
const DefaultName = "Pedro"

// MyName names an entity.
type MyName struct {
	Name string
}

func (n MyName) String() string {
	return n.Name
}

// SpawnNames returns a startup system that spawns one MyName entity per name,
// in order.
func SpawnNames(names ...string) ecs.System {
	return ecs.Named("spawn_names", ecs.SystemFunc(func(frame *ecs.UpdateFrame) error {
		for _, name := range names {
			frame.Commands.Spawn(MyName{Name: name})
		}
		frame.Logger.Debug().Int("count", len(names)).Msg("spawned named entities")
		return nil
	}))
}

// Greeter writes one greeting line per named entity every tick.
type Greeter struct {
	Out io.Writer
}

func (g *Greeter) Execute(frame *ecs.UpdateFrame) error {
	for _, name := range ecs.Query[MyName](frame.World) {
		if _, err := fmt.Fprintf(g.Out, "Hello, my name is %s\n", name.Name); err != nil {
			return eris.Wrap(err, "failed to write greeting")
		}
	}
	return nil
}

// Plugin registers the startup spawn and the greeting system.
type Plugin struct {
	Out io.Writer
	// Names defaults to a single DefaultName.
	Names []string
}

func (p Plugin) Build(a *app.App) {
	names := p.Names
	if len(names) == 0 {
		names = []string{DefaultName}
	}

	a.AddStartup(SpawnNames(names...)).
		AddUpdate(&Greeter{Out: p.Out})
}
