package cubos_test

import (
	"context"
	"testing"

	"github.com/cubos-go/ecs"
	"github.com/cubos-go/ecs/cubos"
)

type Position struct{ X, Y float64 }

func TestDriverStartupInstallsPluginsInDependencyOrder(t *testing.T) {
	var order []string

	d := cubos.NewDriver(nil)
	d.Use(cubos.Plugin{
		Name:     "physics",
		Requires: []string{"transform"},
		Install: func(w *ecs.World, systems *ecs.SystemRegistry) error {
			order = append(order, "physics")
			return nil
		},
	})
	d.Use(cubos.Plugin{
		Name:     "transform",
		Provides: []string{"transform"},
		Install: func(w *ecs.World, systems *ecs.SystemRegistry) error {
			order = append(order, "transform")
			_, err := ecs.RegisterComponent[Position](w)
			return err
		},
	})

	if err := d.Startup(); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if len(order) != 2 || order[0] != "transform" || order[1] != "physics" {
		t.Errorf("got plugin order %v, want [transform physics]", order)
	}
}

func TestDriverFrameRunsScheduledSystems(t *testing.T) {
	d := cubos.NewDriver(nil)
	ran := false
	d.Use(cubos.Plugin{
		Name: "counter",
		Install: func(w *ecs.World, systems *ecs.SystemRegistry) error {
			systems.Register("tick", func(w *ecs.World, cmd ecs.Commands) error {
				ran = true
				return nil
			})
			return nil
		},
	})
	if err := d.Startup(); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if err := d.Frame(context.Background(), 0); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if !ran {
		t.Errorf("expected the registered system to run during Frame")
	}
	if d.Clock.Tick != 1 {
		t.Errorf("got clock tick %d, want 1", d.Clock.Tick)
	}
}
