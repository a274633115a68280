// Package cubos wires a World and a Scheduler into a runnable game loop:
// startup/frame phases, a plugin dependency graph that decides system
// registration order, and a diagnostics sink the Driver reports through
// instead of reaching for a global logger.
package cubos

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cubos-go/ecs"
)

// Level is a diagnostics severity, ordered least to most severe.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// Sink receives the Driver's diagnostic messages, including the errors a
// frame's Scheduler run returns; World and Scheduler hold no sink of
// their own. There is no package-level logger; every caller that wants to
// observe the engine's behavior supplies its own Sink.
type Sink func(level Level, format string, args ...any)

// DiscardSink drops every message; useful in tests that do not care
// about diagnostics output.
func DiscardSink(Level, string, ...any) {}

// Plugin declares a unit of startup-time registration (components,
// resources, systems) plus the tags it requires and provides, so the
// Driver can order plugin startup by dependency rather than by
// registration order.
type Plugin struct {
	Name     string
	Requires []string
	Provides []string
	Install  func(w *ecs.World, systems *ecs.SystemRegistry) error
}

// Clock is the logical simulation clock the Driver advances once per
// frame; it is independent of wall-clock time so a headless run (e.g. a
// test) can step it deterministically.
type Clock struct {
	Tick  uint64
	Delta time.Duration
}

// Driver owns a World, a SystemRegistry, a Scheduler, the logical clock
// and the diagnostics Sink it reports through.
type Driver struct {
	World     *ecs.World
	Systems   *ecs.SystemRegistry
	Scheduler *ecs.Scheduler
	Clock     Clock
	Sink      Sink

	plugins []Plugin
}

// NewDriver creates a Driver over a fresh World, with sink as its
// diagnostics output (DiscardSink if nil).
func NewDriver(sink Sink) *Driver {
	if sink == nil {
		sink = DiscardSink
	}
	w := ecs.NewWorld()
	systems := ecs.NewSystemRegistry()
	return &Driver{
		World:     w,
		Systems:   systems,
		Scheduler: ecs.NewScheduler(w, systems),
		Sink:      sink,
	}
}

// Use registers a plugin to be installed at Startup.
func (d *Driver) Use(p Plugin) *Driver {
	d.plugins = append(d.plugins, p)
	return d
}

// Startup installs every registered plugin in dependency order (a
// Requires/Provides DAG distinct from, and resolved before, the system
// scheduler's own ordering) and plans the schedule.
func (d *Driver) Startup() error {
	ordered, err := orderPlugins(d.plugins)
	if err != nil {
		return err
	}
	for _, p := range ordered {
		d.Sink(LevelInfo, "starting plugin %q", p.Name)
		if err := p.Install(d.World, d.Systems); err != nil {
			return fmt.Errorf("plugin %q: %w", p.Name, err)
		}
	}
	return d.Scheduler.Plan()
}

// Frame advances the logical clock by delta, runs one scheduler pass,
// then drains every event pipe's pruned-for-all-readers entries so a
// reader that fell behind and stayed there does not hold the pipe's
// memory open indefinitely.
func (d *Driver) Frame(ctx context.Context, delta time.Duration) error {
	d.Clock.Tick++
	d.Clock.Delta = delta
	if err := d.Scheduler.Run(ctx); err != nil {
		d.Sink(LevelError, "frame %d: %v", d.Clock.Tick, err)
		return err
	}
	d.World.DrainEventPipes()
	return nil
}

// UntilQuit runs Frame in a loop at the given tick rate until quit
// signals true or ctx is cancelled.
func (d *Driver) UntilQuit(ctx context.Context, tickRate time.Duration, quit func() bool) error {
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := d.Frame(ctx, tickRate); err != nil {
				return err
			}
			if quit != nil && quit() {
				return nil
			}
		}
	}
}

// orderPlugins topologically sorts plugins by Requires/Provides tags,
// breaking ties by registration order.
func orderPlugins(plugins []Plugin) ([]Plugin, error) {
	providers := make(map[string]int)
	for i, p := range plugins {
		for _, tag := range p.Provides {
			providers[tag] = i
		}
	}

	indegree := make([]int, len(plugins))
	edges := make([][]int, len(plugins))
	for i, p := range plugins {
		for _, req := range p.Requires {
			if j, ok := providers[req]; ok && j != i {
				edges[j] = append(edges[j], i)
				indegree[i]++
			}
		}
	}

	var ready []int
	for i := range plugins {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	var out []Plugin
	for len(ready) > 0 {
		sort.Ints(ready)
		n := ready[0]
		ready = ready[1:]
		out = append(out, plugins[n])
		for _, m := range edges[n] {
			indegree[m]--
			if indegree[m] == 0 {
				ready = append(ready, m)
			}
		}
	}

	if len(out) != len(plugins) {
		return nil, fmt.Errorf("cyclic plugin dependency among %d unresolved plugins", len(plugins)-len(out))
	}
	return out, nil
}
