package ecs

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Stage is one parallel group of systems the scheduler runs together: no
// two systems in a stage conflict over a column, so they can execute
// concurrently between commit barriers (spec.md §6).
type Stage struct {
	Systems []*System
}

// Schedule is the planned execution order for one tick: a sequence of
// stages, each committed before the next begins.
type Schedule struct {
	Stages []Stage
}

// Scheduler turns a SystemRegistry into a Schedule (topological sort by
// Before/After, then greedy conflict-graph coloring into stages) and
// runs it each tick.
type Scheduler struct {
	w        *World
	registry *SystemRegistry
	schedule *Schedule
	nextLock uint32
}

// NewScheduler creates a scheduler bound to w and registry.
func NewScheduler(w *World, registry *SystemRegistry) *Scheduler {
	return &Scheduler{w: w, registry: registry}
}

// Plan computes (or recomputes) the schedule. It must be called again
// after registering new systems.
func (s *Scheduler) Plan() error {
	ordered, err := topologicalSort(s.registry.All())
	if err != nil {
		return err
	}
	s.schedule = &Schedule{Stages: colorStages(ordered)}
	return nil
}

// topologicalSort orders systems by their Before/After constraints using
// Kahn's algorithm, breaking ties by registration order so the plan is
// deterministic for a given registration sequence (spec.md §6).
func topologicalSort(systems []*System) ([]*System, error) {
	index := make(map[string]int, len(systems))
	for i, s := range systems {
		index[s.Name] = i
	}

	indegree := make([]int, len(systems))
	edges := make([][]int, len(systems)) // edges[i] = systems that must run after i

	addEdge := func(before, after int) {
		edges[before] = append(edges[before], after)
		indegree[after]++
	}

	for i, s := range systems {
		for _, name := range s.Before {
			if j, ok := index[name]; ok {
				addEdge(i, j)
			}
		}
		for _, name := range s.After {
			if j, ok := index[name]; ok {
				addEdge(j, i)
			}
		}
	}

	var ready []int
	for i := range systems {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	sort.Ints(ready)

	var order []*System
	for len(ready) > 0 {
		sort.Ints(ready)
		n := ready[0]
		ready = ready[1:]
		order = append(order, systems[n])
		for _, m := range edges[n] {
			indegree[m]--
			if indegree[m] == 0 {
				ready = append(ready, m)
			}
		}
	}

	if len(order) != len(systems) {
		var cycle []string
		for i, d := range indegree {
			if d > 0 {
				cycle = append(cycle, systems[i].Name)
			}
		}
		return nil, CyclicOrderingError{Cycle: cycle}
	}
	return order, nil
}

// colorStages greedily packs a topologically-sorted system list into
// stages: each system joins the earliest stage that comes after every
// stage holding a system it has an explicit Before/After relationship
// to, and whose members it does not resource-conflict with. The ordering
// check is what keeps two systems with a declared ordering from running
// concurrently, or in the wrong order, even when they touch disjoint
// columns.
func colorStages(ordered []*System) []Stage {
	mustSeparate := orderingConstraints(ordered)

	var stages []Stage
	stageOf := make(map[*System]int, len(ordered))
	for _, sys := range ordered {
		// Any already-placed system sys is ordered against precedes it in
		// the topological order, so sys must land in a later stage.
		minStage := 0
		for other := range mustSeparate[sys] {
			if s, ok := stageOf[other]; ok && s+1 > minStage {
				minStage = s + 1
			}
		}
		placedAt := -1
		for i := minStage; i < len(stages); i++ {
			blocked := false
			for _, other := range stages[i].Systems {
				if conflicts(sys, other) || mustSeparate[sys][other] {
					blocked = true
					break
				}
			}
			if !blocked {
				placedAt = i
				break
			}
		}
		if placedAt == -1 {
			stages = append(stages, Stage{})
			placedAt = len(stages) - 1
		}
		stages[placedAt].Systems = append(stages[placedAt].Systems, sys)
		stageOf[sys] = placedAt
	}
	return stages
}

// orderingConstraints computes, for every system, the set of other
// systems it has a direct Before/After relationship with, so colorStages
// can refuse to co-place them regardless of column access.
func orderingConstraints(systems []*System) map[*System]map[*System]bool {
	byName := make(map[string]*System, len(systems))
	for _, s := range systems {
		byName[s.Name] = s
	}

	out := make(map[*System]map[*System]bool, len(systems))
	link := func(a, b *System) {
		if out[a] == nil {
			out[a] = make(map[*System]bool)
		}
		if out[b] == nil {
			out[b] = make(map[*System]bool)
		}
		out[a][b] = true
		out[b][a] = true
	}
	for _, s := range systems {
		for _, name := range s.Before {
			if other, ok := byName[name]; ok {
				link(s, other)
			}
		}
		for _, name := range s.After {
			if other, ok := byName[name]; ok {
				link(s, other)
			}
		}
	}
	return out
}

// Run executes the planned schedule once: every stage's systems run
// concurrently against their own command buffer, the stage is committed
// in system-registration order once all finish, and only then does the
// next stage begin.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.schedule == nil {
		if err := s.Plan(); err != nil {
			return err
		}
	}
	for _, stage := range s.schedule.Stages {
		if err := s.runStage(ctx, stage); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) runStage(ctx context.Context, stage Stage) error {
	s.nextLock++
	bit := s.nextLock
	s.w.Lock(bit)
	defer s.w.Unlock(bit)

	buffers := make([]*CommandBuffer, len(stage.Systems))
	for i := range stage.Systems {
		buffers[i] = NewCommandBuffer(s.w)
	}

	g, _ := errgroup.WithContext(ctx)
	for i, sys := range stage.Systems {
		i, sys := i, sys
		g.Go(func() error {
			return sys.Run(s.w, NewCommands(buffers[i]))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.w.Unlock(bit)
	for _, buf := range buffers {
		if err := buf.Commit(); err != nil {
			return err
		}
	}
	return nil
}
