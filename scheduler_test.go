package ecs

import (
	"context"
	"testing"
)

func TestSchedulerOrdersByBeforeAfter(t *testing.T) {
	w := NewWorld()
	reg := NewSystemRegistry()

	var order []string
	reg.Register("b", func(w *World, cmd Commands) error {
		order = append(order, "b")
		return nil
	}, After("a"))
	reg.Register("a", func(w *World, cmd Commands) error {
		order = append(order, "a")
		return nil
	})
	reg.Register("c", func(w *World, cmd Commands) error {
		order = append(order, "c")
		return nil
	}, After("b"))

	s := NewScheduler(w, reg)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("got order %v, want [a b c]", order)
	}
}

func TestSchedulerDetectsCycles(t *testing.T) {
	reg := NewSystemRegistry()
	reg.Register("a", func(w *World, cmd Commands) error { return nil }, After("b"))
	reg.Register("b", func(w *World, cmd Commands) error { return nil }, After("a"))

	if _, err := topologicalSort(reg.All()); err == nil {
		t.Errorf("expected a cyclic ordering error")
	}
}

func TestColorStagesSeparatesConflictingWriters(t *testing.T) {
	position := ColumnId(1)
	a := &System{Name: "a", Access: []Access{{Column: position, Kind: AccessWrite}}}
	b := &System{Name: "b", Access: []Access{{Column: position, Kind: AccessWrite}}}
	c := &System{Name: "c", Access: []Access{{Column: ColumnId(2), Kind: AccessRead}}}

	stages := colorStages([]*System{a, b, c})
	if len(stages) < 2 {
		t.Fatalf("expected conflicting writers to land in separate stages, got %d stage(s)", len(stages))
	}
	for _, stage := range stages {
		for i := 0; i < len(stage.Systems); i++ {
			for j := i + 1; j < len(stage.Systems); j++ {
				if conflicts(stage.Systems[i], stage.Systems[j]) {
					t.Errorf("stage contains conflicting systems %q and %q", stage.Systems[i].Name, stage.Systems[j].Name)
				}
			}
		}
	}
}

func TestSchedulerCommitsBetweenStages(t *testing.T) {
	w := NewWorld()
	position, err := RegisterComponent[struct{ X int }](w)
	if err != nil {
		t.Fatalf("RegisterComponent: %v", err)
	}

	reg := NewSystemRegistry()
	var spawned Entity
	reg.Register("spawn", func(w *World, cmd Commands) error {
		With(cmd.Spawn(), position, struct{ X int }{X: 7}).Into(&spawned)
		return nil
	})
	reg.Register("read", func(w *World, cmd Commands) error {
		if spawned.IsNull() {
			return nil
		}
		if !w.Entities().IsAlive(spawned) {
			t.Errorf("expected the spawn stage to have committed before the read stage ran")
		}
		return nil
	}, After("spawn"))

	s := NewScheduler(w, reg)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
