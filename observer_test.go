package ecs_test

import (
	"testing"

	"github.com/cubos-go/ecs"
)

func TestObserverFiresOnAdd(t *testing.T) {
	w := ecs.NewWorld()
	position, _ := ecs.RegisterComponent[Position](w)

	var fired ecs.Entity
	w.Observers().On(ecs.OnAdd, position.Column(), func(w *ecs.World, e ecs.Entity) {
		fired = e
	})

	buf := ecs.NewCommandBuffer(w)
	cmd := ecs.NewCommands(buf)
	var e ecs.Entity
	ecs.With(cmd.Spawn(), position, Position{X: 3}).Into(&e)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if fired != e {
		t.Errorf("expected OnAdd observer to fire with %v, got %v", e, fired)
	}
}

func TestObserverFiresOnDestroyBeforeRowIsGone(t *testing.T) {
	w := ecs.NewWorld()
	position, _ := ecs.RegisterComponent[Position](w)

	var sawAlive bool
	w.Observers().On(ecs.OnDestroy, 0, func(w *ecs.World, e ecs.Entity) {
		sawAlive = w.Entities().IsAlive(e)
	})

	buf := ecs.NewCommandBuffer(w)
	cmd := ecs.NewCommands(buf)
	var e ecs.Entity
	ecs.With(cmd.Spawn(), position, Position{}).Into(&e)
	buf.Commit()

	cmd.Destroy(e)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !sawAlive {
		t.Errorf("expected the OnDestroy observer to see the entity still alive")
	}
}
