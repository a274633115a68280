package ecs

import "testing"

func TestDenseTableVersionBumpsOnTouch(t *testing.T) {
	w := NewWorld()
	position, err := RegisterComponent[struct{ X int }](w)
	if err != nil {
		t.Fatalf("RegisterComponent: %v", err)
	}

	e, err := w.spawn(position.Column())
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	a := w.entities.Archetype(e)
	dt, ok := w.dense.At(a)
	if !ok {
		t.Fatalf("expected a dense table for the spawned archetype")
	}
	before := dt.ColumnVersion(position.Column())
	dt.touchColumn(position.Column())
	after := dt.ColumnVersion(position.Column())
	if after != before+1 {
		t.Errorf("got column version %d, want %d", after, before+1)
	}
}

func TestDenseTableRegistryAtReturnsCreatedTable(t *testing.T) {
	w := NewWorld()
	position, _ := RegisterComponent[struct{ X int }](w)
	a := w.archetypes.With(EmptyArchetype, position.Column())

	first, err := w.dense.Create(a, w.elementTypesFor(w.archetypes.Ids(a)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	dt, ok := w.dense.At(a)
	if !ok || dt != first {
		t.Errorf("expected At to return the same table Create produced")
	}
}
