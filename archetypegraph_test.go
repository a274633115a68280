package ecs

import "testing"

func TestArchetypeGraphWithWithoutRoundTrip(t *testing.T) {
	g := NewArchetypeGraph()
	colA := NewColumnId(1)
	colB := NewColumnId(2)

	withA := g.With(EmptyArchetype, colA)
	if got := g.Without(withA, colA); got != EmptyArchetype {
		t.Errorf("Without(With(Empty, A), A) = %v, want Empty", got)
	}

	withAB := g.With(withA, colB)
	if got := g.Without(withAB, colB); got != withA {
		t.Errorf("Without(With(withA, B), B) = %v, want withA", got)
	}
}

func TestArchetypeGraphWithoutWithRoundTrip(t *testing.T) {
	g := NewArchetypeGraph()
	colA := NewColumnId(1)

	withA := g.With(EmptyArchetype, colA)
	back := g.Without(withA, colA)
	again := g.With(back, colA)
	if again != withA {
		t.Errorf("With(Without(withA, A), A) = %v, want %v", again, withA)
	}
}

func TestArchetypeGraphIdsReflectUnion(t *testing.T) {
	g := NewArchetypeGraph()
	colA, colB := NewColumnId(1), NewColumnId(2)

	withA := g.With(EmptyArchetype, colA)
	withAB := g.With(withA, colB)

	ids := g.Ids(withAB)
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d: %v", len(ids), ids)
	}
	seen := map[ColumnId]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[colA] || !seen[colB] {
		t.Errorf("expected ids to contain colA and colB, got %v", ids)
	}
}

func TestArchetypeGraphEdgesAreReused(t *testing.T) {
	g := NewArchetypeGraph()
	colA := NewColumnId(1)

	first := g.With(EmptyArchetype, colA)
	second := g.With(EmptyArchetype, colA)
	if first != second {
		t.Errorf("With should be idempotent for the same source/id pair: got %v and %v", first, second)
	}
}

func TestArchetypeGraphFindsExistingNodeRegardlessOfPath(t *testing.T) {
	g := NewArchetypeGraph()
	colA, colB := NewColumnId(1), NewColumnId(2)

	// Build {A, B} via A then B.
	viaA := g.With(g.With(EmptyArchetype, colA), colB)
	// Build {A, B} via B then A — must resolve to the same node via the
	// linear-search fallback, even though no edge exists yet between the
	// two paths.
	viaB := g.With(g.With(EmptyArchetype, colB), colA)

	if viaA != viaB {
		t.Errorf("expected both construction orders to find the same archetype, got %v and %v", viaA, viaB)
	}
}

func TestArchetypeGraphCollectOnlyReturnsNewNodes(t *testing.T) {
	g := NewArchetypeGraph()
	colA, colB := NewColumnId(1), NewColumnId(2)

	withA := g.With(EmptyArchetype, colA)

	var out []ArchetypeId
	out, seen := g.Collect(EmptyArchetype, out, 0)
	if len(out) == 0 {
		t.Fatalf("expected at least the Empty and withA archetypes")
	}

	withAB := g.With(withA, colB)

	out2, _ := g.Collect(EmptyArchetype, nil, seen)
	found := false
	for _, a := range out2 {
		if a == withAB {
			found = true
		}
		if a == withA {
			t.Errorf("expected Collect with a nonzero cursor to skip already-seen archetypes")
		}
	}
	if !found {
		t.Errorf("expected the newly created archetype to be collected")
	}
}

func TestArchetypeGraphContains(t *testing.T) {
	g := NewArchetypeGraph()
	colA, colB := NewColumnId(1), NewColumnId(2)
	withA := g.With(EmptyArchetype, colA)

	if !g.Contains(withA, colA) {
		t.Errorf("expected withA to contain colA")
	}
	if g.Contains(withA, colB) {
		t.Errorf("expected withA not to contain colB")
	}
}
