package ecs_test

import (
	"testing"

	"github.com/cubos-go/ecs"
)

type ChildOf struct{}

// TestTreeRelationMaterializesAncestryDepths checks spec.md §8 scenario
// 3: relating leaf to mid and mid to root must make leaf resolve as a
// depth-1 descendant of root, without ever directly relating leaf to
// root.
func TestTreeRelationMaterializesAncestryDepths(t *testing.T) {
	w := ecs.NewWorld()
	position, _ := ecs.RegisterComponent[Position](w)
	childOf, err := ecs.RegisterRelation[ChildOf](w, ecs.Tree())
	if err != nil {
		t.Fatalf("RegisterRelation: %v", err)
	}

	buf := ecs.NewCommandBuffer(w)
	cmd := ecs.NewCommands(buf)
	var root, mid, leaf ecs.Entity
	ecs.With(cmd.Spawn(), position, Position{}).Into(&root)
	ecs.With(cmd.Spawn(), position, Position{}).Into(&mid)
	ecs.With(cmd.Spawn(), position, Position{}).Into(&leaf)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	cmd.Relate(childOf, mid, root, false, true, 0, nil)
	cmd.Relate(childOf, leaf, mid, false, true, 0, nil)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	rootArch := w.Entities().Archetype(root)
	leafArch := w.Entities().Archetype(leaf)

	// All three entities share one archetype, so the depth-0 table exists
	// (it holds mid->root and leaf->mid); it must not hold leaf->root.
	direct := ecs.SparseRelationTableId{Relation: childOf, From: leafArch, To: rootArch, Depth: 0}
	if w.Sparse().Contains(direct) {
		directTbl := w.Sparse().At(direct)
		for i := 0; i < directTbl.Len(); i++ {
			if from, to := directTbl.Row(i); from == leaf.Index && to == root.Index {
				t.Errorf("did not expect a direct depth-0 edge between leaf and root")
			}
		}
	}

	ancestor := ecs.SparseRelationTableId{Relation: childOf, From: leafArch, To: rootArch, Depth: 1}
	if !w.Sparse().Contains(ancestor) {
		t.Fatalf("expected a depth-1 synthetic ancestry row from leaf to root")
	}
	tbl := w.Sparse().At(ancestor)
	if tbl.Len() != 1 {
		t.Fatalf("expected exactly one depth-1 row, got %d", tbl.Len())
	}
	from, to := tbl.Row(0)
	if from != leaf.Index || to != root.Index {
		t.Errorf("got row (%d,%d), want (%d,%d)", from, to, leaf.Index, root.Index)
	}
}

// TestTreeRelationReplacesExistingParentEdge checks the tree invariant:
// relating a child to a new parent must drop its old parent edge rather
// than leaving it with two.
func TestTreeRelationReplacesExistingParentEdge(t *testing.T) {
	w := ecs.NewWorld()
	position, _ := ecs.RegisterComponent[Position](w)
	childOf, err := ecs.RegisterRelation[ChildOf](w, ecs.Tree())
	if err != nil {
		t.Fatalf("RegisterRelation: %v", err)
	}

	buf := ecs.NewCommandBuffer(w)
	cmd := ecs.NewCommands(buf)
	var oldParent, newParent, child ecs.Entity
	ecs.With(cmd.Spawn(), position, Position{}).Into(&oldParent)
	ecs.With(cmd.Spawn(), position, Position{}).Into(&newParent)
	ecs.With(cmd.Spawn(), position, Position{}).Into(&child)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	cmd.Relate(childOf, child, oldParent, false, true, 0, nil)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	cmd.Relate(childOf, child, newParent, false, true, 0, nil)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	childArch := w.Entities().Archetype(child)
	oldArch := w.Entities().Archetype(oldParent)
	newArch := w.Entities().Archetype(newParent)

	// Both parents share one archetype, so the old and new edges live in
	// the same table; look for the old edge's row rather than the table.
	oldId := ecs.SparseRelationTableId{Relation: childOf, From: childArch, To: oldArch, Depth: 0}
	if w.Sparse().Contains(oldId) {
		oldTbl := w.Sparse().At(oldId)
		for i := 0; i < oldTbl.Len(); i++ {
			if from, to := oldTbl.Row(i); from == child.Index && to == oldParent.Index {
				t.Errorf("expected the old parent edge to be replaced")
			}
		}
	}
	newId := ecs.SparseRelationTableId{Relation: childOf, From: childArch, To: newArch, Depth: 0}
	if !w.Sparse().Contains(newId) || w.Sparse().At(newId).Len() != 1 {
		t.Errorf("expected exactly one edge to the new parent")
	}
}

func TestUnrelateRemovesTheRowAndFiresOnUnrelate(t *testing.T) {
	w := ecs.NewWorld()
	position, _ := ecs.RegisterComponent[Position](w)
	likes, err := ecs.RegisterRelation[Likes](w)
	if err != nil {
		t.Fatalf("RegisterRelation: %v", err)
	}

	var unrelated []ecs.Entity
	w.Observers().On(ecs.OnUnrelate, ecs.NewColumnId(likes), func(w *ecs.World, e ecs.Entity) {
		unrelated = append(unrelated, e)
	})

	buf := ecs.NewCommandBuffer(w)
	cmd := ecs.NewCommands(buf)
	var a, b ecs.Entity
	ecs.With(cmd.Spawn(), position, Position{}).Into(&a)
	ecs.With(cmd.Spawn(), position, Position{}).Into(&b)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	cmd.Relate(likes, a, b, false, false, 0, nil)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	id := ecs.SparseRelationTableId{Relation: likes, From: w.Entities().Archetype(a), To: w.Entities().Archetype(b)}
	if !w.Sparse().Contains(id) || w.Sparse().At(id).Len() != 1 {
		t.Fatalf("expected the relation row to exist before Unrelate")
	}

	cmd.Unrelate(likes, a, b)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if w.Sparse().Contains(id) && w.Sparse().At(id).Len() != 0 {
		t.Errorf("expected the relation row to be gone after Unrelate")
	}
	if len(unrelated) != 2 {
		t.Fatalf("expected OnUnrelate to fire for both endpoints, got %v", unrelated)
	}
}

func TestUnrelateOfTreeRelationDropsDerivedAncestry(t *testing.T) {
	w := ecs.NewWorld()
	position, _ := ecs.RegisterComponent[Position](w)
	childOf, err := ecs.RegisterRelation[ChildOf](w, ecs.Tree())
	if err != nil {
		t.Fatalf("RegisterRelation: %v", err)
	}

	buf := ecs.NewCommandBuffer(w)
	cmd := ecs.NewCommands(buf)
	var root, mid, leaf ecs.Entity
	ecs.With(cmd.Spawn(), position, Position{}).Into(&root)
	ecs.With(cmd.Spawn(), position, Position{}).Into(&mid)
	ecs.With(cmd.Spawn(), position, Position{}).Into(&leaf)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	cmd.Relate(childOf, mid, root, false, true, 0, nil)
	cmd.Relate(childOf, leaf, mid, false, true, 0, nil)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	cmd.Unrelate(childOf, leaf, mid)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	rootArch := w.Entities().Archetype(root)
	leafArch := w.Entities().Archetype(leaf)
	ancestor := ecs.SparseRelationTableId{Relation: childOf, From: leafArch, To: rootArch, Depth: 1}
	if w.Sparse().Contains(ancestor) && w.Sparse().At(ancestor).Len() != 0 {
		t.Errorf("expected leaf's derived ancestry row to root to be dropped once its direct parent edge is gone")
	}
}
