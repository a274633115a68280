package ecs_test

import (
	"testing"

	"github.com/cubos-go/ecs"
)

func spawnPositionVelocity(t *testing.T, w *ecs.World, position ecs.ComponentType[Position], velocity ecs.ComponentType[Velocity], p Position, v Velocity) ecs.Entity {
	t.Helper()
	buf := ecs.NewCommandBuffer(w)
	cmd := ecs.NewCommands(buf)
	var e ecs.Entity
	ecs.With(ecs.With(cmd.Spawn(), position, p), velocity, v).Into(&e)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return e
}

func TestCursorIteratesMatchingRowsOnly(t *testing.T) {
	w := ecs.NewWorld()
	position, _ := ecs.RegisterComponent[Position](w)
	velocity, _ := ecs.RegisterComponent[Velocity](w)

	moving := spawnPositionVelocity(t, w, position, velocity, Position{X: 1}, Velocity{X: 1})

	buf := ecs.NewCommandBuffer(w)
	cmd := ecs.NewCommands(buf)
	var still ecs.Entity
	ecs.With(cmd.Spawn(), position, Position{X: 9}).Into(&still)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	cursor := ecs.NewCursor(w, ecs.Has(position.Column(), velocity.Column()))
	pos := ecs.NewRead(position)

	var seen []ecs.Entity
	for cursor.Next() {
		seen = append(seen, cursor.Entity())
		if pos.Get(cursor).X != 1 {
			t.Errorf("got position.X = %v, want 1", pos.Get(cursor).X)
		}
	}
	if len(seen) != 1 || seen[0] != moving {
		t.Errorf("expected only the moving entity to match, got %v (still=%v)", seen, still)
	}
}

func TestWriteAccessorMutatesUnderlyingRow(t *testing.T) {
	w := ecs.NewWorld()
	position, _ := ecs.RegisterComponent[Position](w)

	buf := ecs.NewCommandBuffer(w)
	cmd := ecs.NewCommands(buf)
	var e ecs.Entity
	ecs.With(cmd.Spawn(), position, Position{X: 1, Y: 1}).Into(&e)
	buf.Commit()

	cursor := ecs.NewCursor(w, ecs.Has(position.Column()))
	write := ecs.NewWrite(position)
	for cursor.Next() {
		p := write.Get(cursor)
		p.X += 10
	}

	p, err := ecs.Get(w, position, e)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.X != 11 {
		t.Errorf("got X = %v, want 11", p.X)
	}
}

func TestOptReadGetSafeReportsAbsence(t *testing.T) {
	w := ecs.NewWorld()
	position, _ := ecs.RegisterComponent[Position](w)
	velocity, _ := ecs.RegisterComponent[Velocity](w)

	buf := ecs.NewCommandBuffer(w)
	cmd := ecs.NewCommands(buf)
	var e ecs.Entity
	ecs.With(cmd.Spawn(), position, Position{X: 5}).Into(&e)
	buf.Commit()

	cursor := ecs.NewCursor(w, ecs.Has(position.Column()))
	optVel := ecs.NewOptRead(velocity)

	if !cursor.Next() {
		t.Fatalf("expected at least one matching row")
	}
	if _, ok := optVel.GetSafe(cursor); ok {
		t.Errorf("expected no velocity component on an entity that never got one")
	}
}

func TestPinYieldsOnlyTheNamedEntity(t *testing.T) {
	w := ecs.NewWorld()
	position, _ := ecs.RegisterComponent[Position](w)
	velocity, _ := ecs.RegisterComponent[Velocity](w)

	moving := spawnPositionVelocity(t, w, position, velocity, Position{X: 1}, Velocity{X: 1})

	buf := ecs.NewCommandBuffer(w)
	cmd := ecs.NewCommands(buf)
	var still ecs.Entity
	ecs.With(cmd.Spawn(), position, Position{X: 9}).Into(&still)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	cursor := ecs.Pin(w, ecs.Has(position.Column(), velocity.Column()), moving)
	pos := ecs.NewRead(position)

	var seen []ecs.Entity
	for cursor.Next() {
		seen = append(seen, cursor.Entity())
		if pos.Get(cursor).X != 1 {
			t.Errorf("got position.X = %v, want 1", pos.Get(cursor).X)
		}
	}
	if len(seen) != 1 || seen[0] != moving {
		t.Errorf("expected exactly the pinned entity, got %v", seen)
	}

	if other := ecs.Pin(w, ecs.Has(position.Column(), velocity.Column()), still); other.Next() {
		t.Errorf("expected Pin to yield nothing for an entity not matching the query")
	}
}

func TestChangedReportsOnlyWrittenTables(t *testing.T) {
	w := ecs.NewWorld()
	position, _ := ecs.RegisterComponent[Position](w)

	buf := ecs.NewCommandBuffer(w)
	cmd := ecs.NewCommands(buf)
	var e ecs.Entity
	ecs.With(cmd.Spawn(), position, Position{X: 1}).Into(&e)
	if err := buf.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	changed := ecs.AllOf([]ecs.ColumnId{position.Column()}, ecs.Changed(position.Column()))
	cursor := ecs.NewCursor(w, changed)
	if cursor.Next() {
		t.Errorf("expected no rows to report changed before any write")
	}

	write := ecs.NewCursor(w, ecs.Has(position.Column()))
	writer := ecs.NewWrite(position)
	for write.Next() {
		writer.Get(write).X = 5
	}

	cursor2 := ecs.NewCursor(w, changed)
	if !cursor2.Next() {
		t.Errorf("expected the written table to report changed")
	}
}

func TestRelationCursorWalksEndpointsAndDepth(t *testing.T) {
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

	rc := ecs.NewRelationCursor(w, childOf, nil, nil, 1, 1)
	count := 0
	for rc.Next() {
		count++
		if rc.From() != leaf || rc.To() != root {
			t.Errorf("expected the only depth-1 row to be (leaf, root), got (%v, %v)", rc.From(), rc.To())
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one depth-1 ancestry row, got %d", count)
	}
}
