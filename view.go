package ecs

// View exposes the subset of World operations safe to call without
// holding a scheduler-granted access token: read-only queries and
// resource lookups, but no structural mutation. Code that only needs to
// inspect state can take a View instead of a full *World so the compiler
// rules out accidental structural mutation. Observers receive a *World,
// not a View.
type View struct {
	w *World
}

// View returns a read-only snapshot handle over w.
func (w *World) View() View { return View{w: w} }

// Cursor returns a query cursor over the view's world.
func (v View) Cursor(node QueryNode) *Cursor {
	return NewCursor(v.w, node)
}

// IsAlive reports whether e is currently alive.
func (v View) IsAlive(e Entity) bool {
	return v.w.entities.IsAlive(e)
}

// Archetype returns the archetype e currently occupies.
func (v View) Archetype(e Entity) ArchetypeId {
	return v.w.entities.Archetype(e)
}

// ViewResource fetches a registered resource's current value, read-only in
// spirit (the pointer returned is still mutable, same caveat the
// teacher's own accessors carry: the type system does not enforce
// immutability here, only the convention that View callers should not
// write).
func ViewResource[T any](v View, id DataTypeId) (*T, error) {
	return Resource[T](v.w, id)
}
