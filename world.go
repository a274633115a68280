package ecs

import (
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// World owns every piece of storage an ECS-driven game needs: the type
// registry, the entity pool, the archetype graph, the dense and sparse
// relation tables, resources, event pipes, observers and blueprints. It
// plays the role the teacher's storage struct plays, generalized from a
// single component-only archetype store to the full data model.
type World struct {
	types      *TypeRegistry
	schema     table.Schema
	entryIndex table.EntryIndex

	entities   *EntityPool
	archetypes *ArchetypeGraph
	dense      *DenseTableRegistry
	sparse     *SparseRelationTableRegistry

	columnElements map[ColumnId]table.ElementType

	resources  map[DataTypeId]*resourceSlot
	eventPipes map[DataTypeId]eventPipe
	observers  *ObserverRegistry
	blueprints map[string]*Blueprint

	// locks mirrors the teacher's storage.locks: one bit per outstanding
	// reader/writer grant from the scheduler. The world refuses
	// structural mutation (archetype moves, destruction) while any bit is
	// set, matching spec.md §6's "systems ... may not mutate the
	// archetype graph while a parallel stage is executing" rule.
	locks mask.Mask256
}

// NewWorld creates an empty world with its own type registry and schema.
func NewWorld() *World {
	w := &World{
		types:          NewTypeRegistry(),
		schema:         table.Factory.NewSchema(),
		entryIndex:     table.Factory.NewEntryIndex(),
		entities:       NewEntityPool(),
		archetypes:     NewArchetypeGraph(),
		columnElements: make(map[ColumnId]table.ElementType),
		resources:      make(map[DataTypeId]*resourceSlot),
		eventPipes:     make(map[DataTypeId]eventPipe),
		blueprints:     make(map[string]*Blueprint),
	}
	w.dense = NewDenseTableRegistry(w.schema, w.entryIndex)
	w.sparse = NewSparseRelationTableRegistry()
	w.observers = NewObserverRegistry(w)
	return w
}

// Types returns the world's type registry.
func (w *World) Types() *TypeRegistry { return w.types }

// Entities returns the world's entity pool.
func (w *World) Entities() *EntityPool { return w.entities }

// Archetypes returns the world's archetype graph.
func (w *World) Archetypes() *ArchetypeGraph { return w.archetypes }

// Dense returns the world's dense table registry.
func (w *World) Dense() *DenseTableRegistry { return w.dense }

// Sparse returns the world's sparse relation table registry.
func (w *World) Sparse() *SparseRelationTableRegistry { return w.sparse }

// Observers returns the world's observer registry.
func (w *World) Observers() *ObserverRegistry { return w.observers }

// DrainEventPipes prunes every registered event pipe down to what its
// live readers still need, releasing entries no reader can observe
// anymore. The Driver calls this once per frame so event memory does not
// grow across ticks where a reader has fallen behind and stayed there
// (spec.md §2).
func (w *World) DrainEventPipes() {
	for _, p := range w.eventPipes {
		p.drainStale()
	}
}

// Locked reports whether any lock bit is outstanding, blocking
// structural mutation (spec.md §6).
func (w *World) Locked() bool { return !w.locks.IsEmpty() }

// Lock marks bit as held, typically one per concurrently scheduled
// system stage.
func (w *World) Lock(bit uint32) { w.locks.Mark(bit) }

// Unlock releases bit. It does not itself flush a command buffer; the
// scheduler is responsible for committing after every stage it runs.
func (w *World) Unlock(bit uint32) { w.locks.Unmark(bit) }

// elementTypesFor resolves each column id in ids (in the graph's stable
// order) to the table.ElementType that backs its storage, for building
// or looking up a dense table.
func (w *World) elementTypesFor(ids []ColumnId) []table.ElementType {
	out := make([]table.ElementType, 0, len(ids))
	for _, id := range ids {
		if et, ok := w.columnElements[id]; ok {
			out = append(out, et)
		}
	}
	return out
}

// denseTableFor returns the dense table for archetype a, creating it
// (and its backing table.Table) on first use.
func (w *World) denseTableFor(a ArchetypeId) (*DenseTable, error) {
	if dt, ok := w.dense.At(a); ok {
		return dt, nil
	}
	ids := w.archetypes.Ids(a)
	return w.dense.Create(a, w.elementTypesFor(ids))
}

// entryFor resolves e's current table.Entry through the shared
// EntryIndex, the same indirection the teacher's entity.entry() method
// uses to turn a stable id into a live row position.
func (w *World) entryFor(e Entity) (table.Entry, error) {
	return w.entryIndex.Entry(int(e.Index) - 1)
}

// rowOf resolves e's current row position within its archetype's dense
// table, following every swap-erase or transfer that happened since e
// was created.
func (w *World) rowOf(e Entity) (int, error) {
	entry, err := w.entryFor(e)
	if err != nil {
		return 0, err
	}
	return entry.Index(), nil
}

// spawn creates a new, immediately-alive entity in the archetype that
// holds exactly columns, inserting a zero-valued row into its dense
// table. It is the low-level primitive Commands and Blueprint build on;
// callers are expected to have already checked Locked().
func (w *World) spawn(columns ...ColumnId) (Entity, error) {
	archetype := EmptyArchetype
	for _, c := range columns {
		archetype = w.archetypes.With(archetype, c)
	}
	dt, err := w.denseTableFor(archetype)
	if err != nil {
		return Null, err
	}
	entries, err := dt.tbl.NewEntries(1)
	if err != nil {
		return Null, err
	}
	dt.version++
	entry := entries[0]
	e := w.entities.Track(uint32(entry.ID()), archetype, uint32(entry.Recycled()))
	return e, nil
}

// destroy removes e's row from its archetype's dense table and from any
// sparse relation table that references it.
func (w *World) destroy(e Entity) error {
	if !w.entities.IsAlive(e) {
		return nil
	}
	a := w.entities.Archetype(e)
	dt, ok := w.dense.At(a)
	if ok {
		if _, err := dt.tbl.DeleteEntries(int(e.Index)); err != nil {
			return err
		}
		dt.version++
	}
	w.sparse.Erase(a, e.Index)
	w.entities.Destroy(e)
	return nil
}

// addColumn moves e from its current archetype to the one additionally
// holding id, transferring its row and relocating any sparse relation
// rows that reference it.
func (w *World) addColumn(e Entity, id ColumnId) error {
	if !w.entities.IsValid(e) {
		return UnknownEntityError{Entity: e}
	}
	source := w.entities.Archetype(e)
	if w.archetypes.Contains(source, id) {
		return nil
	}
	target := w.archetypes.With(source, id)
	return w.transfer(e, source, target)
}

// removeColumn moves e to the archetype without id.
func (w *World) removeColumn(e Entity, id ColumnId) error {
	if !w.entities.IsValid(e) {
		return UnknownEntityError{Entity: e}
	}
	source := w.entities.Archetype(e)
	if !w.archetypes.Contains(source, id) {
		return nil
	}
	target := w.archetypes.Without(source, id)
	return w.transfer(e, source, target)
}

func (w *World) transfer(e Entity, source, target ArchetypeId) error {
	sourceTable, ok := w.dense.At(source)
	if !ok {
		return ComponentNotFoundError{}
	}
	targetTable, err := w.denseTableFor(target)
	if err != nil {
		return err
	}
	row, err := w.rowOf(e)
	if err != nil {
		return err
	}
	if err := sourceTable.tbl.TransferEntries(targetTable.tbl, row); err != nil {
		return err
	}
	sourceTable.version++
	targetTable.version++
	w.entities.SetArchetype(e, target)
	w.sparse.Move(source, target, e.Index)
	return nil
}

// Get returns a pointer to component ct's value on entity e, resolving
// e's current row through the shared EntryIndex so it stays valid across
// any archetype transition that happened after e was created.
func Get[T any](w *World, ct ComponentType[T], e Entity) (*T, error) {
	if !w.entities.IsAlive(e) {
		return nil, UnknownEntityError{Entity: e}
	}
	a := w.entities.Archetype(e)
	dt, ok := w.dense.At(a)
	if !ok || !ct.Check(dt.tbl) {
		return nil, ComponentNotFoundError{Column: ct.Column()}
	}
	row, err := w.rowOf(e)
	if err != nil {
		return nil, err
	}
	return ct.Get(row, dt.tbl), nil
}
