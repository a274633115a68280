package ecs

import "github.com/TheBitDrifter/table"

// DenseTable is the per-archetype row store: one row per entity, one
// column per component the archetype holds (spec.md §4.4). Row and
// column bookkeeping (the entity index, swap-erase, cross-table
// transfer) is delegated to table.Table, the teacher's own dense
// row-major store; DenseTable adds the archetype identity and the
// version counters change detection needs.
type DenseTable struct {
	archetype ArchetypeId
	tbl       table.Table

	version        uint64
	columnVersions map[ColumnId]uint64
}

// Archetype returns the archetype this table stores rows for.
func (t *DenseTable) Archetype() ArchetypeId { return t.archetype }

// Table returns the underlying table.Table.
func (t *DenseTable) Table() table.Table { return t.tbl }

// Size returns the number of entities currently in this archetype.
func (t *DenseTable) Size() int { return t.tbl.Length() }

// Version returns the table's structural version counter, bumped on
// every insert, swap-erase, or transfer in or out.
func (t *DenseTable) Version() uint64 { return t.version }

// ColumnVersion returns the version of a specific column, bumped
// whenever a mutable (Write) view of that column is acquired.
func (t *DenseTable) ColumnVersion(id ColumnId) uint64 { return t.columnVersions[id] }

// touchColumn bumps a column's version; called by the query engine's
// mutable accessor on every Write.Get.
func (t *DenseTable) touchColumn(id ColumnId) { t.columnVersions[id]++ }

// DenseTableRegistry maintains one DenseTable per archetype that was
// ever populated (spec.md §4.4).
type DenseTableRegistry struct {
	schema     table.Schema
	entryIndex table.EntryIndex
	tables     map[ArchetypeId]*DenseTable
}

// NewDenseTableRegistry creates an empty registry sharing schema and
// entryIndex with the rest of the world (all dense tables register
// their columns against one schema, matching the teacher's single
// global schema per Storage).
func NewDenseTableRegistry(schema table.Schema, entryIndex table.EntryIndex) *DenseTableRegistry {
	return &DenseTableRegistry{
		schema:     schema,
		entryIndex: entryIndex,
		tables:     make(map[ArchetypeId]*DenseTable),
	}
}

// Contains reports whether a table for archetype a has been created.
func (r *DenseTableRegistry) Contains(a ArchetypeId) bool {
	_, ok := r.tables[a]
	return ok
}

// Create builds a new dense table for archetype a with the given
// element types, one per column the archetype holds.
func (r *DenseTableRegistry) Create(a ArchetypeId, elementTypes []table.ElementType) (*DenseTable, error) {
	tbl, err := table.NewTableBuilder().
		WithSchema(r.schema).
		WithEntryIndex(r.entryIndex).
		WithElementTypes(elementTypes...).
		WithEvents(Config.tableEvents).
		Build()
	if err != nil {
		return nil, err
	}
	dt := &DenseTable{archetype: a, tbl: tbl, columnVersions: make(map[ColumnId]uint64)}
	r.tables[a] = dt
	return dt, nil
}

// At returns the dense table for archetype a and whether it exists; it
// does not create a missing table (use Create for that).
func (r *DenseTableRegistry) At(a ArchetypeId) (*DenseTable, bool) {
	dt, ok := r.tables[a]
	return dt, ok
}

// All returns every dense table in the registry, in unspecified order.
func (r *DenseTableRegistry) All() []*DenseTable {
	out := make([]*DenseTable, 0, len(r.tables))
	for _, dt := range r.tables {
		out = append(out, dt)
	}
	return out
}
