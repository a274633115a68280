package ecs

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
)

// SparseRelationTableId identifies one sparse relation table: the
// relation type and the archetypes of both endpoints, plus a depth
// bucket (spec.md §3/§4.5). We pick the "bucket key" reading of the
// Design Notes' open question on relation depth (see DESIGN.md): depth 0
// holds directly-created edges, and depth n>0 holds the synthetic,
// transitively-derived edges n hops up a tree relation's ancestry, so
// ancestor/descendant queries can be expressed as ordinary term lookups
// against a specific depth bucket instead of a runtime graph walk.
type SparseRelationTableId struct {
	Relation DataTypeId
	From     ArchetypeId
	To       ArchetypeId
	Depth    int
}

// sparseRelationRow is one (from-row, to-row, value) triple. Value holds
// the payload bytes exactly as passed to Relate; relations related with
// no payload (pure markers) carry a zero-length Value.
type sparseRelationRow struct {
	fromIndex uint32
	toIndex   uint32
	value     []byte
}

// SparseRelationTable stores every row for one SparseRelationTableId.
type SparseRelationTable struct {
	id   SparseRelationTableId
	rows []sparseRelationRow
}

// ID returns the table's identifier.
func (t *SparseRelationTable) ID() SparseRelationTableId { return t.id }

// Len returns the number of rows in the table.
func (t *SparseRelationTable) Len() int { return len(t.rows) }

// Row returns the i-th row's (from index, to index).
func (t *SparseRelationTable) Row(i int) (fromIndex, toIndex uint32) {
	r := t.rows[i]
	return r.fromIndex, r.toIndex
}

// Value returns a pointer to the i-th row's relation value bytes.
func (t *SparseRelationTable) Value(i int) []byte {
	return t.rows[i].value
}

func (t *SparseRelationTable) indexOfTo(toIndex uint32) int {
	for i, r := range t.rows {
		if r.toIndex == toIndex {
			return i
		}
	}
	return -1
}

func (t *SparseRelationTable) indexOf(fromIndex, toIndex uint32) int {
	for i, r := range t.rows {
		if r.fromIndex == fromIndex && r.toIndex == toIndex {
			return i
		}
	}
	return -1
}

func (t *SparseRelationTable) insert(fromIndex, toIndex uint32, value []byte) {
	t.rows = append(t.rows, sparseRelationRow{fromIndex: fromIndex, toIndex: toIndex, value: value})
}

func (t *SparseRelationTable) swapErase(i int) {
	last := len(t.rows) - 1
	t.rows[i] = t.rows[last]
	t.rows = t.rows[:last]
}

// TreeRow names one materialized ancestry row: fromIndex is depth hops
// below toIndex in the tree relation's hierarchy.
type TreeRow struct {
	FromArch, ToArch ArchetypeId
	FromIndex, ToIndex uint32
	Depth int
}

// typeIndex maps each endpoint archetype to the tables where it appears
// as "from" or as "to", so query planning can enumerate candidate tables
// for a relation without scanning every table id in existence.
type typeIndex struct {
	from map[ArchetypeId][]SparseRelationTableId
	to   map[ArchetypeId][]SparseRelationTableId
}

func newTypeIndex() *typeIndex {
	return &typeIndex{from: make(map[ArchetypeId][]SparseRelationTableId), to: make(map[ArchetypeId][]SparseRelationTableId)}
}

func (ti *typeIndex) insert(id SparseRelationTableId) {
	ti.from[id.From] = append(ti.from[id.From], id)
	ti.to[id.To] = append(ti.to[id.To], id)
}

// From returns the tables where archetype a is the "from" endpoint.
func (ti *typeIndex) From(a ArchetypeId) []SparseRelationTableId { return ti.from[a] }

// To returns the tables where archetype a is the "to" endpoint.
func (ti *typeIndex) To(a ArchetypeId) []SparseRelationTableId { return ti.to[a] }

// SparseRelationTableRegistry stores every sparse relation table,
// indexed both directly by id and, per relation type, by either
// endpoint's archetype (spec.md §4.5).
type SparseRelationTableRegistry struct {
	tables     map[SparseRelationTableId]*SparseRelationTable
	typeIndex  map[DataTypeId]*typeIndex
	ids        []SparseRelationTableId
}

// NewSparseRelationTableRegistry creates an empty registry.
func NewSparseRelationTableRegistry() *SparseRelationTableRegistry {
	return &SparseRelationTableRegistry{
		tables:    make(map[SparseRelationTableId]*SparseRelationTable),
		typeIndex: make(map[DataTypeId]*typeIndex),
	}
}

// Contains reports whether a table with id exists.
func (r *SparseRelationTableRegistry) Contains(id SparseRelationTableId) bool {
	_, ok := r.tables[id]
	return ok
}

// Create returns the table for id, creating it (and indexing it) if
// necessary.
func (r *SparseRelationTableRegistry) Create(id SparseRelationTableId) *SparseRelationTable {
	if t, ok := r.tables[id]; ok {
		return t
	}
	t := &SparseRelationTable{id: id, rows: make([]sparseRelationRow, 0, Config.RelationBucketHint)}
	r.tables[id] = t
	r.ids = append(r.ids, id)

	ti, ok := r.typeIndex[id.Relation]
	if !ok {
		ti = newTypeIndex()
		r.typeIndex[id.Relation] = ti
	}
	ti.insert(id)
	return t
}

// At returns the table for id, which must already exist.
func (r *SparseRelationTableRegistry) At(id SparseRelationTableId) *SparseRelationTable {
	t, ok := r.tables[id]
	if !ok {
		panic(bark.AddTrace(fmt.Errorf("ecs: sparse relation table does not exist: %v", id)))
	}
	return t
}

// Type returns the lazy per-endpoint index for a relation type, used by
// the query planner to enumerate candidate tables quickly. An empty
// index is returned (and cached) for a relation type with no tables yet.
func (r *SparseRelationTableRegistry) Type(relation DataTypeId) *typeIndex {
	ti, ok := r.typeIndex[relation]
	if !ok {
		ti = newTypeIndex()
		r.typeIndex[relation] = ti
	}
	return ti
}

// Move re-homes every row referencing entity index idx, as either
// endpoint, from tables keyed by source to tables keyed by target. Used
// when an entity's archetype changes.
func (r *SparseRelationTableRegistry) Move(source, target ArchetypeId, idx uint32) {
	if source == target {
		return
	}
	for _, id := range append([]SparseRelationTableId(nil), r.ids...) {
		t, ok := r.tables[id]
		if !ok {
			continue
		}
		if id.From == source {
			r.rehomeEndpoint(t, id, idx, true, target)
		}
		if id.To == source {
			r.rehomeEndpoint(t, id, idx, false, target)
		}
	}
}

func (r *SparseRelationTableRegistry) rehomeEndpoint(t *SparseRelationTable, id SparseRelationTableId, idx uint32, isFrom bool, target ArchetypeId) {
	for i := 0; i < len(t.rows); {
		row := t.rows[i]
		matches := (isFrom && row.fromIndex == idx) || (!isFrom && row.toIndex == idx)
		if !matches {
			i++
			continue
		}
		newID := id
		if isFrom {
			newID.From = target
		} else {
			newID.To = target
		}
		dest := r.Create(newID)
		dest.insert(row.fromIndex, row.toIndex, row.value)
		t.swapErase(i)
		// do not advance i: swapErase moved the last row into i
	}
}

// Erase removes every row referencing entity index idx in the archetype
// a, as either endpoint. Used on entity destruction.
func (r *SparseRelationTableRegistry) Erase(a ArchetypeId, idx uint32) {
	for _, id := range r.ids {
		t, ok := r.tables[id]
		if !ok {
			continue
		}
		if id.From != a && id.To != a {
			continue
		}
		for i := 0; i < len(t.rows); {
			row := t.rows[i]
			if (id.From == a && row.fromIndex == idx) || (id.To == a && row.toIndex == idx) {
				t.swapErase(i)
				continue
			}
			i++
		}
	}
}

// RowsFrom returns every row, at any depth and any "to" archetype, where
// fromIndex is the "from" endpoint of relation — used to read a tree
// relation's existing parent edge and its full ancestor chain before
// re-deriving it for a new child (spec.md §4.5).
func (r *SparseRelationTableRegistry) RowsFrom(relation DataTypeId, fromArch ArchetypeId, fromIndex uint32) []TreeRow {
	var out []TreeRow
	for _, id := range r.Type(relation).From(fromArch) {
		t, ok := r.tables[id]
		if !ok {
			continue
		}
		for i := range t.rows {
			if t.rows[i].fromIndex == fromIndex {
				out = append(out, TreeRow{
					FromArch: id.From, ToArch: id.To,
					FromIndex: fromIndex, ToIndex: t.rows[i].toIndex,
					Depth: id.Depth,
				})
			}
		}
	}
	return out
}

// EraseFrom removes every row, at any depth and any "to" archetype, where
// fromIndex is the "from" endpoint of relation. Used to clear a tree
// relation's stale parent edge and derived ancestor chain before a child
// is re-related to a new parent.
func (r *SparseRelationTableRegistry) EraseFrom(relation DataTypeId, fromArch ArchetypeId, fromIndex uint32) {
	for _, id := range r.Type(relation).From(fromArch) {
		t, ok := r.tables[id]
		if !ok {
			continue
		}
		for i := 0; i < len(t.rows); {
			if t.rows[i].fromIndex == fromIndex {
				t.swapErase(i)
				continue
			}
			i++
		}
	}
}

// Collect appends to out every table id created at or after counter that
// satisfies filter, returning a cursor for the next call.
func (r *SparseRelationTableRegistry) Collect(out []SparseRelationTableId, counter int, filter func(SparseRelationTableId) bool) ([]SparseRelationTableId, int) {
	for ; counter < len(r.ids); counter++ {
		if filter(r.ids[counter]) {
			out = append(out, r.ids[counter])
		}
	}
	return out, counter
}
