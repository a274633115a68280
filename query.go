package ecs

import "github.com/TheBitDrifter/mask"

// QueryOperation is the boolean combinator a composite query node applies
// to its columns and children, mirroring the teacher's own query tree.
type QueryOperation int

const (
	OpAnd QueryOperation = iota
	OpOr
	OpNot
)

// QueryNode evaluates whether a dense table's archetype satisfies it.
// Matching reuses the table package's own mask.Maskable bit set rather
// than re-deriving a column mask from the archetype graph, the same
// quick-reject the teacher's query tree performs against storage.
type QueryNode interface {
	Evaluate(dt *DenseTable, w *World) bool
}

type leafNode struct {
	columns []ColumnId
}

type compositeNode struct {
	op       QueryOperation
	columns  []ColumnId
	children []QueryNode
}

func columnMask(w *World, columns []ColumnId) mask.Mask {
	var m mask.Mask
	for _, c := range columns {
		if et, ok := w.columnElements[c]; ok {
			m.Mark(w.schema.RowIndexFor(et))
		}
	}
	return m
}

func tableMask(dt *DenseTable) mask.Mask {
	return dt.tbl.(mask.Maskable).Mask()
}

func (n *leafNode) Evaluate(dt *DenseTable, w *World) bool {
	return tableMask(dt).ContainsAll(columnMask(w, n.columns))
}

// baseColumns returns the columns a node definitely requires on any
// matching table, used to seed ArchetypeGraph.Collect with a narrower
// starting point than the Empty archetype (spec.md §4.7).
func (n *leafNode) baseColumns() []ColumnId { return n.columns }

// baseColumner is implemented by query nodes that can report a definite
// column requirement; nodes built purely from Or/Not return no base and
// fall back to scanning every archetype.
type baseColumner interface {
	baseColumns() []ColumnId
}

func (n *compositeNode) Evaluate(dt *DenseTable, w *World) bool {
	nodeMask := columnMask(w, n.columns)
	archeMask := tableMask(dt)

	switch n.op {
	case OpAnd:
		if !archeMask.ContainsAll(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(dt, w) {
				return false
			}
		}
		return true
	case OpOr:
		if len(n.columns) > 0 && archeMask.ContainsAny(nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(dt, w) {
				return true
			}
		}
		return false
	case OpNot:
		if len(n.columns) > 0 && !archeMask.ContainsNone(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if child.Evaluate(dt, w) {
				return false
			}
		}
		return true
	}
	return false
}

// baseColumns reports a definite column requirement only for an AND
// composite (including its AND-composite children); Or/Not nodes carry
// no guarantee a matching table holds any particular column, so they
// contribute nothing and the cursor falls back to a full archetype scan.
func (n *compositeNode) baseColumns() []ColumnId {
	if n.op != OpAnd {
		return nil
	}
	out := append([]ColumnId(nil), n.columns...)
	for _, child := range n.children {
		if bc, ok := child.(baseColumner); ok {
			out = append(out, bc.baseColumns()...)
		}
	}
	return out
}

// Has returns a node matching every table that holds all of columns.
func Has(columns ...ColumnId) QueryNode {
	return &leafNode{columns: columns}
}

// Without returns a node matching every table that holds none of columns.
func Without(columns ...ColumnId) QueryNode {
	return &compositeNode{op: OpNot, columns: columns}
}

// AnyOf returns a node matching a table that holds at least one of
// columns, or that satisfies one of children.
func AnyOf(columns []ColumnId, children ...QueryNode) QueryNode {
	return &compositeNode{op: OpOr, columns: columns, children: children}
}

// AllOf returns a node matching a table that holds every one of columns
// and satisfies every one of children.
func AllOf(columns []ColumnId, children ...QueryNode) QueryNode {
	return &compositeNode{op: OpAnd, columns: columns, children: children}
}

// Cursor iterates the rows of every dense table that satisfies a query
// node, one row at a time, mirroring the teacher's own Cursor save for
// being keyed by ColumnId/DenseTable rather than Component/Storage.
//
// Candidate tables are discovered incrementally through
// ArchetypeGraph.Collect rather than a flat rescan of every dense table:
// the cursor computes a minimal base archetype from the node's definite
// column requirements (baseColumns) and asks the graph, each refresh,
// only for archetypes created since the last one it examined — the
// estimate/update/next shape spec.md §4.7 describes, specialized to this
// engine's single-pass evaluation rather than a generic cost-estimating
// node tree.
type Cursor struct {
	w    *World
	node QueryNode

	base         ArchetypeId
	baseComputed bool
	archSeen     int
	matched      []*DenseTable
	knownArch    map[ArchetypeId]bool

	tableIndex  int
	entityIndex int
	remaining   int

	// pinned makes the cursor yield exactly one row (or none), set by
	// Pin instead of the ordinary table-scanning Next path.
	pinned     bool
	pinnedDone bool
}

// NewCursor creates a cursor over every table in w matching node.
func NewCursor(w *World, node QueryNode) *Cursor {
	return &Cursor{w: w, node: node}
}

// Pin binds a query to one specific entity instead of scanning every
// matching archetype: the cursor yields e's own row exactly once, if e is
// alive and its archetype satisfies node (spec.md §4.7's Pin term, used
// to combine a broad query with a caller-known anchor entity).
func Pin(w *World, node QueryNode, e Entity) *Cursor {
	c := &Cursor{w: w, node: node, pinned: true, baseComputed: true}
	if !w.entities.IsAlive(e) {
		c.pinnedDone = true
		return c
	}
	a := w.entities.Archetype(e)
	dt, ok := w.dense.At(a)
	if !ok || !node.Evaluate(dt, w) {
		c.pinnedDone = true
		return c
	}
	row, err := w.rowOf(e)
	if err != nil {
		c.pinnedDone = true
		return c
	}
	c.matched = []*DenseTable{dt}
	c.tableIndex = 0
	c.entityIndex = row + 1
	return c
}

func (c *Cursor) ensureBase() {
	if c.baseComputed {
		return
	}
	base := EmptyArchetype
	if bc, ok := c.node.(baseColumner); ok {
		for _, col := range bc.baseColumns() {
			base = c.w.archetypes.With(base, col)
		}
	}
	c.base = base
	c.baseComputed = true
}

// refresh pulls in and evaluates any archetype created since the last
// call, appending newly-matching tables to c.matched. Already-known
// archetypes are never re-evaluated: a dense table's column set cannot
// change after creation, so a past Evaluate result stays valid forever.
func (c *Cursor) refresh() {
	c.ensureBase()
	var ids []ArchetypeId
	ids, c.archSeen = c.w.archetypes.Collect(c.base, ids, c.archSeen)
	if len(ids) == 0 {
		return
	}
	if c.knownArch == nil {
		c.knownArch = make(map[ArchetypeId]bool, len(ids))
	}
	for _, a := range ids {
		if c.knownArch[a] {
			continue
		}
		c.knownArch[a] = true
		dt, ok := c.w.dense.At(a)
		if !ok {
			continue
		}
		if c.node.Evaluate(dt, c.w) {
			c.matched = append(c.matched, dt)
		}
	}
}

// Next advances the cursor to the next matching row, returning false
// once exhausted.
func (c *Cursor) Next() bool {
	if c.pinned {
		if c.pinnedDone {
			return false
		}
		c.pinnedDone = true
		return true
	}
	c.refresh()
	for c.tableIndex < len(c.matched) {
		if c.entityIndex == 0 {
			c.remaining = c.matched[c.tableIndex].Size()
		}
		if c.entityIndex < c.remaining {
			c.entityIndex++
			return true
		}
		c.tableIndex++
		c.entityIndex = 0
	}
	return false
}

// Reset rewinds the cursor's iteration position so a subsequent Next
// call re-walks already-known matching tables from the start; it does
// not forget which archetypes were already classified, so a following
// refresh only has to examine archetypes created since the last one.
func (c *Cursor) Reset() {
	c.tableIndex = 0
	c.entityIndex = 0
	c.remaining = 0
	c.pinnedDone = false
}

func (c *Cursor) currentTable() *DenseTable {
	return c.matched[c.tableIndex]
}

// Entity returns the entity handle owning the cursor's current row.
func (c *Cursor) Entity() Entity {
	entry, err := c.currentTable().tbl.Entry(c.entityIndex - 1)
	if err != nil {
		return Null
	}
	return Entity{Index: uint32(entry.ID()), Generation: uint32(entry.Recycled())}
}

// Read is a read-only accessor for component T bound to a cursor's
// current row.
type Read[T any] struct{ ct ComponentType[T] }

// NewRead builds a Read accessor for ct.
func NewRead[T any](ct ComponentType[T]) Read[T] { return Read[T]{ct: ct} }

// Get returns the component's value at the cursor's current row.
func (r Read[T]) Get(c *Cursor) *T {
	return r.ct.Get(c.entityIndex-1, c.currentTable().tbl)
}

// Check reports whether the cursor's current table carries the column.
func (r Read[T]) Check(c *Cursor) bool {
	return r.ct.Check(c.currentTable().tbl)
}

// Write is a mutable accessor for component T; every Get bumps the
// column's change-detection version.
type Write[T any] struct{ ct ComponentType[T] }

// NewWrite builds a Write accessor for ct.
func NewWrite[T any](ct ComponentType[T]) Write[T] { return Write[T]{ct: ct} }

// Get returns a mutable pointer to the component's value at the cursor's
// current row, marking the column changed.
func (w Write[T]) Get(c *Cursor) *T {
	dt := c.currentTable()
	dt.touchColumn(w.ct.Column())
	return w.ct.Get(c.entityIndex-1, dt.tbl)
}

// Check reports whether the cursor's current table carries the column.
func (w Write[T]) Check(c *Cursor) bool {
	return w.ct.Check(c.currentTable().tbl)
}

// OptRead is a Read accessor for a column a query did not require, used
// for optional terms.
type OptRead[T any] struct{ Read[T] }

// NewOptRead builds an OptRead accessor for ct.
func NewOptRead[T any](ct ComponentType[T]) OptRead[T] { return OptRead[T]{Read[T]{ct: ct}} }

// GetSafe returns the component's value and true if present on the
// cursor's current row, or nil and false otherwise.
func (o OptRead[T]) GetSafe(c *Cursor) (*T, bool) {
	if !o.Check(c) {
		return nil, false
	}
	return o.Get(c), true
}

// OptWrite is a Write accessor for a column a query did not require.
type OptWrite[T any] struct{ Write[T] }

// NewOptWrite builds an OptWrite accessor for ct.
func NewOptWrite[T any](ct ComponentType[T]) OptWrite[T] { return OptWrite[T]{Write[T]{ct: ct}} }

// GetSafe returns a mutable pointer to the component's value and true if
// present on the cursor's current row, or nil and false otherwise.
func (o OptWrite[T]) GetSafe(c *Cursor) (*T, bool) {
	if !o.Check(c) {
		return nil, false
	}
	return o.Get(c), true
}

// changedNode matches a table whose column's version has advanced since
// this node last evaluated it, consuming DenseTable's Write-side version
// counters as the query planner's change-detection term (spec.md §4.7).
// Each archetype's baseline advances the moment it is observed, so a
// changedNode is edge-triggered: cursors built from separate Changed(...)
// calls see independent change streams (cursors sharing one node share
// its baselines), but two Next passes
// over the same cursor only ever report a table once per write.
type changedNode struct {
	column ColumnId
	seen   map[ArchetypeId]uint64
}

// Changed returns a node matching any table where column's write-version
// has advanced since this node last observed it (a newly-matched table's
// first observation counts as changed only if the column was ever
// written to).
func Changed(column ColumnId) QueryNode {
	return &changedNode{column: column, seen: make(map[ArchetypeId]uint64)}
}

func (n *changedNode) Evaluate(dt *DenseTable, w *World) bool {
	cur := dt.ColumnVersion(n.column)
	prev, known := n.seen[dt.Archetype()]
	n.seen[dt.Archetype()] = cur
	if !known {
		return cur > 0
	}
	return cur > prev
}

func (n *changedNode) baseColumns() []ColumnId { return []ColumnId{n.column} }

// RelationCursor iterates every (from, to) entity pair connected by a
// relation, optionally restricted to a depth range and to endpoint
// archetypes matching a QueryNode on either side — the Query Data &
// Planner's relation traversal term (spec.md §4.7). It is a two-target
// join rather than a general N-ary multi-target query: every relation
// term this engine's tested scenarios need (ChildOf ancestor/descendant
// walks, Likes lookups) is exactly a from/to pair, so a dedicated planner
// for wider tuples was not built (see DESIGN.md).
type RelationCursor struct {
	w        *World
	relation DataTypeId
	fromNode QueryNode
	toNode   QueryNode
	minDepth int
	maxDepth int // negative means unbounded

	tables    []SparseRelationTableId
	tableSeen int

	tableIndex int
	rowIndex   int
}

// NewRelationCursor creates a cursor over every row of relation whose
// depth falls in [minDepth, maxDepth] (maxDepth < 0 means unbounded) and
// whose endpoints satisfy fromNode/toNode (either may be nil to accept
// any archetype).
func NewRelationCursor(w *World, relation DataTypeId, fromNode, toNode QueryNode, minDepth, maxDepth int) *RelationCursor {
	return &RelationCursor{w: w, relation: relation, fromNode: fromNode, toNode: toNode, minDepth: minDepth, maxDepth: maxDepth}
}

func (c *RelationCursor) refresh() {
	var ids []SparseRelationTableId
	ids, c.tableSeen = c.w.sparse.Collect(ids, c.tableSeen, func(id SparseRelationTableId) bool {
		if id.Relation != c.relation {
			return false
		}
		if id.Depth < c.minDepth {
			return false
		}
		if c.maxDepth >= 0 && id.Depth > c.maxDepth {
			return false
		}
		if c.fromNode != nil {
			dt, ok := c.w.dense.At(id.From)
			if !ok || !c.fromNode.Evaluate(dt, c.w) {
				return false
			}
		}
		if c.toNode != nil {
			dt, ok := c.w.dense.At(id.To)
			if !ok || !c.toNode.Evaluate(dt, c.w) {
				return false
			}
		}
		return true
	})
	c.tables = append(c.tables, ids...)
}

// Next advances the cursor to the next matching relation row.
func (c *RelationCursor) Next() bool {
	c.refresh()
	for c.tableIndex < len(c.tables) {
		t := c.w.sparse.At(c.tables[c.tableIndex])
		if c.rowIndex < t.Len() {
			c.rowIndex++
			return true
		}
		c.tableIndex++
		c.rowIndex = 0
	}
	return false
}

func (c *RelationCursor) current() *SparseRelationTable {
	return c.w.sparse.At(c.tables[c.tableIndex])
}

// From returns the "from" endpoint of the cursor's current row.
func (c *RelationCursor) From() Entity {
	fromIdx, _ := c.current().Row(c.rowIndex - 1)
	return c.w.entities.EntityAt(fromIdx)
}

// To returns the "to" endpoint of the cursor's current row.
func (c *RelationCursor) To() Entity {
	_, toIdx := c.current().Row(c.rowIndex - 1)
	return c.w.entities.EntityAt(toIdx)
}

// Depth returns the current row's depth bucket (always 0 for a non-tree
// relation).
func (c *RelationCursor) Depth() int {
	return c.tables[c.tableIndex].Depth
}

// Value returns the current row's relation payload bytes.
func (c *RelationCursor) Value() []byte {
	return c.current().Value(c.rowIndex - 1)
}
