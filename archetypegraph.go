package ecs

// archetypeNode is one node of the archetype graph: an unordered set of
// column ids plus cached single-step add/remove transitions. Ported
// near-verbatim from the engine's ArchetypeGraph (archetype_graph.hpp):
// edges are materialized lazily and the first crossing between two
// neighboring archetypes costs a linear scan over existing nodes, cached
// both ways afterwards.
type archetypeNode struct {
	ids   map[ColumnId]struct{}
	order []ColumnId // ids in a stable, insertion-independent order
	edges map[ColumnId]ArchetypeId
}

func newArchetypeNode(ids []ColumnId) *archetypeNode {
	n := &archetypeNode{
		ids:   make(map[ColumnId]struct{}, len(ids)),
		edges: make(map[ColumnId]ArchetypeId),
	}
	sorted := append([]ColumnId(nil), ids...)
	sortColumnIds(sorted)
	n.order = sorted
	for _, id := range sorted {
		n.ids[id] = struct{}{}
	}
	return n
}

func sortColumnIds(ids []ColumnId) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

func (n *archetypeNode) equalSet(ids map[ColumnId]struct{}) bool {
	if len(n.ids) != len(ids) {
		return false
	}
	for id := range ids {
		if _, ok := n.ids[id]; !ok {
			return false
		}
	}
	return true
}

// ArchetypeGraph stores which column ids each archetype holds and the
// edges connecting archetypes that differ by exactly one column
// (spec.md §4.3).
type ArchetypeGraph struct {
	nodes []*archetypeNode
}

// NewArchetypeGraph creates a graph pre-populated with the Invalid and
// Empty sentinel archetypes so their ids are stable.
func NewArchetypeGraph() *ArchetypeGraph {
	g := &ArchetypeGraph{}
	g.nodes = append(g.nodes, newArchetypeNode(nil)) // index 0: Invalid, unused
	g.nodes = append(g.nodes, newArchetypeNode(nil)) // index 1: Empty
	return g
}

func (g *ArchetypeGraph) node(a ArchetypeId) *archetypeNode {
	return g.nodes[a]
}

// Contains reports whether archetype a holds column id.
func (g *ArchetypeGraph) Contains(a ArchetypeId, id ColumnId) bool {
	_, ok := g.node(a).ids[id]
	return ok
}

// With returns the archetype with the same columns as source plus id,
// creating it if no existing node matches. The edge is cached in both
// directions so the reverse Without call is O(1) from then on.
func (g *ArchetypeGraph) With(source ArchetypeId, id ColumnId) ArchetypeId {
	src := g.node(source)
	if _, ok := src.ids[id]; ok {
		return source
	}
	if target, ok := src.edges[id]; ok {
		return target
	}

	want := make(map[ColumnId]struct{}, len(src.ids)+1)
	for existing := range src.ids {
		want[existing] = struct{}{}
	}
	want[id] = struct{}{}

	target := g.findOrCreate(want)
	src.edges[id] = target
	g.node(target).edges[id] = source
	return target
}

// Without returns the archetype with the same columns as source except
// id, which must be present in source.
func (g *ArchetypeGraph) Without(source ArchetypeId, id ColumnId) ArchetypeId {
	src := g.node(source)
	if _, ok := src.ids[id]; !ok {
		return source
	}
	if target, ok := src.edges[id]; ok {
		return target
	}

	want := make(map[ColumnId]struct{}, len(src.ids))
	for existing := range src.ids {
		if existing != id {
			want[existing] = struct{}{}
		}
	}

	target := g.findOrCreate(want)
	src.edges[id] = target
	g.node(target).edges[id] = source
	return target
}

// findOrCreate does the linear search described by the engine's own
// comment: the first crossing between two archetypes that happen to
// already both exist is the only place this graph pays O(nodes) instead
// of O(1).
func (g *ArchetypeGraph) findOrCreate(want map[ColumnId]struct{}) ArchetypeId {
	for i, n := range g.nodes {
		if i == 0 {
			continue
		}
		if n.equalSet(want) {
			return ArchetypeId(i)
		}
	}
	ids := make([]ColumnId, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	g.nodes = append(g.nodes, newArchetypeNode(ids))
	return ArchetypeId(len(g.nodes) - 1)
}

// First returns the first column id of an archetype in a stable order,
// or InvalidArchetype's zero ColumnId if it is Empty.
func (g *ArchetypeGraph) First(a ArchetypeId) (ColumnId, bool) {
	order := g.node(a).order
	if len(order) == 0 {
		return 0, false
	}
	return order[0], true
}

// Next returns the column id following id in archetype a's stable order.
func (g *ArchetypeGraph) Next(a ArchetypeId, id ColumnId) (ColumnId, bool) {
	order := g.node(a).order
	for i, existing := range order {
		if existing == id && i+1 < len(order) {
			return order[i+1], true
		}
	}
	return 0, false
}

// Ids returns the full column id set of an archetype, in stable order.
func (g *ArchetypeGraph) Ids(a ArchetypeId) []ColumnId {
	return append([]ColumnId(nil), g.node(a).order...)
}

// Collect appends to out every archetype created at or after seen whose
// column set is a superset of archetype's, returning a cursor to pass on
// the next call so only newly created nodes are rescanned.
func (g *ArchetypeGraph) Collect(archetype ArchetypeId, out []ArchetypeId, seen int) ([]ArchetypeId, int) {
	base := g.node(archetype)
	for i := seen; i < len(g.nodes); i++ {
		if i == 0 {
			continue
		}
		if isSuperset(g.nodes[i].ids, base.ids) {
			out = append(out, ArchetypeId(i))
		}
	}
	return out, len(g.nodes)
}

func isSuperset(set, subset map[ColumnId]struct{}) bool {
	if len(set) < len(subset) {
		return false
	}
	for id := range subset {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// Len returns the number of archetypes created so far, including the
// Invalid and Empty sentinels.
func (g *ArchetypeGraph) Len() int {
	return len(g.nodes)
}
