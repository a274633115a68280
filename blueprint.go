package ecs

// blueprintEntity is one named entity template within a Blueprint: the
// columns it carries plus, for each, a fill closure produced the same
// way EntityBuilder.With builds one (spec.md §4.10/§3).
type blueprintEntity struct {
	name    string
	columns []ColumnId
	fill    []func(w *World, e Entity) error
}

// blueprintRelation is a relation queued between two of a Blueprint's own
// named entities, resolved to live handles once Spawn has created them.
type blueprintRelation struct {
	relation  DataTypeId
	from, to  string
	symmetric bool
	tree      bool
	depth     int
	value     []byte
}

// Blueprint is a detached, named recipe for spawning a whole group of
// related entities at once: a mini-world keyed by name, holding no live
// World reference, only DataTypeIds, so the same blueprint can be
// instantiated into any world that has registered the same component and
// relation types under the same names (spec.md §3, §4.10).
type Blueprint struct {
	name      string
	entities  []*blueprintEntity
	byName    map[string]*blueprintEntity
	relations []blueprintRelation
}

// NewBlueprint creates a new, empty blueprint with the given name.
func NewBlueprint(name string) *Blueprint {
	return &Blueprint{name: name, byName: make(map[string]*blueprintEntity)}
}

// Name returns the blueprint's registered name.
func (b *Blueprint) Name() string { return b.name }

// BlueprintEntity is the builder returned by Blueprint.Entity, used to
// attach components to one of the blueprint's named entity templates.
type BlueprintEntity struct {
	bp *Blueprint
	e  *blueprintEntity
}

// Entity begins a new named entity template within the blueprint. The
// name is only meaningful within this blueprint, for wiring Relate calls
// and for reading the map Spawn returns; it is not a world-wide entity
// name.
func (b *Blueprint) Entity(name string) *BlueprintEntity {
	be := &blueprintEntity{name: name}
	b.entities = append(b.entities, be)
	b.byName[name] = be
	return &BlueprintEntity{bp: b, e: be}
}

// WithComponent adds component type T, constructed via value, to the
// entity template be describes.
func WithComponent[T any](be *BlueprintEntity, ct ComponentType[T], value T) *BlueprintEntity {
	be.e.columns = append(be.e.columns, ct.Column())
	be.e.fill = append(be.e.fill, func(w *World, e Entity) error {
		ptr, err := Get(w, ct, e)
		if err != nil {
			return err
		}
		*ptr = value
		return nil
	})
	return be
}

// Relate queues a relation row between two of the blueprint's own named
// entities, to be inserted once Spawn has created live handles for both.
// from and to must each have been named by an earlier call to Entity.
func (b *Blueprint) Relate(relation DataTypeId, from, to string, symmetric, tree bool, depth int, value []byte) *Blueprint {
	b.relations = append(b.relations, blueprintRelation{
		relation: relation, from: from, to: to,
		symmetric: symmetric, tree: tree, depth: depth, value: value,
	})
	return b
}

// RegisterBlueprint files b under its name so it can later be looked up
// with World.Blueprint by callers that only know a string (e.g. level
// loaders).
func RegisterBlueprint(w *World, b *Blueprint) {
	w.blueprints[b.name] = b
}

// Blueprint looks up a previously registered blueprint by name.
func (w *World) Blueprint(name string) (*Blueprint, bool) {
	b, ok := w.blueprints[name]
	return b, ok
}

// spawnFrom queues a pendingSpawn built directly from a blueprint
// template's columns and fill closures, bypassing EntityBuilder.With
// (which exists for the caller-assembled case, not for replaying an
// already-built template).
func (c Commands) spawnFrom(columns []ColumnId, fill []func(w *World, e Entity) error) *EntityBuilder {
	s := &pendingSpawn{
		columns: append([]ColumnId(nil), columns...),
		fill:    append([]func(w *World, e Entity) error(nil), fill...),
	}
	c.buf.spawns = append(c.buf.spawns, s)
	return &EntityBuilder{buf: c.buf, spawn: s}
}

// Spawn instantiates every entity template the blueprint holds, in
// declaration order, through the ordinary CommandBuffer/Commands path —
// the world sees nothing of the batch until each of the (at most two)
// buffers this builds is committed — then wires the queued relations
// between the resulting handles. It returns the live entity for each
// template, keyed by the name passed to Entity.
//
// Relations are committed in a second buffer after the spawn buffer,
// because a relation needs the live handles a spawn only produces once
// its own buffer commits (the same two-commit spawn-then-relate idiom
// Commands.Relate already uses for entities created in the same tick).
// Add observers therefore run only after the whole spawn batch has
// landed (still once per entity and column), and relate observers only
// after the whole relation batch has (still once per endpoint).
func (b *Blueprint) Spawn(w *World) (map[string]Entity, error) {
	buf := NewCommandBuffer(w)
	cmd := NewCommands(buf)

	handles := make([]Entity, len(b.entities))
	for i, be := range b.entities {
		cmd.spawnFrom(be.columns, be.fill).Into(&handles[i])
	}
	if err := buf.Commit(); err != nil {
		return nil, err
	}

	result := make(map[string]Entity, len(b.entities))
	for i, be := range b.entities {
		result[be.name] = handles[i]
	}

	if len(b.relations) == 0 {
		return result, nil
	}

	relBuf := NewCommandBuffer(w)
	relCmd := NewCommands(relBuf)
	for _, r := range b.relations {
		from, ok := result[r.from]
		if !ok {
			return nil, UnknownBlueprintEntityError{Blueprint: b.name, Name: r.from}
		}
		to, ok := result[r.to]
		if !ok {
			return nil, UnknownBlueprintEntityError{Blueprint: b.name, Name: r.to}
		}
		relCmd.Relate(r.relation, from, to, r.symmetric, r.tree, r.depth, r.value)
	}
	if err := relBuf.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}
