package ecs

import (
	"sync"

	"github.com/cubos-go/ecs/reflection"
)

// TypeKind classifies a registered type by the role it plays in the
// world: component, relation, resource or event.
type TypeKind int

const (
	KindComponent TypeKind = iota
	KindRelation
	KindResource
	KindEvent
)

func (k TypeKind) String() string {
	switch k {
	case KindComponent:
		return "component"
	case KindRelation:
		return "relation"
	case KindResource:
		return "resource"
	case KindEvent:
		return "event"
	default:
		return "unknown"
	}
}

// RelationOption configures a relation at registration time.
type RelationOption func(*typeEntry)

// Symmetric marks a relation as symmetric: for every stored (a, b, v),
// (b, a, v) must also be accessible. Storage realizes this through
// double lookup, not double insertion (see DESIGN.md).
func Symmetric() RelationOption {
	return func(e *typeEntry) { e.symmetric = true }
}

// Tree marks a relation as tree-shaped: every entity has at most one
// incoming edge of that relation at a time.
func Tree() RelationOption {
	return func(e *typeEntry) { e.tree = true }
}

type typeEntry struct {
	id        DataTypeId
	kind      TypeKind
	refl      *reflection.Type
	symmetric bool
	tree      bool
}

// TypeRegistry is the named, bidirectional map of every component,
// relation, resource and event type registered with a World. It is the
// only place a reflection.Type crosses into ECS-specific bookkeeping
// (kind, and for relations, the symmetric/tree flags).
type TypeRegistry struct {
	mu      sync.RWMutex
	byName  map[string]DataTypeId
	entries []typeEntry // index 0 unused so DataTypeId zero value is invalid
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		byName:  make(map[string]DataTypeId),
		entries: make([]typeEntry, 1),
	}
}

func (r *TypeRegistry) register(kind TypeKind, t *reflection.Type, opts ...RelationOption) (DataTypeId, error) {
	if _, err := reflection.TraitOrErr[reflection.ConstructibleTrait](t); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[t.Name()]; exists {
		return 0, TypeAlreadyRegisteredError{Name: t.Name()}
	}

	entry := typeEntry{id: DataTypeId(len(r.entries)), kind: kind, refl: t}
	for _, opt := range opts {
		opt(&entry)
	}
	r.entries = append(r.entries, entry)
	r.byName[t.Name()] = entry.id
	return entry.id, nil
}

// RegisterComponent registers t as a component type.
func (r *TypeRegistry) RegisterComponent(t *reflection.Type) (DataTypeId, error) {
	return r.register(KindComponent, t)
}

// RegisterRelation registers t as a relation type.
func (r *TypeRegistry) RegisterRelation(t *reflection.Type, opts ...RelationOption) (DataTypeId, error) {
	return r.register(KindRelation, t, opts...)
}

// RegisterResource registers t as a resource type.
func (r *TypeRegistry) RegisterResource(t *reflection.Type) (DataTypeId, error) {
	return r.register(KindResource, t)
}

// RegisterEvent registers t as an event payload type.
func (r *TypeRegistry) RegisterEvent(t *reflection.Type) (DataTypeId, error) {
	return r.register(KindEvent, t)
}

// ByName looks up a previously registered type's id.
func (r *TypeRegistry) ByName(name string) (DataTypeId, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

func (r *TypeRegistry) entry(id DataTypeId) (typeEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) <= 0 || int(id) >= len(r.entries) {
		return typeEntry{}, false
	}
	return r.entries[id], true
}

// Kind reports the kind of a registered type.
func (r *TypeRegistry) Kind(id DataTypeId) TypeKind {
	e, _ := r.entry(id)
	return e.kind
}

// Type returns the reflection descriptor backing id.
func (r *TypeRegistry) Type(id DataTypeId) *reflection.Type {
	e, _ := r.entry(id)
	return e.refl
}

// Symmetric reports whether the relation id was registered as symmetric.
func (r *TypeRegistry) Symmetric(id DataTypeId) bool {
	e, _ := r.entry(id)
	return e.symmetric
}

// IsTree reports whether the relation id was registered as tree-shaped.
func (r *TypeRegistry) IsTree(id DataTypeId) bool {
	e, _ := r.entry(id)
	return e.tree
}

// Constructible returns the Constructible trait of a registered type; it
// is always present because registration rejects types without one.
func (r *TypeRegistry) Constructible(id DataTypeId) reflection.ConstructibleTrait {
	e, _ := r.entry(id)
	return reflection.MustTrait[reflection.ConstructibleTrait](e.refl)
}
