package ecs

import (
	"reflect"

	"github.com/TheBitDrifter/table"
	"github.com/cubos-go/ecs/reflection"
)

// ComponentType is a typed handle to a registered component column. It
// generalizes the teacher's AccessibleComponent[T]: alongside the
// table.Accessor[T] that gives O(1) typed access into a dense table row,
// it carries the ColumnId and reflection.Type needed by the archetype
// graph, the query planner and the Blueprint/Commands boundary.
type ComponentType[T any] struct {
	id       DataTypeId
	column   ColumnId
	elem     table.ElementType
	accessor table.Accessor[T]
	refl     *reflection.Type
}

// ID returns the component's DataTypeId.
func (c ComponentType[T]) ID() DataTypeId { return c.id }

// Column returns the component's ColumnId, used when computing
// archetype transitions.
func (c ComponentType[T]) Column() ColumnId { return c.column }

// ElementType returns the table.ElementType backing this component's
// storage column.
func (c ComponentType[T]) ElementType() table.ElementType { return c.elem }

// Type returns the reflection descriptor for T.
func (c ComponentType[T]) Type() *reflection.Type { return c.refl }

// Get returns a pointer to T's value for the entity occupying row in
// tbl. The caller must already know the component is present (e.g.
// because it pinned a query term on it); use Check to verify first.
func (c ComponentType[T]) Get(row int, tbl table.Table) *T {
	return c.accessor.Get(row, tbl)
}

// Check reports whether tbl's archetype carries this component at all.
func (c ComponentType[T]) Check(tbl table.Table) bool {
	return c.accessor.Check(tbl)
}

// RegisterComponent registers T as a component type on w: it derives a
// reflection.Type (with a Constructible trait auto-built from T, via
// reflection.ConstructibleFor), assigns it a DataTypeId through the type
// registry, and registers a matching table.ElementType with the world's
// shared schema so archetypes that include T get a dense column for it.
func RegisterComponent[T any](w *World) (ComponentType[T], error) {
	var zero T
	goType := reflect.TypeOf(zero)
	name := typeName(goType)

	refl := reflection.NewType(name, goType)
	refl.With(reflection.ConstructibleFor[T]())

	id, err := w.types.RegisterComponent(refl)
	if err != nil {
		return ComponentType[T]{}, err
	}

	elem := table.FactoryNewElementType[T]()
	w.schema.Register(elem)
	accessor := table.FactoryNewAccessor[T](elem)

	ct := ComponentType[T]{
		id:       id,
		column:   NewColumnId(id),
		elem:     elem,
		accessor: accessor,
		refl:     refl,
	}
	w.columnElements[ct.column] = elem
	return ct, nil
}

// RegisterRelation registers T as a relation payload type on w, the
// relation counterpart to RegisterComponent: it derives T's
// reflection.Type the same way, but enters it into the type registry
// under KindRelation with whatever RelationOptions the caller supplies
// (Symmetric, Tree). The returned DataTypeId is what Commands.Relate
// and the sparse relation tables key on.
func RegisterRelation[T any](w *World, opts ...RelationOption) (DataTypeId, error) {
	var zero T
	goType := reflect.TypeOf(zero)
	name := typeName(goType)

	refl := reflection.NewType(name, goType)
	refl.With(reflection.ConstructibleFor[T]())

	return w.types.RegisterRelation(refl, opts...)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if pkg := t.PkgPath(); pkg != "" {
		return pkg + "." + t.Name()
	}
	return t.String()
}
