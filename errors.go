package ecs

import "fmt"

// LockedStorageError is returned when a mutating operation is attempted
// while the world has scheduler-granted access locks outstanding; it
// generalizes the teacher storage's own locked-table error to the whole
// world rather than a single table.
type LockedStorageError struct{}

func (LockedStorageError) Error() string { return "world is currently locked" }

// UnknownEntityError is returned by recoverable operations on a stale or
// unrecognized entity handle (spec.md §7: "Stale handles... tolerated").
type UnknownEntityError struct {
	Entity Entity
}

func (e UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown or stale entity: %v", e.Entity)
}

// TypeAlreadyRegisteredError is returned when a name is registered twice.
type TypeAlreadyRegisteredError struct {
	Name string
}

func (e TypeAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("type already registered: %q", e.Name)
}

// UnknownTypeError is returned when a DataTypeId or name has no
// registered type.
type UnknownTypeError struct {
	Name string
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type: %q", e.Name)
}

// ComponentExistsError mirrors the teacher's error of the same name,
// generalized from a single-schema Component to any registered column.
type ComponentExistsError struct {
	Column ColumnId
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("component already exists on entity: %v", e.Column)
}

// ComponentNotFoundError mirrors the teacher's error of the same name.
type ComponentNotFoundError struct {
	Column ColumnId
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component does not exist on entity: %v", e.Column)
}

// ResourceConflictError is a planner-time error: two systems in the same
// stage declared overlapping access to the same resource or component
// with at least one write.
type ResourceConflictError struct {
	SystemA, SystemB string
	Type             string
}

func (e ResourceConflictError) Error() string {
	return fmt.Sprintf("systems %q and %q conflict over %q in the same stage", e.SystemA, e.SystemB, e.Type)
}

// CyclicOrderingError is a planner-time error reporting a cycle in the
// before/after ordering graph.
type CyclicOrderingError struct {
	Cycle []string
}

func (e CyclicOrderingError) Error() string {
	return fmt.Sprintf("cyclic system ordering constraint: %v", e.Cycle)
}

// UnknownBlueprintEntityError is returned when a Blueprint.Relate call
// names an entity template that was never declared with Entity.
type UnknownBlueprintEntityError struct {
	Blueprint string
	Name      string
}

func (e UnknownBlueprintEntityError) Error() string {
	return fmt.Sprintf("blueprint %q: no entity named %q", e.Blueprint, e.Name)
}

// ObserverRecursionError is returned when observers triggered by a
// commit enqueue more commands than Config.ObserverCycleLimit allows to
// be flushed.
type ObserverRecursionError struct {
	Limit int
	Path  []string
}

func (e ObserverRecursionError) Error() string {
	return fmt.Sprintf("observer recursion exceeded bound of %d: %v", e.Limit, e.Path)
}
