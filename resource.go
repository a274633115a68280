package ecs

import (
	"reflect"
	"unsafe"

	"github.com/cubos-go/ecs/reflection"
)

// resourceSlot holds one resource's boxed value plus the reflection type
// used to validate Get/Set calls. Resources are process-wide singletons,
// one instance per registered type (spec.md §4.7's "world-scoped data" —
// cameras, asset servers, physics configuration).
type resourceSlot struct {
	refl  *reflection.Type
	value any
}

// RegisterResource registers T as a resource type and installs initial
// as its singleton value.
func RegisterResource[T any](w *World, initial T) (DataTypeId, error) {
	goType := reflect.TypeOf(initial)
	name := typeName(goType)
	refl := reflection.NewType(name, goType)
	refl.With(reflection.ConstructibleFor[T]())

	id, err := w.types.RegisterResource(refl)
	if err != nil {
		return 0, err
	}
	w.resources[id] = &resourceSlot{refl: refl, value: initial}
	return id, nil
}

// Resource fetches the singleton value for a previously registered
// resource type, by its DataTypeId.
func Resource[T any](w *World, id DataTypeId) (*T, error) {
	slot, ok := w.resources[id]
	if !ok {
		return nil, UnknownTypeError{Name: "resource"}
	}
	v, ok := slot.value.(*T)
	if ok {
		return v, nil
	}
	// First access after registration: box the value so callers always
	// get a stable pointer to mutate through.
	boxed, ok := slot.value.(T)
	if !ok {
		return nil, UnknownTypeError{Name: typeName(reflect.TypeOf(slot.value))}
	}
	ptr := new(T)
	*ptr = boxed
	slot.value = ptr
	return ptr, nil
}

// resourcePointer returns an unsafe.Pointer to the resource's storage as
// an erased handle rather than a generic Go type. It reports false until
// a first Resource[T] call has boxed the value.
func (w *World) resourcePointer(id DataTypeId) (unsafe.Pointer, bool) {
	slot, ok := w.resources[id]
	if !ok {
		return nil, false
	}
	rv := reflect.ValueOf(slot.value)
	if rv.Kind() != reflect.Ptr {
		return nil, false
	}
	return unsafe.Pointer(rv.Pointer()), true
}
