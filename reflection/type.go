// Package reflection provides runtime type descriptors used to erase the
// concrete Go type of components, relations, resources and event values
// behind a small, explicit set of traits.
//
// It is the Go analogue of the reflection subsystem used by the engine
// this module was distilled from: rather than a vtable of virtual
// functions per trait, a Type carries a trait-keyed map of plain value
// structs built from function values. A Type's address is its identity;
// once built, a Type is never mutated.
package reflection

import (
	"fmt"
	"reflect"

	"github.com/TheBitDrifter/bark"
)

// Type is a runtime descriptor for a Go type, keyed by a unique name.
type Type struct {
	name    string
	goType  reflect.Type
	traits  map[reflect.Type]any
	order   []reflect.Type
}

// NewType creates a new, trait-less descriptor for the given name.
//
// goType may be nil for descriptors that do not correspond to a concrete
// Go type (e.g. relation markers with no payload).
func NewType(name string, goType reflect.Type) *Type {
	return &Type{
		name:   name,
		goType: goType,
		traits: make(map[reflect.Type]any),
	}
}

// Name returns the type's registered name.
func (t *Type) Name() string {
	return t.name
}

// String implements fmt.Stringer.
func (t *Type) String() string {
	return t.name
}

// GoType returns the underlying Go type, if any.
func (t *Type) GoType() reflect.Type {
	return t.goType
}

// With attaches a trait value to the type and returns the type for
// chaining. Attempting to attach a trait kind that is already present is
// a programmer error and aborts the program.
func (t *Type) With(trait any) *Type {
	key := reflect.TypeOf(trait)
	if _, ok := t.traits[key]; ok {
		panic(bark.AddTrace(fmt.Errorf("reflection: type %q already carries trait %s", t.name, key)))
	}
	t.traits[key] = trait
	t.order = append(t.order, key)
	return t
}

// Has reports whether the type carries a trait of kind T.
func Has[T any](t *Type) bool {
	_, ok := Trait[T](t)
	return ok
}

// Trait returns the trait of kind T attached to t, if any.
func Trait[T any](t *Type) (T, bool) {
	var zero T
	key := reflect.TypeOf(zero)
	v, ok := t.traits[key]
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// MustTrait returns the trait of kind T attached to t, aborting the
// program if it is absent. Use this only where the caller has already
// established (e.g. at registration) that the trait must be present.
func MustTrait[T any](t *Type) T {
	v, ok := Trait[T](t)
	if !ok {
		var zero T
		panic(bark.AddTrace(fmt.Errorf("reflection: type %q is missing trait %T", t.name, zero)))
	}
	return v
}

// TraitOrErr returns the trait of kind T attached to t, or a recoverable
// MissingTraitError describing which trait and type were involved.
func TraitOrErr[T any](t *Type) (T, error) {
	v, ok := Trait[T](t)
	if !ok {
		var zero T
		return zero, MissingTraitError{Type: t, Trait: fmt.Sprintf("%T", zero)}
	}
	return v, nil
}

// MissingTraitError is returned when a type is asked to perform an
// operation that requires a trait it was never given.
type MissingTraitError struct {
	Type  *Type
	Trait string
}

func (e MissingTraitError) Error() string {
	return fmt.Sprintf("type %q is missing trait %s", e.Type.name, e.Trait)
}
