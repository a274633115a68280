package reflection

import "unsafe"

// UnionVariant is one alternative of a tagged sum type.
type UnionVariant struct {
	Name   string
	Type   *Type
	Tester func(instance unsafe.Pointer) bool
	Setter func(instance unsafe.Pointer, value unsafe.Pointer)
	Getter func(instance unsafe.Pointer) unsafe.Pointer
}

// UnionTrait exposes a tagged sum type as a fixed list of named
// alternatives, each with its own tester/setter/getter triple.
type UnionTrait struct {
	Variants []UnionVariant
}

// Active returns the name of the currently active variant, or "" if none
// of the testers report true (which a well-formed union never does).
func (u UnionTrait) Active(instance unsafe.Pointer) string {
	for _, v := range u.Variants {
		if v.Tester(instance) {
			return v.Name
		}
	}
	return ""
}

// ByName returns the variant with the given name.
func (u UnionTrait) ByName(name string) (UnionVariant, bool) {
	for _, v := range u.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return UnionVariant{}, false
}

// StringConversionTrait provides bidirectional conversion with a string
// representation, used by debug printers and text-based serializers.
type StringConversionTrait struct {
	Into func(instance unsafe.Pointer) string
	From func(instance unsafe.Pointer, s string) error
}

// WrapperTrait adapts a thin wrapper type to expose the type it wraps.
type WrapperTrait struct {
	Inner *Type
	Get   func(instance unsafe.Pointer) unsafe.Pointer
}

// NullableTrait adapts a type with a distinguished "null" state.
type NullableTrait struct {
	IsNull  func(instance unsafe.Pointer) bool
	SetNull func(instance unsafe.Pointer)
}
