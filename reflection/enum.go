package reflection

import "unsafe"

// EnumVariant is one named alternative in an Enum or Mask trait, linked
// to the next alternative so traits can expose the whole set without an
// intermediate slice allocation at lookup time.
type EnumVariant struct {
	Name  string
	Value int64
	Next  *EnumVariant
}

// Variants walks the linked list starting at head, in declaration order.
func Variants(head *EnumVariant) []*EnumVariant {
	var out []*EnumVariant
	for v := head; v != nil; v = v.Next {
		out = append(out, v)
	}
	return out
}

// LinkVariants builds a linked list from an ordered slice, returning its
// head. Used by hand-built Enum and Mask traits.
func LinkVariants(variants []EnumVariant) *EnumVariant {
	linked := make([]EnumVariant, len(variants))
	copy(linked, variants)
	for i := range linked {
		if i+1 < len(linked) {
			linked[i].Next = &linked[i+1]
		}
	}
	if len(linked) == 0 {
		return nil
	}
	return &linked[0]
}

// EnumTrait exposes a closed set of named alternatives for a type that
// holds exactly one of them at a time.
type EnumTrait struct {
	Head *EnumVariant
	Get  func(instance unsafe.Pointer) *EnumVariant
	Set  func(instance unsafe.Pointer, variant *EnumVariant)
}

// Test reports whether instance currently holds the given variant.
func (e EnumTrait) Test(instance unsafe.Pointer, variant *EnumVariant) bool {
	return e.Get(instance) == variant
}

// MaskTrait exposes a bit-set of named alternatives, any subset of which
// may be active simultaneously.
type MaskTrait struct {
	Head  *EnumVariant
	Test  func(instance unsafe.Pointer, variant *EnumVariant) bool
	Set   func(instance unsafe.Pointer, variant *EnumVariant)
	Clear func(instance unsafe.Pointer, variant *EnumVariant)
}
