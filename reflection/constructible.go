package reflection

import (
	"reflect"
	"unsafe"
)

// Destructor destroys the value stored at ptr, releasing any resources it
// holds. It never frees ptr itself — ptr's backing memory is owned by
// whichever column or container called it.
type Destructor func(ptr unsafe.Pointer)

// DefaultConstructor initializes a zero value at ptr.
type DefaultConstructor func(ptr unsafe.Pointer)

// CopyConstructor initializes dst from src, leaving src untouched.
type CopyConstructor func(dst, src unsafe.Pointer)

// MoveConstructor initializes dst from src and leaves src in a state from
// which only Destruct may safely be called.
type MoveConstructor func(dst, src unsafe.Pointer)

// CustomConstructor is a named, ordered-argument constructor invoked
// through an array of erased argument pointers. It lets a scene loader
// build a component from (name, value) tuples without the type needing a
// default constructor.
type CustomConstructor struct {
	ArgNames []string
	ArgTypes []*Type
	Call     func(instance unsafe.Pointer, args []unsafe.Pointer)
}

// ArgCount returns the number of arguments the constructor expects.
func (c CustomConstructor) ArgCount() int { return len(c.ArgTypes) }

// ConstructibleTrait advertises size, alignment, destruction and
// optional default/copy/move construction for a type, plus any number of
// custom constructors. Every type registered as a component, relation,
// resource or event must carry one so storage can erase it.
type ConstructibleTrait struct {
	size  uintptr
	align uintptr

	destruct         Destructor
	defaultConstruct DefaultConstructor
	copyConstruct    CopyConstructor
	moveConstruct    MoveConstructor

	customConstructors []CustomConstructor
}

// ConstructibleOption configures optional constructors on a
// ConstructibleTrait built by NewConstructible.
type ConstructibleOption func(*ConstructibleTrait)

// WithDefaultConstructor attaches a default (zero-value) constructor.
func WithDefaultConstructor(fn DefaultConstructor) ConstructibleOption {
	return func(c *ConstructibleTrait) { c.defaultConstruct = fn }
}

// WithCopyConstructor attaches a copy constructor.
func WithCopyConstructor(fn CopyConstructor) ConstructibleOption {
	return func(c *ConstructibleTrait) { c.copyConstruct = fn }
}

// WithMoveConstructor attaches a move constructor.
func WithMoveConstructor(fn MoveConstructor) ConstructibleOption {
	return func(c *ConstructibleTrait) { c.moveConstruct = fn }
}

// WithCustomConstructor appends a named-argument constructor.
func WithCustomConstructor(cc CustomConstructor) ConstructibleOption {
	return func(c *ConstructibleTrait) { c.customConstructors = append(c.customConstructors, cc) }
}

// NewConstructible builds a ConstructibleTrait. A nil destruct is
// replaced by a no-op; every other constructor is optional and its
// absence is reported through HasX.
func NewConstructible(size, align uintptr, destruct Destructor, opts ...ConstructibleOption) ConstructibleTrait {
	if destruct == nil {
		destruct = func(unsafe.Pointer) {}
	}
	c := ConstructibleTrait{size: size, align: align, destruct: destruct}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c ConstructibleTrait) Size() uintptr      { return c.size }
func (c ConstructibleTrait) Alignment() uintptr { return c.align }

func (c ConstructibleTrait) HasDefaultConstruct() bool { return c.defaultConstruct != nil }
func (c ConstructibleTrait) HasCopyConstruct() bool    { return c.copyConstruct != nil }
func (c ConstructibleTrait) HasMoveConstruct() bool    { return c.moveConstruct != nil }

func (c ConstructibleTrait) Destruct(ptr unsafe.Pointer) { c.destruct(ptr) }

// DefaultConstruct requires HasDefaultConstruct; callers must check first,
// matching the precondition carried by every Constructible primitive.
func (c ConstructibleTrait) DefaultConstruct(ptr unsafe.Pointer) { c.defaultConstruct(ptr) }

func (c ConstructibleTrait) CopyConstruct(dst, src unsafe.Pointer) { c.copyConstruct(dst, src) }

func (c ConstructibleTrait) MoveConstruct(dst, src unsafe.Pointer) { c.moveConstruct(dst, src) }

func (c ConstructibleTrait) CustomConstructorCount() int { return len(c.customConstructors) }

func (c ConstructibleTrait) CustomConstructor(index int) CustomConstructor {
	return c.customConstructors[index]
}

// ConstructibleFor derives a ConstructibleTrait for an ordinary Go value
// type T using the language's built-in assignment semantics: Go values
// have no user-visible destructor, so Destruct simply zeroes the slot
// (releasing any pointers it holds to the GC) and Copy/Move both reduce
// to assignment, move additionally zeroing the source.
func ConstructibleFor[T any]() ConstructibleTrait {
	var zero T
	typ := reflect.TypeOf(zero)
	var size, align uintptr
	if typ != nil {
		size, align = typ.Size(), uintptr(typ.Align())
	}
	return NewConstructible(size, align,
		func(ptr unsafe.Pointer) { *(*T)(ptr) = zero },
		WithDefaultConstructor(func(ptr unsafe.Pointer) { *(*T)(ptr) = zero }),
		WithCopyConstructor(func(dst, src unsafe.Pointer) { *(*T)(dst) = *(*T)(src) }),
		WithMoveConstructor(func(dst, src unsafe.Pointer) {
			*(*T)(dst) = *(*T)(src)
			*(*T)(src) = zero
		}),
	)
}
