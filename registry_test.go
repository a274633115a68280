package ecs

import (
	"testing"

	"github.com/cubos-go/ecs/reflection"
)

func TestTypeRegistryRegisterAndLookup(t *testing.T) {
	r := NewTypeRegistry()
	refl := reflection.NewType("pkg.Foo", nil)
	refl.With(reflection.ConstructibleFor[int]())

	id, err := r.RegisterComponent(refl)
	if err != nil {
		t.Fatalf("RegisterComponent: %v", err)
	}
	if r.Kind(id) != KindComponent {
		t.Errorf("got kind %v, want KindComponent", r.Kind(id))
	}
	got, ok := r.ByName("pkg.Foo")
	if !ok || got != id {
		t.Errorf("ByName did not resolve back to the registered id")
	}
}

func TestTypeRegistryRejectsDuplicateName(t *testing.T) {
	r := NewTypeRegistry()
	refl := reflection.NewType("pkg.Foo", nil)
	refl.With(reflection.ConstructibleFor[int]())
	if _, err := r.RegisterComponent(refl); err != nil {
		t.Fatalf("first registration: %v", err)
	}

	refl2 := reflection.NewType("pkg.Foo", nil)
	refl2.With(reflection.ConstructibleFor[int]())
	if _, err := r.RegisterComponent(refl2); err == nil {
		t.Errorf("expected the second registration under the same name to fail")
	}
}

func TestTypeRegistryRejectsMissingConstructible(t *testing.T) {
	r := NewTypeRegistry()
	refl := reflection.NewType("pkg.Bare", nil)
	if _, err := r.RegisterComponent(refl); err == nil {
		t.Errorf("expected registration without a Constructible trait to fail")
	}
}

func TestTypeRegistrySymmetricAndTreeFlags(t *testing.T) {
	r := NewTypeRegistry()
	refl := reflection.NewType("pkg.Rel", nil)
	refl.With(reflection.ConstructibleFor[int]())

	id, err := r.RegisterRelation(refl, Symmetric(), Tree())
	if err != nil {
		t.Fatalf("RegisterRelation: %v", err)
	}
	if !r.Symmetric(id) {
		t.Errorf("expected relation to be registered as symmetric")
	}
	if !r.IsTree(id) {
		t.Errorf("expected relation to be registered as tree-shaped")
	}
}
