package resource

import (
	"errors"
	"testing"
)

func replaceRegistry(t *testing.T) func() {
	t.Helper()
	prev := globalRegistry
	globalRegistry = newRegistry()
	return func() { globalRegistry = prev }
}

func TestRegisterLookupAndList(t *testing.T) {
	cleanup := replaceRegistry(t)
	defer cleanup()

	if err := Register(Descriptor{Name: TRRUST}); err != nil {
		t.Fatalf("register trrust failed: %v", err)
	}
	if err := Register(Descriptor{Name: CORUM}); err != nil {
		t.Fatalf("register corum failed: %v", err)
	}

	if _, err := Lookup("trrust"); err != nil {
		t.Fatalf("expected trrust to resolve: %v", err)
	}
	if _, err := Lookup(" TRRUST "); err != nil {
		t.Fatalf("lookup should be case-insensitive: %v", err)
	}

	list := List()
	if len(list) != 2 {
		t.Fatalf("list length mismatch: %d", len(list))
	}
	if list[0].Name != CORUM || list[1].Name != TRRUST {
		t.Fatalf("unexpected order: %v %v", list[0].Name, list[1].Name)
	}
}

func TestRegisterDuplicateFails(t *testing.T) {
	cleanup := replaceRegistry(t)
	defer cleanup()

	if err := Register(Descriptor{Name: BioGRID}); err != nil {
		t.Fatalf("first registration should succeed: %v", err)
	}
	if err := Register(Descriptor{Name: BioGRID}); err == nil {
		t.Fatalf("duplicate registration should fail")
	}
}

func TestRegisterUndeclaredFails(t *testing.T) {
	cleanup := replaceRegistry(t)
	defer cleanup()

	if err := Register(Descriptor{Name: "gtex"}); err == nil {
		t.Fatalf("undeclared resource should be rejected")
	}
}

func TestLookupUnknownResource(t *testing.T) {
	cleanup := replaceRegistry(t)
	defer cleanup()
	MustRegister(Descriptor{Name: CORUM})
	MustRegister(Descriptor{Name: TCGA})

	_, err := Lookup("omnipath")
	if !errors.Is(err, ErrUnknownResource) {
		t.Fatalf("expected ErrUnknownResource, got %v", err)
	}
	var unknown *UnknownResourceError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownResourceError, got %T", err)
	}
	if unknown.Name != "omnipath" || len(unknown.Valid) != 2 || unknown.Valid[0] != "corum" {
		t.Fatalf("unexpected error payload: %+v", unknown)
	}
}

func TestValidateReportsMissing(t *testing.T) {
	cleanup := replaceRegistry(t)
	defer cleanup()
	MustRegister(Descriptor{Name: CORUM})

	if err := Validate(); err == nil {
		t.Fatalf("expected missing registrations to be reported")
	}
	for _, name := range Declared() {
		if name == CORUM {
			continue
		}
		MustRegister(Descriptor{Name: name})
	}
	if err := Validate(); err != nil {
		t.Fatalf("expected complete registry, got %v", err)
	}
}
