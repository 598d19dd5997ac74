package represent

import (
	"errors"
	"testing"

	"github.com/parleyhq/parley/pkg/types"
)

func hotel(id, name string) *types.KnowledgeObject {
	return &types.KnowledgeObject{
		Type:       "hotel",
		Identifier: id,
		Attributes: map[string]any{"name": name, "breakfast-included": true},
	}
}

func TestRepresent_RegisteredFunction(t *testing.T) {
	reg := NewRegistry()
	reg.Register("hotel", func(obj *types.KnowledgeObject) string {
		v, _ := obj.Attribute("name")
		return v.(string)
	})

	display, err := reg.Represent(hotel("h1", "Hilton (Berlin)"))
	if err != nil {
		t.Fatalf("Represent failed: %v", err)
	}
	if display != "Hilton (Berlin)" {
		t.Errorf("Represent = %q, want %q", display, "Hilton (Berlin)")
	}
}

func TestRepresent_DefaultUsesNameAttribute(t *testing.T) {
	reg := NewRegistry()

	display, err := reg.Represent(hotel("h1", "Hilton (Berlin)"))
	if err != nil {
		t.Fatalf("Represent failed: %v", err)
	}
	if display != "Hilton (Berlin)" {
		t.Errorf("default display = %q, want name attribute", display)
	}
}

func TestRepresent_DefaultFallsBackToIdentifier(t *testing.T) {
	reg := NewRegistry()
	obj := &types.KnowledgeObject{Type: "hotel", Identifier: "h1"}

	display, err := reg.Represent(obj)
	if err != nil {
		t.Fatalf("Represent failed: %v", err)
	}
	if display != "h1" {
		t.Errorf("default display = %q, want identifier", display)
	}
}

func TestRepresent_CustomNameAttribute(t *testing.T) {
	reg := NewRegistryWithNameAttribute("title")
	obj := &types.KnowledgeObject{
		Type:       "movie",
		Identifier: "m1",
		Attributes: map[string]any{"title": "Metropolis"},
	}

	display, err := reg.Represent(obj)
	if err != nil {
		t.Fatalf("Represent failed: %v", err)
	}
	if display != "Metropolis" {
		t.Errorf("display = %q, want %q", display, "Metropolis")
	}
}

func TestRepresent_LastWriteWins(t *testing.T) {
	reg := NewRegistry()
	reg.Register("hotel", func(*types.KnowledgeObject) string { return "first" })
	reg.Register("hotel", func(*types.KnowledgeObject) string { return "second" })

	display, err := reg.Represent(hotel("h1", "Hilton (Berlin)"))
	if err != nil {
		t.Fatalf("Represent failed: %v", err)
	}
	if display != "second" {
		t.Errorf("display = %q, want the last registered function's result", display)
	}
}

func TestRepresent_PanicWrappedNotSwallowed(t *testing.T) {
	reg := NewRegistry()
	reg.Register("hotel", func(obj *types.KnowledgeObject) string {
		panic("missing schema field")
	})

	display, err := reg.Represent(hotel("h1", "Hilton (Berlin)"))
	if err == nil {
		t.Fatalf("Represent returned %q, want error", display)
	}

	var repErr *Error
	if !errors.As(err, &repErr) {
		t.Fatalf("error type = %T, want *represent.Error", err)
	}
	if repErr.TypeName != "hotel" {
		t.Errorf("TypeName = %q, want %q", repErr.TypeName, "hotel")
	}
	if display != "" {
		t.Errorf("display = %q, want empty: a failed representation must not yield a placeholder", display)
	}
}

func TestRegisterAttribute_CoercesValue(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterAttribute("room", "number")
	obj := &types.KnowledgeObject{
		Type:       "room",
		Identifier: "r9",
		Attributes: map[string]any{"number": 101},
	}

	display, err := reg.Represent(obj)
	if err != nil {
		t.Fatalf("Represent failed: %v", err)
	}
	if display != "101" {
		t.Errorf("display = %q, want the coerced attribute value", display)
	}
}

func TestRegisterAttribute_MissingAttributeFallsBack(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterAttribute("room", "number")
	obj := &types.KnowledgeObject{Type: "room", Identifier: "r9"}

	display, err := reg.Represent(obj)
	if err != nil {
		t.Fatalf("Represent failed: %v", err)
	}
	if display != "r9" {
		t.Errorf("display = %q, want identifier fallback", display)
	}
}
