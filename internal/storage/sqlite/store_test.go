package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/parleyhq/parley/internal/storage"
	"github.com/parleyhq/parley/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_PutAndGetObject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	obj := &types.KnowledgeObject{
		Type:       "hotel",
		Identifier: "h1",
		Attributes: map[string]any{"name": "Hilton (Berlin)", "breakfast-included": true},
	}
	if err := store.PutObject(ctx, obj); err != nil {
		t.Fatalf("PutObject failed: %v", err)
	}

	got, err := store.GetObject(ctx, "hotel", "h1")
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	if v, _ := got.Attribute("name"); v != "Hilton (Berlin)" {
		t.Errorf("name = %v, want Hilton (Berlin)", v)
	}
	if v, _ := got.Attribute("breakfast-included"); v != true {
		t.Errorf("breakfast-included = %v (%T), want true", v, v)
	}
}

func TestStore_GetObjectsInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		obj := &types.KnowledgeObject{Type: "hotel", Identifier: id}
		if err := store.PutObject(ctx, obj); err != nil {
			t.Fatalf("PutObject failed: %v", err)
		}
	}

	objs, err := store.GetObjects(ctx, "hotel")
	if err != nil {
		t.Fatalf("GetObjects failed: %v", err)
	}
	want := []string{"c", "a", "b"}
	if len(objs) != len(want) {
		t.Fatalf("got %d objects, want %d", len(objs), len(want))
	}
	for i, w := range want {
		if objs[i].Identifier != w {
			t.Errorf("objs[%d] = %q, want %q", i, objs[i].Identifier, w)
		}
	}
}

func TestStore_UpsertKeepsPosition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_ = store.PutObject(ctx, &types.KnowledgeObject{
		Type: "hotel", Identifier: "h1",
		Attributes: map[string]any{"name": "old"},
	})
	_ = store.PutObject(ctx, &types.KnowledgeObject{Type: "hotel", Identifier: "h2"})
	if err := store.PutObject(ctx, &types.KnowledgeObject{
		Type: "hotel", Identifier: "h1",
		Attributes: map[string]any{"name": "new"},
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	objs, err := store.GetObjects(ctx, "hotel")
	if err != nil {
		t.Fatalf("GetObjects failed: %v", err)
	}
	if objs[0].Identifier != "h1" {
		t.Errorf("upserted object is no longer first in insertion order")
	}
	if v, _ := objs[0].Attribute("name"); v != "new" {
		t.Errorf("upsert did not replace attributes: name = %v", v)
	}
}

func TestStore_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetObject(context.Background(), "hotel", "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_TypesAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_ = store.PutObject(ctx, &types.KnowledgeObject{Type: "hotel", Identifier: "h1"})
	_ = store.PutObject(ctx, &types.KnowledgeObject{Type: "restaurant", Identifier: "r1"})

	objs, err := store.GetObjects(ctx, "hotel")
	if err != nil {
		t.Fatalf("GetObjects failed: %v", err)
	}
	if len(objs) != 1 || objs[0].Identifier != "h1" {
		t.Errorf("hotel listing returned %d objects", len(objs))
	}

	if _, err := store.GetObject(ctx, "restaurant", "h1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("identifier leaked across types: err = %v", err)
	}
}

func TestStore_InvalidInput(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.PutObject(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil object: err = %v, want ErrInvalidInput", err)
	}
	if _, err := store.GetObjects(ctx, ""); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty type: err = %v, want ErrInvalidInput", err)
	}
	if _, err := store.GetObject(ctx, "hotel", ""); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty identifier: err = %v, want ErrInvalidInput", err)
	}
}

func TestStore_GetAttribute(t *testing.T) {
	store := newTestStore(t)
	obj := &types.KnowledgeObject{
		Type: "hotel", Identifier: "h1",
		Attributes: map[string]any{"city": "Berlin"},
	}

	v, err := store.GetAttribute(obj, "city")
	if err != nil {
		t.Fatalf("GetAttribute failed: %v", err)
	}
	if v != "Berlin" {
		t.Errorf("city = %v, want Berlin", v)
	}

	if _, err := store.GetAttribute(obj, "parking"); !errors.Is(err, storage.ErrAttributeNotFound) {
		t.Errorf("err = %v, want ErrAttributeNotFound", err)
	}
}
