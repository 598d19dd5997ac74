// Package storage defines the knowledge store contract consumed by the
// query resolver, together with the sentinel errors shared by all
// backends.
//
// The store is read-only from the resolver's perspective during a query
// window; loading and reconfiguration belong to the WritableStore side
// and must happen under an exclusive update window so that readers
// observe either the old or the new data atomically per call.
package storage

import (
	"context"

	"github.com/parleyhq/parley/pkg/types"
)

// ObjectStore is the read contract of a knowledge store.
type ObjectStore interface {
	// GetObjects returns all objects of the given type in insertion
	// order. The order is what ordinal selection ("the second one")
	// indexes into. An unknown type yields an empty slice, not an error.
	GetObjects(ctx context.Context, typeName string) ([]*types.KnowledgeObject, error)

	// GetObject returns the object with the given type and identifier.
	// Returns ErrNotFound if no such object exists.
	GetObject(ctx context.Context, typeName, identifier string) (*types.KnowledgeObject, error)

	// GetAttribute returns the named attribute of an object previously
	// returned by this store. Returns ErrAttributeNotFound if the object
	// has no such attribute.
	GetAttribute(obj *types.KnowledgeObject, name string) (any, error)

	// Close releases any resources held by the store.
	Close() error
}

// WritableStore extends ObjectStore with the loading side used by the
// knowledge-base loader and by live reconfiguration.
type WritableStore interface {
	ObjectStore

	// PutObject creates or updates an object (upsert semantics keyed on
	// the (type, identifier) identity). Updating an existing object keeps
	// its insertion position.
	PutObject(ctx context.Context, obj *types.KnowledgeObject) error
}
