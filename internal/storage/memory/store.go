// Package memory provides an insertion-ordered in-memory ObjectStore.
// It is the default backend for the action server and the reference
// implementation the storage tests of other components build on.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/parleyhq/parley/internal/storage"
	"github.com/parleyhq/parley/pkg/types"
)

// Store implements storage.WritableStore in memory.
//
// Reads take the read lock only; PutObject and Reload take the write
// lock, which gives live reconfiguration the exclusive update window the
// resolver relies on: a concurrent read observes either the old or the
// new data, never a partially-applied mix.
type Store struct {
	mu    sync.RWMutex
	order map[string][]*types.KnowledgeObject          // type -> objects in insertion order
	index map[string]map[string]*types.KnowledgeObject // type -> identifier -> object
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		order: make(map[string][]*types.KnowledgeObject),
		index: make(map[string]map[string]*types.KnowledgeObject),
	}
}

// PutObject creates or updates an object. Updating an existing object
// replaces it in place, keeping its insertion position.
func (s *Store) PutObject(_ context.Context, obj *types.KnowledgeObject) error {
	if obj == nil || obj.Type == "" || obj.Identifier == "" {
		return fmt.Errorf("%w: object type and identifier are required", storage.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.index[obj.Type]
	if !ok {
		byID = make(map[string]*types.KnowledgeObject)
		s.index[obj.Type] = byID
	}

	if existing, ok := byID[obj.Identifier]; ok {
		for i, o := range s.order[obj.Type] {
			if o == existing {
				s.order[obj.Type][i] = obj
				break
			}
		}
	} else {
		s.order[obj.Type] = append(s.order[obj.Type], obj)
	}
	byID[obj.Identifier] = obj
	return nil
}

// Reload atomically replaces the entire store contents. Objects keep the
// order in which they appear in the slice.
func (s *Store) Reload(_ context.Context, objects []*types.KnowledgeObject) error {
	order := make(map[string][]*types.KnowledgeObject)
	index := make(map[string]map[string]*types.KnowledgeObject)
	for _, obj := range objects {
		if obj == nil || obj.Type == "" || obj.Identifier == "" {
			return fmt.Errorf("%w: object type and identifier are required", storage.ErrInvalidInput)
		}
		byID, ok := index[obj.Type]
		if !ok {
			byID = make(map[string]*types.KnowledgeObject)
			index[obj.Type] = byID
		}
		if _, dup := byID[obj.Identifier]; dup {
			return fmt.Errorf("%w: duplicate object %q", storage.ErrInvalidInput, obj.Key())
		}
		byID[obj.Identifier] = obj
		order[obj.Type] = append(order[obj.Type], obj)
	}

	s.mu.Lock()
	s.order = order
	s.index = index
	s.mu.Unlock()
	return nil
}

// GetObjects returns all objects of the given type in insertion order.
func (s *Store) GetObjects(_ context.Context, typeName string) ([]*types.KnowledgeObject, error) {
	if typeName == "" {
		return nil, fmt.Errorf("%w: type name is required", storage.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Copy the slice header so callers iterating the result are not
	// affected by later appends. The objects themselves are shared
	// references owned by the store.
	objs := s.order[typeName]
	out := make([]*types.KnowledgeObject, len(objs))
	copy(out, objs)
	return out, nil
}

// GetObject returns the object with the given type and identifier.
func (s *Store) GetObject(_ context.Context, typeName, identifier string) (*types.KnowledgeObject, error) {
	if typeName == "" || identifier == "" {
		return nil, fmt.Errorf("%w: type name and identifier are required", storage.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if obj, ok := s.index[typeName][identifier]; ok {
		return obj, nil
	}
	return nil, fmt.Errorf("%w: %s:%s", storage.ErrNotFound, typeName, identifier)
}

// GetAttribute returns the named attribute of an object.
func (s *Store) GetAttribute(obj *types.KnowledgeObject, name string) (any, error) {
	return storage.Attribute(obj, name)
}

// Close releases the store. The in-memory store holds no resources.
func (s *Store) Close() error {
	return nil
}
