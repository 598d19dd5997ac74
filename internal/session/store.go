// Package session tracks cross-turn conversational references: the last
// object resolved per type and the identifiers most recently listed to
// the user, both per sender. This state is external to the query core and
// is passed into it explicitly, never held as a global.
package session

import (
	"sync"

	"github.com/parleyhq/parley/pkg/types"
)

// Context is the per-conversation session state consumed and updated by
// the knowledge-base action.
type Context interface {
	// LastMentioned returns the object a prior query resolved for the
	// given type, if any.
	LastMentioned(typeName string) (*types.KnowledgeObject, bool)

	// SetLastMentioned records the object as the most recently resolved
	// one of its type.
	SetLastMentioned(typeName string, obj *types.KnowledgeObject)

	// ListedObjects returns the identifiers most recently listed to the
	// user for the given type, in listed order.
	ListedObjects(typeName string) []string

	// SetListedObjects records the identifiers just listed to the user
	// for the given type.
	SetListedObjects(typeName string, identifiers []string)
}

// Store keeps per-sender session contexts in memory. Safe for concurrent
// use by webhook handlers.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*state
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*state)}
}

// Context returns the session context for a sender, creating it on first
// use. An empty sender ID maps to a shared anonymous session.
func (s *Store) Context(senderID string) Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[senderID]
	if !ok {
		st = &state{
			lastMentioned: make(map[string]*types.KnowledgeObject),
			listed:        make(map[string][]string),
		}
		s.sessions[senderID] = st
	}
	return st
}

// state is the session context of a single sender.
type state struct {
	mu            sync.RWMutex
	lastMentioned map[string]*types.KnowledgeObject
	listed        map[string][]string
}

func (s *state) LastMentioned(typeName string) (*types.KnowledgeObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.lastMentioned[typeName]
	return obj, ok
}

func (s *state) SetLastMentioned(typeName string, obj *types.KnowledgeObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastMentioned[typeName] = obj
}

func (s *state) ListedObjects(typeName string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.listed[typeName]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func (s *state) SetListedObjects(typeName string, identifiers []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listed[typeName] = identifiers
}
