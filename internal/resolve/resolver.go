// Package resolve implements object resolution against the knowledge
// store: given an attribute query and the session context, it picks the
// matching object and fetches the requested attribute value.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/parleyhq/parley/internal/storage"
	"github.com/parleyhq/parley/pkg/types"
)

// Reason classifies why a resolution failed. All reasons are recoverable:
// the caller substitutes a spoken fallback utterance.
type Reason string

const (
	// ReasonNotFound means no object matched the selector.
	ReasonNotFound Reason = "not_found"

	// ReasonOutOfRange means the ordinal position exceeded the candidate
	// subset size.
	ReasonOutOfRange Reason = "out_of_range"

	// ReasonNoPriorReference means the session has no previously resolved
	// object of the requested type.
	ReasonNoPriorReference Reason = "no_prior_reference"

	// ReasonUnknownAttribute means the matched object has no such
	// attribute.
	ReasonUnknownAttribute Reason = "unknown_attribute"
)

// Error is a typed resolution failure.
type Error struct {
	Reason     Reason
	TargetType string
	Detail     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("resolve %s: %s (%s)", e.TargetType, e.Detail, e.Reason)
}

// IsReason reports whether err is a resolution Error with the given reason.
func IsReason(err error, reason Reason) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Reason == reason
}

// SessionContext is the subset of the session state the resolver consumes:
// the object a prior query in the same session resolved per type. The
// session is external, mutable, cross-call state; it is passed explicitly
// so the resolver itself stays pure.
type SessionContext interface {
	LastMentioned(typeName string) (*types.KnowledgeObject, bool)
}

// Resolver resolves attribute queries against an ObjectStore. It is
// stateless; concurrent Resolve calls against a read-only store are safe.
type Resolver struct {
	store storage.ObjectStore
}

// NewResolver creates a resolver over the given store.
func NewResolver(store storage.ObjectStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve applies the query's selector to the candidate objects of the
// target type and fetches the requested attribute. It returns both the
// matched object and the attribute value: the object reference is needed
// downstream for representation, not just the value.
func (r *Resolver) Resolve(ctx context.Context, q types.AttributeQuery, session SessionContext) (*types.KnowledgeObject, any, error) {
	if err := q.Validate(); err != nil {
		return nil, nil, err
	}

	obj, err := r.selectObject(ctx, q, session)
	if err != nil {
		return nil, nil, err
	}

	value, err := r.store.GetAttribute(obj, q.Attribute)
	if err != nil {
		if errors.Is(err, storage.ErrAttributeNotFound) {
			return nil, nil, &Error{
				Reason:     ReasonUnknownAttribute,
				TargetType: q.TargetType,
				Detail:     fmt.Sprintf("object %q has no attribute %q", obj.Identifier, q.Attribute),
			}
		}
		return nil, nil, fmt.Errorf("resolve: attribute lookup failed: %w", err)
	}

	return obj, value, nil
}

// Select returns the candidate objects of a type in insertion order,
// optionally narrowed by an attribute-constraint selector. This is the
// listing side used to enumerate candidates before an ordinal selection.
func (r *Resolver) Select(ctx context.Context, typeName string, sel *types.Selector) ([]*types.KnowledgeObject, error) {
	objs, err := r.store.GetObjects(ctx, typeName)
	if err != nil {
		return nil, fmt.Errorf("resolve: failed to list objects of type %q: %w", typeName, err)
	}
	if sel != nil && sel.Kind == types.SelectByAttribute {
		objs = storage.FilterByAttribute(objs, sel.Attribute, sel.Value)
	}
	return objs, nil
}

func (r *Resolver) selectObject(ctx context.Context, q types.AttributeQuery, session SessionContext) (*types.KnowledgeObject, error) {
	sel := q.Selector
	switch sel.Kind {
	case types.SelectByIdentifier:
		obj, err := r.store.GetObject(ctx, q.TargetType, sel.Identifier)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, &Error{
					Reason:     ReasonNotFound,
					TargetType: q.TargetType,
					Detail:     fmt.Sprintf("no object with identifier %q", sel.Identifier),
				}
			}
			return nil, fmt.Errorf("resolve: object lookup failed: %w", err)
		}
		return obj, nil

	case types.SelectByOrdinal:
		candidates, err := r.ordinalCandidates(ctx, q.TargetType, sel.From)
		if err != nil {
			return nil, err
		}
		if sel.Position > len(candidates) {
			return nil, &Error{
				Reason:     ReasonOutOfRange,
				TargetType: q.TargetType,
				Detail:     fmt.Sprintf("position %d exceeds %d candidates", sel.Position, len(candidates)),
			}
		}
		return candidates[sel.Position-1], nil

	case types.SelectByLastMentioned:
		if session == nil {
			return nil, &Error{
				Reason:     ReasonNoPriorReference,
				TargetType: q.TargetType,
				Detail:     "no session context",
			}
		}
		prior, ok := session.LastMentioned(q.TargetType)
		if !ok {
			return nil, &Error{
				Reason:     ReasonNoPriorReference,
				TargetType: q.TargetType,
				Detail:     "no previously mentioned object",
			}
		}
		// Re-fetch so the caller gets the store's current object, not a
		// reference that may predate a reload.
		obj, err := r.store.GetObject(ctx, q.TargetType, prior.Identifier)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, &Error{
					Reason:     ReasonNotFound,
					TargetType: q.TargetType,
					Detail:     fmt.Sprintf("previously mentioned object %q no longer exists", prior.Identifier),
				}
			}
			return nil, fmt.Errorf("resolve: object lookup failed: %w", err)
		}
		return obj, nil

	case types.SelectByAttribute:
		objs, err := r.Select(ctx, q.TargetType, &sel)
		if err != nil {
			return nil, err
		}
		if len(objs) == 0 {
			return nil, &Error{
				Reason:     ReasonNotFound,
				TargetType: q.TargetType,
				Detail: fmt.Sprintf("no object with attribute %q = %q",
					sel.Attribute, types.FormatValue(sel.Value)),
			}
		}
		// First in insertion order wins when several objects match.
		return objs[0], nil

	default:
		return nil, fmt.Errorf("%w: unknown selector kind %q", types.ErrInvalidQuery, sel.Kind)
	}
}

// ordinalCandidates materialises the candidate subset an ordinal position
// indexes into: either the listed identifiers in their listed order, or
// all objects of the type. Identifiers from a stale listing that no longer
// exist in the store are dropped rather than failing the whole selection.
func (r *Resolver) ordinalCandidates(ctx context.Context, typeName string, from []string) ([]*types.KnowledgeObject, error) {
	if len(from) == 0 {
		objs, err := r.store.GetObjects(ctx, typeName)
		if err != nil {
			return nil, fmt.Errorf("resolve: failed to list objects of type %q: %w", typeName, err)
		}
		return objs, nil
	}

	candidates := make([]*types.KnowledgeObject, 0, len(from))
	for _, id := range from {
		obj, err := r.store.GetObject(ctx, typeName, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolve: object lookup failed: %w", err)
		}
		candidates = append(candidates, obj)
	}
	return candidates, nil
}
