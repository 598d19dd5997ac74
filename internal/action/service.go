package action

import (
	"context"

	"github.com/parleyhq/parley/internal/represent"
	"github.com/parleyhq/parley/internal/resolve"
	"github.com/parleyhq/parley/internal/session"
	"github.com/parleyhq/parley/internal/storage"
	"github.com/parleyhq/parley/internal/utter"
	"github.com/parleyhq/parley/pkg/types"
)

// Service couples the query resolver, the representation registry, and
// the utterance formatter into the single operation the action layer
// consumes. Each call is independent and stateless; concurrent calls are
// safe as long as the store is read-only during the query window.
type Service struct {
	resolver  *resolve.Resolver
	registry  *represent.Registry
	formatter *utter.Formatter
}

// NewService creates the knowledge-base query service over a store and a
// representation registry.
func NewService(store storage.ObjectStore, registry *represent.Registry) *Service {
	return &Service{
		resolver:  resolve.NewResolver(store),
		registry:  registry,
		formatter: utter.NewFormatter(registry),
	}
}

// ResolveAndFormat resolves the query and renders the answer utterance.
//
// On success the resolved object is recorded as the session's last
// mentioned object of its type, so follow-up queries can refer back to
// it. Failures return a typed error — *resolve.Error for recoverable
// resolution failures, *represent.Error for representation defects — and
// never a best-guess utterance.
func (s *Service) ResolveAndFormat(ctx context.Context, q types.AttributeQuery, sess session.Context) (*types.FormattedUtterance, error) {
	obj, value, err := s.resolver.Resolve(ctx, q, sess)
	if err != nil {
		return nil, err
	}

	u, err := s.formatter.Format(obj, q.Attribute, value)
	if err != nil {
		return nil, err
	}

	if sess != nil {
		sess.SetLastMentioned(obj.Type, obj)
	}
	return u, nil
}

// ListObjects returns the candidate objects of a type together with their
// display strings, optionally narrowed by an attribute constraint. The
// display strings come from the representation registry's output, so a
// listing goes through exactly the same representation path as a
// formatted answer.
func (s *Service) ListObjects(ctx context.Context, typeName string, sel *types.Selector) ([]*types.KnowledgeObject, []string, error) {
	objs, err := s.resolver.Select(ctx, typeName, sel)
	if err != nil {
		return nil, nil, err
	}

	displays := make([]string, 0, len(objs))
	for _, obj := range objs {
		display, err := s.registry.Represent(obj)
		if err != nil {
			return nil, nil, err
		}
		displays = append(displays, display)
	}
	return objs, displays, nil
}
