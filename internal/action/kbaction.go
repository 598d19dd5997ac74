package action

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/parleyhq/parley/internal/represent"
	"github.com/parleyhq/parley/internal/resolve"
	"github.com/parleyhq/parley/internal/session"
	"github.com/parleyhq/parley/pkg/types"
)

// Slot names the knowledge-base action reads from the tracker. Extraction
// of these slots from the user's message happens upstream.
const (
	SlotObjectType      = "object_type"
	SlotAttribute       = "attribute"
	SlotMention         = "mention"
	SlotOrdinalMention  = "ordinal_mention"
	SlotFilterAttribute = "filter_attribute"
	SlotFilterValue     = "filter_value"

	// SlotLastObject and SlotListedObjects are written back as events so
	// the orchestrating layer's slot memory mirrors the session state.
	SlotLastObject    = "knowledge_base_last_object"
	SlotListedObjects = "knowledge_base_listed_objects"
)

// FallbackUtterance is the polite reply used when a query cannot be
// answered. Internal error detail never reaches the user.
const FallbackUtterance = "I don't know that."

// QueryKnowledgeBaseAction answers user questions from the knowledge
// base. With an attribute slot set it resolves one object and utters the
// formatted attribute answer; without one it lists the matching objects
// and remembers them for a follow-up ordinal selection ("the second one").
type QueryKnowledgeBaseAction struct {
	service  *Service
	sessions *session.Store
}

// NewQueryKnowledgeBaseAction creates the knowledge-base query action.
func NewQueryKnowledgeBaseAction(service *Service, sessions *session.Store) *QueryKnowledgeBaseAction {
	return &QueryKnowledgeBaseAction{service: service, sessions: sessions}
}

// Name implements Action.
func (a *QueryKnowledgeBaseAction) Name() string {
	return "action_query_knowledge_base"
}

// Run implements Action.
func (a *QueryKnowledgeBaseAction) Run(ctx context.Context, dispatcher *CollectingDispatcher, tracker *Tracker, _ map[string]any) ([]Event, error) {
	objectType := tracker.StringSlot(SlotObjectType)
	if objectType == "" {
		dispatcher.UtterMessage(FallbackUtterance)
		return nil, nil
	}

	sess := a.sessions.Context(tracker.SenderID)

	if attribute := tracker.StringSlot(SlotAttribute); attribute != "" {
		return a.answerAttribute(ctx, dispatcher, tracker, sess, objectType, attribute)
	}
	return a.listObjects(ctx, dispatcher, tracker, sess, objectType)
}

// answerAttribute resolves a single object and utters its attribute value.
func (a *QueryKnowledgeBaseAction) answerAttribute(ctx context.Context, dispatcher *CollectingDispatcher, tracker *Tracker, sess session.Context, objectType, attribute string) ([]Event, error) {
	q := types.AttributeQuery{
		TargetType: objectType,
		Selector:   a.selector(tracker, sess, objectType),
		Attribute:  attribute,
	}

	u, err := a.service.ResolveAndFormat(ctx, q, sess)
	if err != nil {
		var repErr *represent.Error
		if errors.As(err, &repErr) {
			// A broken representation function is a defect, not a user
			// error. Log it loudly; the user still gets the polite
			// fallback, never the internal descriptor.
			log.Printf("kbaction: REPRESENTATION FAILURE for type %q: %v", repErr.TypeName, err)
			dispatcher.UtterMessage(FallbackUtterance)
			return nil, nil
		}
		var resErr *resolve.Error
		if errors.As(err, &resErr) || errors.Is(err, types.ErrInvalidQuery) {
			log.Printf("kbaction: query not answerable: %v", err)
			dispatcher.UtterMessage(FallbackUtterance)
			return nil, nil
		}
		return nil, err
	}

	dispatcher.UtterMessage(u.Text)

	events := []Event{}
	if obj, ok := sess.LastMentioned(objectType); ok {
		events = append(events, SlotSet(SlotLastObject, obj.Identifier))
	}
	return events, nil
}

// listObjects enumerates the matching objects and records the listing for
// a follow-up ordinal selection.
func (a *QueryKnowledgeBaseAction) listObjects(ctx context.Context, dispatcher *CollectingDispatcher, tracker *Tracker, sess session.Context, objectType string) ([]Event, error) {
	var sel *types.Selector
	if filterAttr := tracker.StringSlot(SlotFilterAttribute); filterAttr != "" {
		if filterValue, ok := tracker.Slot(SlotFilterValue); ok {
			s := types.ByAttribute(filterAttr, filterValue)
			sel = &s
		}
	}

	objs, displays, err := a.service.ListObjects(ctx, objectType, sel)
	if err != nil {
		var repErr *represent.Error
		if errors.As(err, &repErr) {
			log.Printf("kbaction: REPRESENTATION FAILURE for type %q: %v", repErr.TypeName, err)
			dispatcher.UtterMessage(FallbackUtterance)
			return nil, nil
		}
		return nil, err
	}

	if len(objs) == 0 {
		dispatcher.UtterMessage(fmt.Sprintf("I could not find any objects of type '%s'.", objectType))
		return nil, nil
	}

	lines := make([]string, 0, len(objs)+1)
	lines = append(lines, fmt.Sprintf("Found the following objects of type '%s':", objectType))
	identifiers := make([]string, 0, len(objs))
	for i, display := range displays {
		lines = append(lines, fmt.Sprintf("%d: %s", i+1, display))
		identifiers = append(identifiers, objs[i].Identifier)
	}
	dispatcher.UtterMessage(strings.Join(lines, "\n"))

	sess.SetListedObjects(objectType, identifiers)
	return []Event{SlotSet(SlotListedObjects, identifiers)}, nil
}

// selector derives the query selector from the tracker slots: an explicit
// mention wins, then an ordinal into the last listing, then the last
// mentioned object of the type.
func (a *QueryKnowledgeBaseAction) selector(tracker *Tracker, sess session.Context, objectType string) types.Selector {
	if mention := tracker.StringSlot(SlotMention); mention != "" {
		return types.ByIdentifier(mention)
	}
	if position, ok := tracker.IntSlot(SlotOrdinalMention); ok {
		return types.ByOrdinal(position, sess.ListedObjects(objectType))
	}
	return types.ByLastMentioned()
}
