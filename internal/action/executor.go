package action

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// ErrUnknownAction is returned when an action call names an action that
// was never registered.
var ErrUnknownAction = errors.New("no registered action")

// Event is a dialogue event returned by an action to the orchestrating
// layer, serialised as {"event": ..., ...}.
type Event map[string]any

// SlotSet builds a slot event setting the named slot to the given value.
func SlotSet(name string, value any) Event {
	return Event{"event": "slot", "name": name, "value": value}
}

// Action is a named dialogue action.
type Action interface {
	// Name is the action name the orchestrating layer invokes this
	// action by.
	Name() string

	// Run executes the action. Messages for the user go through the
	// dispatcher; returned events update the conversation state upstream.
	Run(ctx context.Context, dispatcher *CollectingDispatcher, tracker *Tracker, domain map[string]any) ([]Event, error)
}

// RunFunc is the signature of a directly registered action function.
type RunFunc func(ctx context.Context, dispatcher *CollectingDispatcher, tracker *Tracker, domain map[string]any) ([]Event, error)

// ActionCall is the webhook payload asking the executor to run one action.
type ActionCall struct {
	NextAction string         `json:"next_action"`
	Tracker    *Tracker       `json:"tracker,omitempty"`
	Domain     map[string]any `json:"domain,omitempty"`
}

// Response is the executor's reply: the events the action returned and
// the messages its dispatcher collected.
type Response struct {
	Events    []Event   `json:"events"`
	Responses []Message `json:"responses"`
}

// Executor holds the named-action registry and runs actions on request.
type Executor struct {
	mu      sync.RWMutex
	actions map[string]RunFunc
}

// NewExecutor creates an executor with no registered actions.
func NewExecutor() *Executor {
	return &Executor{actions: make(map[string]RunFunc)}
}

// Register registers an Action under its own name. Registering a second
// action with the same name overwrites the first.
func (e *Executor) Register(a Action) {
	e.RegisterFunc(a.Name(), a.Run)
}

// RegisterFunc registers a bare function under the given name.
func (e *Executor) RegisterFunc(name string, fn RunFunc) {
	e.mu.Lock()
	e.actions[name] = fn
	e.mu.Unlock()
	log.Printf("action: registered action %q", name)
}

// ActionNames returns the names of all registered actions.
func (e *Executor) ActionNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.actions))
	for name := range e.actions {
		names = append(names, name)
	}
	return names
}

// Run looks up the action named by the call, runs it with a fresh
// dispatcher, validates the returned events, and returns events plus the
// collected messages.
func (e *Executor) Run(ctx context.Context, call *ActionCall) (*Response, error) {
	if call == nil || call.NextAction == "" {
		return nil, fmt.Errorf("%w: action call names no action", ErrUnknownAction)
	}

	e.mu.RLock()
	fn, ok := e.actions[call.NextAction]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, call.NextAction)
	}

	tracker := call.Tracker
	if tracker == nil {
		tracker = &Tracker{}
	}

	dispatcher := NewDispatcher()
	events, err := fn(ctx, dispatcher, tracker, call.Domain)
	if err != nil {
		return nil, fmt.Errorf("action %q failed: %w", call.NextAction, err)
	}

	return &Response{
		Events:    validateEvents(events, call.NextAction),
		Responses: dispatcher.Messages,
	}, nil
}

// validateEvents drops events without an "event" key so malformed events
// never reach the orchestrating layer. The drop is logged loudly: a
// silently vanishing event is much harder to debug than a noisy one.
func validateEvents(events []Event, actionName string) []Event {
	validated := make([]Event, 0, len(events))
	for _, ev := range events {
		name, _ := ev["event"].(string)
		if name == "" {
			log.Printf("action: %q returned an event without the 'event' property, ignoring: %v", actionName, ev)
			continue
		}
		validated = append(validated, ev)
	}
	return validated
}
