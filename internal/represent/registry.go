// Package represent implements the per-type representation registry: it
// maps an object type name to a function producing the human-readable
// string for objects of that type.
//
// Formatting code never sees the registered function value itself — only
// Represent's string result. Keeping the function table unexported is
// what makes it impossible to accidentally format the function instead of
// its output, which is exactly the defect this package exists to prevent.
package represent

import (
	"fmt"
	"sync"

	"github.com/parleyhq/parley/pkg/types"
)

// DefaultNameAttribute is the attribute used to build the default display
// string when no representation function is registered for a type.
const DefaultNameAttribute = "name"

// Func produces the human-readable string for an object. It must be pure
// and must not panic for objects conforming to its type's schema; a panic
// is wrapped into *Error and propagated, never silently replaced by a
// placeholder.
type Func func(obj *types.KnowledgeObject) string

// Error wraps a failure of a registered representation function.
type Error struct {
	TypeName string // Type whose representation function failed
	Cause    error  // Underlying failure
}

func (e *Error) Error() string {
	return fmt.Sprintf("representation of type %q failed: %v", e.TypeName, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Registry holds the per-type representation functions.
//
// Registration normally happens once at configuration time. Live
// re-registration is supported: Represent holds the read lock across
// lookup and invocation, so a concurrent Register is observed either
// fully or not at all by any single call.
type Registry struct {
	mu            sync.RWMutex
	funcs         map[string]Func
	nameAttribute string
}

// NewRegistry creates a registry whose default display falls back to the
// "name" attribute.
func NewRegistry() *Registry {
	return NewRegistryWithNameAttribute(DefaultNameAttribute)
}

// NewRegistryWithNameAttribute creates a registry with a custom
// default-name attribute.
func NewRegistryWithNameAttribute(attr string) *Registry {
	if attr == "" {
		attr = DefaultNameAttribute
	}
	return &Registry{
		funcs:         make(map[string]Func),
		nameAttribute: attr,
	}
}

// Register stores fn as the representation function for the given type.
// Re-registering a type overwrites the previous function; last write wins.
func (r *Registry) Register(typeName string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[typeName] = fn
}

// RegisterAttribute registers a representation that renders the named
// attribute of the object, coerced through types.FormatValue so non-string
// attribute values become their value's string form. Objects missing the
// attribute fall back to their identifier.
func (r *Registry) RegisterAttribute(typeName, attrName string) {
	r.Register(typeName, func(obj *types.KnowledgeObject) string {
		if v, ok := obj.Attribute(attrName); ok {
			return types.FormatValue(v)
		}
		return obj.Identifier
	})
}

// Registered reports whether a representation function is registered for
// the given type.
func (r *Registry) Registered(typeName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[typeName]
	return ok
}

// Represent returns the human-readable display string for the object.
//
// When a function is registered for the object's type, its result is
// returned; a panic during invocation is wrapped into *Error and
// propagated. When no function is registered, the default display is the
// object's default-name attribute if present, else its identifier.
func (r *Registry) Represent(obj *types.KnowledgeObject) (string, error) {
	if obj == nil {
		return "", &Error{TypeName: "", Cause: fmt.Errorf("object is nil")}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.funcs[obj.Type]
	if !ok {
		if v, present := obj.Attribute(r.nameAttribute); present {
			return types.FormatValue(v), nil
		}
		return obj.Identifier, nil
	}

	return invoke(fn, obj)
}

// invoke runs a representation function, converting a panic into *Error.
func invoke(fn Func, obj *types.KnowledgeObject) (display string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &Error{
				TypeName: obj.Type,
				Cause:    fmt.Errorf("representation function panicked: %v", rec),
			}
		}
	}()
	return fn(obj), nil
}
