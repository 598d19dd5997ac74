package storage

import (
	"errors"
	"fmt"

	"github.com/parleyhq/parley/pkg/types"
)

var (
	// ErrNotFound indicates that the requested object was not found.
	ErrNotFound = errors.New("object not found")

	// ErrAttributeNotFound indicates that the object has no such attribute.
	ErrAttributeNotFound = errors.New("attribute not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// Attribute is the shared GetAttribute implementation used by all
// backends: attribute lookup is object-local, so backends only differ in
// how objects are fetched, not in how attributes are read.
func Attribute(obj *types.KnowledgeObject, name string) (any, error) {
	if obj == nil {
		return nil, fmt.Errorf("%w: object is required", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: attribute name is required", ErrInvalidInput)
	}
	v, ok := obj.Attribute(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q has no attribute %q", ErrAttributeNotFound, obj.Key(), name)
	}
	return v, nil
}

// FilterByAttribute returns the objects whose named attribute renders
// equal to the given value, preserving insertion order. Rendering both
// sides through types.FormatValue keeps the comparison uniform across
// backends (a JSON-decoded float64 1 matches an int 1).
func FilterByAttribute(objs []*types.KnowledgeObject, name string, value any) []*types.KnowledgeObject {
	want := types.FormatValue(value)
	var matched []*types.KnowledgeObject
	for _, obj := range objs {
		if v, ok := obj.Attribute(name); ok && types.FormatValue(v) == want {
			matched = append(matched, obj)
		}
	}
	return matched
}
