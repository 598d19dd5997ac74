package types

import (
	"errors"
	"fmt"
)

// SelectorKind discriminates the selector variants of an AttributeQuery.
type SelectorKind string

const (
	// SelectByIdentifier picks the object with an exact identifier match.
	SelectByIdentifier SelectorKind = "identifier"

	// SelectByOrdinal picks the Nth object (1-based, matching conversational
	// "the first one" phrasing) from a candidate subset.
	SelectByOrdinal SelectorKind = "ordinal"

	// SelectByLastMentioned picks the object a prior query in the same
	// session resolved for the requested type.
	SelectByLastMentioned SelectorKind = "last_mentioned"

	// SelectByAttribute picks the first object (insertion order) whose
	// attribute renders equal to the given value.
	SelectByAttribute SelectorKind = "attribute"
)

// Selector is the strategy used to pick one object out of the candidate
// set of a type. It is a tagged variant: Kind determines which of the
// remaining fields are meaningful. Use the constructor functions rather
// than building the struct by hand.
type Selector struct {
	Kind SelectorKind `json:"kind"`

	// Identifier is the exact identifier to match (SelectByIdentifier).
	Identifier string `json:"identifier,omitempty"`

	// Position is the 1-based ordinal position (SelectByOrdinal).
	Position int `json:"position,omitempty"`

	// From restricts ordinal selection to the objects with these
	// identifiers, in this order (SelectByOrdinal). Empty means all
	// objects of the target type in insertion order.
	From []string `json:"from,omitempty"`

	// Attribute and Value constrain selection to objects whose attribute
	// renders equal to the value (SelectByAttribute).
	Attribute string `json:"attribute,omitempty"`
	Value     any    `json:"value,omitempty"`
}

// ByIdentifier selects the object with the given identifier.
func ByIdentifier(id string) Selector {
	return Selector{Kind: SelectByIdentifier, Identifier: id}
}

// ByOrdinal selects the object at the given 1-based position within the
// candidate subset identified by from. An empty from means all objects of
// the target type.
func ByOrdinal(position int, from []string) Selector {
	return Selector{Kind: SelectByOrdinal, Position: position, From: from}
}

// ByLastMentioned selects the object previously resolved for the target
// type in the current session.
func ByLastMentioned() Selector {
	return Selector{Kind: SelectByLastMentioned}
}

// ByAttribute selects the first object whose attribute renders equal to
// the given value.
func ByAttribute(name string, value any) Selector {
	return Selector{Kind: SelectByAttribute, Attribute: name, Value: value}
}

// AttributeQuery asks for one attribute of one object of a type.
type AttributeQuery struct {
	TargetType string   `json:"target_type"` // Object type to resolve against (required)
	Selector   Selector `json:"selector"`    // How to pick the object (required)
	Attribute  string   `json:"attribute"`   // Attribute to fetch (required)
}

// ErrInvalidQuery indicates a structurally invalid AttributeQuery.
var ErrInvalidQuery = errors.New("invalid attribute query")

// Validate checks that the query is structurally complete for its
// selector kind. It does not touch the store.
func (q *AttributeQuery) Validate() error {
	if q.TargetType == "" {
		return fmt.Errorf("%w: target type is required", ErrInvalidQuery)
	}
	if q.Attribute == "" {
		return fmt.Errorf("%w: attribute is required", ErrInvalidQuery)
	}
	switch q.Selector.Kind {
	case SelectByIdentifier:
		if q.Selector.Identifier == "" {
			return fmt.Errorf("%w: identifier selector requires an identifier", ErrInvalidQuery)
		}
	case SelectByOrdinal:
		if q.Selector.Position < 1 {
			return fmt.Errorf("%w: ordinal position must be >= 1, got %d", ErrInvalidQuery, q.Selector.Position)
		}
	case SelectByLastMentioned:
		// No fields required.
	case SelectByAttribute:
		if q.Selector.Attribute == "" {
			return fmt.Errorf("%w: attribute selector requires an attribute name", ErrInvalidQuery)
		}
	default:
		return fmt.Errorf("%w: unknown selector kind %q", ErrInvalidQuery, q.Selector.Kind)
	}
	return nil
}
