// Package utter builds the final natural-language utterance from a
// resolved object, its attribute name, and the attribute value.
package utter

import (
	"fmt"

	"github.com/parleyhq/parley/internal/represent"
	"github.com/parleyhq/parley/pkg/types"
)

// attributeTemplate is the slot-filled answer template. Each slot is
// substituted with a value: the display string produced by the
// representation registry, the stringified attribute value, and the
// attribute name.
const attributeTemplate = "'%s' has the value '%s' for attribute '%s'."

// Formatter renders formatted utterances. It is stateless; its only
// failure mode is propagating a representation error.
type Formatter struct {
	registry *represent.Registry
}

// NewFormatter creates a formatter over the given representation registry.
func NewFormatter(registry *represent.Registry) *Formatter {
	return &Formatter{registry: registry}
}

// Format renders the utterance for an object's attribute value.
//
// The object-reference slot is filled with the *result* of invoking the
// representation registry on the object. If representation fails, the
// error is returned as-is: falling back to a generic identity string here
// would hide exactly the class of bug the registry error exists to
// surface.
func (f *Formatter) Format(obj *types.KnowledgeObject, attributeName string, attributeValue any) (*types.FormattedUtterance, error) {
	display, err := f.registry.Represent(obj)
	if err != nil {
		return nil, err
	}

	valueText := types.FormatValue(attributeValue)
	return &types.FormattedUtterance{
		Text:           fmt.Sprintf(attributeTemplate, display, valueText, attributeName),
		ObjectDisplay:  display,
		AttributeName:  attributeName,
		AttributeValue: valueText,
	}, nil
}
