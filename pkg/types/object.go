// Package types defines the core data structures for the Parley knowledge
// base: typed knowledge objects, attribute queries with their selectors,
// and the formatted utterances handed back to the dialogue action layer.
package types

// KnowledgeObject is a typed record in the knowledge base.
// Identity is the (Type, Identifier) pair, unique within a store.
// Objects are owned by the store; resolvers and formatters receive
// references and never mutate them.
type KnowledgeObject struct {
	Type       string         `json:"type"`                 // Object type name (e.g. "hotel", "restaurant")
	Identifier string         `json:"identifier"`           // Unique identifier within the type
	Attributes map[string]any `json:"attributes,omitempty"` // Attribute name -> value
}

// Attribute returns the named attribute value and whether the object has it.
// A nil attribute map behaves like an empty one.
func (o *KnowledgeObject) Attribute(name string) (any, bool) {
	if o == nil || o.Attributes == nil {
		return nil, false
	}
	v, ok := o.Attributes[name]
	return v, ok
}

// Key returns the object's identity in "type:identifier" form, used for
// logging and duplicate detection.
func (o *KnowledgeObject) Key() string {
	return o.Type + ":" + o.Identifier
}
