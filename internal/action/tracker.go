package action

import (
	"strconv"
	"strings"
)

// Tracker is the conversation state passed along with an action call:
// the sender, the current slot values, and the latest parsed user
// message. Slot extraction happens upstream in the NLU pipeline; actions
// only read the already-extracted values.
type Tracker struct {
	SenderID      string         `json:"sender_id"`
	Slots         map[string]any `json:"slots,omitempty"`
	LatestMessage map[string]any `json:"latest_message,omitempty"`
}

// Slot returns the raw slot value and whether the slot is set (non-nil).
func (t *Tracker) Slot(name string) (any, bool) {
	if t == nil || t.Slots == nil {
		return nil, false
	}
	v, ok := t.Slots[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// StringSlot returns the slot value as a trimmed string, or "" when the
// slot is unset or not a string.
func (t *Tracker) StringSlot(name string) string {
	v, ok := t.Slot(name)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// IntSlot returns the slot value as an int. JSON decoding yields float64
// for numbers and NLU pipelines frequently extract ordinals as digit
// strings, so both forms are accepted.
func (t *Tracker) IntSlot(name string) (int, bool) {
	v, ok := t.Slot(name)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// StringSliceSlot returns the slot value as a string slice. Both native
// JSON arrays and []string values are accepted.
func (t *Tracker) StringSliceSlot(name string) []string {
	v, ok := t.Slot(name)
	if !ok {
		return nil
	}
	switch x := v.(type) {
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
