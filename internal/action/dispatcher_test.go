package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_CollectsInOrder(t *testing.T) {
	d := NewDispatcher()
	d.UtterMessage("first")
	d.UtterTemplate("utter_greet")
	d.UtterButtonMessage("pick one", []map[string]any{{"title": "A", "payload": "/a"}})
	d.UtterCustomJSON(map[string]any{"kind": "card"})
	d.UtterImageURL("https://example.com/img.png")

	require.Len(t, d.Messages, 5)
	assert.Equal(t, "first", d.Messages[0].Text)
	assert.Equal(t, "utter_greet", d.Messages[1].Template)
	assert.Equal(t, "pick one", d.Messages[2].Text)
	require.Len(t, d.Messages[2].Buttons, 1)
	assert.Equal(t, "card", d.Messages[3].Custom["kind"])
	assert.Equal(t, "https://example.com/img.png", d.Messages[4].Image)
}

func TestTracker_Slots(t *testing.T) {
	tr := &Tracker{Slots: map[string]any{
		"object_type": "hotel",
		"padded":      "  b&b  ",
		"ordinal_f":   float64(2),
		"ordinal_s":   "3",
		"listed":      []any{"h1", "h2"},
		"nilslot":     nil,
	}}

	assert.Equal(t, "hotel", tr.StringSlot("object_type"))
	assert.Equal(t, "b&b", tr.StringSlot("padded"))
	assert.Equal(t, "", tr.StringSlot("missing"))

	n, ok := tr.IntSlot("ordinal_f")
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	n, ok = tr.IntSlot("ordinal_s")
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	_, ok = tr.IntSlot("object_type")
	assert.False(t, ok)

	assert.Equal(t, []string{"h1", "h2"}, tr.StringSliceSlot("listed"))

	_, ok = tr.Slot("nilslot")
	assert.False(t, ok, "nil slot values count as unset")
}

func TestTracker_NilSafe(t *testing.T) {
	var tr *Tracker

	_, ok := tr.Slot("anything")
	assert.False(t, ok)
	assert.Equal(t, "", tr.StringSlot("anything"))
}
