package action

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_RunRegisteredAction(t *testing.T) {
	exec := NewExecutor()
	exec.RegisterFunc("action_hello", func(ctx context.Context, d *CollectingDispatcher, tr *Tracker, domain map[string]any) ([]Event, error) {
		d.UtterMessage("hello " + tr.SenderID)
		return []Event{SlotSet("greeted", true)}, nil
	})

	resp, err := exec.Run(context.Background(), &ActionCall{
		NextAction: "action_hello",
		Tracker:    &Tracker{SenderID: "alice"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Responses, 1)
	assert.Equal(t, "hello alice", resp.Responses[0].Text)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "slot", resp.Events[0]["event"])
}

func TestExecutor_UnknownAction(t *testing.T) {
	exec := NewExecutor()

	_, err := exec.Run(context.Background(), &ActionCall{NextAction: "action_missing"})
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = exec.Run(context.Background(), &ActionCall{})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestExecutor_NilTrackerGetsEmptyOne(t *testing.T) {
	exec := NewExecutor()
	exec.RegisterFunc("action_probe", func(ctx context.Context, d *CollectingDispatcher, tr *Tracker, domain map[string]any) ([]Event, error) {
		require.NotNil(t, tr)
		return nil, nil
	})

	_, err := exec.Run(context.Background(), &ActionCall{NextAction: "action_probe"})
	require.NoError(t, err)
}

func TestExecutor_ActionErrorPropagates(t *testing.T) {
	exec := NewExecutor()
	boom := errors.New("boom")
	exec.RegisterFunc("action_fail", func(ctx context.Context, d *CollectingDispatcher, tr *Tracker, domain map[string]any) ([]Event, error) {
		return nil, boom
	})

	_, err := exec.Run(context.Background(), &ActionCall{NextAction: "action_fail"})
	assert.ErrorIs(t, err, boom)
}

func TestExecutor_DropsEventsWithoutEventKey(t *testing.T) {
	exec := NewExecutor()
	exec.RegisterFunc("action_events", func(ctx context.Context, d *CollectingDispatcher, tr *Tracker, domain map[string]any) ([]Event, error) {
		return []Event{
			SlotSet("ok", 1),
			{"name": "no event key"},
			{"event": "restart"},
		}, nil
	})

	resp, err := exec.Run(context.Background(), &ActionCall{NextAction: "action_events"})
	require.NoError(t, err)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, "slot", resp.Events[0]["event"])
	assert.Equal(t, "restart", resp.Events[1]["event"])
}

func TestExecutor_FreshDispatcherPerRun(t *testing.T) {
	exec := NewExecutor()
	exec.RegisterFunc("action_once", func(ctx context.Context, d *CollectingDispatcher, tr *Tracker, domain map[string]any) ([]Event, error) {
		d.UtterMessage("one message")
		return nil, nil
	})

	first, err := exec.Run(context.Background(), &ActionCall{NextAction: "action_once"})
	require.NoError(t, err)
	second, err := exec.Run(context.Background(), &ActionCall{NextAction: "action_once"})
	require.NoError(t, err)

	assert.Len(t, first.Responses, 1)
	assert.Len(t, second.Responses, 1, "messages must not accumulate across runs")
}

func TestExecutor_RegisterOverwritesByName(t *testing.T) {
	exec := NewExecutor()
	exec.RegisterFunc("action_x", func(ctx context.Context, d *CollectingDispatcher, tr *Tracker, domain map[string]any) ([]Event, error) {
		d.UtterMessage("first")
		return nil, nil
	})
	exec.RegisterFunc("action_x", func(ctx context.Context, d *CollectingDispatcher, tr *Tracker, domain map[string]any) ([]Event, error) {
		d.UtterMessage("second")
		return nil, nil
	})

	resp, err := exec.Run(context.Background(), &ActionCall{NextAction: "action_x"})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Responses[0].Text)
	assert.Len(t, exec.ActionNames(), 1)
}
