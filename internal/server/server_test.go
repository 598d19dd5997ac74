package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/internal/action"
	"github.com/parleyhq/parley/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Security:  config.SecurityConfig{Mode: "development"},
		RateLimit: config.RateLimitConfig{PerSecond: 100, Burst: 100},
		Features:  config.FeaturesConfig{EnableWebSocket: true},
	}
}

func startTestServer(t *testing.T, exec *action.Executor) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	addr, _, err := Start(ctx, testConfig(), exec)
	require.NoError(t, err)
	return "http://" + addr
}

func postWebhook(t *testing.T, base string, call *action.ActionCall) *http.Response {
	t.Helper()
	body, err := json.Marshal(call)
	require.NoError(t, err)

	resp, err := http.Post(base+"/webhook", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestWebhook_RunsAction(t *testing.T) {
	exec := action.NewExecutor()
	exec.RegisterFunc("action_hello", func(ctx context.Context, d *action.CollectingDispatcher, tr *action.Tracker, domain map[string]any) ([]action.Event, error) {
		d.UtterMessage("hello " + tr.SenderID)
		return []action.Event{action.SlotSet("greeted", true)}, nil
	})
	base := startTestServer(t, exec)

	resp := postWebhook(t, base, &action.ActionCall{
		NextAction: "action_hello",
		Tracker:    &action.Tracker{SenderID: "alice"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out action.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Responses, 1)
	assert.Equal(t, "hello alice", out.Responses[0].Text)
	require.Len(t, out.Events, 1)
	assert.Equal(t, "slot", out.Events[0]["event"])
}

func TestWebhook_UnknownActionIs404(t *testing.T) {
	base := startTestServer(t, action.NewExecutor())

	resp := postWebhook(t, base, &action.ActionCall{NextAction: "action_missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "UNKNOWN_ACTION", body["code"])
}

func TestWebhook_ActionFailureIs500(t *testing.T) {
	exec := action.NewExecutor()
	exec.RegisterFunc("action_fail", func(ctx context.Context, d *action.CollectingDispatcher, tr *action.Tracker, domain map[string]any) ([]action.Event, error) {
		return nil, fmt.Errorf("store unavailable")
	})
	base := startTestServer(t, exec)

	resp := postWebhook(t, base, &action.ActionCall{NextAction: "action_fail"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestWebhook_InvalidBodyIs400(t *testing.T) {
	base := startTestServer(t, action.NewExecutor())

	resp, err := http.Post(base+"/webhook", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebhook_GetIsMethodNotAllowed(t *testing.T) {
	base := startTestServer(t, action.NewExecutor())

	resp, err := http.Get(base + "/webhook")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	base := startTestServer(t, action.NewExecutor())

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestResponseHeaders(t *testing.T) {
	base := startTestServer(t, action.NewExecutor())

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestWebhook_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{PerSecond: 1, Burst: 1}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	addr, _, err := Start(ctx, cfg, action.NewExecutor())
	require.NoError(t, err)
	base := "http://" + addr

	first := postWebhook(t, base, &action.ActionCall{NextAction: "action_missing"})
	assert.Equal(t, http.StatusNotFound, first.StatusCode, "first request reaches the handler")

	second := postWebhook(t, base, &action.ActionCall{NextAction: "action_missing"})
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}
