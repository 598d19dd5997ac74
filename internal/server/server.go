// Package server provides the webhook HTTP server through which the
// orchestrating dialogue layer invokes actions, plus a websocket stream
// of the resulting utterances for observer tooling.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/parleyhq/parley/internal/action"
	"github.com/parleyhq/parley/internal/config"
)

// Start initializes and starts the HTTP server. It returns the actual
// address being listened on (useful for testing with port 0) and the hub
// broadcasting utterance events. The server shuts down when ctx is
// cancelled.
func Start(ctx context.Context, cfg *config.Config, exec *action.Executor) (string, *Hub, error) {
	mux := http.NewServeMux()

	hub := NewHub()
	go hub.Run()

	rl := newRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)

	mux.Handle("/webhook", rl.limit(requireAuth(webhookHandler(exec, hub), cfg)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	if cfg.Features.EnableWebSocket {
		mux.Handle("/ws", requireAuth(hub, cfg))
	}

	handler := securityHeaders(requestID(mux))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		hub.Stop()
		return "", nil, fmt.Errorf("server: failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server: serve failed: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown failed: %v", err)
		}
		hub.Stop()
	}()

	actualAddr := listener.Addr().String()
	log.Printf("server: action server listening on %s", actualAddr)
	return actualAddr, hub, nil
}

// webhookHandler runs the action named by the posted ActionCall and
// replies with the events and messages it produced.
func webhookHandler(exec *action.Executor, hub *Hub) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
			return
		}

		var call action.ActionCall
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		resp, err := exec.Run(r.Context(), &call)
		if err != nil {
			if errors.Is(err, action.ErrUnknownAction) {
				writeError(w, http.StatusNotFound, err.Error(), "UNKNOWN_ACTION")
				return
			}
			log.Printf("webhook: action %q failed: %v", call.NextAction, err)
			writeError(w, http.StatusInternalServerError, "action execution failed", "INTERNAL_ERROR")
			return
		}

		senderID := ""
		if call.Tracker != nil {
			senderID = call.Tracker.SenderID
		}
		hub.Broadcast(UtteranceEvent{
			RequestID: r.Header.Get("X-Request-ID"),
			Action:    call.NextAction,
			SenderID:  senderID,
			Responses: resp.Responses,
			Timestamp: time.Now().UTC(),
		})

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Printf("webhook: failed to encode response: %v", err)
		}
	})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
