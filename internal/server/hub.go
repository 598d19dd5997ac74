package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/parleyhq/parley/internal/action"
)

// UtteranceEvent is broadcast to websocket observers after each webhook
// call, carrying the structured result for debugging and conversation
// review tooling.
type UtteranceEvent struct {
	RequestID string           `json:"request_id"`
	Action    string           `json:"action"`
	SenderID  string           `json:"sender_id,omitempty"`
	Responses []action.Message `json:"responses"`
	Timestamp time.Time        `json:"timestamp"`
}

// Hub manages websocket observer connections and broadcasts utterance
// events to them.
type Hub struct {
	clients    map[*hubClient]bool
	broadcast  chan UtteranceEvent
	register   chan *hubClient
	unregister chan *hubClient
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
}

// hubClient is one connected observer.
type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub. Call Run in a goroutine to start it.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*hubClient]bool),
		broadcast:  make(chan UtteranceEvent, 256),
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("ws: failed to marshal utterance event: %v", err)
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Slow observer, disconnect rather than block the hub.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			return
		}
	}
}

// Stop shuts the hub down and disconnects all observers.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
		_ = client.conn.Close(websocket.StatusNormalClosure, "")
	}
	h.clients = make(map[*hubClient]bool)
	h.mu.Unlock()
}

// Broadcast queues an event for all observers; it never blocks the
// webhook path.
func (h *Hub) Broadcast(event UtteranceEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("ws: broadcast channel full, dropping utterance event")
	}
}

// ServeHTTP upgrades the request to a websocket observer connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // observers are same-host tooling; auth happens via middleware
	})
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	client := &hubClient{conn: conn, send: make(chan []byte, 64)}
	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

// writePump sends queued events to the observer connection.
func (c *hubClient) writePump() {
	defer func() {
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for message := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			return
		}
	}
}

// readPump drains incoming messages to detect disconnection.
func (c *hubClient) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.ctx.Done():
		}
	}()

	for {
		if _, _, err := c.conn.Read(h.ctx); err != nil {
			return
		}
	}
}
