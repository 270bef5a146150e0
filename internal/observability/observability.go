// Package observability provides a debug-gated broadcast hub for per-stage
// pipeline events plus a bounded ring buffer of the most recent ones, so a
// connected client can watch a question move through the pipeline live
// without the pipeline itself taking a hard dependency on a live watcher.
package observability

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tidwall/sjson"
)

// MaxRecentEvents bounds the in-memory event history kept for late joiners.
const MaxRecentEvents = 200

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StageEvent records one pipeline stage's outcome for one question.
type StageEvent struct {
	ID        string      `json:"id"`
	RequestID string      `json:"request_id"`
	Stage     string      `json:"stage"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// Hub manages a single active observer connection, broadcasting StageEvents
// to it, and keeps a FIFO-capped history so a client that connects mid-run
// can still see what already happened.
type Hub struct {
	client     *client
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	mu         sync.RWMutex

	historyMu sync.Mutex
	history   []StageEvent
}

// NewHub constructs a Hub; call Run in its own goroutine before using it.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Run drives the hub's register/unregister/broadcast loop. It never
// returns; call it with `go hub.Run()`.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.client != nil {
				close(h.client.send)
			}
			h.client = c
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if h.client == c {
				close(h.client.send)
				h.client = nil
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			if h.client != nil {
				select {
				case h.client.send <- message:
				default:
					log.Printf("observability: client send buffer full, dropping connection")
					close(h.client.send)
					h.client = nil
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Emit records a StageEvent in the recent-history ring buffer and, if
// debug is true, broadcasts it to the connected observer (if any).
func (h *Hub) Emit(debug bool, requestID, stage string, data interface{}) {
	ev := StageEvent{
		ID:        uuid.New().String(),
		RequestID: requestID,
		Stage:     stage,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}

	h.historyMu.Lock()
	if len(h.history) >= MaxRecentEvents {
		h.history = h.history[1:]
	}
	h.history = append(h.history, ev)
	h.historyMu.Unlock()

	if !debug {
		return
	}

	payload, err := buildEventPayload(ev)
	if err != nil {
		log.Printf("observability: marshal event failed: %v", err)
		return
	}

	h.mu.RLock()
	hasClient := h.client != nil
	h.mu.RUnlock()
	if hasClient {
		h.broadcast <- payload
	}
}

// buildEventPayload assembles the wire JSON for a StageEvent field by field
// with sjson. Data is encoded once with encoding/json and spliced in as a raw
// value, so a string Data (such as the guard stage's SQL) appears as an
// ordinary JSON string.
func buildEventPayload(ev StageEvent) ([]byte, error) {
	dataBytes, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, err
	}

	payload, err := sjson.SetBytes([]byte("{}"), "id", ev.ID)
	if err != nil {
		return nil, err
	}
	payload, err = sjson.SetBytes(payload, "request_id", ev.RequestID)
	if err != nil {
		return nil, err
	}
	payload, err = sjson.SetBytes(payload, "stage", ev.Stage)
	if err != nil {
		return nil, err
	}
	payload, err = sjson.SetRawBytes(payload, "data", dataBytes)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(payload, "timestamp", ev.Timestamp)
}

// Recent returns up to MaxRecentEvents most recent events, oldest first.
func (h *Hub) Recent() []StageEvent {
	h.historyMu.Lock()
	defer h.historyMu.Unlock()
	out := make([]StageEvent, len(h.history))
	copy(out, h.history)
	return out
}

// ServeWS upgrades an HTTP request to a WebSocket connection and registers
// it as the hub's single observer.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("observability: upgrade failed: %v", err)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, 256)}
	c.hub.register <- c

	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for {
		message, ok := <-c.send
		if !ok {
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
		c.conn.WriteMessage(websocket.TextMessage, message)
	}
}
