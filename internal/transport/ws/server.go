// Package ws streams committed turn records to read-only watchers over
// websocket. Watchers never drive the simulation; slow consumers drop the
// oldest queued record rather than stalling a commit.
package ws

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"tidecraft.ai/internal/protocol"
)

type Hub struct {
	log      *stdlog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	watchers map[string]map[uint64]chan []byte // session id -> watcher id -> out
	nextID   atomic.Uint64
}

func NewHub(logger *stdlog.Logger) *Hub {
	return &Hub{
		log:      logger,
		watchers: map[string]map[uint64]chan []byte{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Publish fans a committed record out to the session's watchers. Safe to
// call from the turn goroutine; never blocks.
func (h *Hub) Publish(rec protocol.TurnRecord) {
	b, err := json.Marshal(rec)
	if err != nil {
		if h.log != nil {
			h.log.Printf("ws: encode record turn %d: %v", rec.Turn, err)
		}
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, out := range h.watchers[rec.SessionID] {
		sendLatest(out, b)
	}
}

// Handler serves GET /api/watch?session=<id>.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")
		if sessionID == "" {
			http.Error(rw, "session query parameter required", http.StatusBadRequest)
			return
		}
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, out := h.subscribe(sessionID)
		defer h.unsubscribe(sessionID, id)

		done := make(chan struct{})
		go func() {
			// Reader: watchers send nothing; this only notices the close.
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case b := <-out:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}
}

func (h *Hub) subscribe(sessionID string) (uint64, chan []byte) {
	id := h.nextID.Add(1)
	out := make(chan []byte, 8)
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.watchers[sessionID]
	if m == nil {
		m = map[uint64]chan []byte{}
		h.watchers[sessionID] = m
	}
	m[id] = out
	return id, out
}

func (h *Hub) unsubscribe(sessionID string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.watchers[sessionID]; m != nil {
		delete(m, id)
		if len(m) == 0 {
			delete(h.watchers, sessionID)
		}
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
