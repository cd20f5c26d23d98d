// Package live pushes dashboard updates to websocket clients.
package live

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope written to clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub fans messages out to every connected client. New clients receive an
// "init" message built from the latest published payload.
type Hub struct {
	mux       *http.ServeMux
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan Message

	latestMu sync.RWMutex
	latest   any
}

func NewHub() *Hub {
	h := &Hub{
		mux:       http.NewServeMux(),
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 256),
	}
	h.mux.HandleFunc("/ws", h.handleWebSocket)
	h.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return h
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Publish stores data as the latest payload and queues an "update" for all
// clients. A full queue drops the update; the next refresh supersedes it.
func (h *Hub) Publish(data any) {
	h.latestMu.Lock()
	h.latest = data
	h.latestMu.Unlock()

	select {
	case h.broadcast <- Message{Type: "update", Data: data}:
	default:
		log.Warn().Msg("live broadcast queue full, dropping update")
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}

// Run delivers queued messages until ctx is done, then closes all clients.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.clientsMu.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.clientsMu.Unlock()
			return
		case msg := <-h.broadcast:
			h.send(msg)
		}
	}
}

func (h *Hub) send(msg Message) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			log.Debug().Err(err).Msg("dropping live client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.latestMu.RLock()
	latest := h.latest
	h.latestMu.RUnlock()

	// The init message is written before registering so broadcasts never
	// interleave with it.
	h.clientsMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = conn.WriteJSON(Message{Type: "init", Data: latest})
	if err == nil {
		h.clients[conn] = true
	}
	h.clientsMu.Unlock()
	if err != nil {
		conn.Close()
		return
	}

	defer func() {
		h.clientsMu.Lock()
		if h.clients[conn] {
			delete(h.clients, conn)
			conn.Close()
		}
		h.clientsMu.Unlock()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
