// Package engine — WebSocket hub for real-time price broadcasting.
package engine

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yesnofun/pricing-engine/internal/metrics"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
)

// WSMessage is a JSON message sent to WebSocket clients.
type WSMessage struct {
	Type      string `json:"type"`
	PoolID    string `json:"pool_id"`
	Ticker    string `json:"ticker"`
	PriceYes  string `json:"price_yes,omitempty"`
	PriceNo   string `json:"price_no,omitempty"`
	AssetIn   string `json:"asset_in,omitempty"`
	AmountIn  string `json:"amount_in,omitempty"`
	AmountOut string `json:"amount_out,omitempty"`
}

// WSHub manages WebSocket connections and broadcasts messages to all
// connected clients when pool prices change. The Run goroutine is the
// only writer on every connection and the only mutator of the client
// map under lock: gorilla/websocket allows at most one concurrent
// writer per connection, and map mutation under a read lock races
// concurrent readers.
type WSHub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Run starts the hub's main event loop. Must be called in a goroutine.
// It owns all connection writes, including keepalive pings.
func (h *WSHub) Run() {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Inc()
			slog.Info("ws client connected", "total", total)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
				metrics.WebSocketClients.Dec()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.writeAll(websocket.TextMessage, msg)

		case <-ping.C:
			h.writeAll(websocket.PingMessage, nil)
		}
	}
}

// writeAll sends one frame to every client and drops clients whose
// writes fail. Called only from Run, under the exclusive lock, so each
// connection has exactly one writer and the map never mutates under a
// read lock.
func (h *WSHub) writeAll(messageType int, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(messageType, data); err != nil {
			conn.Close()
			delete(h.clients, conn)
			metrics.WebSocketClients.Dec()
		}
	}
}

// Broadcast sends a message to all connected clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		// Drop if buffer full to avoid blocking swap execution.
	}
}

// ClientCount returns the number of connected clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // Allow all origins during development.
	},
}

// HandleWS handles WebSocket upgrade requests at GET /api/v1/ws.
func (h *WSHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}

	h.register <- conn

	// Read pump: refresh the deadline on pongs and detect disconnects.
	// Writes stay with the Run goroutine.
	go func() {
		defer func() { h.unregister <- conn }()
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
