package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/davidbarber/barbershop-platform/internal/events"
	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

// Hub pushes booking events to connected dashboard clients over WebSocket.
// The shop owner keeps the admin page open; new bookings appear without a
// refresh.
type Hub struct {
	logger *logging.Logger

	mu    sync.RWMutex
	conns map[*wsConn]struct{}
}

type wsConn struct {
	conn *websocket.Conn
	done chan struct{}
}

// InboundMessage is what the dashboard sends. Only pings are expected.
type InboundMessage struct {
	Type string `json:"type"`
}

// OutboundMessage is what the hub sends to the dashboard.
type OutboundMessage struct {
	Type      string `json:"type"` // "event", "pong", "hello"
	Event     string `json:"event,omitempty"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		logger: logger,
		conns:  make(map[*wsConn]struct{}),
	}
}

// HandleWebSocket upgrades to WebSocket and keeps the connection registered
// until the client goes away.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn)
	}).ServeHTTP(w, r)
}

func (h *Hub) serveWS(conn *websocket.Conn) {
	_ = websocket.JSON.Send(conn, OutboundMessage{
		Type:      "hello",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})

	wsc := &wsConn{conn: conn, done: make(chan struct{})}
	h.mu.Lock()
	h.conns[wsc] = struct{}{}
	clients := len(h.conns)
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.conns, wsc)
		h.mu.Unlock()
		close(wsc.done)
	}()

	h.logger.Info("realtime: connection opened", "clients", clients)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("realtime: connection closed", "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
		}
	}
}

// Broadcast sends msg to every connected client. Slow or dead clients only
// lose their own delivery.
func (h *Hub) Broadcast(msg OutboundMessage) {
	h.mu.RLock()
	conns := make([]*wsConn, 0, len(h.conns))
	for wsc := range h.conns {
		conns = append(conns, wsc)
	}
	h.mu.RUnlock()

	for _, wsc := range conns {
		if err := websocket.JSON.Send(wsc.conn, msg); err != nil {
			h.logger.Debug("realtime: send failed", "error", err)
		}
	}
}

// ClientCount reports how many dashboard clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Handle implements events.DeliveryHandler: drained outbox entries are pushed
// to connected dashboards as-is.
func (h *Hub) Handle(_ context.Context, entry events.OutboxEntry) error {
	h.Broadcast(OutboundMessage{
		Type:      "event",
		Event:     entry.Type,
		Payload:   entry.Payload,
		Timestamp: entry.CreatedAt.UTC().Format(time.RFC3339),
	})
	return nil
}

var _ events.DeliveryHandler = (*Hub)(nil)
