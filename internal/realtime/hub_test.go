package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/davidbarber/barbershop-platform/internal/events"
	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

func dialHub(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)

	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestHubSendsHelloOnConnect(t *testing.T) {
	hub := NewHub(logging.Default())
	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	var msg OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &msg))
	assert.Equal(t, "hello", msg.Type)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestHubRespondsToPing(t *testing.T) {
	hub := NewHub(logging.Default())
	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	var hello OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &hello))

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "ping"}))

	var pong OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &pong))
	assert.Equal(t, "pong", pong.Type)
}

func TestHubBroadcastsOutboxEntries(t *testing.T) {
	hub := NewHub(logging.Default())
	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	var hello OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &hello))

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	evt := events.AppointmentScheduledV1{
		EventID:       "evt-1",
		AppointmentID: "appt-1",
		CustomerName:  "Maria Souza",
		ServiceName:   "Corte Clássico",
		Date:          "2026-09-10",
		StartTime:     "09:00",
	}
	raw, err := json.Marshal(evt)
	require.NoError(t, err)

	entry := events.OutboxEntry{
		ID:        uuid.New(),
		Type:      events.TypeAppointmentScheduled,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, hub.Handle(context.Background(), entry))

	var pushed OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &pushed))
	assert.Equal(t, "event", pushed.Type)
	assert.Equal(t, events.TypeAppointmentScheduled, pushed.Event)

	payload, err := json.Marshal(pushed.Payload)
	require.NoError(t, err)
	var decoded events.AppointmentScheduledV1
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "appt-1", decoded.AppointmentID)
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub := NewHub(logging.Default())
	conn, cleanup := dialHub(t, hub)

	var hello OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &hello))

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	cleanup()

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)
}
