package live

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onction/power-dashboard/internal/aggregate"
	"github.com/onction/power-dashboard/internal/domain"
	"github.com/onction/power-dashboard/internal/metrics"
	"github.com/onction/power-dashboard/internal/service"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	return msg
}

func TestHub_InitAndUpdate(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	hub.Publish(map[string]int{"seq": 1})
	conn := dial(t, srv)

	first := readMessage(t, conn)
	if first["type"] != "init" {
		t.Fatalf("Expected init message, got %v", first)
	}
	if data, _ := first["data"].(map[string]any); data["seq"] != float64(1) {
		t.Errorf("Expected latest payload in init, got %v", first["data"])
	}

	hub.Publish(map[string]int{"seq": 2})
	// The first publish may still be queued when the client registers.
	update := readMessage(t, conn)
	if data, _ := update["data"].(map[string]any); data["seq"] == float64(1) {
		update = readMessage(t, conn)
	}
	if update["type"] != "update" {
		t.Fatalf("Expected update message, got %v", update)
	}
	if data, _ := update["data"].(map[string]any); data["seq"] != float64(2) {
		t.Errorf("Expected seq 2, got %v", update["data"])
	}
	if hub.Clients() != 1 {
		t.Errorf("Expected 1 client, got %d", hub.Clients())
	}
}

func TestHub_InitWithoutData(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	msg := readMessage(t, dial(t, srv))
	if msg["type"] != "init" || msg["data"] != nil {
		t.Errorf("Expected empty init, got %v", msg)
	}
}

func TestNewUpdate(t *testing.T) {
	snap := domain.FixtureSnapshot()
	st := &service.State{
		Snapshot: snap,
		Source:   metrics.SourceFallback,
		Stats:    aggregate.ComputeStats(snap),
	}
	u := NewUpdate(st, 3)
	if u.Source != "fallback" || len(u.TopConsumers) != 3 || len(u.Zones) != 4 {
		t.Errorf("Unexpected update %+v", u)
	}
	if u.Stats.TotalFeeders != 14 {
		t.Errorf("Expected 14 feeders, got %d", u.Stats.TotalFeeders)
	}
}
