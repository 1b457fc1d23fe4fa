package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/aloche971/VoiceApp/internal/protocol"
	"github.com/aloche971/VoiceApp/internal/signaling"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	registry := signaling.NewRegistry(zerolog.Nop())
	hub := signaling.NewHub(registry, zerolog.Nop())
	go hub.Run()

	srv := httptest.NewServer(NewRouter(hub, zerolog.Nop()))
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
	})
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("unparseable body: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("expected ok, got %q", health.Status)
	}
	if health.Rooms != 0 || health.Connections != 0 {
		t.Errorf("fresh server should be empty: %+v", health)
	}
	if _, err := time.Parse(time.RFC3339, health.Timestamp); err != nil {
		t.Errorf("timestamp not RFC3339: %q", health.Timestamp)
	}
}

func TestWebSocketUpgradeAndJoin(t *testing.T) {
	srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(protocol.NewJoinRoom("room", "alice")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg protocol.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msg.Type != protocol.TypeJoinedRoom || !msg.IsHost {
		t.Errorf("unexpected reply: %+v", msg)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
