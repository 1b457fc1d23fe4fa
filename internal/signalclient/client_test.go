package signalclient

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aloche971/VoiceApp/internal/protocol"
)

// signalingStub accepts websocket connections and hands them to the test,
// which plays the server side by hand.
type signalingStub struct {
	srv   *httptest.Server
	conns chan *websocket.Conn
}

func newSignalingStub(t *testing.T) *signalingStub {
	t.Helper()
	stub := &signalingStub{conns: make(chan *websocket.Conn, 4)}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	stub.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		stub.conns <- conn
	}))
	t.Cleanup(stub.srv.Close)
	return stub
}

func (s *signalingStub) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *signalingStub) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-s.conns:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("no connection arrived")
		return nil
	}
}

func readClientFrame(t *testing.T, conn *websocket.Conn) *protocol.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg protocol.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("server-side read failed: %v", err)
	}
	return &msg
}

func awaitIncoming(t *testing.T, c *Client, want protocol.Type) *protocol.Message {
	t.Helper()
	select {
	case msg, ok := <-c.Incoming():
		if !ok {
			t.Fatalf("incoming closed while waiting for %q", want)
		}
		if msg.Type != want {
			t.Fatalf("expected %q, got %q (%+v)", want, msg.Type, msg)
		}
		return msg
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
		return nil
	}
}

func TestClientSendAndReceive(t *testing.T) {
	stub := newSignalingStub(t)

	c := NewClient(stub.url())
	if err := c.Connect(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer c.Close()
	server := stub.accept(t)

	c.Send(protocol.NewJoinRoom("room", "alice"))
	got := readClientFrame(t, server)
	if got.Type != protocol.TypeJoinRoom || got.RoomID != "room" {
		t.Errorf("unexpected frame: %+v", got)
	}

	if err := server.WriteJSON(&protocol.Message{Type: protocol.TypeJoinedRoom, RoomID: "room", UserID: "alice", IsHost: true}); err != nil {
		t.Fatalf("server write failed: %v", err)
	}
	msg := awaitIncoming(t, c, protocol.TypeJoinedRoom)
	if !msg.IsHost {
		t.Error("isHost lost in transit")
	}
}

func TestClientConnectFailsOnBadURL(t *testing.T) {
	c := NewClient("://not-a-url")
	if err := c.Connect(); err == nil {
		t.Fatal("expected connect to fail")
	}
}

func TestClientReconnectReplaysJoin(t *testing.T) {
	stub := newSignalingStub(t)

	c := NewClient(stub.url())
	if err := c.Connect(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer c.Close()

	first := stub.accept(t)
	c.Send(protocol.NewJoinRoom("room", "alice"))
	readClientFrame(t, first)

	// Kill the transport server-side. The client must first report the peer
	// as gone, then dial back in and replay the join.
	first.Close()
	left := awaitIncoming(t, c, protocol.TypeUserLeft)
	if left.Message == "" {
		t.Error("synthesized user-left should explain itself")
	}

	second := stub.accept(t)
	replayed := readClientFrame(t, second)
	if replayed.Type != protocol.TypeJoinRoom || replayed.RoomID != "room" || replayed.UserID != "alice" {
		t.Errorf("expected replayed join, got %+v", replayed)
	}

	// The restored transport carries traffic both ways.
	if err := second.WriteJSON(&protocol.Message{Type: protocol.TypeJoinedRoom, RoomID: "room", UserID: "alice", IsHost: true}); err != nil {
		t.Fatalf("server write failed: %v", err)
	}
	awaitIncoming(t, c, protocol.TypeJoinedRoom)
}

func TestClientCloseIsIdempotent(t *testing.T) {
	stub := newSignalingStub(t)

	c := NewClient(stub.url())
	if err := c.Connect(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	stub.accept(t)

	c.Close()
	c.Close()

	// After close the incoming channel drains and closes; no terminal error
	// frame is synthesized for a deliberate shutdown.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-c.Incoming():
			if !ok {
				return
			}
			if msg.Type == protocol.TypeError {
				t.Fatalf("deliberate close must not synthesize an error frame: %+v", msg)
			}
		case <-deadline:
			t.Fatal("incoming channel never closed")
		}
	}
}

func TestClientSendAfterCloseDoesNotPanic(t *testing.T) {
	stub := newSignalingStub(t)

	c := NewClient(stub.url())
	if err := c.Connect(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	stub.accept(t)
	c.Close()

	c.Send(protocol.NewJoinRoom("room", "alice"))
}
