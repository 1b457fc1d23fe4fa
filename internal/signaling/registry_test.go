package signaling

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/aloche971/VoiceApp/internal/protocol"
)

func testClient() *Client {
	return &Client{send: make(chan *protocol.Message, 8)}
}

func TestRegistryFirstJoinCreatesRoomAsInitiator(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	a := testClient()

	res, err := r.Join("alpha-bravo-charlie", a)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if !res.IsInitiator {
		t.Error("first occupant should be the initiator")
	}
	if len(res.Peers) != 0 {
		t.Errorf("expected no peers, got %d", len(res.Peers))
	}
	if r.Rooms() != 1 {
		t.Errorf("expected 1 room, got %d", r.Rooms())
	}
}

func TestRegistrySecondJoinSeesFirstOccupant(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	a, b := testClient(), testClient()

	r.Join("room", a)
	res, err := r.Join("room", b)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if res.IsInitiator {
		t.Error("second occupant must not be the initiator")
	}
	if len(res.Peers) != 1 || res.Peers[0] != a {
		t.Errorf("expected peers [a], got %v", res.Peers)
	}
	if r.Occupants("room") != 2 {
		t.Errorf("expected 2 occupants, got %d", r.Occupants("room"))
	}
}

func TestRegistryThirdJoinRejectedWithoutMutation(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	a, b, c := testClient(), testClient(), testClient()

	r.Join("room", a)
	r.Join("room", b)

	_, err := r.Join("room", c)
	if err != ErrRoomFull {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
	if r.Occupants("room") != 2 {
		t.Errorf("rejected join must not change occupancy, got %d", r.Occupants("room"))
	}

	// The rejected client is not an occupant: its leave is a no-op.
	if remaining := r.Leave("room", c); remaining != nil {
		t.Errorf("leave by non-occupant should return nil, got %v", remaining)
	}
	if r.Occupants("room") != 2 {
		t.Errorf("non-occupant leave must not change occupancy, got %d", r.Occupants("room"))
	}
}

func TestRegistryRejoinIsNoOp(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	a, b := testClient(), testClient()

	r.Join("room", a)
	r.Join("room", b)

	res, err := r.Join("room", a)
	if err != nil {
		t.Fatalf("rejoin failed: %v", err)
	}
	if !res.IsInitiator {
		t.Error("rejoin must preserve the initiator role")
	}
	if len(res.Peers) != 0 {
		t.Errorf("rejoin must not report peers to notify, got %d", len(res.Peers))
	}
	if r.Occupants("room") != 2 {
		t.Errorf("rejoin must not change occupancy, got %d", r.Occupants("room"))
	}
}

func TestRegistryLeaveNotifiesRemainder(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	a, b := testClient(), testClient()

	r.Join("room", a)
	r.Join("room", b)

	remaining := r.Leave("room", a)
	if len(remaining) != 1 || remaining[0] != b {
		t.Errorf("expected [b] to remain, got %v", remaining)
	}
	if r.Occupants("room") != 1 {
		t.Errorf("expected 1 occupant, got %d", r.Occupants("room"))
	}
}

func TestRegistryLastLeaveDeletesRoom(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	a := testClient()

	r.Join("room", a)
	if remaining := r.Leave("room", a); remaining != nil {
		t.Errorf("expected nil remainder, got %v", remaining)
	}
	if r.Rooms() != 0 {
		t.Errorf("empty room must be deleted, have %d rooms", r.Rooms())
	}

	// The code becomes reusable immediately.
	res, err := r.Join("room", a)
	if err != nil {
		t.Fatalf("rejoin after delete failed: %v", err)
	}
	if !res.IsInitiator {
		t.Error("fresh room must grant the initiator role")
	}
}

func TestRegistryLeaveUnknownRoom(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	if remaining := r.Leave("no-such-room", testClient()); remaining != nil {
		t.Errorf("expected nil, got %v", remaining)
	}
}

func TestRegistryBroadcastExceptSkipsSender(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	a, b := testClient(), testClient()

	r.Join("room", a)
	r.Join("room", b)

	msg := &protocol.Message{Type: protocol.TypeOffer, RoomID: "room"}
	r.BroadcastExcept("room", a, msg)

	select {
	case got := <-b.send:
		if got != msg {
			t.Errorf("b received wrong message: %+v", got)
		}
	default:
		t.Fatal("b received nothing")
	}

	select {
	case got := <-a.send:
		t.Errorf("sender must not receive its own message, got %+v", got)
	default:
	}
}
