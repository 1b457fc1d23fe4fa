package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseJoinRoom(t *testing.T) {
	msg, err := Parse([]byte(`{"type":"join-room","roomId":"brave-otter-signal","userId":"alice"}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if msg.Type != TypeJoinRoom || msg.RoomID != "brave-otter-signal" || msg.UserID != "alice" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestParseRejections(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"unknown type", `{"type":"teleport","roomId":"r"}`},
		{"unknown field", `{"type":"join-room","roomId":"r","userId":"u","extra":1}`},
		{"trailing data", `{"type":"leave-room"}{"type":"leave-room"}`},
		{"not json", `hello`},
		{"join without room", `{"type":"join-room","userId":"u"}`},
		{"join without user", `{"type":"join-room","roomId":"r"}`},
		{"offer without payload", `{"type":"offer","roomId":"r"}`},
		{"answer without room", `{"type":"answer","answer":{"type":"answer","sdp":"v=0"}}`},
		{"candidate without payload", `{"type":"ice-candidate","roomId":"r"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.data)); err == nil {
				t.Errorf("expected rejection for %s", tc.data)
			}
		})
	}
}

func TestParseLeaveRoomNeedsNoPayload(t *testing.T) {
	if _, err := Parse([]byte(`{"type":"leave-room"}`)); err != nil {
		t.Fatalf("leave-room should parse bare: %v", err)
	}
}

func TestForwardMovesPayloadToData(t *testing.T) {
	offer, err := NewOffer("room", SessionDescription{Type: "offer", SDP: "v=0"})
	if err != nil {
		t.Fatal(err)
	}

	fwd := offer.Forward("alice")
	if fwd.Type != TypeOffer || fwd.RoomID != "room" || fwd.UserID != "alice" {
		t.Errorf("unexpected forwarded frame: %+v", fwd)
	}
	if len(fwd.Data) == 0 {
		t.Fatal("forwarded frame lost its payload")
	}
	if len(fwd.Offer) != 0 {
		t.Error("forwarded frame should carry the payload under data only")
	}

	var sd SessionDescription
	if err := json.Unmarshal(fwd.Data, &sd); err != nil {
		t.Fatalf("forwarded payload unparseable: %v", err)
	}
	if sd.SDP != "v=0" {
		t.Errorf("payload mutated in transit: %+v", sd)
	}
}

func TestForwardCandidate(t *testing.T) {
	mid := "0"
	cand, err := NewICECandidate("room", ICECandidate{Candidate: "candidate:1", SDPMid: &mid})
	if err != nil {
		t.Fatal(err)
	}
	fwd := cand.Forward("bob")

	var c ICECandidate
	if err := json.Unmarshal(fwd.Data, &c); err != nil {
		t.Fatalf("forwarded payload unparseable: %v", err)
	}
	if c.Candidate != "candidate:1" || c.SDPMid == nil || *c.SDPMid != "0" {
		t.Errorf("candidate mutated in transit: %+v", c)
	}
}

func TestSessionDescriptionToPion(t *testing.T) {
	sd := SessionDescription{Type: "offer", SDP: "v=0"}
	desc, err := sd.ToPion()
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	if desc.SDP != "v=0" {
		t.Errorf("sdp lost: %+v", desc)
	}

	if _, err := (SessionDescription{Type: "rollback"}).ToPion(); err == nil {
		t.Error("expected error for unsupported sdp type")
	}
}

func TestMessageWireShape(t *testing.T) {
	// Unset fields stay off the wire.
	data, err := json.Marshal(NewJoinRoom("room", "alice"))
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"offer", "answer", "candidate", "data", "message", "isHost"} {
		if strings.Contains(string(data), field) {
			t.Errorf("join-room frame should not contain %q: %s", field, data)
		}
	}
}
