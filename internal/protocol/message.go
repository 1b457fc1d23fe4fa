// Package protocol defines the websocket frames exchanged between the
// VoiceApp CLI and the signaling server. The payload of offer, answer and
// ice-candidate frames is kept as raw JSON so the server can relay it
// without parsing.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Type discriminates signaling messages. The set is closed: anything else
// is rejected at parse time.
type Type string

// Client to server.
const (
	TypeJoinRoom     Type = "join-room"
	TypeLeaveRoom    Type = "leave-room"
	TypeOffer        Type = "offer"
	TypeAnswer       Type = "answer"
	TypeICECandidate Type = "ice-candidate"
)

// Server to client.
const (
	TypeJoinedRoom Type = "joined-room"
	TypeJoinError  Type = "join-error"
	TypeUserJoined Type = "user-joined"
	TypeUserLeft   Type = "user-left"
	TypeError      Type = "error"
)

// Message is the single wire frame. Which fields are set depends on Type;
// Validate enforces the per-type shape.
type Message struct {
	Type   Type   `json:"type"`
	RoomID string `json:"roomId,omitempty"`
	UserID string `json:"userId,omitempty"`
	IsHost bool   `json:"isHost,omitempty"`

	// Inbound negotiation payloads. Raw so the relay never inspects them.
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`

	// Data carries the forwarded payload on relayed offer/answer/candidate
	// frames going back out to the other occupant.
	Data json.RawMessage `json:"data,omitempty"`

	// Message carries human-readable text on join-error and error frames.
	Message string `json:"message,omitempty"`
}

// Payload returns the negotiation blob of an inbound signal frame.
func (m *Message) Payload() json.RawMessage {
	switch m.Type {
	case TypeOffer:
		return m.Offer
	case TypeAnswer:
		return m.Answer
	case TypeICECandidate:
		return m.Candidate
	}
	return nil
}

// Parse decodes a client frame, rejecting unknown fields and trailing data.
func Parse(data []byte) (*Message, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var msg Message
	if err := dec.Decode(&msg); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("unexpected trailing data")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Validate checks the shape of a client-to-server frame.
func (m *Message) Validate() error {
	switch m.Type {
	case TypeJoinRoom:
		if m.RoomID == "" {
			return fmt.Errorf("join-room missing roomId")
		}
		if m.UserID == "" {
			return fmt.Errorf("join-room missing userId")
		}
	case TypeLeaveRoom:
		// No payload.
	case TypeOffer:
		if m.RoomID == "" || len(m.Offer) == 0 {
			return fmt.Errorf("offer missing roomId or offer")
		}
	case TypeAnswer:
		if m.RoomID == "" || len(m.Answer) == 0 {
			return fmt.Errorf("answer missing roomId or answer")
		}
	case TypeICECandidate:
		if m.RoomID == "" || len(m.Candidate) == 0 {
			return fmt.Errorf("ice-candidate missing roomId or candidate")
		}
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	return nil
}

// Forward wraps an inbound signal frame into the server-to-client shape:
// same type, payload moved into data, sender's userId attached.
func (m *Message) Forward(senderID string) *Message {
	return &Message{
		Type:   m.Type,
		RoomID: m.RoomID,
		UserID: senderID,
		Data:   m.Payload(),
	}
}

// NewJoinRoom builds a join request.
func NewJoinRoom(roomID, userID string) *Message {
	return &Message{Type: TypeJoinRoom, RoomID: roomID, UserID: userID}
}

// NewOffer builds an offer frame for the given room.
func NewOffer(roomID string, sd SessionDescription) (*Message, error) {
	raw, err := json.Marshal(sd)
	if err != nil {
		return nil, err
	}
	return &Message{Type: TypeOffer, RoomID: roomID, Offer: raw}, nil
}

// NewAnswer builds an answer frame for the given room.
func NewAnswer(roomID string, sd SessionDescription) (*Message, error) {
	raw, err := json.Marshal(sd)
	if err != nil {
		return nil, err
	}
	return &Message{Type: TypeAnswer, RoomID: roomID, Answer: raw}, nil
}

// NewICECandidate builds a trickle candidate frame for the given room.
func NewICECandidate(roomID string, c ICECandidate) (*Message, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return &Message{Type: TypeICECandidate, RoomID: roomID, Candidate: raw}, nil
}
