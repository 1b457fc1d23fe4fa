package signalclient

import (
	"encoding/json"
	"log/slog"

	"github.com/aloche971/VoiceApp/internal/protocol"
)

// JoinInfo reports a successful room join.
type JoinInfo struct {
	RoomID string
	UserID string
	IsHost bool
}

// Handler routes incoming signaling frames to typed channels so the call
// flow can select on exactly the events it cares about.
type Handler struct {
	client *Client
	log    *slog.Logger

	Joined     chan JoinInfo
	JoinErrors chan string
	PeerJoined chan string
	PeerLeft   chan string
	Offers     chan protocol.SessionDescription
	Answers    chan protocol.SessionDescription
	Candidates chan protocol.ICECandidate
	Errors     chan string

	closed bool
}

// NewHandler creates a message handler for the given client.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:     client,
		log:        slog.Default(),
		Joined:     make(chan JoinInfo, 1),
		JoinErrors: make(chan string, 1),
		PeerJoined: make(chan string, 1),
		PeerLeft:   make(chan string, 2),
		Offers:     make(chan protocol.SessionDescription, 1),
		Answers:    make(chan protocol.SessionDescription, 1),
		Candidates: make(chan protocol.ICECandidate, 32),
		Errors:     make(chan string, 2),
	}
}

// Start consumes the client's incoming channel until it is closed.
func (h *Handler) Start() {
	for msg := range h.client.Incoming() {
		switch msg.Type {

		case protocol.TypeJoinedRoom:
			h.Joined <- JoinInfo{RoomID: msg.RoomID, UserID: msg.UserID, IsHost: msg.IsHost}

		case protocol.TypeJoinError:
			h.JoinErrors <- msg.Message

		case protocol.TypeUserJoined:
			h.PeerJoined <- msg.UserID

		case protocol.TypeUserLeft:
			h.PeerLeft <- msg.UserID

		case protocol.TypeOffer:
			var sd protocol.SessionDescription
			if err := json.Unmarshal(msg.Data, &sd); err != nil {
				h.Errors <- "failed to parse offer"
				continue
			}
			h.Offers <- sd

		case protocol.TypeAnswer:
			var sd protocol.SessionDescription
			if err := json.Unmarshal(msg.Data, &sd); err != nil {
				h.Errors <- "failed to parse answer"
				continue
			}
			h.Answers <- sd

		case protocol.TypeICECandidate:
			var c protocol.ICECandidate
			if err := json.Unmarshal(msg.Data, &c); err != nil {
				h.Errors <- "failed to parse ice candidate"
				continue
			}
			h.Candidates <- c

		case protocol.TypeError:
			h.Errors <- msg.Message

		default:
			h.log.Debug("ignoring message", "type", string(msg.Type))
		}
	}
}

// Close closes all handler channels.
func (h *Handler) Close() {
	if h.closed {
		return
	}
	h.closed = true

	close(h.Joined)
	close(h.JoinErrors)
	close(h.PeerJoined)
	close(h.PeerLeft)
	close(h.Offers)
	close(h.Answers)
	close(h.Candidates)
	close(h.Errors)
}
