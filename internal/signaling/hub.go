package signaling

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/aloche971/VoiceApp/internal/protocol"
)

// envelope pairs an inbound frame with the connection it arrived on.
type envelope struct {
	client *Client
	msg    *protocol.Message
}

// Hub is the signaling relay. A single goroutine (Run) processes register,
// unregister and message events strictly in arrival order, so the Registry
// it drives needs no locking and per-room message order is preserved.
type Hub struct {
	registry *Registry
	log      zerolog.Logger

	// clients is the set of registered connections, owned by the Run
	// goroutine. Frames queued behind a disconnect are dropped by checking
	// membership before dispatch.
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	inbound    chan envelope
	quit       chan struct{}

	// Mirrors of hub-owned state, readable from the health endpoint.
	roomCount atomic.Int64
	connCount atomic.Int64
}

// NewHub builds a relay on top of an injected registry.
func NewHub(registry *Registry, log zerolog.Logger) *Hub {
	return &Hub{
		registry:   registry,
		log:        log,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan envelope, 64),
		quit:       make(chan struct{}),
	}
}

// Stats reports live room and connection counts.
func (h *Hub) Stats() (rooms, connections int) {
	return int(h.roomCount.Load()), int(h.connCount.Load())
}

// Stop terminates the Run loop.
func (h *Hub) Stop() {
	close(h.quit)
}

// Run is the hub's event loop. It owns all room and client state.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.connCount.Add(1)
			h.log.Info().Str("addr", client.conn.RemoteAddr().String()).Msg("client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.connCount.Add(-1)
				h.handleDisconnect(client)
			}

		case env := <-h.inbound:
			// The inbound queue is buffered, so a client's last frames can
			// still arrive after its unregister. Its send channel is closed
			// by then; dispatching would panic on the reply.
			if _, ok := h.clients[env.client]; ok {
				h.dispatch(env.client, env.msg)
			}
		}

		h.roomCount.Store(int64(h.registry.Rooms()))
	}
}

func (h *Hub) dispatch(c *Client, msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeJoinRoom:
		h.handleJoin(c, msg)
	case protocol.TypeLeaveRoom:
		h.handleLeave(c)
	case protocol.TypeOffer, protocol.TypeAnswer, protocol.TypeICECandidate:
		h.handleSignal(c, msg)
	default:
		h.log.Warn().Str("type", string(msg.Type)).Msg("unknown message type")
	}
}

func (h *Hub) handleJoin(c *Client, msg *protocol.Message) {
	// A participant occupies at most one room at a time.
	if c.roomID != "" && c.roomID != msg.RoomID {
		h.handleLeave(c)
	}

	res, err := h.registry.Join(msg.RoomID, c)
	if err != nil {
		h.log.Info().Str("room", msg.RoomID).Str("user", msg.UserID).Err(err).Msg("join rejected")
		c.deliver(&protocol.Message{
			Type:    protocol.TypeJoinError,
			RoomID:  msg.RoomID,
			Message: "room is full",
		})
		return
	}

	c.roomID = msg.RoomID
	c.userID = msg.UserID
	h.log.Info().
		Str("room", msg.RoomID).
		Str("user", msg.UserID).
		Bool("host", res.IsInitiator).
		Msg("client joined room")

	c.deliver(&protocol.Message{
		Type:   protocol.TypeJoinedRoom,
		RoomID: msg.RoomID,
		UserID: msg.UserID,
		IsHost: res.IsInitiator,
	})

	// Tell the occupant that was waiting that its peer has arrived.
	for _, peer := range res.Peers {
		peer.deliver(&protocol.Message{
			Type:   protocol.TypeUserJoined,
			RoomID: msg.RoomID,
			UserID: msg.UserID,
		})
	}
}

func (h *Hub) handleLeave(c *Client) {
	if c.roomID == "" {
		return
	}

	roomID, userID := c.roomID, c.userID
	c.roomID = ""

	remaining := h.registry.Leave(roomID, c)
	for _, peer := range remaining {
		peer.deliver(&protocol.Message{
			Type:   protocol.TypeUserLeft,
			RoomID: roomID,
			UserID: userID,
		})
	}
	h.log.Info().Str("room", roomID).Str("user", userID).Msg("client left room")
}

// handleSignal relays offer/answer/ice-candidate frames to the other
// occupant without inspecting the payload.
func (h *Hub) handleSignal(c *Client, msg *protocol.Message) {
	if c.roomID == "" {
		c.deliver(&protocol.Message{
			Type:    protocol.TypeError,
			Message: "join a room before signaling",
		})
		return
	}
	if msg.RoomID != c.roomID {
		c.deliver(&protocol.Message{
			Type:    protocol.TypeError,
			Message: "signal addressed to a room you are not in",
		})
		return
	}

	h.log.Debug().
		Str("room", c.roomID).
		Str("user", c.userID).
		Str("type", string(msg.Type)).
		Msg("relaying signal")
	h.registry.BroadcastExcept(c.roomID, c, msg.Forward(c.userID))
}

// handleDisconnect treats a transport close as an implicit leave.
func (h *Hub) handleDisconnect(c *Client) {
	h.log.Info().Str("addr", c.conn.RemoteAddr().String()).Msg("client disconnected")
	h.handleLeave(c)
	close(c.send)
}
