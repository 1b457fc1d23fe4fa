package signaling

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/aloche971/VoiceApp/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. SDP blobs fit comfortably.
	maxMessageSize = 64 * 1024
)

// Client wraps a single websocket connection. The hub associates it with a
// room and user once a join-room frame arrives; until then both are empty.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	log  zerolog.Logger

	// send is the outbound queue drained by writePump.
	send chan *protocol.Message

	// roomID and userID are owned by the hub goroutine.
	roomID string
	userID string
}

// NewClient builds a client for an upgraded connection. Start must be
// called to register it and launch its pumps.
func NewClient(hub *Hub, conn *websocket.Conn, log zerolog.Logger) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		log:  log,
		send: make(chan *protocol.Message, 64),
	}
}

// Start registers the client with the hub and launches the read and write
// pumps, which own the connection for the rest of its life.
func (c *Client) Start() {
	c.hub.register <- c
	go c.writePump()
	go c.readPump()
}

// deliver queues an outbound message, dropping it if the client's queue is
// full. A stalled reader must not block the hub loop.
func (c *Client) deliver(msg *protocol.Message) {
	select {
	case c.send <- msg:
	default:
		c.log.Warn().Str("type", string(msg.Type)).Msg("send queue full, dropping message")
	}
}

// readPump pumps frames from the websocket to the hub. There is at most one
// reader per connection; all reads happen here.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("unexpected close")
			}
			return
		}

		msg, err := protocol.Parse(data)
		if err != nil {
			c.log.Debug().Err(err).Msg("rejecting malformed frame")
			c.deliver(&protocol.Message{Type: protocol.TypeError, Message: "malformed message"})
			continue
		}

		c.hub.inbound <- envelope{client: c, msg: msg}
	}
}

// writePump pumps messages from the hub to the websocket and keeps the
// connection alive with pings. There is at most one writer per connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
