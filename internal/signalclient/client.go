// Package signalclient maintains the websocket connection to the signaling
// server: JSON frame pumps, keepalive pings, and reconnection with
// exponential backoff. A transport drop is surfaced as a synthesized
// user-left frame so the call tears down even when the server-side
// notification is lost.
package signalclient

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aloche971/VoiceApp/internal/dns"
	"github.com/aloche971/VoiceApp/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// Reconnection policy: exponential backoff from the base delay, then a
	// terminal error once the attempts run out.
	reconnectBaseDelay   = 1 * time.Second
	maxReconnectAttempts = 5
)

// Client manages the WebSocket connection to the signaling server.
type Client struct {
	serverURL string
	log       *slog.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	open     bool
	closed   bool
	lastJoin *protocol.Message

	incoming chan *protocol.Message
	outgoing chan *protocol.Message
	done     chan struct{}
}

// NewClient creates a signaling client for the given websocket URL.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		log:       slog.Default(),
		incoming:  make(chan *protocol.Message, 8),
		outgoing:  make(chan *protocol.Message, 32),
		done:      make(chan struct{}),
	}
}

// Connect establishes the websocket connection and starts the pumps.
func (c *Client) Connect() error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	c.setConn(conn)

	go c.writePump()
	go c.readLoop()
	return nil
}

// dial opens a fresh connection using the fallback DNS resolver.
func (c *Client) dial() (*websocket.Conn, error) {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	dialer := *websocket.DefaultDialer
	dialer.NetDial = func(network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		resolvedIP, err := dns.Lookup(host)
		if err != nil {
			return nil, fmt.Errorf("dns lookup failed: %w", err)
		}
		return net.Dial(network, net.JoinHostPort(resolvedIP, port))
	}

	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return conn, nil
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.open = true
	c.mu.Unlock()
}

func (c *Client) currentConn() (*websocket.Conn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn, c.open
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// readLoop reads frames and owns the reconnect cycle. It closes the
// incoming channel exactly once, when the client shuts down for good.
func (c *Client) readLoop() {
	defer close(c.incoming)

	for {
		conn, _ := c.currentConn()
		var msg protocol.Message
		err := conn.ReadJSON(&msg)
		if err == nil {
			c.incoming <- &msg
			continue
		}

		if c.isClosed() {
			return
		}

		c.mu.Lock()
		c.open = false
		c.mu.Unlock()
		conn.Close()
		c.log.Warn("signaling transport lost", "err", err)

		// Negotiation cannot survive a signaling gap: tell the state
		// machine the peer is gone before trying to get the room back.
		c.incoming <- &protocol.Message{Type: protocol.TypeUserLeft, Message: "signaling transport lost"}

		if !c.reconnect() {
			c.incoming <- &protocol.Message{Type: protocol.TypeError, Message: "signaling connection lost"}
			return
		}
	}
}

// reconnect retries the dial with exponential backoff and replays the last
// room join so a fresh call can be negotiated. Returns false when the
// attempts run out or the client was closed meanwhile.
func (c *Client) reconnect() bool {
	delay := reconnectBaseDelay
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}
		delay *= 2

		conn, err := c.dial()
		if err != nil {
			c.log.Warn("reconnect failed", "attempt", attempt, "err", err)
			continue
		}

		c.setConn(conn)
		c.log.Info("signaling transport restored", "attempt", attempt)

		c.mu.Lock()
		join := c.lastJoin
		c.mu.Unlock()
		if join != nil {
			c.Send(join)
		}
		return true
	}
	return false
}

// writePump writes outbound frames and periodic pings. It is the only
// writer on whatever connection is current.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.outgoing:
			conn, open := c.currentConn()
			if !open {
				c.log.Warn("transport not open, dropping message", "type", string(msg.Type))
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				c.log.Warn("write failed, dropping message", "type", string(msg.Type), "err", err)
			}

		case <-ticker.C:
			conn, open := c.currentConn()
			if !open {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("ping failed", "err", err)
			}

		case <-c.done:
			conn, open := c.currentConn()
			if open {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				conn.Close()
			}
			return
		}
	}
}

// Send queues a message. Sends on a closed transport are logged and
// dropped, never returned as errors; callers are resilient to lost
// signaling.
func (c *Client) Send(msg *protocol.Message) {
	if msg.Type == protocol.TypeJoinRoom {
		c.mu.Lock()
		c.lastJoin = msg
		c.mu.Unlock()
	}

	select {
	case c.outgoing <- msg:
	default:
		c.log.Warn("outgoing queue full, dropping message", "type", string(msg.Type))
	}
}

// Incoming returns the channel of received and synthesized messages.
func (c *Client) Incoming() <-chan *protocol.Message {
	return c.incoming
}

// Close shuts the client down. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	close(c.done)
	if conn != nil {
		conn.Close()
	}
}
