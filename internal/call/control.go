package call

import (
	"log/slog"

	"github.com/pion/webrtc/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// controlChannelLabel names the data channel carrying in-call control
// events. It rides the same peer connection as the audio and never touches
// media bytes.
const controlChannelLabel = "control"

// Control message types.
const (
	ControlTypeMute = "mute"
	ControlTypeBye  = "bye"
)

// ControlMessage is the msgpack frame exchanged on the control channel.
type ControlMessage struct {
	Type  string `msgpack:"type"`
	Muted bool   `msgpack:"muted,omitempty"`
}

// EncodeControl serializes a control message.
func EncodeControl(msg ControlMessage) ([]byte, error) {
	return msgpack.Marshal(msg)
}

// DecodeControl parses a control message.
func DecodeControl(data []byte) (ControlMessage, error) {
	var msg ControlMessage
	err := msgpack.Unmarshal(data, &msg)
	return msg, err
}

// controlHandlers receive decoded peer events.
type controlHandlers struct {
	onPeerMuted func(bool)
	onBye       func()
}

type controlChannel struct {
	dc  *webrtc.DataChannel
	log *slog.Logger
}

// attachControl wires decode and dispatch onto a data channel.
func attachControl(dc *webrtc.DataChannel, handlers controlHandlers) *controlChannel {
	c := &controlChannel{dc: dc, log: slog.Default()}

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		ctrl, err := DecodeControl(msg.Data)
		if err != nil {
			c.log.Warn("malformed control message", "err", err)
			return
		}
		switch ctrl.Type {
		case ControlTypeMute:
			if handlers.onPeerMuted != nil {
				handlers.onPeerMuted(ctrl.Muted)
			}
		case ControlTypeBye:
			if handlers.onBye != nil {
				handlers.onBye()
			}
		default:
			c.log.Debug("unknown control type", "type", ctrl.Type)
		}
	})

	return c
}

// send is best effort: control events are a courtesy, not a contract.
func (c *controlChannel) send(msg ControlMessage) {
	if c == nil || c.dc.ReadyState() != webrtc.DataChannelStateOpen {
		return
	}
	data, err := EncodeControl(msg)
	if err != nil {
		return
	}
	if err := c.dc.Send(data); err != nil {
		c.log.Debug("control send failed", "err", err)
	}
}

func (c *controlChannel) sendMute(muted bool) {
	c.send(ControlMessage{Type: ControlTypeMute, Muted: muted})
}

func (c *controlChannel) sendBye() {
	c.send(ControlMessage{Type: ControlTypeBye})
}
