// Package call implements the connection negotiation state machine: one
// Session per call attempt, driving the offer/answer/candidate exchange
// over the signaling channel until the peer connection reports connected.
package call

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/aloche971/VoiceApp/internal/media"
	"github.com/aloche971/VoiceApp/internal/protocol"
)

// Role decides which side creates the offer.
type Role string

const (
	RoleInitiator Role = "initiator"
	RoleResponder Role = "responder"
)

// State is the session's aggregate call state.
type State int

const (
	StateIdle State = iota
	StateNegotiating
	StateConnected
	StateDisconnected
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// terminal reports whether the state ends the session.
func (s State) terminal() bool {
	return s == StateDisconnected || s == StateFailed || s == StateClosed
}

// Signaler is the outbound half of the signaling channel. Sends never
// fail; lost signaling shows up as a failed or disconnected call instead.
type Signaler interface {
	Send(msg *protocol.Message)
}

// Config assembles a session's collaborators.
type Config struct {
	Role     Role
	RoomID   string
	Signaler Signaler
	Source   media.Source
	Sink     media.Sink

	ICEServers []webrtc.ICEServer
	ForceRelay bool

	// OnState receives every state transition. Terminal states are
	// reported exactly once; err is non-nil only for failures.
	OnState func(state State, err error)

	// OnPeerMuted receives the peer's mute toggles from the control
	// channel. Optional.
	OnPeerMuted func(muted bool)
}

// Session owns one peer connection and the negotiation around it. A client
// runs at most one live session; starting a new call means the previous
// session was torn down first.
type Session struct {
	role     Role
	roomID   string
	signaler Signaler
	source   media.Source
	sink     media.Sink
	cfg      Config
	log      *slog.Logger

	mu        sync.Mutex
	pc        *webrtc.PeerConnection
	state     State
	remoteSet bool
	pending   []webrtc.ICECandidateInit
	control   *controlChannel
	started   time.Time

	// negMu serializes description operations so exactly one
	// setLocal/setRemote is outstanding at a time.
	negMu sync.Mutex

	terminalOnce sync.Once
	teardownOnce sync.Once
}

// NewSession builds an idle session. Start acquires media and begins
// negotiating.
func NewSession(cfg Config) (*Session, error) {
	if cfg.RoomID == "" {
		return nil, fmt.Errorf("session needs a room id")
	}
	if cfg.Signaler == nil || cfg.Source == nil || cfg.Sink == nil {
		return nil, fmt.Errorf("session needs signaler, source and sink")
	}
	if cfg.Role != RoleInitiator && cfg.Role != RoleResponder {
		return nil, fmt.Errorf("unknown role %q", cfg.Role)
	}

	return &Session{
		role:     cfg.Role,
		roomID:   cfg.RoomID,
		signaler: cfg.Signaler,
		source:   cfg.Source,
		sink:     cfg.Sink,
		cfg:      cfg,
		log:      slog.Default(),
		state:    StateIdle,
	}, nil
}

// Start acquires the local track, builds the peer connection and, as
// initiator, sends the offer. Responders wait for HandleOffer.
func (s *Session) Start() error {
	s.setState(StateNegotiating, nil)

	track, err := s.source.Track()
	if err != nil {
		wrapped := WrapError("acquire audio", ErrMediaAccessDenied, err.Error())
		s.finish(StateFailed, wrapped)
		return wrapped
	}

	pc, err := NewPeerConnection(s.cfg.ICEServers, s.cfg.ForceRelay)
	if err != nil {
		s.finish(StateFailed, err)
		return err
	}

	s.mu.Lock()
	s.pc = pc
	s.started = time.Now()
	s.mu.Unlock()

	if _, err := pc.AddTrack(track); err != nil {
		wrapped := NewError("add local track", err)
		s.finish(StateFailed, wrapped)
		return wrapped
	}

	// Trickle ICE: every local candidate ships as soon as it is produced.
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		msg, err := protocol.NewICECandidate(s.roomID, protocol.ICECandidateFromPion(c.ToJSON()))
		if err != nil {
			s.log.Warn("failed to encode candidate", "err", err)
			return
		}
		s.signaler.Send(msg)
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if track.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		s.sink.Consume(track)
	})

	pc.OnConnectionStateChange(s.handleConnectionState)

	handlers := controlHandlers{
		onPeerMuted: s.cfg.OnPeerMuted,
		onBye:       s.HandlePeerLeft,
	}
	if s.role == RoleInitiator {
		dc, err := pc.CreateDataChannel(controlChannelLabel, nil)
		if err != nil {
			s.log.Warn("control channel unavailable", "err", err)
		} else {
			s.setControl(attachControl(dc, handlers))
		}
		return s.sendOffer(pc)
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() == controlChannelLabel {
			s.setControl(attachControl(dc, handlers))
		}
	})
	return nil
}

func (s *Session) sendOffer(pc *webrtc.PeerConnection) error {
	s.negMu.Lock()
	defer s.negMu.Unlock()

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return s.negotiationFailed("create offer", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return s.negotiationFailed("set local description", err)
	}

	msg, err := protocol.NewOffer(s.roomID, protocol.SessionDescriptionFromPion(offer))
	if err != nil {
		return s.negotiationFailed("encode offer", err)
	}
	s.signaler.Send(msg)
	return nil
}

// HandleOffer applies the remote offer and replies with an answer.
// Responder only.
func (s *Session) HandleOffer(sd protocol.SessionDescription) error {
	if s.role != RoleResponder {
		return WrapError("handle offer", ErrUnexpectedSignal, "offer received by initiator")
	}
	pc := s.peerConnection()
	if pc == nil {
		return WrapError("handle offer", ErrUnexpectedSignal, "session not started")
	}

	s.negMu.Lock()
	defer s.negMu.Unlock()

	desc, err := sd.ToPion()
	if err != nil {
		return s.negotiationFailed("parse offer", err)
	}
	if err := s.applyRemoteDescription(pc, desc); err != nil {
		return s.negotiationFailed("set remote description", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return s.negotiationFailed("create answer", err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		return s.negotiationFailed("set local description", err)
	}

	msg, err := protocol.NewAnswer(s.roomID, protocol.SessionDescriptionFromPion(answer))
	if err != nil {
		return s.negotiationFailed("encode answer", err)
	}
	s.signaler.Send(msg)
	return nil
}

// HandleAnswer applies the remote answer. Initiator only.
func (s *Session) HandleAnswer(sd protocol.SessionDescription) error {
	if s.role != RoleInitiator {
		return WrapError("handle answer", ErrUnexpectedSignal, "answer received by responder")
	}
	pc := s.peerConnection()
	if pc == nil {
		return WrapError("handle answer", ErrUnexpectedSignal, "session not started")
	}

	s.negMu.Lock()
	defer s.negMu.Unlock()

	desc, err := sd.ToPion()
	if err != nil {
		return s.negotiationFailed("parse answer", err)
	}
	if err := s.applyRemoteDescription(pc, desc); err != nil {
		return s.negotiationFailed("set remote description", err)
	}
	return nil
}

// HandleCandidate applies a trickled remote candidate, queueing it if the
// remote description has not been set yet. Queued candidates flush in
// arrival order.
func (s *Session) HandleCandidate(c protocol.ICECandidate) error {
	s.mu.Lock()
	if s.pc == nil || !s.remoteSet {
		s.pending = append(s.pending, c.ToPion())
		s.mu.Unlock()
		return nil
	}
	pc := s.pc
	s.mu.Unlock()

	if err := pc.AddICECandidate(c.ToPion()); err != nil {
		s.log.Warn("failed to add candidate", "err", err)
		return NewError("add ice candidate", err)
	}
	return nil
}

// applyRemoteDescription sets the remote description and flushes the
// candidate queue. Candidates are never applied before the description.
func (s *Session) applyRemoteDescription(pc *webrtc.PeerConnection, desc webrtc.SessionDescription) error {
	if err := pc.SetRemoteDescription(desc); err != nil {
		return err
	}

	s.mu.Lock()
	s.remoteSet = true
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, c := range pending {
		if err := pc.AddICECandidate(c); err != nil {
			s.log.Warn("failed to add queued candidate", "err", err)
		}
	}
	return nil
}

// handleConnectionState maps pion's aggregate state onto the session
// lifecycle. This callback is the only authoritative connected signal.
func (s *Session) handleConnectionState(state webrtc.PeerConnectionState) {
	s.log.Debug("connection state", "state", state.String())

	// Terminal transitions run off the callback goroutine: teardown closes
	// the peer connection, which must not happen from inside its own
	// event loop.
	switch state {
	case webrtc.PeerConnectionStateConnected:
		s.setState(StateConnected, nil)
	case webrtc.PeerConnectionStateDisconnected:
		go s.finish(StateDisconnected, nil)
	case webrtc.PeerConnectionStateFailed:
		go s.finish(StateFailed, NewError("ice", ErrConnectionFailed))
	case webrtc.PeerConnectionStateClosed:
		go s.finish(StateClosed, nil)
	}
}

// HandlePeerLeft tears the session down after a remote departure. Not an
// error: the peer hanging up is a normal way for a call to end.
func (s *Session) HandlePeerLeft() {
	s.finish(StateDisconnected, nil)
}

// Close is the explicit hang-up: notify the peer, leave the room, tear
// down. Safe to call any number of times.
func (s *Session) Close() error {
	s.mu.Lock()
	control := s.control
	s.mu.Unlock()
	control.sendBye()

	s.signaler.Send(&protocol.Message{Type: protocol.TypeLeaveRoom})
	s.finish(StateClosed, nil)
	return nil
}

// Mute toggles local audio and tells the peer.
func (s *Session) Mute(muted bool) {
	s.source.SetMuted(muted)

	s.mu.Lock()
	control := s.control
	s.mu.Unlock()
	control.sendMute(muted)
}

// State returns the last observed state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) peerConnection() *webrtc.PeerConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pc
}

func (s *Session) setControl(c *controlChannel) {
	s.mu.Lock()
	s.control = c
	s.mu.Unlock()
}

func (s *Session) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// negotiationFailed converts a description/candidate error into the single
// upward notification path and returns the wrapped error.
func (s *Session) negotiationFailed(op string, err error) error {
	wrapped := WrapError(op, ErrNegotiationFailed, err.Error())
	s.finish(StateFailed, wrapped)
	return wrapped
}

// setState records a non-terminal transition and reports it.
func (s *Session) setState(state State, err error) {
	s.mu.Lock()
	if s.state.terminal() {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()

	if s.cfg.OnState != nil {
		s.cfg.OnState(state, err)
	}
}

// finish records a terminal state, reports it exactly once, and tears the
// session down.
func (s *Session) finish(state State, err error) {
	s.terminalOnce.Do(func() {
		s.mu.Lock()
		s.state = state
		s.mu.Unlock()

		if s.cfg.OnState != nil {
			s.cfg.OnState(state, err)
		}
	})
	s.teardown()
}

// teardown releases media and the peer connection. Idempotent: the state
// callback and an explicit hang-up may both land here.
func (s *Session) teardown() {
	s.teardownOnce.Do(func() {
		s.source.Close()
		s.sink.Close()

		s.mu.Lock()
		pc := s.pc
		s.mu.Unlock()
		if pc != nil {
			if err := pc.Close(); err != nil {
				s.log.Debug("peer connection close", "err", err)
			}
		}
	})
}
