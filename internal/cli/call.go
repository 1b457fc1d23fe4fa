package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aloche971/VoiceApp/internal/call"
	"github.com/aloche971/VoiceApp/internal/config"
	"github.com/aloche971/VoiceApp/internal/ice"
	"github.com/aloche971/VoiceApp/internal/media"
	"github.com/aloche971/VoiceApp/internal/protocol"
	"github.com/aloche971/VoiceApp/internal/signalclient"
	"github.com/aloche971/VoiceApp/internal/ui"
)

const joinTimeout = 10 * time.Second

// callContext bundles the signaling connection shared by host and join.
type callContext struct {
	cfg     *config.Config
	client  *signalclient.Client
	handler *signalclient.Handler
}

func newCallContext(cfg *config.Config) (*callContext, error) {
	client := signalclient.NewClient(cfg.WebSocketURL)
	if err := client.Connect(); err != nil {
		return nil, call.NewError("connect to server", err)
	}

	handler := signalclient.NewHandler(client)
	go handler.Start()

	return &callContext{cfg: cfg, client: client, handler: handler}, nil
}

func (c *callContext) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// joinRoom requests the room and waits for the server's verdict.
func (c *callContext) joinRoom(roomID, userID string) (signalclient.JoinInfo, error) {
	c.client.Send(protocol.NewJoinRoom(roomID, userID))

	select {
	case info := <-c.handler.Joined:
		return info, nil
	case msg := <-c.handler.JoinErrors:
		return signalclient.JoinInfo{}, call.WrapError("join room", call.ErrRoomFull, msg)
	case msg := <-c.handler.Errors:
		return signalclient.JoinInfo{}, fmt.Errorf("signaling error: %s", msg)
	case <-time.After(joinTimeout):
		return signalclient.JoinInfo{}, fmt.Errorf("no response from server")
	}
}

// openAudio builds the local source and remote sink from the --input and
// --output flags. Missing flags mean silence out and discarded audio in;
// useful for trying the plumbing without devices.
func openAudio(inputPath, outputPath string) (media.Source, media.Sink, error) {
	var source media.Source
	if inputPath == "" {
		s, err := media.NewSilenceSource()
		if err != nil {
			return nil, nil, call.NewError("prepare audio", err)
		}
		source = s
	} else {
		f, err := os.Open(inputPath)
		if err != nil {
			return nil, nil, call.WrapError("open audio input", call.ErrMediaAccessDenied, err.Error())
		}
		s, err := media.NewPCMSource(f, media.SampleRate)
		if err != nil {
			f.Close()
			return nil, nil, call.NewError("prepare audio", err)
		}
		source = s
	}

	var out io.Writer = io.Discard
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			source.Close()
			return nil, nil, call.WrapError("open audio output", call.ErrMediaAccessDenied, err.Error())
		}
		out = f
	}
	sink, err := media.NewPCMSink(out)
	if err != nil {
		source.Close()
		return nil, nil, call.NewError("prepare audio", err)
	}
	return source, sink, nil
}

type stateEvent struct {
	state call.State
	err   error
}

// runCall drives one call from session creation to teardown. The role is
// whatever the server assigned on join.
func runCall(ctx *callContext, roomID string, isHost bool, inputPath, outputPath string) error {
	role := call.RoleResponder
	if isHost {
		role = call.RoleInitiator
	}

	source, sink, err := openAudio(inputPath, outputPath)
	if err != nil {
		return err
	}

	servers := ice.ServersForCall(context.Background(), ctx.cfg)
	forceRelay := ctx.cfg.ForceRelay || (ctx.cfg.GetTURNServers() != nil && config.ShouldForceRelay())

	view := ui.NewCallView(roomID)
	states := make(chan stateEvent, 8)

	session, err := call.NewSession(call.Config{
		Role:       role,
		RoomID:     roomID,
		Signaler:   ctx.client,
		Source:     source,
		Sink:       sink,
		ICEServers: ice.ToPion(servers),
		ForceRelay: forceRelay,
		OnState: func(state call.State, err error) {
			states <- stateEvent{state: state, err: err}
		},
		OnPeerMuted: func(muted bool) {
			view.Push(ui.CallUpdate{PeerMuted: muted})
		},
	})
	if err != nil {
		source.Close()
		sink.Close()
		return err
	}

	view.Start()
	defer view.Stop()

	if err := session.Start(); err != nil {
		return err
	}
	defer session.Close()

	muted := false
	for {
		select {
		case sd := <-ctx.handler.Offers:
			if err := session.HandleOffer(sd); err != nil {
				return err
			}

		case sd := <-ctx.handler.Answers:
			if err := session.HandleAnswer(sd); err != nil {
				return err
			}

		case c := <-ctx.handler.Candidates:
			// Early candidates queue inside the session; errors here are
			// individual candidates, not the call.
			session.HandleCandidate(c)

		case peer := <-ctx.handler.PeerJoined:
			view.Push(ui.CallUpdate{PeerID: peer})

		case peer := <-ctx.handler.PeerLeft:
			view.Push(ui.CallUpdate{PeerID: peer, State: "peer left"})
			session.HandlePeerLeft()

		// After a transport reconnect the server confirms the replayed
		// join; the call is already being torn down, so these only need
		// draining.
		case <-ctx.handler.Joined:
		case msg := <-ctx.handler.JoinErrors:
			view.Push(ui.CallUpdate{ErrMsg: msg})

		case msg := <-ctx.handler.Errors:
			view.Push(ui.CallUpdate{ErrMsg: msg})
			session.HandlePeerLeft()

		case action := <-view.Actions():
			switch action {
			case ui.ActionToggleMute:
				muted = !muted
				session.Mute(muted)
			case ui.ActionHangUp:
				session.Close()
			}

		case ev := <-states:
			update := ui.CallUpdate{State: ev.state.String()}
			if ev.err != nil {
				update.ErrMsg = ev.err.Error()
			}
			switch ev.state {
			case call.StateConnected:
				view.Push(update)
			case call.StateDisconnected, call.StateClosed, call.StateFailed:
				update.Done = true
				view.Push(update)
				view.Stop()
				printSummary(roomID, session)
				if ev.state == call.StateFailed {
					return fmt.Errorf("call failed: %v", ev.err)
				}
				return nil
			default:
				view.Push(update)
			}
		}
	}
}

func printSummary(roomID string, session *call.Session) {
	stats := session.Stats()
	fmt.Println()
	ui.RenderCallSummary(ui.CallSummary{
		RoomID:          roomID,
		Duration:        stats.Duration,
		PacketsSent:     stats.PacketsSent,
		PacketsReceived: stats.PacketsReceived,
		BytesSent:       stats.BytesSent,
		BytesReceived:   stats.BytesReceived,
	})
}
