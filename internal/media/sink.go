package media

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// Sink consumes the remote audio track.
type Sink interface {
	// Consume starts draining the track in the background.
	Consume(track *webrtc.TrackRemote)

	Close() error
}

// PCMSink decodes the remote Opus track into little-endian int16 PCM and
// writes it to w. Playback is whatever the writer is attached to.
type PCMSink struct {
	w   io.Writer
	dec *Decoder
	log *slog.Logger

	lastSeq   uint16
	haveSeq   bool
	lost      atomic.Uint64
	received  atomic.Uint64
	closeOnce sync.Once
	done      chan struct{}
}

func NewPCMSink(w io.Writer) (*PCMSink, error) {
	dec, err := NewDecoder(SampleRate, Channels, FrameSize)
	if err != nil {
		return nil, err
	}
	return &PCMSink{
		w:    w,
		dec:  dec,
		log:  slog.Default(),
		done: make(chan struct{}),
	}, nil
}

// Consume drains the track until it ends or the sink is closed.
func (s *PCMSink) Consume(track *webrtc.TrackRemote) {
	go func() {
		for {
			select {
			case <-s.done:
				return
			default:
			}

			pkt, _, err := track.ReadRTP()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.log.Debug("remote track read failed", "err", err)
				}
				return
			}
			s.observe(pkt)

			pcm, err := s.dec.Decode(pkt.Payload)
			if err != nil {
				s.log.Warn("opus decode failed", "err", err)
				continue
			}
			if _, err := s.w.Write(pcm); err != nil {
				s.log.Warn("audio output failed", "err", err)
				return
			}
		}
	}()
}

// observe tracks sequence numbers to count lost packets.
func (s *PCMSink) observe(pkt *rtp.Packet) {
	s.received.Add(1)
	if s.haveSeq {
		if gap := pkt.SequenceNumber - s.lastSeq; gap > 1 {
			s.lost.Add(uint64(gap - 1))
		}
	}
	s.lastSeq = pkt.SequenceNumber
	s.haveSeq = true
}

// PacketsReceived reports how many RTP packets arrived.
func (s *PCMSink) PacketsReceived() uint64 {
	return s.received.Load()
}

// PacketsLost reports sequence gaps observed on the remote track.
func (s *PCMSink) PacketsLost() uint64 {
	return s.lost.Load()
}

// Close stops consumption. Safe to call more than once.
func (s *PCMSink) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}
