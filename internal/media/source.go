package media

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

// Source provides the local audio track for a call.
type Source interface {
	// Track returns the local track and starts producing audio.
	Track() (webrtc.TrackLocal, error)

	// SetMuted replaces outgoing audio with silence without renegotiating.
	SetMuted(muted bool)

	Close() error
}

// PCMSource encodes little-endian int16 mono PCM from a reader into 20 ms
// Opus frames on a static sample track. When the reader drains, or while
// muted, it keeps the track alive with silence.
type PCMSource struct {
	reader    io.Reader
	inputRate int
	log       *slog.Logger

	track *webrtc.TrackLocalStaticSample
	enc   *Encoder

	muted     atomic.Bool
	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

// NewPCMSource wraps a PCM reader at the given sample rate. Input at other
// rates is resampled to 48 kHz.
func NewPCMSource(r io.Reader, inputRate int) (*PCMSource, error) {
	enc, err := NewEncoder(SampleRate, Channels, FrameSize)
	if err != nil {
		return nil, err
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{
			MimeType:  webrtc.MimeTypeOpus,
			ClockRate: SampleRate,
			Channels:  2,
		},
		"audio", "voiceapp",
	)
	if err != nil {
		return nil, err
	}

	return &PCMSource{
		reader:    r,
		inputRate: inputRate,
		log:       slog.Default(),
		track:     track,
		enc:       enc,
		done:      make(chan struct{}),
	}, nil
}

// NewSilenceSource produces a valid audio track carrying silence. Used when
// no capture input is configured, and in tests.
func NewSilenceSource() (*PCMSource, error) {
	return NewPCMSource(zeroReader{}, SampleRate)
}

// Track starts the encode pump on first call and returns the local track.
func (s *PCMSource) Track() (webrtc.TrackLocal, error) {
	s.startOnce.Do(func() {
		go s.pump()
	})
	return s.track, nil
}

// SetMuted toggles silence substitution.
func (s *PCMSource) SetMuted(muted bool) {
	s.muted.Store(muted)
}

// pump reads one frame of input every 20 ms, encodes it and writes it to
// the track. Real time pacing comes from the ticker, not the reader.
func (s *PCMSource) pump() {
	inputFrameBytes := s.inputRate * Channels / (1000 / 20) * 2
	silence := make([]byte, FrameSize*Channels*2)
	buf := make([]byte, inputFrameBytes)
	drained := false

	ticker := time.NewTicker(time.Duration(FrameDuration))
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		frame := silence
		if !drained && !s.muted.Load() {
			n, err := io.ReadFull(s.reader, buf)
			if err != nil {
				if err != io.EOF && err != io.ErrUnexpectedEOF {
					s.log.Warn("audio input failed", "err", err)
				}
				drained = true
			}
			if n > 0 {
				frame = ResampleMono(buf[:n-n%2], s.inputRate, SampleRate)
			}
		}

		// The encoder needs exactly one frame of samples.
		if len(frame) != len(silence) {
			padded := make([]byte, len(silence))
			copy(padded, frame)
			frame = padded
		}

		data, err := s.enc.EncodeBytes(frame)
		if err != nil {
			s.log.Warn("opus encode failed", "err", err)
			continue
		}
		if err := s.track.WriteSample(media.Sample{Data: data, Duration: time.Duration(FrameDuration)}); err != nil {
			s.log.Debug("write sample failed", "err", err)
		}
	}
}

// Close stops the pump. Safe to call more than once.
func (s *PCMSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

// zeroReader yields endless silence.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
