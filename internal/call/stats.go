package call

import (
	"time"

	"github.com/pion/webrtc/v4"
)

// Stats summarizes a call for the post-call report.
type Stats struct {
	Duration        time.Duration
	PacketsSent     uint32
	PacketsReceived uint32
	BytesSent       uint64
	BytesReceived   uint64
}

// Stats reads the peer connection's RTP counters. Valid until shortly
// after teardown; zero-valued before Start.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	pc := s.pc
	started := s.started
	s.mu.Unlock()

	out := Stats{}
	if !started.IsZero() {
		out.Duration = time.Since(started)
	}
	if pc == nil {
		return out
	}

	for _, v := range pc.GetStats() {
		switch stat := v.(type) {
		case webrtc.OutboundRTPStreamStats:
			out.PacketsSent += stat.PacketsSent
			out.BytesSent += stat.BytesSent
		case webrtc.InboundRTPStreamStats:
			out.PacketsReceived += stat.PacketsReceived
			out.BytesReceived += stat.BytesReceived
		}
	}
	return out
}
