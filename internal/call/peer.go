package call

import (
	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"
)

// newAPI builds a pion API with an Opus-only media engine. Calls are
// audio-only; offering video codecs just bloats the SDP.
func newAPI() (*webrtc.API, error) {
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType:    webrtc.MimeTypeOpus,
			ClockRate:   48000,
			Channels:    2,
			SDPFmtpLine: "minptime=10;useinbandfec=1",
		},
		PayloadType: 111,
	}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, err
	}

	loggerFactory := logging.NewDefaultLoggerFactory()
	loggerFactory.DefaultLogLevel = logging.LogLevelWarn
	settingEngine := webrtc.SettingEngine{LoggerFactory: loggerFactory}

	return webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithSettingEngine(settingEngine),
	), nil
}

// NewPeerConnection creates a peer connection with the given ICE servers.
func NewPeerConnection(servers []webrtc.ICEServer, forceRelay bool) (*webrtc.PeerConnection, error) {
	api, err := newAPI()
	if err != nil {
		return nil, NewError("configure media engine", err)
	}

	policy := webrtc.ICETransportPolicyAll
	if forceRelay {
		policy = webrtc.ICETransportPolicyRelay
	}

	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers:         servers,
		ICETransportPolicy: policy,
	})
	if err != nil {
		return nil, NewError("create peer connection", err)
	}
	return pc, nil
}
