package cli

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aloche971/VoiceApp/internal/config"
)

// callFlags are the options shared by host and join.
type callFlags struct {
	domain        string
	serverURL     string
	credentialURL string
	stunServer    string
	turnServer    string
	turnUser      string
	turnPass      string
	forceRelay    bool

	input  string
	output string
	name   string
}

func (f *callFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.domain, "domain", "", "signaling server domain")
	cmd.Flags().StringVar(&f.serverURL, "server", "", "signaling server websocket URL (overrides domain)")
	cmd.Flags().StringVar(&f.credentialURL, "credential-url", "", "TURN credential provider URL")
	cmd.Flags().StringVar(&f.stunServer, "stun", "", "STUN server URL")
	cmd.Flags().StringVar(&f.turnServer, "turn", "", "TURN server URL")
	cmd.Flags().StringVar(&f.turnUser, "turn-user", "", "TURN username")
	cmd.Flags().StringVar(&f.turnPass, "turn-pass", "", "TURN password")
	cmd.Flags().BoolVar(&f.forceRelay, "relay", false, "force media through the TURN relay")

	cmd.Flags().StringVar(&f.input, "input", "", "PCM audio input file (default: silence)")
	cmd.Flags().StringVar(&f.output, "output", "", "PCM audio output file (default: discard)")
	cmd.Flags().StringVar(&f.name, "name", "", "display name shown to the peer")
}

func (f *callFlags) load() (*config.Config, error) {
	return config.Load(config.Options{
		Domain:        f.domain,
		ServerURL:     f.serverURL,
		CredentialURL: f.credentialURL,
		STUNServer:    f.stunServer,
		TURNServer:    f.turnServer,
		TURNUser:      f.turnUser,
		TURNPass:      f.turnPass,
		ForceRelay:    f.forceRelay,
	})
}

// userID is the identity sent with join-room. A short uuid keeps the
// default anonymous; --name makes it human-readable.
func (f *callFlags) userID() string {
	if f.name != "" {
		return f.name
	}
	return uuid.NewString()[:8]
}
