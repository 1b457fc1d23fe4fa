// Package ice assembles the ICE server list for a call: static STUN/TURN
// configuration, an optional HTTP credential provider, and a hardcoded
// STUN-only fallback when the provider is unreachable.
package ice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/aloche971/VoiceApp/internal/config"
)

const fetchTimeout = 5 * time.Second

// Server mirrors the RTCIceServer JSON shape returned by credential
// providers. Entries are used verbatim.
type Server struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// Fallback is used when no provider and no static TURN config is available,
// or when the provider cannot be reached. Reflexive-only: calls may still
// fail behind symmetric NATs, but signaling keeps working.
func Fallback() []Server {
	return []Server{{URLs: []string{config.DefaultSTUN}}}
}

// Provider fetches relay credentials over HTTP.
type Provider struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

func NewProvider(url string) *Provider {
	return &Provider{
		url:    url,
		client: &http.Client{Timeout: fetchTimeout},
		log:    slog.Default(),
	}
}

// Fetch returns the provider's server list, or an error the caller is
// expected to recover from with Fallback.
func (p *Provider) Fetch(ctx context.Context) ([]Server, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("credential provider returned %d", resp.StatusCode)
	}

	var servers []Server
	if err := json.NewDecoder(resp.Body).Decode(&servers); err != nil {
		return nil, err
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("credential provider returned no servers")
	}
	return servers, nil
}

// ServersForCall resolves the ICE server list for one call attempt.
// Provider failures are logged and recovered locally, never surfaced as
// user errors.
func ServersForCall(ctx context.Context, cfg *config.Config) []Server {
	if cfg.CredentialURL != "" {
		p := NewProvider(cfg.CredentialURL)
		servers, err := p.Fetch(ctx)
		if err == nil {
			return servers
		}
		p.log.Warn("credential provider unreachable, using fallback", "err", err)
	}

	servers := []Server{{URLs: cfg.GetSTUNServers()}}
	if turn := cfg.GetTURNServers(); turn != nil {
		user, pass := cfg.GetTURNCredentials()
		servers = append(servers, Server{URLs: turn, Username: user, Credential: pass})
	}
	return servers
}

// ToPion converts the server list into pion's configuration type.
func ToPion(servers []Server) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		ice := webrtc.ICEServer{URLs: s.URLs}
		if s.Username != "" {
			ice.Username = s.Username
			ice.Credential = s.Credential
		}
		out = append(out, ice)
	}
	return out
}
