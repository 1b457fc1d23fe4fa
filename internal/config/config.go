package config

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// Default configuration values (production)
const (
	DefaultDomain = "call.voiceapp.qzz.io"
	DefaultSTUN   = "stun:stun.l.google.com:19302"
	DefaultTURN   = "" // optional, off by default
)

// Config holds client configuration.
type Config struct {
	// Domain is the signaling server domain.
	Domain string

	// WebSocketURL is constructed from the domain unless overridden.
	WebSocketURL string

	// CredentialURL, when set, is queried for TURN credentials before each
	// call. Failures fall back to the static servers below.
	CredentialURL string

	// ICE servers for WebRTC.
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	// ForceRelay routes media through TURN even when a direct path exists.
	ForceRelay bool
}

// Options carry CLI flag overrides into Load.
type Options struct {
	Domain        string
	ServerURL     string
	CredentialURL string
	STUNServer    string
	TURNServer    string
	TURNUser      string
	TURNPass      string
	ForceRelay    bool
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	cfg := &Config{
		Domain:        pick(opts.Domain, "VOICEAPP_DOMAIN", DefaultDomain),
		CredentialURL: pick(opts.CredentialURL, "VOICEAPP_CREDENTIAL_URL", ""),
		STUNServer:    pick(opts.STUNServer, "VOICEAPP_STUN_SERVER", DefaultSTUN),
		TURNServer:    pick(opts.TURNServer, "VOICEAPP_TURN_SERVER", DefaultTURN),
		TURNUser:      pick(opts.TURNUser, "VOICEAPP_TURN_USERNAME", ""),
		TURNPass:      pick(opts.TURNPass, "VOICEAPP_TURN_PASSWORD", ""),
		ForceRelay:    opts.ForceRelay,
	}

	cfg.WebSocketURL = pick(opts.ServerURL, "VOICEAPP_SERVER_URL", fmt.Sprintf("wss://%s/ws", cfg.Domain))

	if cfg.ForceRelay && cfg.TURNServer == "" {
		return nil, fmt.Errorf("cannot force relay mode without a TURN server configured")
	}
	return cfg, nil
}

func pick(flag, env, def string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// GetSTUNServers returns STUN server URLs.
func (c *Config) GetSTUNServers() []string {
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured.
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns the static TURN username and password.
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

// ShouldForceRelay checks whether the machine is likely behind a restrictive
// VPN or CGNAT, where direct paths usually fail and TURN is needed anyway.
func ShouldForceRelay() bool {
	interfaces, err := net.Interfaces()
	if err != nil {
		return false
	}

	// CGNAT range (100.64.0.0/10): Cloudflare WARP, Tailscale and carrier
	// grade NATs live here.
	_, cgnatBlock, _ := net.ParseCIDR("100.64.0.0/10")

	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		name := strings.ToLower(iface.Name)
		if strings.Contains(name, "tun") || strings.Contains(name, "tap") || strings.Contains(name, "wg") {
			return true
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if cgnatBlock.Contains(ipNet.IP) {
				return true
			}
		}
	}
	return false
}
