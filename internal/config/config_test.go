package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Domain != DefaultDomain {
		t.Errorf("expected default domain, got %q", cfg.Domain)
	}
	if cfg.WebSocketURL != "wss://"+DefaultDomain+"/ws" {
		t.Errorf("unexpected websocket url %q", cfg.WebSocketURL)
	}
	if cfg.STUNServer != DefaultSTUN {
		t.Errorf("expected default stun, got %q", cfg.STUNServer)
	}
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("VOICEAPP_DOMAIN", "env.example.com")
	t.Setenv("VOICEAPP_SERVER_URL", "ws://localhost:8080/ws")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Domain != "env.example.com" {
		t.Errorf("env should override default, got %q", cfg.Domain)
	}
	if cfg.WebSocketURL != "ws://localhost:8080/ws" {
		t.Errorf("env should override derived url, got %q", cfg.WebSocketURL)
	}
}

func TestLoadFlagOverridesEnv(t *testing.T) {
	t.Setenv("VOICEAPP_DOMAIN", "env.example.com")

	cfg, err := Load(Options{Domain: "flag.example.com"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Domain != "flag.example.com" {
		t.Errorf("flag should win over env, got %q", cfg.Domain)
	}
	if cfg.WebSocketURL != "wss://flag.example.com/ws" {
		t.Errorf("derived url should follow the flag, got %q", cfg.WebSocketURL)
	}
}

func TestLoadRejectsRelayWithoutTURN(t *testing.T) {
	if _, err := Load(Options{ForceRelay: true}); err == nil {
		t.Fatal("relay without a TURN server must be rejected")
	}
	if _, err := Load(Options{ForceRelay: true, TURNServer: "turn:turn.example.com"}); err != nil {
		t.Fatalf("relay with a TURN server should load: %v", err)
	}
}

func TestGetTURNServers(t *testing.T) {
	cfg, err := Load(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.GetTURNServers(); got != nil {
		t.Errorf("no TURN configured, expected nil, got %v", got)
	}

	cfg, err = Load(Options{TURNServer: "turn:turn.example.com", TURNUser: "u", TURNPass: "p"})
	if err != nil {
		t.Fatal(err)
	}
	servers := cfg.GetTURNServers()
	if len(servers) != 2 {
		t.Fatalf("expected udp and tcp variants, got %v", servers)
	}
	if servers[0] != "turn:turn.example.com:3478?transport=udp" {
		t.Errorf("unexpected udp url %q", servers[0])
	}
	user, pass := cfg.GetTURNCredentials()
	if user != "u" || pass != "p" {
		t.Errorf("credentials lost: %q %q", user, pass)
	}
}
