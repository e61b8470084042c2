package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eo.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Client.Transport != "ws" || cfg.Client.Sequence != "seeded" {
		t.Errorf("client defaults = %+v", cfg.Client)
	}
	if cfg.Bridge.MaxFrame != 64008 {
		t.Errorf("MaxFrame = %d", cfg.Bridge.MaxFrame)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, `
client:
  url: ws://game.example:8077
  username: alice
  login_delay: 250ms
  sequence: cyclic
bridge:
  upstream: game.example:8078
log:
  level: debug
`)
	t.Setenv("EO_CLIENT_USERNAME", "bob")
	t.Setenv("EO_BRIDGE_LISTEN", ":9000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Client.URL != "ws://game.example:8077" {
		t.Errorf("URL = %q", cfg.Client.URL)
	}
	if cfg.Client.Username != "bob" {
		t.Errorf("Username = %q, want env override", cfg.Client.Username)
	}
	if cfg.Client.LoginDelay != 250*time.Millisecond {
		t.Errorf("LoginDelay = %v", cfg.Client.LoginDelay)
	}
	if cfg.Client.Sequence != "cyclic" {
		t.Errorf("Sequence = %q", cfg.Client.Sequence)
	}
	if cfg.Bridge.Listen != ":9000" || cfg.Bridge.Upstream != "game.example:8078" {
		t.Errorf("bridge = %+v", cfg.Bridge)
	}
	if cfg.Log.Level != "debug" || cfg.Log.MaxBackups != 3 {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"transport", func(c *Config) { c.Client.Transport = "udp" }},
		{"sequence", func(c *Config) { c.Client.Sequence = "random" }},
		{"url scheme", func(c *Config) { c.Client.URL = "http://host" }},
		{"login delay", func(c *Config) { c.Client.LoginDelay = -time.Second }},
		{"max frame", func(c *Config) { c.Bridge.MaxFrame = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}

	cfg := Default()
	cfg.Client.Transport = "tcp"
	cfg.Client.URL = "game.example:8078"
	if err := cfg.Validate(); err != nil {
		t.Errorf("tcp address rejected: %v", err)
	}
}
