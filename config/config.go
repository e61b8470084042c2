package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment override, e.g. EO_CLIENT_URL.
const EnvPrefix = "EO_"

// Config is the full configuration of both commands.
type Config struct {
	Client ClientConfig `yaml:"client" envPrefix:"CLIENT_"`
	Bridge BridgeConfig `yaml:"bridge" envPrefix:"BRIDGE_"`
	Log    LogConfig    `yaml:"log"    envPrefix:"LOG_"`
}

// ClientConfig drives the play command.
type ClientConfig struct {
	URL        string        `yaml:"url"         env:"URL"`
	Transport  string        `yaml:"transport"   env:"TRANSPORT"`
	Username   string        `yaml:"username"    env:"USERNAME"`
	Password   string        `yaml:"password"    env:"PASSWORD"`
	Character  string        `yaml:"character"   env:"CHARACTER"`
	Version    VersionConfig `yaml:"version"     envPrefix:"VERSION_"`
	HDID       string        `yaml:"hdid"        env:"HDID"`
	Challenge  int           `yaml:"challenge"   env:"CHALLENGE"`
	LoginDelay time.Duration `yaml:"login_delay" env:"LOGIN_DELAY"`
	Sequence   string        `yaml:"sequence"    env:"SEQUENCE"`
	FetchMaps  bool          `yaml:"fetch_maps"  env:"FETCH_MAPS"`
}

// VersionConfig is the client version sent in the handshake.
type VersionConfig struct {
	Major int `yaml:"major" env:"MAJOR"`
	Minor int `yaml:"minor" env:"MINOR"`
	Patch int `yaml:"patch" env:"PATCH"`
}

// BridgeConfig drives the bridge command.
type BridgeConfig struct {
	Listen       string        `yaml:"listen"        env:"LISTEN"`
	Upstream     string        `yaml:"upstream"      env:"UPSTREAM"`
	MaxFrame     int           `yaml:"max_frame"     env:"MAX_FRAME"`
	ReadTimeout  time.Duration `yaml:"read_timeout"  env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	DialTimeout  time.Duration `yaml:"dial_timeout"  env:"DIAL_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"  env:"IDLE_TIMEOUT"`
	Admin        bool          `yaml:"admin"         env:"ADMIN"`
}

// LogConfig selects the log destination and verbosity.
type LogConfig struct {
	File       string `yaml:"file"        env:"FILE"`
	Level      string `yaml:"level"       env:"LEVEL"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age"     env:"MAX_AGE"`
	Console    bool   `yaml:"console"     env:"CONSOLE"`
}

// Default returns the configuration used when neither a file nor the
// environment say otherwise.
func Default() Config {
	return Config{
		Client: ClientConfig{
			URL:        "ws://127.0.0.1:8077",
			Transport:  "ws",
			Version:    VersionConfig{Major: 0, Minor: 0, Patch: 28},
			HDID:       "161726351",
			Challenge:  12345,
			LoginDelay: 0,
			Sequence:   "seeded",
		},
		Bridge: BridgeConfig{
			Listen:       ":8077",
			Upstream:     "127.0.0.1:8078",
			MaxFrame:     64008,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 5 * time.Second,
			DialTimeout:  5 * time.Second,
			IdleTimeout:  5 * time.Minute,
			Admin:        true,
		},
		Log: LogConfig{
			File:       "eo-client.log",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load builds a Config from defaults, the optional YAML file at path and
// EO_ environment variables, in that order, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks the values the commands cannot run without.
func (c Config) Validate() error {
	switch c.Client.Transport {
	case "ws", "tcp":
	default:
		return fmt.Errorf("%w: client.transport %q (want ws or tcp)", ErrInvalid, c.Client.Transport)
	}
	switch c.Client.Sequence {
	case "seeded", "cyclic":
	default:
		return fmt.Errorf("%w: client.sequence %q (want seeded or cyclic)", ErrInvalid, c.Client.Sequence)
	}
	if c.Client.Transport == "ws" {
		u, err := url.Parse(c.Client.URL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return fmt.Errorf("%w: client.url %q is not a websocket url", ErrInvalid, c.Client.URL)
		}
	}
	if c.Client.LoginDelay < 0 {
		return fmt.Errorf("%w: client.login_delay is negative", ErrInvalid)
	}
	if len(c.Client.HDID) > 252 {
		return fmt.Errorf("%w: client.hdid longer than 252 bytes", ErrInvalid)
	}
	if c.Bridge.IdleTimeout < 0 {
		return fmt.Errorf("%w: bridge.idle_timeout is negative", ErrInvalid)
	}
	if c.Bridge.MaxFrame <= 0 || c.Bridge.MaxFrame >= 64009 {
		return fmt.Errorf("%w: bridge.max_frame %d out of range", ErrInvalid, c.Bridge.MaxFrame)
	}
	return nil
}
