package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sjbmcg/eo-ws-bridge/config"
	"github.com/sjbmcg/eo-ws-bridge/protocol"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want command
	}{
		{"", command{name: "noop"}},
		{"w", command{name: "walk", dir: protocol.DirectionUp, hasDir: true}},
		{"D", command{name: "walk", dir: protocol.DirectionRight, hasDir: true}},
		{"walk left", command{name: "walk", dir: protocol.DirectionLeft, hasDir: true}},
		{"face down", command{name: "face", dir: protocol.DirectionDown, hasDir: true}},
		{"attack", command{name: "attack"}},
		{"attack up", command{name: "attack", dir: protocol.DirectionUp, hasDir: true}},
		{"say  hello  there ", command{name: "say", text: "hello  there"}},
		{"select 7", command{name: "select", id: 7}},
		{"seq cyclic", command{name: "seq", cyclic: true}},
		{"seq seeded", command{name: "seq"}},
		{"reset-counter", command{name: "reset-counter"}},
		{"Quit", command{name: "quit"}},
	}
	for _, tt := range tests {
		got, err := parseCommand(tt.line)
		if err != nil {
			t.Errorf("parseCommand(%q) error: %v", tt.line, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseCommand(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestParseCommandErrors(t *testing.T) {
	for _, line := range []string{"walk", "walk north", "face", "say", "select x", "seq", "seq fast", "dance"} {
		if _, err := parseCommand(line); err == nil {
			t.Errorf("parseCommand(%q) succeeded", line)
		}
	}
	if _, err := parseCommand("dance"); !errors.Is(err, errUnknownCommand) {
		t.Errorf("dance error = %v", err)
	}
}

func TestRunPlayQuitsOnEOF(t *testing.T) {
	cfg := config.Default().Client
	cfg.Transport = "tcp"
	cfg.URL = "127.0.0.1:1"

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := runPlay(ctx, cfg, "", strings.NewReader("bogus\n"), &out); err != nil {
		t.Fatalf("runPlay() = %v", err)
	}
	if !strings.Contains(out.String(), "unknown command") {
		t.Errorf("output = %q", out.String())
	}
}
