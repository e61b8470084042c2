package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/sjbmcg/eo-ws-bridge/client"
	"github.com/sjbmcg/eo-ws-bridge/config"
	"github.com/sjbmcg/eo-ws-bridge/logging"
	"github.com/sjbmcg/eo-ws-bridge/protocol"
)

func playCmd(load func() (config.Config, error)) *cobra.Command {
	var (
		url         string
		username    string
		password    string
		character   string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Log in and play from the terminal",
		Long: `Connect, log in and enter the world, then read commands from stdin:

  w a s d | walk <dir>     step one tile
  attack [dir]             swing, facing direction by default
  face <dir>               turn in place
  say <text>               local chat
  refresh                  request a nearby snapshot
  select <id>              pick a character from the list
  seq cyclic|seeded        switch sequence strategy
  reset-counter            zero the sequence counter
  reconnect                drop and redo the handshake
  status                   print session and nearby players
  quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("url") {
				cfg.Client.URL = url
			}
			if flags.Changed("username") {
				cfg.Client.Username = username
			}
			if flags.Changed("password") {
				cfg.Client.Password = password
			}
			if flags.Changed("character") {
				cfg.Client.Character = character
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := initLogging(cfg.Log); err != nil {
				return err
			}
			defer logging.SyncLogger()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPlay(ctx, cfg.Client, metricsAddr, os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "game server websocket url or tcp address")
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&character, "character", "", "character name or id to enter with")
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "serve prometheus metrics on this address")

	return cmd
}

func newDialer(cfg config.ClientConfig) client.Dialer {
	if cfg.Transport == "tcp" {
		return client.TCPDialer{Addr: cfg.URL}
	}
	return client.WSDialer{URL: cfg.URL}
}

func runPlay(ctx context.Context, cfg config.ClientConfig, metricsAddr string, in io.Reader, out io.Writer) error {
	out = &lockedWriter{w: out}
	reg := prometheus.NewRegistry()
	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Log.Warnw("metrics server stopped", "err", err)
			}
		}()
		defer srv.Close()
	}

	e := client.New(newDialer(cfg), client.Options{
		Username:  cfg.Username,
		Password:  cfg.Password,
		Character: cfg.Character,
		Version: protocol.Version{
			Major: cfg.Version.Major,
			Minor: cfg.Version.Minor,
			Patch: cfg.Version.Patch,
		},
		HDID:           cfg.HDID,
		Challenge:      cfg.Challenge,
		LoginDelay:     cfg.LoginDelay,
		CyclicSequence: cfg.Sequence == "cyclic",
		FetchMaps:      cfg.FetchMaps,
		Logger:         logging.Named("client"),
		Metrics:        client.NewMetrics(reg),
		OnStatus: func(s client.Status) {
			fmt.Fprintf(out, "[%s] %s\n", s.State, s.Text)
		},
		OnCharacters: func(chars []protocol.CharacterSummary) {
			for _, c := range chars {
				fmt.Fprintf(out, "  character %d: %s (level %d)\n", c.ID, c.Name, c.Level)
			}
		},
		OnChat: func(l client.ChatLine) {
			fmt.Fprintf(out, "%s: %s\n", l.Name, l.Message)
		},
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	input := make(chan string)
	go func() {
		defer close(input)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case input <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	lines := (<-chan string)(input)
	for {
		select {
		case err := <-done:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case line, ok := <-lines:
			if !ok {
				lines = nil
				cancel()
				continue
			}
			c, err := parseCommand(line)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if c.name == "quit" {
				cancel()
				continue
			}
			if err := execute(ctx, e, c, out); err != nil {
				fmt.Fprintln(out, err)
			}
		}
	}
}

type command struct {
	name   string
	dir    protocol.Direction
	hasDir bool // false for a bare "attack"
	text   string
	id     int
	cyclic bool
}

var errUnknownCommand = errors.New("unknown command")

// parseCommand turns one input line into a command. Blank lines parse
// as "noop".
func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{name: "noop"}, nil
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]

	if dir, ok := protocol.ParseDirection(name); ok && len(name) == 1 && len(args) == 0 {
		return command{name: "walk", dir: dir, hasDir: true}, nil
	}

	switch name {
	case "walk", "face":
		if len(args) != 1 {
			return command{}, fmt.Errorf("usage: %s <dir>", name)
		}
		dir, ok := protocol.ParseDirection(args[0])
		if !ok {
			return command{}, fmt.Errorf("unknown direction %q", args[0])
		}
		return command{name: name, dir: dir, hasDir: true}, nil
	case "attack":
		if len(args) == 0 {
			return command{name: name}, nil
		}
		dir, ok := protocol.ParseDirection(args[0])
		if !ok {
			return command{}, fmt.Errorf("unknown direction %q", args[0])
		}
		return command{name: name, dir: dir, hasDir: true}, nil
	case "say":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		if text == "" {
			return command{}, errors.New("usage: say <text>")
		}
		return command{name: name, text: text}, nil
	case "select":
		if len(args) != 1 {
			return command{}, errors.New("usage: select <id>")
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return command{}, fmt.Errorf("bad character id %q", args[0])
		}
		return command{name: name, id: id}, nil
	case "seq":
		if len(args) != 1 || (args[0] != "cyclic" && args[0] != "seeded") {
			return command{}, errors.New("usage: seq cyclic|seeded")
		}
		return command{name: name, cyclic: args[0] == "cyclic"}, nil
	case "refresh", "reset-counter", "reconnect", "status", "quit":
		return command{name: name}, nil
	}
	return command{}, fmt.Errorf("%w: %s", errUnknownCommand, name)
}

func execute(ctx context.Context, e *client.Engine, c command, out io.Writer) error {
	switch c.name {
	case "noop":
		return nil
	case "walk":
		return e.Walk(ctx, c.dir)
	case "face":
		return e.Face(ctx, c.dir)
	case "attack":
		if c.hasDir {
			return e.Attack(ctx, c.dir)
		}
		return e.AttackFacing(ctx)
	case "say":
		return e.Say(ctx, c.text)
	case "refresh":
		return e.Refresh(ctx)
	case "select":
		return e.SelectCharacter(ctx, c.id)
	case "seq":
		return e.UseCyclicSequence(ctx, c.cyclic)
	case "reset-counter":
		return e.ResetSequenceCounter(ctx)
	case "reconnect":
		return e.Reconnect(ctx)
	case "status":
		v, err := e.Snapshot(ctx)
		if err != nil {
			return err
		}
		printView(out, v)
		return nil
	}
	return fmt.Errorf("%w: %s", errUnknownCommand, c.name)
}

func printView(out io.Writer, v client.View) {
	seq := "seeded"
	if v.Cyclic {
		seq = "cyclic"
	}
	fmt.Fprintf(out, "state %s, player %d, map %d at (%d,%d) facing %s, sequence %s\n",
		v.Session.State, v.Session.PlayerID, v.Player.MapID, v.Player.X, v.Player.Y,
		v.Player.Direction, seq)
	for _, n := range v.Nearby {
		fmt.Fprintf(out, "  %d %s (%d,%d) %s\n", n.ID, n.Name, n.X, n.Y, n.Direction)
	}
}

// lockedWriter serializes output from the engine callbacks and the
// command loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
