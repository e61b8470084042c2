package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sjbmcg/eo-ws-bridge/bridge"
	"github.com/sjbmcg/eo-ws-bridge/config"
	"github.com/sjbmcg/eo-ws-bridge/logging"
)

func serveCmd(load func() (config.Config, error)) *cobra.Command {
	var (
		listen   string
		upstream string
		noAdmin  bool
	)

	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Relay websocket clients to a TCP game server",
		Long: `Accept websocket clients on /ws and give each one its own TCP
connection to the game server. Client messages carry the two-byte
length prefix and are written upstream as they are; each upstream
frame goes back as one binary message without its prefix.

Also serves /healthz, /metrics and, unless disabled, /admin/sessions.

Examples:
  eo-client bridge --listen :8077 --upstream game.example:8078`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("listen") {
				cfg.Bridge.Listen = listen
			}
			if flags.Changed("upstream") {
				cfg.Bridge.Upstream = upstream
			}
			if noAdmin {
				cfg.Bridge.Admin = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := initLogging(cfg.Log); err != nil {
				return err
			}
			defer logging.SyncLogger()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			b := cfg.Bridge
			srv := bridge.NewServer(bridge.Config{
				Upstream:     b.Upstream,
				MaxFrame:     b.MaxFrame,
				ReadTimeout:  b.ReadTimeout,
				WriteTimeout: b.WriteTimeout,
				DialTimeout:  b.DialTimeout,
				IdleTimeout:  b.IdleTimeout,
				Admin:        b.Admin,
			}, reg, logging.Named("bridge"))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, b.Listen)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "websocket listen address")
	cmd.Flags().StringVar(&upstream, "upstream", "", "game server TCP address")
	cmd.Flags().BoolVar(&noAdmin, "no-admin", false, "disable the /admin endpoints")

	return cmd
}
