package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sjbmcg/eo-ws-bridge/config"
	"github.com/sjbmcg/eo-ws-bridge/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "eo-client",
		Short: "Endless Online protocol client and websocket bridge",
		Long: `eo-client speaks the obfuscated Endless Online wire protocol.

  play     log in and drive a character from the terminal
  bridge   relay websocket clients to a TCP game server

Settings come from the config file, then EO_* environment variables,
then command line flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	load := func() (config.Config, error) {
		return config.Load(configPath)
	}

	rootCmd.AddCommand(
		playCmd(load),
		serveCmd(load),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

// initLogging starts the global logger from cfg.
func initLogging(cfg config.LogConfig) error {
	return logging.InitLogger(logging.Options{
		File:       cfg.File,
		Level:      cfg.Level,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
		Console:    cfg.Console,
	})
}
