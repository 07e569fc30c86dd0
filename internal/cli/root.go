// Package cli wires the scorer's cobra commands.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/funnelalchemy/prospect-scorer/internal/config"
	"github.com/funnelalchemy/prospect-scorer/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgPath string
	logJSON bool
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "scorer",
	Short: "Batch prospect scoring service",
	Long:  "scorer evaluates prospect lists against an ideal-customer profile by batching them through an inference model with rate limiting, bounded concurrency, and retries.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (optional; env vars with SCORER_ prefix also apply)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "json", false, "emit JSON logs")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads .env, config, and the logger shared by subcommands.
func setup() (*config.Config, *zap.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(logJSON || cfg.LogJSON, debug || cfg.Debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
