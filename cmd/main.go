package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/isaac-anthony/mano/internal/config"
	"github.com/isaac-anthony/mano/internal/logger"
)

var version = "dev"

var (
	configFile string
	flags      = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "mano",
	Short: "Voice ordering bridge between a Vapi assistant and Square",
	Long: `mano takes phone orders from a Vapi voice assistant, checks them against
the Square catalog and places them as Square orders.

Examples:
  # Serve the webhook, menu and order endpoints
  mano serve --port 8000

  # Expose place_order and get_menu to an MCP client over stdio
  mano mcp

  # Print kitchen tickets for placed orders
  mano kitchen-feed`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "config file (YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (json, text)")

	mustBind("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBind("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(serveCmd, mcpCmd, kitchenFeedCmd, menuCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves config from file, .env, environment and bound flags.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.LoadWith(flags, configFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. MCP mode passes stderr because
// stdout carries the protocol.
func newLogger(service string, cfg *config.Config, out io.Writer) (*logger.Logger, error) {
	log, err := logger.NewWithOptions(service, logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: out,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating logger: %w", err)
	}
	return log, nil
}

// mustBind lets a flag override the config key when it is set on the
// command line.
func mustBind(key string, flag *pflag.Flag) {
	if err := flags.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}
