package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/caselift/internal/config"
	"github.com/nao1215/caselift/internal/log"
)

// NewRootCmd creates the root command for caselift.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caselift",
		Short: "Extract structured case data from the judiciary eLibrary",
		Long: `caselift scrapes case links from eLibrary listing pages, fetches every
case document, asks a Gemini model for the case number, title, facts, decision,
ruling and verdict, and merges the results into an Excel workbook.

Set GEMINI_API_KEY in the environment or in a .env file before running extract.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .caselift in current or home directory)")
	cmd.PersistentFlags().String("log-format", "", "Log format: text or json (default text)")

	cmd.AddCommand(NewLinksCmd())
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig builds the configuration from defaults, the config file and the
// global flags. Command-specific flags are applied by each command.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var configPath string
	if f := cmd.Flags().Lookup("config"); f != nil {
		configPath = f.Value.String()
	}

	cfg, _, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if f := cmd.Flags().Lookup("verbose"); f != nil && f.Changed {
		cfg.Verbose = f.Value.String() == "true"
	}
	if f := cmd.Flags().Lookup("log-format"); f != nil && f.Changed {
		cfg.LogFormat = f.Value.String()
	}
	return cfg, nil
}

// newLogger creates the secure logger for a command. Diagnostics always go
// to w so that stdout stays reserved for command output.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return log.NewSecureLogger(w, cfg.Verbose, cfg.LogFormat)
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
