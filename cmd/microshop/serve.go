// ABOUTME: serve subcommand: loads config and runs the HTTP server
// ABOUTME: Prints the startup banner and shuts down gracefully on SIGINT/SIGTERM

package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Alex-Zverr/microshop/internal/config"
	"github.com/Alex-Zverr/microshop/internal/logging"
	"github.com/Alex-Zverr/microshop/internal/server"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  `Start the HTTP API server and block until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, cmd.OutOrStdout())
		},
	}
}

func runServe(ctx context.Context, out io.Writer) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Fprint(out, banner)

	gray := color.New(color.FgHiBlack)
	gray.Fprintf(out, "    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Logging)

	printStartup(out, configPath, cfg)

	logger.Info("starting microshop",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"identity_backend", cfg.Auth.IdentityBackend,
		"session_backend", cfg.Auth.SessionBackend,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

func printStartup(out io.Writer, configPath string, cfg *config.Config) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	line := func(label, value string) {
		green.Fprint(out, "    ▶ ")
		fmt.Fprintf(out, "%-10s %s\n", label+":", value)
	}

	line("Config", configPath)
	line("HTTP", cfg.Server.HTTPAddr)
	line("Database", cfg.Database.Path)
	line("Identities", cfg.Auth.IdentityBackend)
	line("Sessions", cfg.Auth.SessionBackend)
	if cfg.Metrics.Enabled {
		line("Metrics", cfg.Metrics.Path)
	}
	if cfg.Auth.SessionTTL == 0 {
		yellow.Fprintln(out, "    ! sessions never expire (auth.session_ttl is 0)")
	}

	fmt.Fprintln(out)
}
