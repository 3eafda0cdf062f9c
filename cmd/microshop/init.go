// ABOUTME: init subcommand: writes a starter config with a random JWT secret
// ABOUTME: Refuses to overwrite an existing file unless --force is given

package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Alex-Zverr/microshop/internal/config"
)

type initConfig struct {
	force  bool
	dbPath string
}

// NewInitCmd creates the init subcommand.
func NewInitCmd() *cobra.Command {
	cfg := &initConfig{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new config file",
		Long: `Create a config file with a freshly generated JWT secret and the demo users.
The file is written to the --config path or the default location.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.force, "force", false, "overwrite an existing config file")
	cmd.Flags().StringVar(&cfg.dbPath, "db", "", "database path (default: data dir/microshop.db)")

	return cmd
}

func runInit(out io.Writer, cfg *initConfig) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil && !cfg.force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", configPath)
	}

	dbPath := cfg.dbPath
	if dbPath == "" {
		dbPath = filepath.Join(getDataPath(), "microshop.db")
	}

	secret, err := generateSecret()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	content := fmt.Sprintf(`# microshop configuration
# Generated by microshop init

server:
  http_addr: %q

database:
  path: %q

auth:
  jwt_secret: %q
  access_token_ttl: %q
  session_ttl: %q
  identity_backend: "memory"
  session_backend: "memory"

logging:
  level: "info"
  format: "text"

metrics:
  enabled: true
  path: %q
`, config.DefaultHTTPAddr, dbPath, secret,
		config.DefaultAccessTokenTTL.String(), config.DefaultSessionTTL.String(), config.DefaultMetricsPath)

	// The generated file must pass the same validation as Load
	if _, err := config.Parse([]byte(content), "yaml"); err != nil {
		return fmt.Errorf("generated config is invalid: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Fprint(out, "  ✓ ")
	fmt.Fprintf(out, "Created config: %s\n", configPath)
	green.Fprint(out, "  ✓ ")
	fmt.Fprintf(out, "Database:       %s\n", dbPath)
	return nil
}

// generateSecret returns 32 random bytes, hex encoded.
func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
