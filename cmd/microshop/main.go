// ABOUTME: Entry point for the microshop demo API server
// ABOUTME: Builds the cobra command tree and resolves the config file path

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
)

const banner = `
           _                     _
 _ __ ___ (_) ___ _ __ ___  ___| |__   ___  _ __
| '_ ' _ \| |/ __| '__/ _ \/ __| '_ \ / _ \| '_ \
| | | | | | | (__| | | (_) \__ \ | | | (_) | |_) |
|_| |_| |_|_|\___|_|  \___/|___/_| |_|\___/| .__/
                                           |_|
`

// configFile is the --config flag shared by all subcommands.
var configFile string

// NewRootCmd creates the root command for the microshop CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "microshop",
		Short: "microshop - demo shop API with four authentication schemes",
		Long: `microshop serves a small shop API (users, posts, products, orders)
and demonstrates HTTP Basic, static header token, cookie session and JWT bearer auth.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHashPasswordCmd())
	cmd.AddCommand(NewTokenCmd())
	cmd.AddCommand(NewHealthCmd())

	return cmd
}

// getConfigPath returns the path to the config file.
// Priority: --config flag > MICROSHOP_CONFIG env var > XDG_CONFIG_HOME/microshop/config.yaml > ~/.config/microshop/config.yaml
func getConfigPath() string {
	if configFile != "" {
		return configFile
	}
	if envPath := os.Getenv("MICROSHOP_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "microshop", "config.yaml")
}

// getDataPath returns the microshop data directory.
// Priority: XDG_DATA_HOME/microshop > ~/.local/share/microshop
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "microshop")
}

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
