// ABOUTME: token subcommands: issue and decode JWT access tokens offline
// ABOUTME: Uses the configured secret so tokens are accepted by a running server

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alex-Zverr/microshop/internal/auth"
	"github.com/Alex-Zverr/microshop/internal/config"
)

// NewTokenCmd creates the token command group.
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue or decode JWT access tokens",
	}
	cmd.AddCommand(newTokenIssueCmd())
	cmd.AddCommand(newTokenDecodeCmd())
	return cmd
}

type tokenIssueConfig struct {
	user string
	ttl  time.Duration
}

func newTokenIssueCmd() *cobra.Command {
	cfg := &tokenIssueConfig{}

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an access token for a configured user",
		Long: `Issue an access token for a user listed in auth.users without checking the password.
The token is signed with auth.jwt_secret.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTokenIssue(cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.user, "user", "", "username to issue the token for")
	cmd.Flags().DurationVar(&cfg.ttl, "ttl", 0, "token lifetime (default: auth.access_token_ttl)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runTokenIssue(out io.Writer, opts *tokenIssueConfig) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var seed *config.UserSeed
	for i := range cfg.Auth.Users {
		if cfg.Auth.Users[i].Username == opts.user {
			seed = &cfg.Auth.Users[i]
			break
		}
	}
	if seed == nil {
		return fmt.Errorf("user %q is not configured", opts.user)
	}
	if !seed.IsActive() {
		return fmt.Errorf("user %q is inactive", opts.user)
	}

	codec, err := auth.NewJWTCodec([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return err
	}

	id := &auth.Identity{Handle: seed.Username, Active: true}
	if seed.Email != "" {
		email := seed.Email
		id.Email = &email
	}

	ttl := opts.ttl
	if ttl == 0 {
		ttl = cfg.Auth.AccessTokenTTL
	}

	token, err := codec.Encode(auth.NewClaims(id), ttl)
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}
	fmt.Fprintln(out, token)
	return nil
}

func newTokenDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token>",
		Short: "Verify a token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenDecode(cmd.OutOrStdout(), args[0])
		},
	}
}

func runTokenDecode(out io.Writer, token string) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	codec, err := auth.NewJWTCodec([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return err
	}

	claims, err := codec.Decode(token)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(claims)
}
