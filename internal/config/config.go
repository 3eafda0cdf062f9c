// ABOUTME: Configuration loading and parsing for microshop
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// MinJWTSecretLength is the minimum accepted length of auth.jwt_secret in bytes.
const MinJWTSecretLength = 32

// Backend names accepted by auth.identity_backend and auth.session_backend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Defaults applied by Load when a field is left empty.
const (
	DefaultHTTPAddr          = "127.0.0.1:8000"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultAccessTokenTTL    = 15 * time.Minute
	DefaultSessionTTL        = 24 * time.Hour
	DefaultMetricsPath       = "/metrics"
)

// Config represents the complete microshop configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Auth     AuthConfig     `yaml:"auth" toml:"auth"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" toml:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr          string        `yaml:"http_addr" toml:"http_addr"`
	ReadHeaderTimeout time.Duration `yaml:"-" toml:"-"`

	ReadHeaderTimeoutRaw string `yaml:"read_header_timeout" toml:"read_header_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" toml:"jwt_secret"`

	// BcryptCost is the work factor used when hashing seeded passwords.
	// Zero means bcrypt.DefaultCost.
	BcryptCost int `yaml:"bcrypt_cost" toml:"bcrypt_cost"`

	// IdentityBackend selects where identities are looked up: "memory" or "sqlite".
	IdentityBackend string `yaml:"identity_backend" toml:"identity_backend"`
	// SessionBackend selects where cookie sessions live: "memory" or "sqlite".
	SessionBackend string `yaml:"session_backend" toml:"session_backend"`

	AccessTokenTTL time.Duration `yaml:"-" toml:"-"`
	// SessionTTL of zero keeps sessions until they are invalidated.
	SessionTTL time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	AccessTokenTTLRaw string `yaml:"access_token_ttl" toml:"access_token_ttl"`
	SessionTTLRaw     string `yaml:"session_ttl" toml:"session_ttl"`

	// Users is the identity seed set. When empty, DefaultUsers is used.
	Users []UserSeed `yaml:"users" toml:"users"`

	// StaticTokens maps opaque header tokens to the principal they authenticate.
	// When nil, DefaultStaticTokens is used.
	StaticTokens map[string]string `yaml:"static_tokens" toml:"static_tokens"`
}

// UserSeed describes one identity created at startup.
// Exactly one of Password (plaintext, hashed on load) or PasswordHash must be set.
type UserSeed struct {
	Username     string `yaml:"username" toml:"username"`
	Password     string `yaml:"password" toml:"password"`
	PasswordHash string `yaml:"password_hash" toml:"password_hash"`
	Email        string `yaml:"email" toml:"email"`
	Active       *bool  `yaml:"active" toml:"active"`
}

// IsActive reports whether the seeded identity is active. Active defaults to true.
func (u UserSeed) IsActive() bool {
	return u.Active == nil || *u.Active
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// DefaultUsers returns the demo identity seed set.
func DefaultUsers() []UserSeed {
	inactive := false
	return []UserSeed{
		{Username: "admin", Password: "admin"},
		{Username: "john", Password: "password", Email: "john@mail.ru"},
		{Username: "sam", Password: "secret"},
		{Username: "guest", Password: "guest", Active: &inactive},
	}
}

// DefaultStaticTokens returns the demo static token table.
func DefaultStaticTokens() map[string]string {
	return map[string]string{
		"b615d6fa5195d21dcb198fe14db8e47a": "admin",
		"5f47246483c6f6da4a86538c8df7abcf": "password",
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are parsed as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data, formatFromPath(path))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes raw configuration data in the given format ("yaml" or "toml"),
// then applies defaults and validates the result.
func Parse(data []byte, format string) (*Config, error) {
	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	var cfg Config
	switch format {
	case "toml":
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func formatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Server.ReadHeaderTimeoutRaw == "" {
		c.Server.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if c.Auth.AccessTokenTTLRaw == "" {
		c.Auth.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if c.Auth.SessionTTLRaw == "" {
		c.Auth.SessionTTL = DefaultSessionTTL
	}
	if c.Auth.IdentityBackend == "" {
		c.Auth.IdentityBackend = BackendMemory
	}
	if c.Auth.SessionBackend == "" {
		c.Auth.SessionBackend = BackendMemory
	}
	if len(c.Auth.Users) == 0 {
		c.Auth.Users = DefaultUsers()
	}
	if c.Auth.StaticTokens == nil {
		c.Auth.StaticTokens = DefaultStaticTokens()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", MinJWTSecretLength)
	}

	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be positive")
	}
	if c.Auth.SessionTTL < 0 {
		return fmt.Errorf("auth.session_ttl must not be negative")
	}

	for _, b := range []struct{ name, value string }{
		{"auth.identity_backend", c.Auth.IdentityBackend},
		{"auth.session_backend", c.Auth.SessionBackend},
	} {
		if b.value != BackendMemory && b.value != BackendSQLite {
			return fmt.Errorf("%s must be %q or %q, got %q", b.name, BackendMemory, BackendSQLite, b.value)
		}
	}

	seen := make(map[string]bool, len(c.Auth.Users))
	for i, u := range c.Auth.Users {
		if u.Username == "" {
			return fmt.Errorf("auth.users[%d].username is required", i)
		}
		if seen[u.Username] {
			return fmt.Errorf("auth.users[%d]: duplicate username %q", i, u.Username)
		}
		seen[u.Username] = true
		if (u.Password == "") == (u.PasswordHash == "") {
			return fmt.Errorf("auth.users[%d]: exactly one of password or password_hash is required", i)
		}
	}

	for token, principal := range c.Auth.StaticTokens {
		if token == "" || principal == "" {
			return fmt.Errorf("auth.static_tokens entries must have a non-empty token and principal")
		}
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with \"/\", got %q", c.Metrics.Path)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"read_header_timeout", cfg.Server.ReadHeaderTimeoutRaw, &cfg.Server.ReadHeaderTimeout},
		{"access_token_ttl", cfg.Auth.AccessTokenTTLRaw, &cfg.Auth.AccessTokenTTL},
		{"session_ttl", cfg.Auth.SessionTTLRaw, &cfg.Auth.SessionTTL},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
