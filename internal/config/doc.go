// Package config handles configuration loading for microshop.
//
// # Configuration File
//
// The file location is resolved by the CLI (in order):
//
//  1. The --config flag
//  2. MICROSHOP_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/microshop/config.yaml (~/.config/microshop/config.yaml)
//
// Files ending in .toml are decoded as TOML; anything else is YAML.
//
// # Environment Variable Expansion
//
// Values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${MICROSHOP_JWT_SECRET}"
//
// Unset variables expand to the empty string.
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:8000"
//	  read_header_timeout: "10s"
//
//	database:
//	  path: "./microshop.db"      # ":memory:" for a throwaway database
//
//	auth:
//	  jwt_secret: "${MICROSHOP_JWT_SECRET}"   # at least 32 bytes
//	  access_token_ttl: "15m"
//	  session_ttl: "24h"                      # "0s" keeps sessions until logout
//	  bcrypt_cost: 10
//	  identity_backend: "memory"              # memory, sqlite
//	  session_backend: "memory"               # memory, sqlite
//	  users:
//	    - username: "john"
//	      password: "password"
//	      email: "john@mail.ru"
//	  static_tokens:
//	    5f47246483c6f6da4a86538c8df7abcf: "password"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
//
// When auth.users is empty the demo identities from DefaultUsers are seeded, and
// when auth.static_tokens is absent DefaultStaticTokens is used.
package config
