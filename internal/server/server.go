// ABOUTME: Server orchestrator that wires config, store, auth, and HTTP routes
// ABOUTME: Manages the HTTP listener, health endpoints, metrics, and shutdown lifecycle

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Alex-Zverr/microshop/internal/api"
	"github.com/Alex-Zverr/microshop/internal/auth"
	"github.com/Alex-Zverr/microshop/internal/config"
	"github.com/Alex-Zverr/microshop/internal/store"
)

// sessionSweepInterval is how often expired rows are purged from the sessions table.
const sessionSweepInterval = time.Minute

// Server runs the microshop HTTP API.
type Server struct {
	config     *config.Config
	store      *store.SQLiteStore
	sessions   auth.SessionRegistry
	codec      *auth.JWTCodec
	httpServer *http.Server
	registry   *prometheus.Registry
	logger     *slog.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a Server with the given configuration. The database is opened
// and identities are seeded before New returns.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s, err := store.NewSQLiteStore(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	srv, err := newWithStore(cfg, s, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return srv, nil
}

func newWithStore(cfg *config.Config, s *store.SQLiteStore, logger *slog.Logger) (*Server, error) {
	ctx := context.Background()

	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("creating password hasher: %w", err)
	}

	identities, err := seedIdentities(ctx, cfg, s, hasher, logger)
	if err != nil {
		return nil, err
	}

	codec, err := auth.NewJWTCodec([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("creating token codec: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	authMetrics := auth.NewMetrics(registry)
	httpMetrics := api.NewMetrics(registry)

	srv := &Server{
		config:   cfg,
		store:    s,
		codec:    codec,
		registry: registry,
		logger:   logger.With("component", "server"),
		done:     make(chan struct{}),
	}

	switch cfg.Auth.SessionBackend {
	case config.BackendSQLite:
		srv.sessions = auth.NewStoreSessionRegistry(s, cfg.Auth.SessionTTL)
		if cfg.Auth.SessionTTL > 0 {
			srv.wg.Add(1)
			go srv.sweepSessions(sessionSweepInterval)
		}
	default:
		srv.sessions = auth.NewMemorySessionRegistry(cfg.Auth.SessionTTL)
	}

	basic := auth.NewBasicVerifier(identities, hasher, logger)
	a := api.New(api.Config{
		Store:          s,
		Basic:          basic,
		StaticToken:    auth.NewStaticTokenVerifier(auth.NewStaticTokenTable(cfg.Auth.StaticTokens)),
		Cookie:         auth.NewCookieVerifier(basic, srv.sessions, authMetrics, logger),
		Bearer:         auth.NewBearerVerifier(codec, identities, logger),
		Codec:          codec,
		AccessTokenTTL: cfg.Auth.AccessTokenTTL,
		Metrics:        authMetrics,
		Logger:         logger,
	})

	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("GET /health", srv.handleHealth)
	mux.HandleFunc("GET /health/ready", srv.handleReady)

	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
		logger.Info("metrics enabled", "path", cfg.Metrics.Path)
	}

	a.Register(mux)

	srv.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.LoggingMiddleware(logger, httpMetrics)(mux),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	return srv, nil
}

// seedIdentities hashes the configured users and builds the identity backend.
// With the sqlite backend existing rows keep their password and only the active flag is synced.
func seedIdentities(ctx context.Context, cfg *config.Config, s *store.SQLiteStore, hasher auth.PasswordHasher, logger *slog.Logger) (auth.IdentityStore, error) {
	identities := make([]*auth.Identity, 0, len(cfg.Auth.Users))
	for _, u := range cfg.Auth.Users {
		hash := u.PasswordHash
		if hash == "" {
			var err error
			hash, err = hasher.Hash(u.Password)
			if err != nil {
				return nil, fmt.Errorf("hashing password for %q: %w", u.Username, err)
			}
		}
		id := &auth.Identity{Handle: u.Username, PasswordHash: hash, Active: u.IsActive()}
		if u.Email != "" {
			email := u.Email
			id.Email = &email
		}
		identities = append(identities, id)
	}

	if cfg.Auth.IdentityBackend != config.BackendSQLite {
		logger.Info("identities loaded", "backend", config.BackendMemory, "count", len(identities))
		return auth.NewMemoryIdentityStore(identities...), nil
	}

	for _, id := range identities {
		created, err := s.EnsureUser(ctx, auth.UserFromIdentity(id))
		if err != nil {
			return nil, fmt.Errorf("seeding user %q: %w", id.Handle, err)
		}
		if !created {
			if err := s.SetUserActive(ctx, id.Handle, id.Active); err != nil {
				return nil, fmt.Errorf("syncing user %q: %w", id.Handle, err)
			}
		}
	}
	logger.Info("identities seeded", "backend", config.BackendSQLite, "count", len(identities))
	return auth.NewStoreIdentities(s), nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Codec returns the token codec used to sign access tokens.
func (s *Server) Codec() *auth.JWTCodec {
	return s.codec
}

// sweepSessions purges expired database sessions until Shutdown.
func (s *Server) sweepSessions(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := s.store.DeleteExpiredSessions(context.Background())
			if err != nil {
				s.logger.Warn("failed to purge expired sessions", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Debug("purged expired sessions", "count", n)
			}
		case <-s.done:
			return
		}
	}
}

// startServer serves HTTP in a goroutine, returning an error channel.
func (s *Server) startServer(ln net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// waitForShutdownSignal waits for context cancellation or server error.
func (s *Server) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		s.logger.Error("server error", "error", err)
		return err
	}
}

// Run listens on the configured address and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		_ = s.gracefulShutdown()
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := s.startServer(ln)
	serverErr := s.waitForShutdownSignal(ctx, errCh)

	shutdownErr := s.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server, background workers, and the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))

	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		if m, ok := s.sessions.(*auth.MemorySessionRegistry); ok {
			m.Close()
		}
		errs = appendCloseError(errs, "store close", s.store.Close())
	})

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the database answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("database unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
