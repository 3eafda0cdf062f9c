// ABOUTME: Session cookie strategy
// ABOUTME: Login runs Basic verification and mints a session; requests resolve the cookie through the registry

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Alex-Zverr/microshop/internal/store"
)

// SessionCookieName is the cookie carrying the session ID.
const SessionCookieName = "web-app-session-id"

// CookieVerifier authenticates requests by session cookie.
type CookieVerifier struct {
	basic    *BasicVerifier
	sessions SessionRegistry
	metrics  *Metrics
	logger   *slog.Logger
}

// NewCookieVerifier creates a cookie strategy. basic is used by Login, and its
// identity store resolves session handles.
func NewCookieVerifier(basic *BasicVerifier, sessions SessionRegistry, metrics *Metrics, logger *slog.Logger) *CookieVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &CookieVerifier{
		basic:    basic,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger.With("component", "auth.cookie"),
	}
}

// Scheme returns SchemeCookie.
func (v *CookieVerifier) Scheme() Scheme { return SchemeCookie }

// Extract reads the session cookie.
func (v *CookieVerifier) Extract(r *http.Request) (Credential, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return Credential{}, false
	}
	return Credential{Secret: c.Value}, true
}

// Verify resolves the session ID, then the session's handle. Unknown and expired
// sessions are rejected alike, as are sessions whose handle no longer exists.
// A session of an inactive account is rejected with ReasonInactive.
func (v *CookieVerifier) Verify(ctx context.Context, cred Credential) Result {
	session, err := v.sessions.Lookup(ctx, cred.Secret)
	if errors.Is(err, ErrSessionNotFound) {
		return Rejected(ReasonSessionNotFound, ErrSessionNotFound)
	}
	if err != nil {
		v.logger.Error("session lookup failed", "error", err)
		return Rejected(ReasonInternal, err)
	}

	id, err := v.basic.identities.FindByHandle(ctx, session.Username)
	if errors.Is(err, ErrUnknownPrincipal) {
		v.logger.Info("session handle not found", "username", session.Username)
		return Rejected(ReasonSessionNotFound, ErrSessionNotFound)
	}
	if err != nil {
		v.logger.Error("identity lookup failed", "error", err)
		return Rejected(ReasonInternal, err)
	}
	if !id.Active {
		v.logger.Info("session handle inactive", "username", session.Username)
		return Rejected(ReasonInactive, ErrInactiveAccount)
	}

	return Authenticated(&AuthContext{Scheme: SchemeCookie, Handle: id.Handle, Identity: id, Session: session})
}

// Login verifies Basic credentials and, on success, creates a session.
// A rejected Result is returned with a nil session.
func (v *CookieVerifier) Login(ctx context.Context, cred Credential) (*store.Session, Result, error) {
	res := v.basic.Verify(ctx, cred)
	if !res.OK() {
		return nil, res, nil
	}

	session, err := v.sessions.Create(ctx, res.Auth.Handle)
	if err != nil {
		return nil, res, fmt.Errorf("creating session: %w", err)
	}
	v.metrics.SessionCreated()
	v.logger.Info("session created", "username", session.Username)

	res.Auth.Scheme = SchemeCookie
	res.Auth.Session = session
	return session, res, nil
}

// Logout invalidates the session behind an authenticated cookie request.
func (v *CookieVerifier) Logout(ctx context.Context, ac *AuthContext) error {
	if ac == nil || ac.Session == nil {
		return ErrSessionNotFound
	}
	if err := v.sessions.Invalidate(ctx, ac.Session.ID); err != nil {
		return err
	}
	v.logger.Info("session invalidated", "username", ac.Handle)
	return nil
}
