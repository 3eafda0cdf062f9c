// ABOUTME: Bearer JWT strategy
// ABOUTME: Decode, then resolve the subject, then require an active account

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// BearerVerifier authenticates requests by a signed access token.
type BearerVerifier struct {
	codec      *JWTCodec
	identities IdentityStore
	logger     *slog.Logger
}

// NewBearerVerifier creates a bearer strategy.
func NewBearerVerifier(codec *JWTCodec, identities IdentityStore, logger *slog.Logger) *BearerVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &BearerVerifier{
		codec:      codec,
		identities: identities,
		logger:     logger.With("component", "auth.bearer"),
	}
}

// Scheme returns SchemeBearer.
func (v *BearerVerifier) Scheme() Scheme { return SchemeBearer }

// Extract reads the Authorization: Bearer header.
func (v *BearerVerifier) Extract(r *http.Request) (Credential, bool) {
	token, ok := extractBearerToken(r.Header.Get("Authorization"))
	if !ok {
		return Credential{}, false
	}
	return Credential{Secret: token}, true
}

// extractBearerToken extracts a bearer token from the Authorization header.
// The scheme name is matched case-insensitively.
func extractBearerToken(authHeader string) (string, bool) {
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// Verify runs the three stages. Each stage fails with its own reason.
func (v *BearerVerifier) Verify(ctx context.Context, cred Credential) Result {
	claims, err := v.codec.Decode(cred.Secret)
	if err != nil {
		v.logger.Debug("bearer token rejected", "error", err)
		return Rejected(ReasonInvalidToken, err)
	}

	id, err := v.identities.FindByHandle(ctx, claims.Subject)
	if err != nil && !errors.Is(err, ErrUnknownPrincipal) {
		v.logger.Error("identity lookup failed", "error", err)
		return Rejected(ReasonInternal, err)
	}
	if err != nil {
		v.logger.Info("bearer subject not found", "sub", claims.Subject)
		return Rejected(ReasonUnknownSubject, ErrUnknownPrincipal)
	}

	if !id.Active {
		v.logger.Info("bearer subject inactive", "sub", claims.Subject)
		return Rejected(ReasonInactive, ErrInactiveAccount)
	}

	return Authenticated(&AuthContext{Scheme: SchemeBearer, Handle: id.Handle, Identity: id, Claims: claims})
}

// Issue verifies Basic credentials and returns a signed access token on success.
// A rejected Result is returned with an empty token.
func Issue(ctx context.Context, basic *BasicVerifier, codec *JWTCodec, cred Credential, expiresIn time.Duration) (string, Result, error) {
	res := basic.Verify(ctx, cred)
	if !res.OK() {
		return "", res, nil
	}
	token, err := codec.Encode(NewClaims(res.Auth.Identity), expiresIn)
	if err != nil {
		return "", res, err
	}
	return token, res, nil
}
