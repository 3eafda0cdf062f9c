// ABOUTME: HTTP Basic username/password strategy
// ABOUTME: Unknown users and wrong passwords are indistinguishable outside the logs

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// dummyVerifier is implemented by hashers that can spend the cost of a
// verification without a real hash.
type dummyVerifier interface {
	VerifyDummy(password string) bool
}

// BasicVerifier checks a username and password against an IdentityStore.
type BasicVerifier struct {
	identities IdentityStore
	hasher     PasswordHasher
	logger     *slog.Logger
}

// NewBasicVerifier creates a Basic strategy.
func NewBasicVerifier(identities IdentityStore, hasher PasswordHasher, logger *slog.Logger) *BasicVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &BasicVerifier{
		identities: identities,
		hasher:     hasher,
		logger:     logger.With("component", "auth.basic"),
	}
}

// Scheme returns SchemeBasic.
func (v *BasicVerifier) Scheme() Scheme { return SchemeBasic }

// Extract reads the Authorization: Basic header.
func (v *BasicVerifier) Extract(r *http.Request) (Credential, bool) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return Credential{}, false
	}
	return Credential{Username: username, Secret: password}, true
}

// Verify rejects unknown users and wrong passwords with ReasonBadCredentials,
// inactive users with ReasonInactive, and backend failures with ReasonInternal.
func (v *BasicVerifier) Verify(ctx context.Context, cred Credential) Result {
	id, err := v.identities.FindByHandle(ctx, cred.Username)
	if err != nil && !errors.Is(err, ErrUnknownPrincipal) {
		v.logger.Error("identity lookup failed", "error", err)
		return Rejected(ReasonInternal, err)
	}
	if err != nil {
		if dv, ok := v.hasher.(dummyVerifier); ok {
			dv.VerifyDummy(cred.Secret)
		}
		v.logger.Debug("basic auth rejected", "username", cred.Username, "error", ErrUnknownPrincipal)
		return Rejected(ReasonBadCredentials, ErrUnknownPrincipal)
	}

	if !v.hasher.Verify(cred.Secret, id.PasswordHash) {
		v.logger.Debug("basic auth rejected", "username", cred.Username, "error", ErrBadSecret)
		return Rejected(ReasonBadCredentials, ErrBadSecret)
	}

	if !id.Active {
		v.logger.Info("basic auth rejected", "username", cred.Username, "error", ErrInactiveAccount)
		return Rejected(ReasonInactive, ErrInactiveAccount)
	}

	return Authenticated(&AuthContext{Scheme: SchemeBasic, Handle: id.Handle, Identity: id})
}
