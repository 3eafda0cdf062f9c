// ABOUTME: Static header token strategy
// ABOUTME: The mapped value is the principal; no identity lookup is made

package auth

import (
	"context"
	"net/http"
)

// StaticTokenHeader carries the static token.
const StaticTokenHeader = "static-auth-token"

// StaticTokenVerifier authenticates requests by a pre-shared header token.
type StaticTokenVerifier struct {
	table *StaticTokenTable
}

// NewStaticTokenVerifier creates a static token strategy over table.
func NewStaticTokenVerifier(table *StaticTokenTable) *StaticTokenVerifier {
	return &StaticTokenVerifier{table: table}
}

// Scheme returns SchemeStaticToken.
func (v *StaticTokenVerifier) Scheme() Scheme { return SchemeStaticToken }

// Extract reads the static-auth-token header.
func (v *StaticTokenVerifier) Extract(r *http.Request) (Credential, bool) {
	token := r.Header.Get(StaticTokenHeader)
	if token == "" {
		return Credential{}, false
	}
	return Credential{Secret: token}, true
}

// Verify maps the token to its principal.
func (v *StaticTokenVerifier) Verify(_ context.Context, cred Credential) Result {
	principal, ok := v.table.Lookup(cred.Secret)
	if !ok {
		return Rejected(ReasonInvalidToken, ErrInvalidToken)
	}
	return Authenticated(&AuthContext{Scheme: SchemeStaticToken, Handle: principal})
}
