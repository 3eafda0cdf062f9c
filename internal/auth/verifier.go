// ABOUTME: Verifier interface shared by the four authentication strategies
// ABOUTME: Defines schemes, extracted credentials, and the authenticated-or-rejected Result

package auth

import (
	"context"
	"net/http"
)

// Scheme names an authentication strategy.
type Scheme string

// Supported schemes.
const (
	SchemeBasic       Scheme = "basic"
	SchemeStaticToken Scheme = "static_token"
	SchemeCookie      Scheme = "cookie"
	SchemeBearer      Scheme = "bearer"
)

// Credential is the raw material a Verifier extracted from a request.
// Basic uses Username and Secret; the other schemes use Secret only.
type Credential struct {
	Username string
	Secret   string
}

// Verifier authenticates one kind of credential.
type Verifier interface {
	Scheme() Scheme
	// Extract pulls the credential from the request. It reports false when none is present.
	Extract(r *http.Request) (Credential, bool)
	// Verify checks the credential. It never panics and returns a terminal Result.
	Verify(ctx context.Context, cred Credential) Result
}

// Result is either authenticated, with Auth set, or rejected, with Reason and Err set.
type Result struct {
	Auth   *AuthContext
	Reason Reason
	Err    error
}

// Authenticated builds a successful Result.
func Authenticated(ac *AuthContext) Result {
	return Result{Auth: ac}
}

// Rejected builds a failed Result.
func Rejected(reason Reason, err error) Result {
	return Result{Reason: reason, Err: err}
}

// OK reports whether the result is authenticated.
func (r Result) OK() bool {
	return r.Auth != nil
}

// Authenticate runs v against a request: extract, then verify.
// A request without a credential is rejected with ReasonMissingCredentials.
func Authenticate(r *http.Request, v Verifier) Result {
	cred, ok := v.Extract(r)
	if !ok {
		return Rejected(ReasonMissingCredentials, ErrMissingCredentials)
	}
	return v.Verify(r.Context(), cred)
}
