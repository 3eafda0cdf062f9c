// ABOUTME: Authentication error taxonomy and rejection reasons
// ABOUTME: Sentinel errors identify the failure; Reason is the stable label used on the wire and in metrics

package auth

import "errors"

// Authentication errors. All are terminal for the request.
var (
	ErrUnknownPrincipal   = errors.New("unknown principal")
	ErrBadSecret          = errors.New("bad secret")
	ErrInactiveAccount    = errors.New("inactive account")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrSessionNotFound    = errors.New("session not found")
	ErrMissingCredentials = errors.New("missing credentials")
)

// Reason classifies a rejection.
type Reason string

// Rejection reasons. Unknown principals and bad passwords share ReasonBadCredentials
// so that responses do not reveal which usernames exist.
const (
	ReasonBadCredentials     Reason = "bad_credentials"
	ReasonInactive           Reason = "inactive"
	ReasonInvalidToken       Reason = "invalid_token"
	ReasonUnknownSubject     Reason = "unknown_subject"
	ReasonSessionNotFound    Reason = "session_not_found"
	ReasonMissingCredentials Reason = "missing_credentials"

	// ReasonInternal marks a failed identity or session backend. The request
	// is still refused, but the client sees a server error.
	ReasonInternal Reason = "internal_error"
)
