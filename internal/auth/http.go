// ABOUTME: HTTP middleware and response mapping for authentication results
// ABOUTME: Require runs a Verifier and either attaches the AuthContext or writes a {"detail": ...} error

package auth

import (
	"encoding/json"
	"net/http"
)

// BasicRealm is advertised in WWW-Authenticate challenges.
const BasicRealm = "microshop"

// Wire messages for rejections.
const (
	MessageBadCredentials = "Invalid username or password"
	MessageInactive       = "user inactive"
	MessageInvalidToken   = "token invalid"
	MessageUnknownSubject = "token invalid (user not found)"
	MessageNoSession      = "not authenticated"
	MessageNotAuth        = "Not authenticated"
	MessageInternal       = "internal server error"
)

// StatusFor maps a rejection reason to its HTTP status.
// Inactive accounts are forbidden and backend failures are server errors.
// Every other rejection is unauthorized.
func StatusFor(reason Reason) int {
	switch reason {
	case ReasonInactive:
		return http.StatusForbidden
	case ReasonInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusUnauthorized
	}
}

// MessageFor returns the client-facing message for a rejection.
// Unknown users and wrong passwords share one message.
func MessageFor(scheme Scheme, reason Reason) string {
	switch reason {
	case ReasonBadCredentials:
		return MessageBadCredentials
	case ReasonInactive:
		return MessageInactive
	case ReasonInvalidToken:
		return MessageInvalidToken
	case ReasonUnknownSubject:
		return MessageUnknownSubject
	case ReasonSessionNotFound:
		return MessageNoSession
	case ReasonInternal:
		return MessageInternal
	default:
		if scheme == SchemeCookie {
			return MessageNoSession
		}
		return MessageNotAuth
	}
}

// WriteRejection writes the error response for a rejected Result.
func WriteRejection(w http.ResponseWriter, scheme Scheme, res Result) {
	status := StatusFor(res.Reason)
	if status == http.StatusUnauthorized {
		switch scheme {
		case SchemeBasic:
			w.Header().Set("WWW-Authenticate", `Basic realm="`+BasicRealm+`"`)
		case SchemeBearer:
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
	}
	WriteDetail(w, status, MessageFor(scheme, res.Reason))
}

// WriteDetail writes a JSON {"detail": message} body with the given status.
func WriteDetail(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": message})
}

// Require creates an HTTP middleware that authenticates every request with v.
// Authenticated requests continue with the AuthContext in their context.
func Require(v Verifier, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := Authenticate(r, v)
			metrics.Observe(v.Scheme(), res)
			if !res.OK() {
				WriteRejection(w, v.Scheme(), res)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), res.Auth)))
		})
	}
}
