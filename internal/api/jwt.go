// ABOUTME: JWT login and current-user handlers under /jwt
// ABOUTME: Login takes form credentials and returns a bearer token

package api

import (
	"net/http"

	"github.com/Alex-Zverr/microshop/internal/auth"
)

// TokenInfo is the response of POST /jwt/login/.
type TokenInfo struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// meResponse is the response of GET /jwt/users/me/.
type meResponse struct {
	Username   string  `json:"username"`
	Email      *string `json:"email"`
	LoggedInAt int64   `json:"logged_in_at"`
}

// handleJWTLogin verifies form credentials and issues an access token.
func (a *API) handleJWTLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		sendJSONError(w, http.StatusUnprocessableEntity, "invalid form body")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		sendJSONError(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	token, res, err := auth.Issue(r.Context(), a.basic, a.codec,
		auth.Credential{Username: username, Secret: password}, a.accessTokenTTL)
	a.metrics.Observe(auth.SchemeBasic, res)
	if err != nil {
		a.internalError(w, "failed to issue token", err)
		return
	}
	if !res.OK() {
		sendJSONError(w, auth.StatusFor(res.Reason), auth.MessageFor(auth.SchemeBasic, res.Reason))
		return
	}

	a.logger.Info("issued access token", "username", res.Auth.Handle)
	writeJSON(w, http.StatusOK, TokenInfo{AccessToken: token, TokenType: "Bearer"})
}

// handleJWTMe returns the bearer's identity and the token's issue time.
func (a *API) handleJWTMe(w http.ResponseWriter, r *http.Request) {
	ac := auth.MustFromContext(r.Context())
	writeJSON(w, http.StatusOK, meResponse{
		Username:   ac.Identity.Handle,
		Email:      ac.Identity.Email,
		LoggedInAt: ac.Claims.IssuedAt.Unix(),
	})
}
