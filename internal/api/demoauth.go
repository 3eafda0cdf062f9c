// ABOUTME: Demo authentication handlers under /demo-auth
// ABOUTME: Basic credentials, static header token, and cookie session login/check/logout

package api

import (
	"net/http"

	"github.com/Alex-Zverr/microshop/internal/auth"
)

// greetingResponse is returned by the demo endpoints.
type greetingResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// sessionResponse is returned by GET /demo-auth/check-cookie.
type sessionResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	LoginAt  int64  `json:"login_at"`
}

// handleBasicAuthCredentials echoes the Basic username without checking the password.
func (a *API) handleBasicAuthCredentials(w http.ResponseWriter, r *http.Request) {
	cred, ok := a.basic.Extract(r)
	if !ok {
		auth.WriteRejection(w, auth.SchemeBasic, auth.Rejected(auth.ReasonMissingCredentials, auth.ErrMissingCredentials))
		return
	}
	writeJSON(w, http.StatusOK, greetingResponse{Message: "Hi!", Username: cred.Username})
}

// handleGreeting greets the authenticated principal.
func (a *API) handleGreeting(w http.ResponseWriter, r *http.Request) {
	ac := auth.MustFromContext(r.Context())
	writeJSON(w, http.StatusOK, greetingResponse{
		Message:  "Hi, " + ac.Handle,
		Username: ac.Handle,
	})
}

// handleLoginCookie checks Basic credentials and sets the session cookie.
func (a *API) handleLoginCookie(w http.ResponseWriter, r *http.Request) {
	cred, ok := a.basic.Extract(r)
	if !ok {
		res := auth.Rejected(auth.ReasonMissingCredentials, auth.ErrMissingCredentials)
		a.metrics.Observe(auth.SchemeBasic, res)
		auth.WriteRejection(w, auth.SchemeBasic, res)
		return
	}

	session, res, err := a.cookie.Login(r.Context(), cred)
	a.metrics.Observe(auth.SchemeBasic, res)
	if err != nil {
		a.internalError(w, "failed to create session", err)
		return
	}
	if !res.OK() {
		auth.WriteRejection(w, auth.SchemeBasic, res)
		return
	}

	cookie := &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if !session.ExpiresAt.IsZero() {
		cookie.Expires = session.ExpiresAt
	}
	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

// handleCheckCookie reports the session behind the cookie.
func (a *API) handleCheckCookie(w http.ResponseWriter, r *http.Request) {
	ac := auth.MustFromContext(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse{
		Message:  "Hello, " + ac.Handle + "!",
		Username: ac.Handle,
		LoginAt:  ac.Session.CreatedAt.Unix(),
	})
}

// handleLogoutCookie invalidates the session and clears the cookie.
func (a *API) handleLogoutCookie(w http.ResponseWriter, r *http.Request) {
	ac := auth.MustFromContext(r.Context())
	if err := a.cookie.Logout(r.Context(), ac); err != nil {
		a.internalError(w, "failed to invalidate session", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bye, " + ac.Handle + "!"})
}
