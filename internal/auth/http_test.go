// ABOUTME: Tests for the Require middleware and rejection responses
// ABOUTME: Covers status mapping, WWW-Authenticate challenges, context propagation, and end-to-end scenarios

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoHandler writes the authenticated handle.
var echoHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	ac := MustFromContext(r.Context())
	_, _ = w.Write([]byte(ac.Handle))
})

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["detail"]
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		reason Reason
		want   int
	}{
		{ReasonBadCredentials, http.StatusUnauthorized},
		{ReasonInvalidToken, http.StatusUnauthorized},
		{ReasonUnknownSubject, http.StatusUnauthorized},
		{ReasonSessionNotFound, http.StatusUnauthorized},
		{ReasonMissingCredentials, http.StatusUnauthorized},
		{ReasonInactive, http.StatusForbidden},
		{ReasonInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.reason), "reason %s", tt.reason)
	}
}

func TestRequire_BackendFailure(t *testing.T) {
	v := NewBasicVerifier(brokenIdentities{}, newTestHasher(t), discardLogger())
	h := Require(v, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run when the identity backend fails")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("john", "password")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, MessageInternal, decodeDetail(t, rec))
}

func TestRequire_Basic(t *testing.T) {
	handler := Require(newTestBasic(t), nil)(echoHandler)

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("admin", "admin")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "admin", rec.Body.String())
	})

	t.Run("bad credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("admin", "nope")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, `Basic realm="microshop"`, rec.Header().Get("WWW-Authenticate"))
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, MessageBadCredentials, decodeDetail(t, rec))
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
		assert.Equal(t, MessageNotAuth, decodeDetail(t, rec))
	})

	t.Run("inactive", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("guest", "guest")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
		assert.Equal(t, MessageInactive, decodeDetail(t, rec))
	})
}

func TestRequire_UnknownUserMatchesWrongPassword(t *testing.T) {
	handler := Require(newTestBasic(t), nil)(echoHandler)

	do := func(user, pass string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth(user, pass)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	unknown := do("nobody", "password")
	wrong := do("john", "wrong")

	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Header(), unknown.Header())
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

// Scenario A: john logs in with the right password and the token decodes to sub=john.
func TestScenario_LoginIssuesToken(t *testing.T) {
	codec := newTestCodec(t)
	token, res, err := Issue(context.Background(), newTestBasic(t), codec,
		Credential{Username: "john", Secret: "password"}, 15*time.Minute)
	require.NoError(t, err)
	require.True(t, res.OK())

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "john", claims.Subject)
}

// Scenario B: a wrong password gets the generic 401.
func TestScenario_LoginWrongPassword(t *testing.T) {
	_, res, err := Issue(context.Background(), newTestBasic(t), newTestCodec(t),
		Credential{Username: "john", Secret: "qwerty"}, 15*time.Minute)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	WriteRejection(rec, SchemeBasic, res)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MessageBadCredentials, decodeDetail(t, rec))
}

// Scenario C: the fixed static token authenticates as "password".
func TestScenario_StaticToken(t *testing.T) {
	table := NewStaticTokenTable(map[string]string{
		"b615d6fa5195d21dcb198fe14db8e47a": "admin",
		"5f47246483c6f6da4a86538c8df7abcf": "password",
	})
	handler := Require(NewStaticTokenVerifier(table), nil)(echoHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(StaticTokenHeader, "5f47246483c6f6da4a86538c8df7abcf")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "password", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(StaticTokenHeader, "not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MessageInvalidToken, decodeDetail(t, rec))
}

// Scenario D: an expired bearer token is a 401.
func TestScenario_ExpiredBearer(t *testing.T) {
	h := newTestHasher(t)
	codec := newTestCodec(t)
	codec.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := codec.Encode(NewClaims(&Identity{Handle: "john"}), time.Minute)
	require.NoError(t, err)
	codec.now = time.Now

	handler := Require(NewBearerVerifier(codec, newTestIdentities(t, h), discardLogger()), nil)(echoHandler)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, MessageInvalidToken, decodeDetail(t, rec))
}

// Scenario E: a valid token for an inactive identity is a 403.
func TestScenario_InactiveBearer(t *testing.T) {
	h := newTestHasher(t)
	codec := newTestCodec(t)
	token, err := codec.Encode(NewClaims(&Identity{Handle: "guest"}), time.Minute)
	require.NoError(t, err)

	handler := Require(NewBearerVerifier(codec, newTestIdentities(t, h), discardLogger()), nil)(echoHandler)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, MessageInactive, decodeDetail(t, rec))
}

// Scenario F: the issued cookie authenticates; an unrelated cookie does not.
func TestScenario_CookieSession(t *testing.T) {
	sessions := NewMemorySessionRegistry(time.Hour)
	defer sessions.Close()
	cookie := NewCookieVerifier(newTestBasic(t), sessions, nil, discardLogger())
	handler := Require(cookie, nil)(echoHandler)

	session, res, err := cookie.Login(context.Background(), Credential{Username: "john", Secret: "password"})
	require.NoError(t, err)
	require.True(t, res.OK())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.ID})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "john", rec.Body.String())

	random, err := generateSessionID()
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: random})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MessageNoSession, decodeDetail(t, rec))
}

func TestRequire_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	handler := Require(newTestBasic(t), metrics)(echoHandler)

	ok := httptest.NewRequest(http.MethodGet, "/", nil)
	ok.SetBasicAuth("john", "password")
	handler.ServeHTTP(httptest.NewRecorder(), ok)

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.SetBasicAuth("john", "nope")
	handler.ServeHTTP(httptest.NewRecorder(), bad)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AttemptsTotal.WithLabelValues("basic", "authenticated", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AttemptsTotal.WithLabelValues("basic", "rejected", "bad_credentials")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AttemptsTotal.WithLabelValues("basic", "rejected", "missing_credentials")))
}

func TestMetrics_SessionCreated(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	sessions := NewMemorySessionRegistry(0)
	defer sessions.Close()
	cookie := NewCookieVerifier(newTestBasic(t), sessions, metrics, discardLogger())

	_, _, err := cookie.Login(context.Background(), Credential{Username: "sam", Secret: "secret"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsCreatedTotal))

	// A nil *Metrics is a no-op
	var none *Metrics
	none.SessionCreated()
	none.Observe(SchemeBasic, Result{})
}
