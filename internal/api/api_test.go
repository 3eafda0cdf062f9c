// ABOUTME: Shared test harness for API handlers
// ABOUTME: Builds a real SQLite store, seeded identities, and all four auth strategies behind a ServeMux

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alex-Zverr/microshop/internal/auth"
	"github.com/Alex-Zverr/microshop/internal/store"
)

var testSecret = []byte("api-package-test-secret-32-bytes")

type testEnv struct {
	handler  http.Handler
	store    *store.SQLiteStore
	codec    *auth.JWTCodec
	sessions *auth.MemorySessionRegistry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	email := "john@mail.ru"
	var ids []*auth.Identity
	for _, seed := range []struct {
		handle, password string
		active           bool
	}{
		{"admin", "admin", true},
		{"john", "password", true},
		{"sam", "secret", true},
		{"guest", "guest", false},
	} {
		hash, err := hasher.Hash(seed.password)
		require.NoError(t, err)
		id := &auth.Identity{Handle: seed.handle, PasswordHash: hash, Active: seed.active}
		if seed.handle == "john" {
			id.Email = &email
		}
		ids = append(ids, id)
	}
	identities := auth.NewMemoryIdentityStore(ids...)

	codec, err := auth.NewJWTCodec(testSecret)
	require.NoError(t, err)

	sessions := auth.NewMemorySessionRegistry(time.Hour)
	t.Cleanup(sessions.Close)

	basic := auth.NewBasicVerifier(identities, hasher, logger)
	a := New(Config{
		Store: st,
		Basic: basic,
		StaticToken: auth.NewStaticTokenVerifier(auth.NewStaticTokenTable(map[string]string{
			"b615d6fa5195d21dcb198fe14db8e47a": "admin",
			"5f47246483c6f6da4a86538c8df7abcf": "password",
		})),
		Cookie:         auth.NewCookieVerifier(basic, sessions, nil, logger),
		Bearer:         auth.NewBearerVerifier(codec, identities, logger),
		Codec:          codec,
		AccessTokenTTL: 15 * time.Minute,
		Logger:         logger,
	})

	mux := http.NewServeMux()
	a.Register(mux)

	return &testEnv{
		handler:  LoggingMiddleware(logger, nil)(mux),
		store:    st,
		codec:    codec,
		sessions: sessions,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

func (e *testEnv) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rec)["detail"]
}
