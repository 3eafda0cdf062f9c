// ABOUTME: Shared fixtures for auth tests
// ABOUTME: Builds a low-cost hasher and the demo identity set

package auth

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testSecret is a 32-byte secret that meets MinSecretLength.
var testSecret = []byte("auth-package-test-secret-32-byte")

// testPasswords are the plaintexts of the seeded test identities.
var testPasswords = map[string]string{
	"admin": "admin",
	"john":  "password",
	"sam":   "secret",
	"guest": "guest",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHasher(t *testing.T) *BcryptHasher {
	t.Helper()
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func newTestCodec(t *testing.T) *JWTCodec {
	t.Helper()
	c, err := NewJWTCodec(testSecret)
	require.NoError(t, err)
	return c
}

// newTestIdentities seeds admin, john (with email), sam, and the inactive guest.
func newTestIdentities(t *testing.T, h PasswordHasher) *MemoryIdentityStore {
	t.Helper()
	email := "john@mail.ru"

	var ids []*Identity
	for _, handle := range []string{"admin", "john", "sam", "guest"} {
		hash, err := h.Hash(testPasswords[handle])
		require.NoError(t, err)
		id := &Identity{Handle: handle, PasswordHash: hash, Active: handle != "guest"}
		if handle == "john" {
			id.Email = &email
		}
		ids = append(ids, id)
	}
	return NewMemoryIdentityStore(ids...)
}
