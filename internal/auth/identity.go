// ABOUTME: Identity records and the stores that resolve them by handle
// ABOUTME: MemoryIdentityStore is seeded once; StoreIdentities reads the SQLite users table

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Alex-Zverr/microshop/internal/store"
)

// Identity is an authenticable principal.
type Identity struct {
	Handle       string
	PasswordHash string
	Email        *string
	Active       bool
}

// IdentityStore resolves identities by handle.
type IdentityStore interface {
	// FindByHandle returns ErrUnknownPrincipal when no identity has the handle.
	FindByHandle(ctx context.Context, handle string) (*Identity, error)
}

// MemoryIdentityStore is an IdentityStore over a fixed map.
// It is read-only after construction and needs no locking.
type MemoryIdentityStore struct {
	identities map[string]*Identity
}

// NewMemoryIdentityStore creates a store holding the given identities.
// Later entries replace earlier ones with the same handle.
func NewMemoryIdentityStore(identities ...*Identity) *MemoryIdentityStore {
	m := make(map[string]*Identity, len(identities))
	for _, id := range identities {
		m[id.Handle] = id
	}
	return &MemoryIdentityStore{identities: m}
}

// FindByHandle returns a copy of the identity so callers cannot mutate the table.
func (s *MemoryIdentityStore) FindByHandle(_ context.Context, handle string) (*Identity, error) {
	id, ok := s.identities[handle]
	if !ok {
		return nil, ErrUnknownPrincipal
	}
	cp := *id
	return &cp, nil
}

// Len returns the number of identities.
func (s *MemoryIdentityStore) Len() int {
	return len(s.identities)
}

// UserLookup is the subset of store.SQLiteStore used by StoreIdentities.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
}

// StoreIdentities adapts the users table to IdentityStore.
type StoreIdentities struct {
	users UserLookup
}

// NewStoreIdentities creates an IdentityStore backed by users.
func NewStoreIdentities(users UserLookup) *StoreIdentities {
	return &StoreIdentities{users: users}
}

// FindByHandle looks the handle up as a username.
func (s *StoreIdentities) FindByHandle(ctx context.Context, handle string) (*Identity, error) {
	user, err := s.users.GetUserByUsername(ctx, handle)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownPrincipal
	}
	if err != nil {
		return nil, fmt.Errorf("looking up identity: %w", err)
	}
	return IdentityFromUser(user), nil
}

// IdentityFromUser converts a stored user to an Identity.
func IdentityFromUser(u *store.User) *Identity {
	id := &Identity{
		Handle:       u.Username,
		PasswordHash: u.PasswordHash,
		Active:       u.Active,
	}
	if u.Email != "" {
		email := u.Email
		id.Email = &email
	}
	return id
}

// UserFromIdentity converts an Identity to a user row for seeding.
func UserFromIdentity(id *Identity) *store.User {
	u := &store.User{
		Username:     id.Handle,
		PasswordHash: id.PasswordHash,
		Active:       id.Active,
	}
	if id.Email != nil {
		u.Email = *id.Email
	}
	return u
}
