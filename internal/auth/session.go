// ABOUTME: Session registry for cookie authentication
// ABOUTME: In-memory TTL map with a janitor goroutine, or SQLite-backed via the store

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Alex-Zverr/microshop/internal/store"
)

// sessionIDBytes gives session IDs 128 bits of entropy.
const sessionIDBytes = 16

// defaultJanitorInterval is how often MemorySessionRegistry sweeps expired sessions.
const defaultJanitorInterval = time.Minute

// SessionRegistry creates and resolves cookie sessions.
type SessionRegistry interface {
	// Create mints a session for handle.
	Create(ctx context.Context, handle string) (*store.Session, error)
	// Lookup returns ErrSessionNotFound for unknown and expired sessions.
	Lookup(ctx context.Context, id string) (*store.Session, error)
	// Invalidate removes a session. Removing an unknown session is not an error.
	Invalidate(ctx context.Context, id string) error
}

// generateSessionID returns a random hex-encoded 128-bit identifier.
func generateSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func newSession(handle string, now time.Time, ttl time.Duration) (*store.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}
	now = now.UTC().Truncate(time.Second)
	s := &store.Session{ID: id, Username: handle, CreatedAt: now}
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
	return s, nil
}

// MemorySessionRegistry keeps sessions in process memory.
// A TTL of zero keeps sessions until they are invalidated.
type MemorySessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]store.Session
	ttl      time.Duration
	now      func() time.Time
	done     chan struct{}
	closed   bool
	wg       sync.WaitGroup
}

// NewMemorySessionRegistry creates a registry. When ttl is positive a background
// goroutine periodically removes expired sessions until Close is called.
func NewMemorySessionRegistry(ttl time.Duration) *MemorySessionRegistry {
	return newMemorySessionRegistry(ttl, defaultJanitorInterval, time.Now)
}

func newMemorySessionRegistry(ttl, interval time.Duration, now func() time.Time) *MemorySessionRegistry {
	r := &MemorySessionRegistry{
		sessions: make(map[string]store.Session),
		ttl:      ttl,
		now:      now,
		done:     make(chan struct{}),
	}
	if ttl > 0 {
		r.wg.Add(1)
		go r.janitor(interval)
	}
	return r
}

// Create mints and stores a new session.
func (r *MemorySessionRegistry) Create(_ context.Context, handle string) (*store.Session, error) {
	s, err := newSession(handle, r.now(), r.ttl)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[s.ID] = *s
	r.mu.Unlock()

	return s, nil
}

// Lookup returns a copy of the session.
func (r *MemorySessionRegistry) Lookup(_ context.Context, id string) (*store.Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok || s.Expired(r.now()) {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

// Invalidate removes a session.
func (r *MemorySessionRegistry) Invalidate(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, including expired ones not yet swept.
func (r *MemorySessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *MemorySessionRegistry) janitor(interval time.Duration) {
	defer r.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.done:
			return
		}
	}
}

// sweep removes all expired sessions.
func (r *MemorySessionRegistry) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
		}
	}
}

// Close stops the janitor and waits for it to exit. It is safe to call multiple times.
func (r *MemorySessionRegistry) Close() {
	r.mu.Lock()
	if !r.closed {
		close(r.done)
		r.closed = true
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// SessionStore is the subset of store.SQLiteStore used by StoreSessionRegistry.
type SessionStore interface {
	CreateSession(ctx context.Context, session *store.Session) error
	GetSession(ctx context.Context, id string) (*store.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// StoreSessionRegistry keeps sessions in the database so they survive restarts.
type StoreSessionRegistry struct {
	sessions SessionStore
	ttl      time.Duration
	now      func() time.Time
}

// NewStoreSessionRegistry creates a registry over sessions.
func NewStoreSessionRegistry(sessions SessionStore, ttl time.Duration) *StoreSessionRegistry {
	return &StoreSessionRegistry{sessions: sessions, ttl: ttl, now: time.Now}
}

// Create mints and persists a new session.
func (r *StoreSessionRegistry) Create(ctx context.Context, handle string) (*store.Session, error) {
	s, err := newSession(handle, r.now(), r.ttl)
	if err != nil {
		return nil, err
	}
	if err := r.sessions.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	return s, nil
}

// Lookup reads a session from the database.
func (r *StoreSessionRegistry) Lookup(ctx context.Context, id string) (*store.Session, error) {
	s, err := r.sessions.GetSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up session: %w", err)
	}
	return s, nil
}

// Invalidate deletes a session from the database.
func (r *StoreSessionRegistry) Invalidate(ctx context.Context, id string) error {
	if err := r.sessions.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("invalidating session: %w", err)
	}
	return nil
}
