// ABOUTME: Cookie session store methods
// ABOUTME: Durable backend for the session registry; expired rows read as not found

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateSession inserts a session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *Session) error {
	var expiresAt any
	if !session.ExpiresAt.IsZero() {
		expiresAt = formatTime(session.ExpiresAt)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, username, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, session.ID, session.Username, formatTime(session.CreatedAt), expiresAt)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("inserting session: %w", err)
	}

	s.logger.Debug("created session", "username", session.Username)
	return nil
}

// GetSession retrieves a session that has not expired.
// Returns ErrNotFound for unknown and expired sessions alike.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var session Session
	var createdAtStr string
	var expiresAtStr sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, created_at, expires_at
		FROM sessions
		WHERE id = ?
	`, id).Scan(&session.ID, &session.Username, &createdAtStr, &expiresAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if session.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if expiresAtStr.Valid {
		if session.ExpiresAt, err = parseTime(expiresAtStr.String); err != nil {
			return nil, fmt.Errorf("parsing expires_at: %w", err)
		}
	}

	if session.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return &session, nil
}

// DeleteSession removes a session. Deleting an unknown session is not an error.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions and returns how many were removed.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	now := formatTime(s.now())
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	n, _ := result.RowsAffected()
	if n > 0 {
		s.logger.Debug("deleted expired sessions", "count", n)
	}
	return n, nil
}
