// ABOUTME: User and profile store methods
// ABOUTME: Users double as the durable identity backend for authentication

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const userColumns = `u.id, u.username, u.password_hash, u.email, u.active, u.created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (*User, error) {
	var user User
	var passwordHash, email sql.NullString
	var createdAtStr string

	dest := append([]any{&user.ID, &user.Username, &passwordHash, &email, &user.Active, &createdAtStr}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	user.PasswordHash = passwordHash.String
	user.Email = email.String

	var err error
	user.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &user, nil
}

// CreateUser inserts a user and sets its ID and CreatedAt.
// Returns ErrConflict if the username is taken.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC().Truncate(time.Second)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, email, active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		user.Username,
		nullString(user.PasswordHash),
		nullString(user.Email),
		user.Active,
		formatTime(user.CreatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("user %q: %w", user.Username, ErrConflict)
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	user.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading user id: %w", err)
	}

	s.logger.Info("created user", "id", user.ID, "username", user.Username)
	return nil
}

// EnsureUser creates the user unless one with the same username already exists.
// It reports whether a row was inserted.
func (s *SQLiteStore) EnsureUser(ctx context.Context, user *User) (bool, error) {
	err := s.CreateUser(ctx, user)
	if errors.Is(err, ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetUser retrieves a user by ID, with its profile when one exists.
func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.getUserWhere(ctx, "u.id = ?", id)
}

// GetUserByUsername retrieves a user by username, with its profile when one exists.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUserWhere(ctx, "u.username = ?", username)
}

func (s *SQLiteStore) getUserWhere(ctx context.Context, where string, arg any) (*User, error) {
	query := `
		SELECT ` + userColumns + `, p.id, p.first_name, p.last_name, p.bio
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE ` + where

	var profileID sql.NullInt64
	var firstName, lastName, bio sql.NullString

	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg), &profileID, &firstName, &lastName, &bio)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if profileID.Valid {
		user.Profile = &Profile{
			ID:        profileID.Int64,
			UserID:    user.ID,
			FirstName: firstName.String,
			LastName:  lastName.String,
			Bio:       bio.String,
		}
	}
	return user, nil
}

// ListUsers returns all users ordered by ID.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// ListUsersWithPosts returns all users ordered by ID with their posts loaded.
// Posts are fetched in a second query and attached by user ID.
func (s *SQLiteStore) ListUsersWithPosts(ctx context.Context) ([]*User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return users, nil
	}

	byID := make(map[int64]*User, len(users))
	for _, u := range users {
		u.Posts = []*Post{}
		byID[u.ID] = u
	}

	posts, err := s.listPosts(ctx, "", nil)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		if u, ok := byID[p.UserID]; ok {
			u.Posts = append(u.Posts, p)
		}
	}
	return users, nil
}

// SetUserActive flips the active flag of a user.
func (s *SQLiteStore) SetUserActive(ctx context.Context, username string, active bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET active = ? WHERE username = ?`, active, username)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.logger.Info("updated user status", "username", username, "active", active)
	return nil
}

// UpsertProfile creates or replaces the profile of profile.UserID and sets profile.ID.
// Returns ErrNotFound if the user does not exist.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, profile *Profile) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO profiles (user_id, first_name, last_name, bio)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			bio = excluded.bio
		RETURNING id
	`,
		profile.UserID,
		nullString(profile.FirstName),
		nullString(profile.LastName),
		nullString(profile.Bio),
	).Scan(&profile.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}
