// ABOUTME: Post store methods
// ABOUTME: Supports bulk creation per author and listing with authors attached

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreatePosts inserts one post per title for userID in a single transaction.
// Returns ErrNotFound if the user does not exist.
func (s *SQLiteStore) CreatePosts(ctx context.Context, userID int64, posts ...*Post) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().UTC().Truncate(time.Second)
	for _, p := range posts {
		p.UserID = userID
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		result, err := tx.ExecContext(ctx, `
			INSERT INTO posts (user_id, title, body, created_at)
			VALUES (?, ?, ?, ?)
		`, p.UserID, p.Title, p.Body, formatTime(p.CreatedAt))
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrNotFound
			}
			return fmt.Errorf("inserting post: %w", err)
		}
		if p.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("reading post id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing posts: %w", err)
	}

	s.logger.Debug("created posts", "user_id", userID, "count", len(posts))
	return nil
}

// ListPostsByUser returns the posts of a user ordered by ID.
func (s *SQLiteStore) ListPostsByUser(ctx context.Context, userID int64) ([]*Post, error) {
	return s.listPosts(ctx, "WHERE user_id = ?", []any{userID})
}

// ListPostsWithAuthors returns all posts ordered by ID, each with its author loaded.
func (s *SQLiteStore) ListPostsWithAuthors(ctx context.Context) ([]*Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.title, p.body, p.created_at, `+userColumns+`
		FROM posts p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []*Post
	for rows.Next() {
		var p Post
		var createdAtStr string
		author, err := scanUserAfter(rows, &p.ID, &p.UserID, &p.Title, &p.Body, &createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		if p.CreatedAt, err = parseTime(createdAtStr); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		p.Author = author
		posts = append(posts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}
	return posts, nil
}

func (s *SQLiteStore) listPosts(ctx context.Context, where string, args []any) ([]*Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, body, created_at
		FROM posts `+where+`
		ORDER BY id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts := []*Post{}
	for rows.Next() {
		var p Post
		var createdAtStr string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Body, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		if p.CreatedAt, err = parseTime(createdAtStr); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		posts = append(posts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}
	return posts, nil
}

// scanUserAfter scans leading columns into prefix, then a user row.
func scanUserAfter(rows *sql.Rows, prefix ...any) (*User, error) {
	return scanUser(prefixScanner{rows: rows, prefix: prefix})
}

// prefixScanner prepends destinations to a Scan call.
type prefixScanner struct {
	rows   *sql.Rows
	prefix []any
}

func (p prefixScanner) Scan(dest ...any) error {
	return p.rows.Scan(append(append([]any{}, p.prefix...), dest...)...)
}
