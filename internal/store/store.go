// ABOUTME: Store data types and sentinel errors for microshop persistence
// ABOUTME: Defines users, profiles, posts, products, orders, and cookie sessions

package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint
var ErrConflict = errors.New("already exists")

// MaxUsernameLength mirrors the users.username column width.
const MaxUsernameLength = 32

// MaxPostTitleLength mirrors the posts.title column width.
const MaxPostTitleLength = 100

// User is a durable identity record. PasswordHash may be empty for users that
// were created through the API and cannot log in.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string // empty when unset
	Active       bool
	CreatedAt    time.Time

	// Populated by queries that load relations
	Profile *Profile
	Posts   []*Post
}

// Profile holds optional personal details, one per user.
type Profile struct {
	ID        int64
	UserID    int64
	FirstName string
	LastName  string
	Bio       string
}

// Post is a titled text owned by a user.
type Post struct {
	ID        int64
	UserID    int64
	Title     string
	Body      string
	CreatedAt time.Time

	// Author is populated by ListPostsWithAuthors
	Author *User
}

// Product is an item that can be ordered.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       int64 // minor units
}

// ProductPatch carries the fields to change in UpdateProduct. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *int64
}

// Order groups products. An order holds each product at most once.
type Order struct {
	ID        int64
	PromoCode string
	CreatedAt time.Time
	Products  []*Product
}

// Session is a server-side cookie session. A zero ExpiresAt never expires.
type Session struct {
	ID        string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has expired at t.
func (s *Session) Expired(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && !t.Before(s.ExpiresAt)
}
