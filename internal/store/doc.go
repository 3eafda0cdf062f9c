// Package store provides persistent storage for microshop using SQLite.
//
// # Architecture
//
// SQLiteStore is a single struct backed by one database file. Methods are
// grouped by entity across files:
//
//   - users.go: users and profiles; users also serve as durable identities
//   - posts.go: posts, listed per user or with their authors
//   - catalog.go: products and orders with their product links
//   - sessions.go: server-side cookie sessions
//
// # Data Models
//
//   - User: username, optional bcrypt password hash, email, active flag
//   - Profile: optional personal details, at most one per user
//   - Post: titled text owned by a user
//   - Product: named item with a price in minor units
//   - Order: optional promo code plus a set of products
//   - Session: opaque session ID bound to a username with an optional expiry
//
// # Errors
//
// Lookups return ErrNotFound for missing rows. Writes that violate a unique
// constraint return an error wrapping ErrConflict. Callers should compare with
// errors.Is.
//
// # Timestamps
//
// Timestamps are stored as RFC3339 text in UTC at second precision so that
// they compare correctly as strings.
//
// # Usage
//
//	s, err := store.NewSQLiteStore("./data/microshop.db", logger)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	user := &store.User{Username: "john", Active: true}
//	if err := s.CreateUser(ctx, user); err != nil {
//	    return err
//	}
package store
