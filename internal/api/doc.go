// Package api provides the HTTP handlers of microshop.
//
// Routes fall into three groups:
//
//   - /demo-auth: Basic, static token and cookie session demonstrations
//   - /jwt: form login issuing a bearer token, and the bearer-protected /users/me/
//   - /api/v1: JSON CRUD for users, profiles, posts, products and orders
//
// Errors are written as {"detail": "..."} with the matching status code.
// Register mounts every route on an http.ServeMux using method patterns.
package api
