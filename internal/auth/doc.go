// Package auth implements credential verification for microshop.
//
// # Strategies
//
// Four strategies share the Verifier interface:
//
//   - Basic: HTTP Basic username and password checked against an IdentityStore
//   - StaticToken: an opaque header token mapped to a principal by a fixed table
//   - Cookie: a session ID cookie resolved through a SessionRegistry
//   - Bearer: an HS256 JWT decoded by JWTCodec, then its subject looked up
//
// A Verifier first extracts a Credential from the request, then Verify returns
// a Result that is either authenticated or rejected with a Reason. Rejections
// are values, never panics, and are final for the request.
//
// # HTTP
//
// Require wraps a handler with a Verifier. On success the AuthContext is
// attached to the request context (see WithAuth and FromContext). On rejection
// the response is written with the status from StatusFor and a {"detail": ...}
// body. Unknown usernames and wrong passwords produce the same response.
//
// # Sessions
//
// MemorySessionRegistry keeps sessions in a mutex-guarded map with an optional
// TTL and a background janitor. StoreSessionRegistry keeps them in SQLite.
// Both treat expired sessions as absent.
//
// # Usage
//
//	codec, err := auth.NewJWTCodec(secret)
//	if err != nil {
//	    return err
//	}
//	bearer := auth.NewBearerVerifier(codec, identities, logger)
//	mux.Handle("GET /jwt/users/me/", auth.Require(bearer, metrics)(meHandler))
package auth
