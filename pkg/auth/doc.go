// Package auth provides identity attestation for the gochat relay.
//
// This package includes:
// - TokenService: issues and verifies signed identity tokens (JWT, HS256)
// - Password hashing helpers (bcrypt)
//
// The Verifier interface is what the connection lifecycle consumes; it
// allows alternative attestation backends such as an external identity
// provider.
package auth
