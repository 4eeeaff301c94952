// Package common contains shared constants and sentinel errors used across
// the booking backend.
package common

// AuthorizationHeaderName is the HTTP header carrying the session token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme prefixes the session token inside the Authorization header.
const BearerScheme = "Bearer "

// TokenType is returned to clients alongside a freshly issued session token.
const TokenType = "bearer"
