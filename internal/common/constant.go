// Package common contains shared constants and sentinel errors used across
// authgate components.
package common

// AuthorizationHeaderName is the HTTP header (and lower-cased gRPC metadata
// key) carrying the bearer credential.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the case-sensitive scheme literal expected at the start of
// the Authorization header. It is followed by a single space and the token.
const BearerScheme = "Bearer"
