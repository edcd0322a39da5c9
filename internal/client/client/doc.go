// Package client talks to the authgate HTTP API.
//
// HTTPClient keeps the current session in memory, attaches the access token
// as "Authorization: Bearer <token>" to gated calls and, when a gated call is
// rejected with 401, redeems the refresh token once and retries.
//
// Failures are reported as *APIError (carrying the HTTP status and the
// server's message) or ErrUnavailable when the server cannot be reached.
// Match them with errors.Is against ErrUnauthorized, ErrConflict,
// ErrInvalidInput and ErrNotFound.
package client
