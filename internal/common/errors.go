// Package common defines shared constants and sentinel errors used across
// client and server layers of authgate. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors. These are also the kinds carried by AuthError.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorConflict     = errors.New("conflict")
	ErrorInvalidInput = errors.New("invalid input")

	// Session token errors (invalid signature, malformed, wrong algorithm).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)

// AuthError is a classified failure raised by the authentication flows.
// Kind is one of ErrorUnauthorized, ErrorConflict or ErrorInvalidInput and
// Reason is a short human readable explanation safe to return to clients.
type AuthError struct {
	Kind   error
	Reason string
}

func (e *AuthError) Error() string {
	return e.Kind.Error() + ": " + e.Reason
}

// Unwrap exposes the kind so errors.Is(err, ErrorUnauthorized) works.
func (e *AuthError) Unwrap() error {
	return e.Kind
}

// Unauthorized builds an AuthError of kind ErrorUnauthorized.
func Unauthorized(reason string) error {
	return &AuthError{Kind: ErrorUnauthorized, Reason: reason}
}

// Conflict builds an AuthError of kind ErrorConflict.
func Conflict(reason string) error {
	return &AuthError{Kind: ErrorConflict, Reason: reason}
}

// InvalidInput builds an AuthError of kind ErrorInvalidInput.
func InvalidInput(reason string) error {
	return &AuthError{Kind: ErrorInvalidInput, Reason: reason}
}

// Reason returns the client-facing reason of an AuthError anywhere in err's
// chain, or the empty string.
func Reason(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ""
}
