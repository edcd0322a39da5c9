// Package auth holds the credential primitives used by the auth service:
// session tokens, password hashing and Google identity verification.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService issues and checks HS256 session tokens whose subject is the
// user's email. It keeps no state besides its configuration and is safe for
// concurrent use.
type TokenService struct {
	secret   []byte
	validity time.Duration
	issuer   string
	now      func() time.Time
}

type TokenOption func(*TokenService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithIssuer sets the "iss" claim and requires it on parse.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) { s.issuer = issuer }
}

func NewTokenService(secret []byte, validity time.Duration, opts ...TokenOption) *TokenService {
	s := &TokenService{secret: secret, validity: validity, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue signs a token for subject and returns it with its expiry.
func (s *TokenService) Issue(subject string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("empty token subject")
	}

	now := s.now()
	expiresAt := now.Add(s.validity)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ExtractSubject verifies signature, algorithm, structure and expiry and
// returns the subject. Every failure wraps common.ErrInvalidToken; an expired
// token also wraps common.ErrTokenExpired.
func (s *TokenService) ExtractSubject(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", common.ErrInvalidToken)
	}
	return claims.Subject, nil
}

// Validate reports whether token is well formed, unexpired and issued for
// email.
func (s *TokenService) Validate(token, email string) bool {
	subject, err := s.ExtractSubject(token)
	return err == nil && subject == email
}
