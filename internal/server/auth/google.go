package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authgate/internal/common"
	"google.golang.org/api/idtoken"
)

// Claims is the subset of a verified Google ID token the service relies on.
type Claims struct {
	Subject  string
	Email    string
	FullName string
	Locale   string
}

// validateIDToken is a seam for testing idtoken.Validate.
var validateIDToken = idtoken.Validate

// GoogleVerifier checks Google ID tokens against Google's published keys
// and the configured OAuth client ID.
type GoogleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

// Verify validates token and returns its claims. Failures wrap
// common.ErrInvalidToken.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty id token", common.ErrInvalidToken)
	}

	payload, err := validateIDToken(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: no email claim", common.ErrInvalidToken)
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, fmt.Errorf("%w: email not verified", common.ErrInvalidToken)
	}

	name, _ := payload.Claims["name"].(string)
	if name == "" {
		given, _ := payload.Claims["given_name"].(string)
		family, _ := payload.Claims["family_name"].(string)
		name = strings.TrimSpace(given + " " + family)
	}
	locale, _ := payload.Claims["locale"].(string)

	return &Claims{
		Subject:  payload.Subject,
		Email:    email,
		FullName: name,
		Locale:   locale,
	}, nil
}
