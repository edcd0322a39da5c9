// Package services contains application services for the authgate CLI.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authgate/internal/client/client"
	"github.com/dmitrijs2005/authgate/internal/client/models"
	"github.com/dmitrijs2005/authgate/internal/common"
)

// AuthService defines the account operations of the CLI. All methods honor
// context cancellation.
type AuthService interface {
	Register(ctx context.Context, email string, password []byte, fullName string) (*models.User, error)
	RegisterGoogle(ctx context.Context, idToken string) (*models.User, error)
	Login(ctx context.Context, email string, password []byte) (*models.User, error)
	LoginGoogle(ctx context.Context, idToken string) (*models.User, error)
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) (*models.User, error)
	Ping(ctx context.Context) error
	LoggedIn() bool
}

type authService struct {
	client client.Client
}

func NewAuthService(c client.Client) AuthService {
	return &authService{client: c}
}

// Register creates an email account. The email is normalized first.
func (a *authService) Register(ctx context.Context, email string, password []byte, fullName string) (*models.User, error) {
	if len(password) == 0 {
		return nil, errors.New("password is required")
	}
	u, err := a.client.SignUpEmail(ctx, common.NormalizeEmail(email), string(password), fullName)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}
	return u, nil
}

func (a *authService) RegisterGoogle(ctx context.Context, idToken string) (*models.User, error) {
	u, err := a.client.SignUpGoogle(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}
	return u, nil
}

func (a *authService) Login(ctx context.Context, email string, password []byte) (*models.User, error) {
	s, err := a.client.SignInEmail(ctx, common.NormalizeEmail(email), string(password))
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	return s.User, nil
}

func (a *authService) LoginGoogle(ctx context.Context, idToken string) (*models.User, error) {
	s, err := a.client.SignInGoogle(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	return s.User, nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.client.SignOut(ctx)
}

func (a *authService) WhoAmI(ctx context.Context) (*models.User, error) {
	return a.client.Me(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) LoggedIn() bool {
	return a.client.LoggedIn()
}
