// Package services contains server-side business logic: AuthService for
// sign-in, sign-up and token lifecycle, and UserService for profile access.
package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/config"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// maxPasswordBytes is the longest secret bcrypt accepts.
const maxPasswordBytes = 72

// SignInResult is returned by every successful sign-in or refresh.
type SignInResult struct {
	AccessToken  string                 `json:"accessToken"`
	RefreshToken string                 `json:"refreshToken"`
	ExpiresAt    time.Time              `json:"expiresAt"`
	Credential   *models.UserCredential `json:"user"`
}

// AuthService verifies credentials, registers identities and manages the
// session/refresh token lifecycle. It holds no per-request state.
type AuthService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	tokens          TokenIssuer
	hasher          PasswordHasher
	verifier        IdentityVerifier
	logger          logging.Logger
	defaultCountry  string
	refreshValidity time.Duration
	now             func() time.Time
	newID           func() string
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens TokenIssuer, hasher PasswordHasher,
	verifier IdentityVerifier, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		db:              db,
		repomanager:     m,
		tokens:          tokens,
		hasher:          hasher,
		verifier:        verifier,
		logger:          logger.With("module", "auth"),
		defaultCountry:  cfg.DefaultCountryCode,
		refreshValidity: cfg.RefreshTokenValidityDuration,
		now:             time.Now,
		newID:           uuid.NewString,
	}
}

// SignInWithEmail succeeds iff an active credential exists for email,
// password matches its hash and it was registered with the BASIC provider.
func (s *AuthService) SignInWithEmail(ctx context.Context, email, password string) (*SignInResult, error) {
	email = common.NormalizeEmail(email)

	cred, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unauthorized("user not found")
		}
		return nil, err
	}

	if !s.hasher.Matches(password, cred.PasswordHash) {
		return nil, common.Unauthorized("invalid credentials")
	}

	if err := checkProvider(cred, models.ProviderBasic); err != nil {
		return nil, err
	}
	if !cred.IsActive() {
		return nil, common.Unauthorized("account inactive")
	}

	return s.issue(ctx, s.db, cred)
}

// SignInWithGoogle signs in the GOOGLE credential matching the verified
// token's email.
func (s *AuthService) SignInWithGoogle(ctx context.Context, idToken string) (*SignInResult, error) {
	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		s.logger.Debug(ctx, "google token rejected", "error", err)
		return nil, common.Unauthorized("invalid token")
	}

	cred, err := s.findByEmail(ctx, common.NormalizeEmail(claims.Email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Unauthorized("not registered")
		}
		return nil, err
	}

	if err := checkProvider(cred, models.ProviderGoogle); err != nil {
		return nil, err
	}
	if !cred.IsActive() {
		return nil, common.Unauthorized("account inactive")
	}

	return s.issue(ctx, s.db, cred)
}

// SignUpWithEmail registers a BASIC credential with its profile.
func (s *AuthService) SignUpWithEmail(ctx context.Context, email, password, fullName string) (*models.UserCredential, error) {
	email = common.NormalizeEmail(email)
	fullName = strings.TrimSpace(fullName)

	switch {
	case !common.ValidEmail(email):
		return nil, common.InvalidInput("invalid email")
	case password == "":
		return nil, common.InvalidInput("password is required")
	case len(password) > maxPasswordBytes:
		return nil, common.InvalidInput("password is too long")
	case fullName == "":
		return nil, common.InvalidInput("full name is required")
	}

	return s.register(ctx, registration{
		email:    email,
		secret:   password,
		fullName: fullName,
		country:  s.defaultCountry,
		provider: models.ProviderBasic,
	})
}

// SignUpWithGoogle registers a GOOGLE credential from a verified ID token.
// The stored hash is derived from the email, see googleSecret.
func (s *AuthService) SignUpWithGoogle(ctx context.Context, idToken string) (*models.UserCredential, error) {
	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		s.logger.Debug(ctx, "google token rejected", "error", err)
		return nil, common.InvalidInput("invalid token")
	}

	email := common.NormalizeEmail(claims.Email)
	if !common.ValidEmail(email) {
		return nil, common.InvalidInput("invalid email")
	}

	fullName := strings.TrimSpace(claims.FullName)
	if fullName == "" {
		fullName, _, _ = strings.Cut(email, "@")
	}

	return s.register(ctx, registration{
		email:    email,
		secret:   googleSecret(email),
		fullName: fullName,
		country:  countryFromLocale(claims.Locale, s.defaultCountry),
		provider: models.ProviderGoogle,
	})
}

// RefreshToken rotates a refresh token: the old one is consumed and a new
// pair is issued in the same transaction. A token can be redeemed once.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*SignInResult, error) {
	var (
		result  *SignInResult
		expired bool
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.repomanager.RefreshTokens(tx).Consume(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.Unauthorized("invalid refresh token")
			}
			return fmt.Errorf("consume refresh token: %w", err)
		}

		// commit the removal of an expired token
		if token.Expired(s.now()) {
			expired = true
			return nil
		}

		cred, err := s.repomanager.Credentials(tx).FindByID(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.Unauthorized("user not found")
			}
			return fmt.Errorf("find credential: %w", err)
		}

		result, err = s.issue(ctx, tx, cred)
		return err
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, common.Unauthorized("refresh token expired")
	}
	return result, nil
}

// SignOut revokes a refresh token. Unknown tokens are ignored.
func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return common.InvalidInput("refresh token is required")
	}
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// LoadIdentity returns the credential whose email is the token subject, or
// common.ErrorNotFound.
func (s *AuthService) LoadIdentity(ctx context.Context, email string) (*models.UserCredential, error) {
	return s.findByEmail(ctx, email)
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*models.UserCredential, error) {
	cred, err := s.repomanager.Credentials(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return cred, nil
}

// checkProvider is the single place enforcing that a credential is only
// used through the provider it was registered with.
func checkProvider(cred *models.UserCredential, want models.AuthProvider) error {
	if cred.AuthProvider != want {
		return common.Unauthorized("provider mismatch")
	}
	return nil
}

type registration struct {
	email    string
	secret   string
	fullName string
	country  string
	provider models.AuthProvider
}

// register creates the profile and credential for r atomically. An email
// already taken yields Conflict without any write.
func (s *AuthService) register(ctx context.Context, r registration) (*models.UserCredential, error) {
	exists, err := s.repomanager.Credentials(s.db).ExistsByEmail(ctx, r.email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, common.Conflict("already registered")
	}

	hash, err := s.hasher.Hash(r.secret)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	profile := models.NewUserProfile(s.newID(), r.fullName, r.country, s.now().UTC())
	cred := models.NewUserCredential(profile, r.email, hash, r.provider)

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Profiles(tx).Create(ctx, profile); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		if err := s.repomanager.Credentials(tx).Create(ctx, cred); err != nil {
			return fmt.Errorf("create credential: %w", err)
		}
		return nil
	})
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.Conflict("already registered")
		}
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", cred.ID, "provider", string(cred.AuthProvider))
	return cred, nil
}

// issue mints an access token for cred and stores a fresh refresh token
// through db.
func (s *AuthService) issue(ctx context.Context, db dbx.DBTX, cred *models.UserCredential) (*SignInResult, error) {
	access, expiresAt, err := s.tokens.Issue(cred.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.repomanager.RefreshTokens(db).Create(ctx, cred.ID, refresh, s.now().Add(s.refreshValidity)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &SignInResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		Credential:   cred,
	}, nil
}

// googleSecret is the placeholder password of a GOOGLE credential. The
// SHA-256 hex digest keeps it within bcrypt's 72 byte input limit for any
// valid address.
func googleSecret(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

// countryFromLocale maps a BCP 47 locale such as "id-ID" or "pt_BR" to an
// ISO 3166-1 alpha-2 code, falling back to def.
func countryFromLocale(locale, def string) string {
	if locale == "" {
		return def
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return def
	}
	region, confidence := tag.Region()
	if confidence == language.No || !region.IsCountry() {
		return def
	}
	return region.String()
}
