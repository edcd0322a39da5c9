package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
	"github.com/dmitrijs2005/authgate/internal/server/config"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	svc      *AuthService
	st       *memStore
	mock     sqlmock.Sqlmock
	tokens   *auth.TokenService
	hasher   *auth.BcryptHasher
	verifier *fakeVerifier
	now      time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db, mock := newSQLMock(t)
	st := newMemStore()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cfg := &config.Config{
		DefaultCountryCode:           "ID",
		RefreshTokenValidityDuration: time.Hour,
	}
	tokens := auth.NewTokenService([]byte("k"), 15*time.Minute, auth.WithClock(clock))
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	verifier := &fakeVerifier{}

	svc := NewAuthService(db, &fakeRepoManager{st: st}, tokens, hasher, verifier, cfg, logging.NewDiscardLogger())
	svc.now = clock

	ids := 0
	svc.newID = func() string {
		ids++
		return fmt.Sprintf("00000000-0000-0000-0000-%012d", ids)
	}

	return &authFixture{svc: svc, st: st, mock: mock, tokens: tokens, hasher: hasher, verifier: verifier, now: now}
}

func (f *authFixture) seed(t *testing.T, id, email, secret string, provider models.AuthProvider) *models.UserCredential {
	t.Helper()
	hash, err := f.hasher.Hash(secret)
	require.NoError(t, err)
	c := models.NewUserCredential(models.NewUserProfile(id, "Seeded", "ID", f.now), email, hash, provider)
	f.st.put(c)
	return c
}

func requireAuthError(t *testing.T, err error, kind error, reason string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	assert.Equal(t, reason, common.Reason(err))
}

func TestSignInWithEmail_SucceedsOnlyForMatchingBasicCredential(t *testing.T) {
	f := newAuthFixture(t)
	f.seed(t, "u-basic", "basic@x.com", "p@ss", models.ProviderBasic)
	f.seed(t, "u-google", "google@x.com", "google@x.com", models.ProviderGoogle)
	f.seed(t, "u-off", "off@x.com", "p@ss", models.ProviderBasic).Status = models.StatusInactive

	tests := []struct {
		name     string
		email    string
		password string
		reason   string
	}{
		{name: "matching basic", email: "basic@x.com", password: "p@ss"},
		{name: "email is normalized", email: "  BASIC@x.com ", password: "p@ss"},
		{name: "wrong password", email: "basic@x.com", password: "nope", reason: "invalid credentials"},
		{name: "google credential", email: "google@x.com", password: "google@x.com", reason: "provider mismatch"},
		{name: "unknown email", email: "ghost@x.com", password: "p@ss", reason: "user not found"},
		{name: "inactive account", email: "off@x.com", password: "p@ss", reason: "account inactive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.svc.SignInWithEmail(context.Background(), tt.email, tt.password)
			if tt.reason != "" {
				requireAuthError(t, err, common.ErrorUnauthorized, tt.reason)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u-basic", res.Credential.ID)
			assert.NotEmpty(t, res.RefreshToken)
			assert.Equal(t, f.now.Add(15*time.Minute), res.ExpiresAt)

			sub, err := f.tokens.ExtractSubject(res.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, "basic@x.com", sub)

			stored, ok := f.st.tokens[res.RefreshToken]
			require.True(t, ok)
			assert.Equal(t, f.now.Add(time.Hour), stored.Expires)
		})
	}
}

func TestSignInWithEmail_StoreFailureIsNotUnauthorized(t *testing.T) {
	f := newAuthFixture(t)
	f.st.findErr = errors.New("db error: conn reset")

	_, err := f.svc.SignInWithEmail(context.Background(), "a@x.com", "p")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorUnauthorized)
	assert.Contains(t, err.Error(), "conn reset")
}

func TestSignInWithGoogle(t *testing.T) {
	f := newAuthFixture(t)
	f.seed(t, "u-google", "g@x.com", "g@x.com", models.ProviderGoogle)
	f.seed(t, "u-basic", "b@x.com", "pw", models.ProviderBasic)

	t.Run("registered google account", func(t *testing.T) {
		f.verifier.claims, f.verifier.err = &auth.Claims{Email: "G@x.com"}, nil

		res, err := f.svc.SignInWithGoogle(context.Background(), "id-token")
		require.NoError(t, err)
		assert.Equal(t, "u-google", res.Credential.ID)
	})

	t.Run("basic account", func(t *testing.T) {
		f.verifier.claims, f.verifier.err = &auth.Claims{Email: "b@x.com"}, nil

		_, err := f.svc.SignInWithGoogle(context.Background(), "id-token")
		requireAuthError(t, err, common.ErrorUnauthorized, "provider mismatch")
	})

	t.Run("inactive account", func(t *testing.T) {
		f.seed(t, "u-off", "off@x.com", "off@x.com", models.ProviderGoogle).Status = models.StatusInactive
		f.verifier.claims, f.verifier.err = &auth.Claims{Email: "off@x.com"}, nil

		res, err := f.svc.SignInWithGoogle(context.Background(), "id-token")
		requireAuthError(t, err, common.ErrorUnauthorized, "account inactive")
		assert.Nil(t, res)
	})

	t.Run("not registered", func(t *testing.T) {
		f.verifier.claims, f.verifier.err = &auth.Claims{Email: "new@x.com"}, nil

		_, err := f.svc.SignInWithGoogle(context.Background(), "id-token")
		requireAuthError(t, err, common.ErrorUnauthorized, "not registered")
	})

	t.Run("verifier rejects", func(t *testing.T) {
		f.verifier.claims, f.verifier.err = nil, common.ErrInvalidToken

		_, err := f.svc.SignInWithGoogle(context.Background(), "forged")
		requireAuthError(t, err, common.ErrorUnauthorized, "invalid token")
	})
}

func TestSignUpWithEmail_CreatesBasicCredentialAtomically(t *testing.T) {
	f := newAuthFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	c, err := f.svc.SignUpWithEmail(context.Background(), " New@X.com ", "p@ss", " Nia ")
	require.NoError(t, err)
	require.NoError(t, f.mock.ExpectationsWereMet())

	assert.Equal(t, "new@x.com", c.Email)
	assert.Equal(t, models.ProviderBasic, c.AuthProvider)
	assert.Equal(t, models.StatusActive, c.Status)
	assert.Empty(t, c.NotificationToken)
	assert.True(t, f.hasher.Matches("p@ss", c.PasswordHash))
	assert.Equal(t, c.ID, c.Profile.ID)
	assert.Equal(t, "Nia", c.Profile.FullName)
	assert.Equal(t, "ID", c.Profile.CountryCode)
	assert.Equal(t, f.now, c.CreatedAt)
	assert.Equal(t, c.CreatedAt, c.Profile.CreatedAt)
	assert.Equal(t, 2, f.st.writes)
}

func TestSignUpWithEmail_DuplicateIsConflictWithoutWrites(t *testing.T) {
	f := newAuthFixture(t)
	f.seed(t, "u1", "a@x.com", "p", models.ProviderBasic)

	_, err := f.svc.SignUpWithEmail(context.Background(), "a@x.com", "other", "Someone")
	requireAuthError(t, err, common.ErrorConflict, "already registered")

	assert.Equal(t, 0, f.st.writes)
	require.NoError(t, f.mock.ExpectationsWereMet(), "no transaction may start")
}

func TestSignUpWithEmail_Validation(t *testing.T) {
	tests := []struct {
		name, email, password, fullName, reason string
	}{
		{"bad email", "not-an-email", "p", "N", "invalid email"},
		{"display name email", "Nia <n@x.com>", "p", "N", "invalid email"},
		{"empty password", "n@x.com", "", "N", "password is required"},
		{"long password", "n@x.com", string(make([]byte, 73)), "N", "password is too long"},
		{"blank name", "n@x.com", "p", "   ", "full name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			_, err := f.svc.SignUpWithEmail(context.Background(), tt.email, tt.password, tt.fullName)
			requireAuthError(t, err, common.ErrorInvalidInput, tt.reason)
			assert.Equal(t, 0, f.st.writes)
		})
	}
}

func TestSignUpWithEmail_RollsBackWhenCredentialInsertFails(t *testing.T) {
	f := newAuthFixture(t)
	f.st.createCredErr = errors.New("db error: disk full")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.SignUpWithEmail(context.Background(), "n@x.com", "p", "Nia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create credential")
	assert.NotErrorIs(t, err, common.ErrorConflict)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSignUpWithEmail_UniqueViolationRaceIsConflict(t *testing.T) {
	f := newAuthFixture(t)
	f.st.createCredErr = fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23505"})
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.SignUpWithEmail(context.Background(), "n@x.com", "p", "Nia")
	requireAuthError(t, err, common.ErrorConflict, "already registered")
}

func TestSignUpWithGoogle(t *testing.T) {
	t.Run("creates google credential", func(t *testing.T) {
		f := newAuthFixture(t)
		f.verifier.claims = &auth.Claims{Email: "G@x.com", FullName: "Gita", Locale: "pt-BR"}
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		c, err := f.svc.SignUpWithGoogle(context.Background(), "id-token")
		require.NoError(t, err)

		assert.Equal(t, "g@x.com", c.Email)
		assert.Equal(t, models.ProviderGoogle, c.AuthProvider)
		assert.True(t, f.hasher.Matches(googleSecret("g@x.com"), c.PasswordHash))
		assert.Equal(t, "Gita", c.Profile.FullName)
		assert.Equal(t, "BR", c.Profile.CountryCode)
	})

	t.Run("falls back to default country and email name", func(t *testing.T) {
		f := newAuthFixture(t)
		f.verifier.claims = &auth.Claims{Email: "budi@x.com"}
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		c, err := f.svc.SignUpWithGoogle(context.Background(), "id-token")
		require.NoError(t, err)
		assert.Equal(t, "ID", c.Profile.CountryCode)
		assert.Equal(t, "budi", c.Profile.FullName)
	})

	t.Run("address longer than 72 bytes", func(t *testing.T) {
		f := newAuthFixture(t)
		email := strings.Repeat("a", 64) + "@example.com"
		require.Greater(t, len(email), 72)
		f.verifier.claims = &auth.Claims{Email: email}
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		c, err := f.svc.SignUpWithGoogle(context.Background(), "id-token")
		require.NoError(t, err)
		assert.Equal(t, email, c.Email)
		assert.True(t, f.hasher.Matches(googleSecret(email), c.PasswordHash))
		require.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("invalid token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.verifier.err = common.ErrInvalidToken

		_, err := f.svc.SignUpWithGoogle(context.Background(), "forged")
		requireAuthError(t, err, common.ErrorInvalidInput, "invalid token")
		assert.Equal(t, 0, f.st.writes)
	})

	t.Run("already registered with password", func(t *testing.T) {
		f := newAuthFixture(t)
		f.seed(t, "u1", "a@x.com", "p", models.ProviderBasic)
		f.verifier.claims = &auth.Claims{Email: "a@x.com"}

		_, err := f.svc.SignUpWithGoogle(context.Background(), "id-token")
		requireAuthError(t, err, common.ErrorConflict, "already registered")
	})
}

// a@x.com signs up with a password, signs in, and is then refused when it
// tries the Google flow with the same address.
func TestScenario_EmailAccountCannotUseGoogle(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	cred, err := f.svc.SignUpWithEmail(ctx, "a@x.com", "p@ss", "A")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderBasic, cred.AuthProvider)

	res, err := f.svc.SignInWithEmail(ctx, "a@x.com", "p@ss")
	require.NoError(t, err)

	sub, err := f.tokens.ExtractSubject(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", sub)

	f.verifier.claims = &auth.Claims{Email: "a@x.com"}
	_, err = f.svc.SignInWithGoogle(ctx, "google-id-token")
	requireAuthError(t, err, common.ErrorUnauthorized, "provider mismatch")
}

func TestRefreshToken(t *testing.T) {
	t.Run("rotates", func(t *testing.T) {
		f := newAuthFixture(t)
		f.seed(t, "u1", "a@x.com", "p", models.ProviderBasic)
		first, err := f.svc.SignInWithEmail(context.Background(), "a@x.com", "p")
		require.NoError(t, err)

		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
		second, err := f.svc.RefreshToken(context.Background(), first.RefreshToken)
		require.NoError(t, err)

		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
		assert.NotContains(t, f.st.tokens, first.RefreshToken)
		assert.Contains(t, f.st.tokens, second.RefreshToken)
		assert.Equal(t, "u1", second.Credential.ID)

		f.mock.ExpectBegin()
		f.mock.ExpectRollback()
		_, err = f.svc.RefreshToken(context.Background(), first.RefreshToken)
		requireAuthError(t, err, common.ErrorUnauthorized, "invalid refresh token")
		require.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("consumed by a concurrent refresh", func(t *testing.T) {
		f := newAuthFixture(t)
		f.seed(t, "u1", "a@x.com", "p", models.ProviderBasic)
		f.st.tokens["r"] = &models.RefreshToken{UserID: "u1", Token: "r", Expires: f.now.Add(time.Hour)}
		f.st.beforeConsume = func(token string) {
			f.st.mu.Lock()
			delete(f.st.tokens, token)
			f.st.mu.Unlock()
		}

		f.mock.ExpectBegin()
		f.mock.ExpectRollback()
		res, err := f.svc.RefreshToken(context.Background(), "r")
		requireAuthError(t, err, common.ErrorUnauthorized, "invalid refresh token")
		assert.Nil(t, res)
		assert.Empty(t, f.st.tokens, "no replacement pair issued")
		require.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("expired token is removed", func(t *testing.T) {
		f := newAuthFixture(t)
		f.st.tokens["old"] = &models.RefreshToken{UserID: "u1", Token: "old", Expires: f.now.Add(-time.Second)}

		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
		_, err := f.svc.RefreshToken(context.Background(), "old")
		requireAuthError(t, err, common.ErrorUnauthorized, "refresh token expired")
		assert.NotContains(t, f.st.tokens, "old")
		require.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("owner deleted", func(t *testing.T) {
		f := newAuthFixture(t)
		f.st.tokens["t"] = &models.RefreshToken{UserID: "gone", Token: "t", Expires: f.now.Add(time.Hour)}
		f.mock.ExpectBegin()
		f.mock.ExpectRollback()

		_, err := f.svc.RefreshToken(context.Background(), "t")
		requireAuthError(t, err, common.ErrorUnauthorized, "user not found")
		require.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestSignOut(t *testing.T) {
	f := newAuthFixture(t)
	f.st.tokens["t"] = &models.RefreshToken{UserID: "u1", Token: "t", Expires: f.now.Add(time.Hour)}

	require.NoError(t, f.svc.SignOut(context.Background(), "t"))
	assert.NotContains(t, f.st.tokens, "t")
	require.NoError(t, f.svc.SignOut(context.Background(), "t"), "idempotent")

	requireAuthError(t, f.svc.SignOut(context.Background(), ""), common.ErrorInvalidInput, "refresh token is required")
}

func TestLoadIdentity(t *testing.T) {
	f := newAuthFixture(t)
	f.seed(t, "u1", "a@x.com", "p", models.ProviderBasic)

	c, err := f.svc.LoadIdentity(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", c.ID)

	_, err = f.svc.LoadIdentity(context.Background(), "deleted@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	f.st.findErr = sql.ErrConnDone
	_, err = f.svc.LoadIdentity(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestCountryFromLocale(t *testing.T) {
	tests := []struct{ locale, want string }{
		{"id-ID", "ID"},
		{"pt_BR", "BR"},
		{"en-GB", "GB"},
		{"", "ID"},
		{"!!", "ID"},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			assert.Equal(t, tt.want, countryFromLocale(tt.locale, "ID"))
		})
	}
}
