package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/refreshtokens"
)

// memStore backs every fake repository. Transactions are not simulated;
// sqlmock asserts begin/commit/rollback instead.
type memStore struct {
	mu       sync.Mutex
	creds    map[string]*models.UserCredential
	profiles map[string]*models.UserProfile
	tokens   map[string]*models.RefreshToken

	lookups int
	writes  int

	createCredErr error
	findErr       error

	// beforeConsume runs ahead of Consume, outside the lock.
	beforeConsume func(token string)
}

func newMemStore() *memStore {
	return &memStore{
		creds:    map[string]*models.UserCredential{},
		profiles: map[string]*models.UserProfile{},
		tokens:   map[string]*models.RefreshToken{},
	}
}

func (m *memStore) put(c *models.UserCredential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[c.Email] = c
	m.profiles[c.ID] = c.Profile
}

type fakeRepoManager struct{ st *memStore }

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Credentials(dbx.DBTX) credentials.Repository {
	return &fakeCredentials{f.st}
}
func (f *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository { return &fakeProfiles{f.st} }
func (f *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return &fakeRefreshTokens{f.st}
}

type fakeCredentials struct{ st *memStore }

func (f *fakeCredentials) FindByEmail(_ context.Context, email string) (*models.UserCredential, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.lookups++
	if f.st.findErr != nil {
		return nil, f.st.findErr
	}
	c, ok := f.st.creds[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func (f *fakeCredentials) FindByID(_ context.Context, id string) (*models.UserCredential, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.lookups++
	for _, c := range f.st.creds {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeCredentials) ExistsByEmail(_ context.Context, email string) (bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	_, ok := f.st.creds[email]
	return ok, nil
}

func (f *fakeCredentials) Create(_ context.Context, c *models.UserCredential) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if f.st.createCredErr != nil {
		return f.st.createCredErr
	}
	f.st.writes++
	f.st.creds[c.Email] = c
	return nil
}

type fakeProfiles struct{ st *memStore }

func (f *fakeProfiles) Create(_ context.Context, p *models.UserProfile) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.writes++
	f.st.profiles[p.ID] = p
	return nil
}

func (f *fakeProfiles) FindAll(_ context.Context, page models.Page) ([]*models.UserProfile, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	out := make([]*models.UserProfile, 0, len(f.st.profiles))
	for _, p := range f.st.profiles {
		out = append(out, p)
	}
	if page.Offset() >= len(out) {
		return []*models.UserProfile{}, nil
	}
	end := min(page.Offset()+page.Size, len(out))
	return out[page.Offset():end], nil
}

func (f *fakeProfiles) Count(context.Context) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return int64(len(f.st.profiles)), nil
}

func (f *fakeProfiles) FindByID(_ context.Context, id string) (*models.UserProfile, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	p, ok := f.st.profiles[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (f *fakeProfiles) UpdatePicture(_ context.Context, id, picture string, at time.Time) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	p, ok := f.st.profiles[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.ProfilePicture = &picture
	p.UpdatedAt = at
	return nil
}

type fakeRefreshTokens struct{ st *memStore }

func (f *fakeRefreshTokens) Create(_ context.Context, userID, token string, expiresAt time.Time) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: expiresAt}
	return nil
}

func (f *fakeRefreshTokens) Consume(_ context.Context, token string) (*models.RefreshToken, error) {
	if f.st.beforeConsume != nil {
		f.st.beforeConsume(token)
	}
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	t, ok := f.st.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.st.tokens, token)
	return t, nil
}

func (f *fakeRefreshTokens) Delete(_ context.Context, token string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	delete(f.st.tokens, token)
	return nil
}

// fakeVerifier returns canned claims (or err) and records the calls.
type fakeVerifier struct {
	claims *auth.Claims
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(context.Context, string) (*auth.Claims, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}
