package social_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	auth "github.com/kloydmatyo/workqit-auth"
	"github.com/kloydmatyo/workqit-auth/social"

	_ "github.com/mattn/go-sqlite3"
)

const createAccountsTable = `CREATE TABLE accounts (
    id TEXT NOT NULL PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    account_role TEXT NOT NULL,
    password_hash TEXT,
    has_password BOOLEAN NOT NULL DEFAULT FALSE,
    auth_provider TEXT NOT NULL DEFAULT 'local',
    provider_subject TEXT,
    is_email_verified BOOLEAN NOT NULL DEFAULT FALSE,
    verification_token TEXT,
    verification_expires_at TIMESTAMP,
    first_name TEXT,
    last_name TEXT,
    headline TEXT,
    skills TEXT,
    location TEXT,
    phone_number TEXT,
    profile_picture TEXT,
    login_attempts INTEGER NOT NULL DEFAULT 0,
    login_attempt_at TIMESTAMP,
    loggedin_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

func setupAccounts(t *testing.T) auth.Accounts {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())
	_, err = bunDB.Exec(createAccountsTable)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	return auth.NewAccountsRepository(bunDB)
}

func seedAccount(t *testing.T, repo auth.Accounts, mutate func(*auth.Account)) *auth.Account {
	t.Helper()

	hash, err := auth.HashPassword("Str0ng&Secret12")
	require.NoError(t, err)

	account := &auth.Account{
		Email:         "member@example.com",
		Role:          auth.RoleJobSeeker,
		PasswordHash:  hash,
		EmailVerified: true,
	}
	if mutate != nil {
		mutate(account)
	}

	created, err := repo.Register(context.Background(), account)
	require.NoError(t, err)
	return created
}

// memoryLinks is an in-memory IdentityLinkRepository keyed on
// (provider, subject), matching the persistence contract.
type memoryLinks struct {
	mu    sync.Mutex
	links map[string]*social.IdentityLink
}

func newMemoryLinks() *memoryLinks {
	return &memoryLinks{links: map[string]*social.IdentityLink{}}
}

func (m *memoryLinks) key(provider, subject string) string {
	return provider + "|" + subject
}

func (m *memoryLinks) FindBySubject(ctx context.Context, provider, subject string) (*social.IdentityLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[m.key(provider, subject)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return link, nil
}

func (m *memoryLinks) FindByAccountID(ctx context.Context, accountID string) ([]*social.IdentityLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*social.IdentityLink{}
	for _, link := range m.links {
		if link.AccountID == accountID {
			out = append(out, link)
		}
	}
	return out, nil
}

func (m *memoryLinks) Upsert(ctx context.Context, link *social.IdentityLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[m.key(link.Provider, link.Subject)] = link
	return nil
}

// fakeProvider is a canned ExternalProvider for flow tests.
type fakeProvider struct {
	name        string
	token       *social.Token
	profile     *social.Profile
	exchangeErr error
	profileErr  error
}

func (p *fakeProvider) Name() string {
	if p.name == "" {
		return "google"
	}
	return p.name
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + state
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (*social.Token, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	if p.token != nil {
		return p.token, nil
	}
	return &social.Token{AccessToken: "access-" + code, TokenType: "Bearer"}, nil
}

func (p *fakeProvider) FetchProfile(ctx context.Context, token *social.Token) (*social.Profile, error) {
	if p.profileErr != nil {
		return nil, p.profileErr
	}
	return p.profile, nil
}
