package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/kloydmatyo/workqit-auth/repository"
	"github.com/kloydmatyo/workqit-auth/social"

	_ "github.com/mattn/go-sqlite3"
)

const createIdentityLinksTable = `CREATE TABLE identity_links (
    id TEXT NOT NULL PRIMARY KEY,
    account_id TEXT NOT NULL,
    provider TEXT NOT NULL,
    subject TEXT NOT NULL,
    email TEXT,
    name TEXT,
    avatar_url TEXT,
    access_token TEXT,
    refresh_token TEXT,
    token_expires_at TIMESTAMP,
    profile_data TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (provider, subject)
);`

func setupLinks(t *testing.T) *repository.IdentityLinks {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())
	_, err = bunDB.Exec(createIdentityLinksTable)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	return repository.NewIdentityLinks(bunDB)
}

func newLink(accountID uuid.UUID, mutate func(*social.IdentityLink)) *social.IdentityLink {
	link := &social.IdentityLink{
		AccountID:   accountID.String(),
		Provider:    "google",
		Subject:     "sub-12345",
		Email:       "member@example.com",
		Name:        "Jane Van Dyke",
		AvatarURL:   "https://cdn.example.com/avatar.png",
		AccessToken: "access-1",
		ProfileData: map[string]any{"locale": "en"},
	}
	if mutate != nil {
		mutate(link)
	}
	return link
}

func TestIdentityLinksUpsertAndFind(t *testing.T) {
	repo := setupLinks(t)
	accountID := uuid.New()

	require.NoError(t, repo.Upsert(context.Background(), newLink(accountID, nil)))

	found, err := repo.FindBySubject(context.Background(), "google", "sub-12345")
	require.NoError(t, err)
	assert.Equal(t, accountID.String(), found.AccountID)
	assert.Equal(t, "member@example.com", found.Email)
	assert.Equal(t, "access-1", found.AccessToken)
}

func TestIdentityLinksUpsertRefreshesExisting(t *testing.T) {
	repo := setupLinks(t)
	accountID := uuid.New()

	require.NoError(t, repo.Upsert(context.Background(), newLink(accountID, nil)))

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, repo.Upsert(context.Background(), newLink(accountID, func(l *social.IdentityLink) {
		l.AccessToken = "access-2"
		l.RefreshToken = "refresh-2"
		l.TokenExpiresAt = &expires
	})))

	found, err := repo.FindBySubject(context.Background(), "google", "sub-12345")
	require.NoError(t, err)
	assert.Equal(t, "access-2", found.AccessToken)
	assert.Equal(t, "refresh-2", found.RefreshToken)
	require.NotNil(t, found.TokenExpiresAt)

	// keyed on (provider, subject), the repeat stayed a single row
	all, err := repo.FindByAccountID(context.Background(), accountID.String())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIdentityLinksFindBySubjectMissing(t *testing.T) {
	repo := setupLinks(t)

	_, err := repo.FindBySubject(context.Background(), "google", "unknown")
	assert.Error(t, err)
}

func TestIdentityLinksFindByAccountID(t *testing.T) {
	repo := setupLinks(t)
	accountID := uuid.New()

	require.NoError(t, repo.Upsert(context.Background(), newLink(accountID, nil)))
	require.NoError(t, repo.Upsert(context.Background(), newLink(accountID, func(l *social.IdentityLink) {
		l.Provider = "github"
		l.Subject = "gh-777"
	})))
	require.NoError(t, repo.Upsert(context.Background(), newLink(uuid.New(), func(l *social.IdentityLink) {
		l.Subject = "sub-other"
	})))

	links, err := repo.FindByAccountID(context.Background(), accountID.String())
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestIdentityLinksFindByAccountIDEmpty(t *testing.T) {
	repo := setupLinks(t)

	links, err := repo.FindByAccountID(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, links)
}
