package social_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/kloydmatyo/workqit-auth"
	"github.com/kloydmatyo/workqit-auth/social"
)

func googleProfile(mutate func(*social.Profile)) *social.Profile {
	p := &social.Profile{
		Subject:       "sub-12345",
		Provider:      "google",
		Email:         "member@example.com",
		EmailVerified: true,
		Name:          "Jane Van Dyke",
		AvatarURL:     "https://cdn.example.com/avatar.png",
	}
	if mutate != nil {
		mutate(p)
	}
	return p
}

func TestResolveRejectsUnusableProfiles(t *testing.T) {
	resolver := &social.Resolver{Accounts: setupAccounts(t)}

	_, err := resolver.Resolve(context.Background(), nil, "")
	assert.ErrorIs(t, err, social.ErrProfileFetchFailed)

	_, err = resolver.Resolve(context.Background(), googleProfile(func(p *social.Profile) {
		p.Subject = ""
	}), "")
	assert.ErrorIs(t, err, social.ErrProfileFetchFailed)
}

func TestResolveSubjectMatchWins(t *testing.T) {
	repo := setupAccounts(t)
	resolver := &social.Resolver{Accounts: repo}

	bySubject := seedAccount(t, repo, func(a *auth.Account) {
		a.Email = "linked@example.com"
		a.ProviderSubject = "sub-12345"
	})
	byEmail := seedAccount(t, repo, func(a *auth.Account) {
		a.Email = "member@example.com"
	})

	// profile email points at a different record, the subject still wins
	res, err := resolver.Resolve(context.Background(), googleProfile(nil), "")
	require.NoError(t, err)
	assert.Equal(t, bySubject.ID, res.Account.ID)
	assert.NotEqual(t, byEmail.ID, res.Account.ID)
	assert.False(t, res.IsNew)
	assert.False(t, res.Linked)
}

func TestResolveAttachesToEmailMatch(t *testing.T) {
	repo := setupAccounts(t)

	var linkedID string
	resolver := &social.Resolver{
		Accounts: repo,
		OnAccountLinked: func(ctx context.Context, account *auth.Account, profile *social.Profile) error {
			linkedID = account.ID.String()
			return nil
		},
	}

	existing := seedAccount(t, repo, func(a *auth.Account) {
		a.EmailVerified = false
		a.SetVerification(auth.EmailVerification{
			Token:     "pending-token",
			ExpiresAt: time.Now().Add(auth.VerificationTTL),
		})
	})

	res, err := resolver.Resolve(context.Background(), googleProfile(nil), "")
	require.NoError(t, err)
	require.True(t, res.Linked)
	assert.False(t, res.IsNew)

	account := res.Account
	assert.Equal(t, existing.ID, account.ID)
	assert.Equal(t, "sub-12345", account.ProviderSubject)
	assert.True(t, account.EmailVerified)
	assert.Nil(t, account.Verification())
	assert.Equal(t, auth.ProviderHybrid, account.Provider)
	assert.Equal(t, "https://cdn.example.com/avatar.png", account.ProfilePicture)
	assert.Equal(t, existing.ID.String(), linkedID)
}

func TestResolveAttachPreservesExistingSubject(t *testing.T) {
	repo := setupAccounts(t)
	resolver := &social.Resolver{Accounts: repo}

	existing := seedAccount(t, repo, func(a *auth.Account) {
		a.ProviderSubject = "google-sub-original"
	})

	// a second provider with the same email must not steal the binding
	res, err := resolver.Resolve(context.Background(), googleProfile(func(p *social.Profile) {
		p.Provider = "github"
		p.Subject = "github-sub-other"
	}), "")
	require.NoError(t, err)
	require.True(t, res.Linked)
	assert.Equal(t, existing.ID, res.Account.ID)
	assert.Equal(t, "google-sub-original", res.Account.ProviderSubject)

	// and the original binding still resolves by subject
	bySubject, err := repo.GetByProviderSubject(context.Background(), "google-sub-original")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, bySubject.ID)
}

func TestResolveAttachKeepsExistingAvatar(t *testing.T) {
	repo := setupAccounts(t)
	resolver := &social.Resolver{Accounts: repo}

	seedAccount(t, repo, func(a *auth.Account) {
		a.ProfilePicture = "https://cdn.example.com/original.png"
	})

	res, err := resolver.Resolve(context.Background(), googleProfile(nil), "")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/original.png", res.Account.ProfilePicture)
}

func TestResolveCreatesAccount(t *testing.T) {
	repo := setupAccounts(t)

	var createdID string
	resolver := &social.Resolver{
		Accounts:    repo,
		DefaultRole: auth.RoleStudent,
		OnAccountCreated: func(ctx context.Context, account *auth.Account, profile *social.Profile) error {
			createdID = account.ID.String()
			return nil
		},
	}

	t.Run("requested role applies to new accounts", func(t *testing.T) {
		res, err := resolver.Resolve(context.Background(), googleProfile(func(p *social.Profile) {
			p.Email = "Mentor@Example.com"
			p.Subject = "sub-mentor"
		}), "mentor")
		require.NoError(t, err)
		require.True(t, res.IsNew)

		account := res.Account
		assert.Equal(t, "mentor@example.com", account.Email)
		assert.Equal(t, auth.RoleMentor, account.Role)
		assert.Equal(t, auth.ProviderExternal, account.Provider)
		assert.True(t, account.EmailVerified)
		assert.Equal(t, "Jane", account.FirstName)
		assert.Equal(t, "Van Dyke", account.LastName)
		assert.Equal(t, account.ID.String(), createdID)
	})

	t.Run("unparseable role falls back to the default", func(t *testing.T) {
		res, err := resolver.Resolve(context.Background(), googleProfile(func(p *social.Profile) {
			p.Email = "other@example.com"
			p.Subject = "sub-other"
		}), "admin")
		require.NoError(t, err)
		assert.Equal(t, auth.RoleStudent, res.Account.Role)
	})

	t.Run("split names lose to explicit first and last", func(t *testing.T) {
		res, err := resolver.Resolve(context.Background(), googleProfile(func(p *social.Profile) {
			p.Email = "explicit@example.com"
			p.Subject = "sub-explicit"
			p.FirstName = "Ada"
			p.LastName = "Lovelace"
		}), "")
		require.NoError(t, err)
		assert.Equal(t, "Ada", res.Account.FirstName)
		assert.Equal(t, "Lovelace", res.Account.LastName)
	})
}

func TestResolveDefaultsRoleToJobSeeker(t *testing.T) {
	resolver := &social.Resolver{Accounts: setupAccounts(t)}

	res, err := resolver.Resolve(context.Background(), googleProfile(nil), "")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleJobSeeker, res.Account.Role)
}
