package social_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/kloydmatyo/workqit-auth"
	"github.com/kloydmatyo/workqit-auth/social"
)

func newTokenService() auth.TokenService {
	return auth.NewTokenService(
		[]byte("social-test-key"),
		168,
		"workqit-test",
		jwt.ClaimStrings{"workqit:api"},
		nil,
	)
}

func newSocialAuth(t *testing.T, repo auth.Accounts, links social.IdentityLinkRepository, provider social.ExternalProvider, opts ...social.Option) *social.Authenticator {
	t.Helper()

	options := append([]social.Option{social.WithProvider(provider)}, opts...)
	return social.NewAuthenticator(repo, links, newTokenService(), social.Config{
		DefaultRedirectURL: "/home",
		DefaultRole:        auth.RoleJobSeeker,
	}, options...)
}

func TestBeginAuth(t *testing.T) {
	repo := setupAccounts(t)
	sa := newSocialAuth(t, repo, newMemoryLinks(), &fakeProvider{})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := sa.BeginAuth(context.Background(), "github", "", "")
		assert.ErrorIs(t, err, social.ErrProviderNotFound)
	})

	t.Run("state carries role and redirect", func(t *testing.T) {
		redirect, err := sa.BeginAuth(context.Background(), "google", "mentor", "/jobs")
		require.NoError(t, err)
		assert.Equal(t, "google", redirect.Provider)
		assert.True(t, strings.HasPrefix(redirect.URL, "https://accounts.example.com/authorize?state="))

		state, err := social.PlainStateCodec{}.Decode(redirect.State)
		require.NoError(t, err)
		assert.Equal(t, "mentor", state.Role)
		assert.Equal(t, "/jobs", state.RedirectURL)
		assert.NotEmpty(t, state.Nonce)
	})

	t.Run("empty redirect falls back to the default", func(t *testing.T) {
		redirect, err := sa.BeginAuth(context.Background(), "google", "", "")
		require.NoError(t, err)

		state, err := social.PlainStateCodec{}.Decode(redirect.State)
		require.NoError(t, err)
		assert.Equal(t, "/home", state.RedirectURL)
	})
}

func TestCompleteAuthCreatesAccountAndLink(t *testing.T) {
	repo := setupAccounts(t)
	links := newMemoryLinks()

	var recorded []auth.ActivityEvent
	sink := auth.ActivitySinkFunc(func(ctx context.Context, event auth.ActivityEvent) error {
		recorded = append(recorded, event)
		return nil
	})

	provider := &fakeProvider{profile: googleProfile(nil)}
	sa := newSocialAuth(t, repo, links, provider, social.WithActivitySink(sink))

	redirect, err := sa.BeginAuth(context.Background(), "google", "employer", "/dashboard")
	require.NoError(t, err)

	result, err := sa.CompleteAuth(context.Background(), "google", "auth-code", redirect.State)
	require.NoError(t, err)

	assert.True(t, result.IsNew)
	assert.False(t, result.Linked)
	assert.Equal(t, "/dashboard", result.RedirectURL)
	assert.Equal(t, auth.RoleEmployer, result.Account.Role)
	assert.Equal(t, "member@example.com", result.Account.Email)

	// the session token must verify against the same service
	claims, err := newTokenService().Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID.String(), claims.UserID())
	assert.Equal(t, string(auth.RoleEmployer), claims.Role())

	link, err := links.FindBySubject(context.Background(), "google", "sub-12345")
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID.String(), link.AccountID)
	assert.Equal(t, "access-auth-code", link.AccessToken)

	require.Len(t, recorded, 1)
	assert.Equal(t, auth.ActivityEventSocialLogin, recorded[0].EventType)
	assert.Equal(t, result.Account.ID.String(), recorded[0].UserID)
	assert.Equal(t, "social", recorded[0].Actor.Type)
	assert.Equal(t, true, recorded[0].Metadata["is_new_account"])
}

func TestCompleteAuthRepeatSignInReusesAccount(t *testing.T) {
	repo := setupAccounts(t)
	links := newMemoryLinks()
	provider := &fakeProvider{profile: googleProfile(nil)}
	sa := newSocialAuth(t, repo, links, provider)

	redirect, err := sa.BeginAuth(context.Background(), "google", "", "")
	require.NoError(t, err)

	first, err := sa.CompleteAuth(context.Background(), "google", "code-1", redirect.State)
	require.NoError(t, err)
	require.True(t, first.IsNew)

	second, err := sa.CompleteAuth(context.Background(), "google", "code-2", redirect.State)
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Equal(t, first.Account.ID, second.Account.ID)

	// the upsert refreshed the stored access token
	link, err := links.FindBySubject(context.Background(), "google", "sub-12345")
	require.NoError(t, err)
	assert.Equal(t, "access-code-2", link.AccessToken)
}

func TestCompleteAuthStateFallback(t *testing.T) {
	repo := setupAccounts(t)
	provider := &fakeProvider{profile: googleProfile(nil)}
	sa := newSocialAuth(t, repo, newMemoryLinks(), provider)

	// undecodable state downgrades to flow defaults, it does not abort
	result, err := sa.CompleteAuth(context.Background(), "google", "auth-code", "@@garbage@@")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleJobSeeker, result.Account.Role)
	assert.Equal(t, "/home", result.RedirectURL)
}

func TestCompleteAuthExpiredStateIsFatal(t *testing.T) {
	repo := setupAccounts(t)
	key := []byte("signed-state-key")
	provider := &fakeProvider{profile: googleProfile(nil)}

	sa := social.NewAuthenticator(repo, newMemoryLinks(), newTokenService(), social.Config{
		DefaultRole:  auth.RoleJobSeeker,
		StateHMACKey: key,
		StateTTL:     time.Minute,
	}, social.WithProvider(provider))

	codec := social.NewSignedStateCodec(key, time.Minute)
	stale, err := codec.Encode(&social.State{
		Role:     "employer",
		IssuedAt: time.Now().Add(-time.Hour).Unix(),
	})
	require.NoError(t, err)

	_, err = sa.CompleteAuth(context.Background(), "google", "auth-code", stale)
	assert.ErrorIs(t, err, social.ErrStateExpired)
}

func TestCompleteAuthProviderFailures(t *testing.T) {
	repo := setupAccounts(t)

	t.Run("unknown provider", func(t *testing.T) {
		sa := newSocialAuth(t, repo, newMemoryLinks(), &fakeProvider{})
		_, err := sa.CompleteAuth(context.Background(), "github", "code", "")
		assert.ErrorIs(t, err, social.ErrProviderNotFound)
	})

	t.Run("exchange failure", func(t *testing.T) {
		provider := &fakeProvider{exchangeErr: assert.AnError}
		sa := newSocialAuth(t, repo, newMemoryLinks(), provider)

		_, err := sa.CompleteAuth(context.Background(), "google", "bad-code", "")
		assert.ErrorIs(t, err, social.ErrTokenExchangeFailed)
	})

	t.Run("profile fetch failure", func(t *testing.T) {
		provider := &fakeProvider{profileErr: assert.AnError}
		sa := newSocialAuth(t, repo, newMemoryLinks(), provider)

		_, err := sa.CompleteAuth(context.Background(), "google", "code", "")
		assert.ErrorIs(t, err, social.ErrProfileFetchFailed)
	})
}

func TestListProvidersAndLinkedIdentities(t *testing.T) {
	repo := setupAccounts(t)
	links := newMemoryLinks()
	sa := newSocialAuth(t, repo, links, &fakeProvider{profile: googleProfile(nil)})

	assert.Equal(t, []string{"google"}, sa.ListProviders())

	result, err := sa.CompleteAuth(context.Background(), "google", "code", "")
	require.NoError(t, err)

	stored, err := sa.LinkedIdentities(context.Background(), result.Account.ID.String())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "sub-12345", stored[0].Subject)
}
