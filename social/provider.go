package social

import (
	"context"
	"time"
)

// ExternalProvider is an OAuth2 identity provider (Google and friends).
// Implementations make a single attempt per call and rely on the request
// context for cancellation; retry policy belongs to the caller.
type ExternalProvider interface {
	// Name returns the provider identifier (e.g., "google").
	Name() string

	// AuthCodeURL returns the URL to redirect users for authorization.
	// The state parameter is threaded through the provider untouched.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for an access token.
	Exchange(ctx context.Context, code string) (*Token, error)

	// FetchProfile fetches the user's profile using the access token.
	FetchProfile(ctx context.Context, token *Token) (*Profile, error)
}

// Token represents an OAuth2 token response.
type Token struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	ExpiresAt    time.Time
	Scopes       []string
	Raw          map[string]any
}

// Profile is the normalized identity a provider reports back.
type Profile struct {
	Subject       string
	Provider      string
	Email         string
	EmailVerified bool
	Name          string
	FirstName     string
	LastName      string
	AvatarURL     string
	Raw           map[string]any
}
