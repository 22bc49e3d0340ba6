package social

import (
	"context"
	"time"
)

// IdentityLink is the stored record of a linked external identity: the
// provider subject plus the token and profile snapshot from the last
// completed flow.
type IdentityLink struct {
	ID             string         `json:"id"`
	AccountID      string         `json:"account_id"`
	Provider       string         `json:"provider"`
	Subject        string         `json:"subject"`
	Email          string         `json:"email,omitempty"`
	Name           string         `json:"name,omitempty"`
	AvatarURL      string         `json:"avatar_url,omitempty"`
	AccessToken    string         `json:"-"`
	RefreshToken   string         `json:"-"`
	TokenExpiresAt *time.Time     `json:"token_expires_at,omitempty"`
	ProfileData    map[string]any `json:"profile_data,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IdentityLinkRepository manages identity link persistence. Upsert keyed by
// (provider, subject) makes repeated sign-ins idempotent at the link level.
type IdentityLinkRepository interface {
	FindBySubject(ctx context.Context, provider, subject string) (*IdentityLink, error)
	FindByAccountID(ctx context.Context, accountID string) ([]*IdentityLink, error)
	Upsert(ctx context.Context, link *IdentityLink) error
}
