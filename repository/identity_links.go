package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/kloydmatyo/workqit-auth/social"
	"github.com/uptrace/bun"
)

// IdentityLinkModel is the Bun model for linked external identities.
type IdentityLinkModel struct {
	bun.BaseModel `bun:"table:identity_links,alias:idl"`

	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid"`
	AccountID      uuid.UUID      `bun:"account_id,notnull,type:uuid"`
	Provider       string         `bun:"provider,notnull"`
	Subject        string         `bun:"subject,notnull"`
	Email          string         `bun:"email"`
	Name           string         `bun:"name"`
	AvatarURL      string         `bun:"avatar_url"`
	AccessToken    string         `bun:"access_token"`
	RefreshToken   string         `bun:"refresh_token"`
	TokenExpiresAt *time.Time     `bun:"token_expires_at"`
	ProfileData    map[string]any `bun:"profile_data,type:jsonb"`
	CreatedAt      time.Time      `bun:"created_at,default:current_timestamp"`
	UpdatedAt      time.Time      `bun:"updated_at,default:current_timestamp"`
}

// IdentityLinks implements social.IdentityLinkRepository using Bun.
type IdentityLinks struct {
	db *bun.DB
}

// NewIdentityLinks creates a new repository.
func NewIdentityLinks(db *bun.DB) *IdentityLinks {
	return &IdentityLinks{db: db}
}

// FindBySubject implements social.IdentityLinkRepository.
func (r *IdentityLinks) FindBySubject(ctx context.Context, provider, subject string) (*social.IdentityLink, error) {
	var model IdentityLinkModel
	err := r.db.NewSelect().
		Model(&model).
		Where("provider = ? AND subject = ?", provider, subject).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return r.toLink(&model), nil
}

// FindByAccountID implements social.IdentityLinkRepository.
func (r *IdentityLinks) FindByAccountID(ctx context.Context, accountID string) ([]*social.IdentityLink, error) {
	var models []IdentityLinkModel
	err := r.db.NewSelect().
		Model(&models).
		Where("account_id = ?", accountID).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return []*social.IdentityLink{}, nil
		}
		return nil, err
	}

	links := make([]*social.IdentityLink, len(models))
	for i, m := range models {
		links[i] = r.toLink(&m)
	}
	return links, nil
}

// Upsert implements social.IdentityLinkRepository. Keyed on
// (provider, subject) so repeating a sign-in refreshes the stored tokens and
// profile snapshot instead of growing the table.
func (r *IdentityLinks) Upsert(ctx context.Context, link *social.IdentityLink) error {
	model := r.fromLink(link)
	model.UpdatedAt = time.Now()

	_, err := r.db.NewInsert().
		Model(model).
		On("CONFLICT (provider, subject) DO UPDATE").
		Set("account_id = EXCLUDED.account_id").
		Set("email = EXCLUDED.email").
		Set("name = EXCLUDED.name").
		Set("avatar_url = EXCLUDED.avatar_url").
		Set("access_token = EXCLUDED.access_token").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("token_expires_at = EXCLUDED.token_expires_at").
		Set("profile_data = EXCLUDED.profile_data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	return err
}

func (r *IdentityLinks) toLink(m *IdentityLinkModel) *social.IdentityLink {
	link := &social.IdentityLink{
		ID:           m.ID.String(),
		AccountID:    m.AccountID.String(),
		Provider:     m.Provider,
		Subject:      m.Subject,
		Email:        m.Email,
		Name:         m.Name,
		AvatarURL:    m.AvatarURL,
		AccessToken:  m.AccessToken,
		RefreshToken: m.RefreshToken,
		ProfileData:  m.ProfileData,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	link.TokenExpiresAt = m.TokenExpiresAt
	return link
}

func (r *IdentityLinks) fromLink(l *social.IdentityLink) *IdentityLinkModel {
	if l == nil {
		return &IdentityLinkModel{
			ID:          uuid.New(),
			ProfileData: map[string]any{},
		}
	}

	var id uuid.UUID
	if l.ID != "" {
		if parsed, err := uuid.Parse(l.ID); err == nil {
			id = parsed
		}
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	var accountID uuid.UUID
	if l.AccountID != "" {
		if parsed, err := uuid.Parse(l.AccountID); err == nil {
			accountID = parsed
		}
	}

	profileData := map[string]any{}
	if l.ProfileData != nil {
		profileData = l.ProfileData
	}

	model := &IdentityLinkModel{
		ID:           id,
		AccountID:    accountID,
		Provider:     l.Provider,
		Subject:      l.Subject,
		Email:        l.Email,
		Name:         l.Name,
		AvatarURL:    l.AvatarURL,
		AccessToken:  l.AccessToken,
		RefreshToken: l.RefreshToken,
		ProfileData:  profileData,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
	model.TokenExpiresAt = l.TokenExpiresAt
	return model
}
