package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuthProvider describes how an account authenticates.
type AuthProvider = string

const (
	// ProviderLocal authenticates with a password only
	ProviderLocal AuthProvider = "local"
	// ProviderExternal authenticates through an external identity provider only
	ProviderExternal AuthProvider = "external"
	// ProviderHybrid has both a password and a linked external identity
	ProviderHybrid AuthProvider = "hybrid"
)

// EmailVerification is an outstanding verification cycle. A nil pointer on the
// account means no cycle is pending; the pair is cleared atomically on success.
type EmailVerification struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the cycle has run out at the given instant.
func (v EmailVerification) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

// Account is the identity record, one per person, role tagged.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID              uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email           string       `bun:"email,notnull,unique" json:"email,omitempty"`
	Role            AccountRole  `bun:"account_role,notnull" json:"role,omitempty"`
	PasswordHash    string       `bun:"password_hash" json:"-"`
	HasPassword     bool         `bun:"has_password" json:"has_password"`
	Provider        AuthProvider `bun:"auth_provider,notnull" json:"auth_provider,omitempty"`
	ProviderSubject string       `bun:"provider_subject,nullzero" json:"provider_subject,omitempty"`
	EmailVerified   bool         `bun:"is_email_verified" json:"is_email_verified"`

	VerificationToken     string     `bun:"verification_token,nullzero" json:"-"`
	VerificationExpiresAt *time.Time `bun:"verification_expires_at,nullzero" json:"-"`

	FirstName      string     `bun:"first_name" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name" json:"last_name,omitempty"`
	Headline       string     `bun:"headline" json:"headline,omitempty"`
	Skills         []string   `bun:"skills,type:jsonb" json:"skills,omitempty"`
	Location       string     `bun:"location" json:"location,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	ProfilePicture string     `bun:"profile_picture" json:"profile_picture,omitempty"`

	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NormalizeEmail lower-cases and trims an email for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Verification returns the pending verification cycle, if any.
func (a *Account) Verification() *EmailVerification {
	if a.VerificationToken == "" || a.VerificationExpiresAt == nil {
		return nil
	}
	return &EmailVerification{
		Token:     a.VerificationToken,
		ExpiresAt: *a.VerificationExpiresAt,
	}
}

// SetVerification starts a verification cycle, replacing any outstanding one.
func (a *Account) SetVerification(v EmailVerification) {
	a.VerificationToken = v.Token
	expires := v.ExpiresAt
	a.VerificationExpiresAt = &expires
}

// ClearVerification ends the outstanding cycle.
func (a *Account) ClearVerification() {
	a.VerificationToken = ""
	a.VerificationExpiresAt = nil
}

// RecomputeProvider re-derives the auth provider tag from the credential and
// external identity currently on the record. Keeps the invariant
// HasPassword == (Provider is local or hybrid).
func (a *Account) RecomputeProvider() {
	a.HasPassword = a.PasswordHash != ""

	switch {
	case a.HasPassword && a.ProviderSubject != "":
		a.Provider = ProviderHybrid
	case a.ProviderSubject != "":
		a.Provider = ProviderExternal
	default:
		a.Provider = ProviderLocal
	}
}

// Sanitized returns a copy safe to hand back to clients, with the credential
// hash and verification pair stripped.
func (a Account) Sanitized() *Account {
	a.PasswordHash = ""
	a.ClearVerification()
	return &a
}
