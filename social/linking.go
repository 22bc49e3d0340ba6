package social

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
	auth "github.com/kloydmatyo/workqit-auth"
)

// Resolver maps an external profile onto exactly one account. Resolution
// order: provider subject first, then normalized email, then a fresh account.
// A subject match always wins, even when the profile email points at a
// different record.
type Resolver struct {
	Accounts    auth.Accounts
	DefaultRole auth.AccountRole

	OnAccountCreated func(ctx context.Context, account *auth.Account, profile *Profile) error
	OnAccountLinked  func(ctx context.Context, account *auth.Account, profile *Profile) error
}

// Resolution is the outcome of resolving a profile.
type Resolution struct {
	Account *auth.Account
	IsNew   bool
	Linked  bool
}

// Resolve finds or creates the account for a profile. The requested role only
// applies when a new account is created; existing accounts keep theirs.
func (r *Resolver) Resolve(ctx context.Context, profile *Profile, requestedRole string) (*Resolution, error) {
	if profile == nil || profile.Subject == "" {
		return nil, ErrProfileFetchFailed
	}
	if r.Accounts == nil {
		return nil, ErrLinkFailed
	}

	existing, err := r.Accounts.GetByProviderSubject(ctx, profile.Subject)
	if err == nil && existing != nil {
		return &Resolution{Account: existing}, nil
	}
	if err != nil && !errors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to find account by subject: %w", err)
	}

	if profile.Email != "" {
		account, err := r.Accounts.GetByEmail(ctx, profile.Email)
		if err == nil && account != nil {
			linked, err := r.attach(ctx, account, profile)
			if err != nil {
				return nil, err
			}
			return &Resolution{Account: linked, Linked: true}, nil
		}
		if err != nil && !errors.IsNotFound(err) {
			return nil, fmt.Errorf("failed to find account by email: %w", err)
		}
	}

	created, err := r.create(ctx, profile, requestedRole)
	if err != nil {
		return nil, err
	}

	return &Resolution{Account: created, IsNew: true}, nil
}

// attach links the external identity to an existing local account. The
// provider proved control of the email, so the account is marked verified
// even if the local verification cycle never completed. An already-linked
// subject is never overwritten: the subject lookup owns that binding, and a
// second provider reaching here keeps resolving through its identity link.
func (r *Resolver) attach(ctx context.Context, account *auth.Account, profile *Profile) (*auth.Account, error) {
	if account.ProviderSubject == "" {
		account.ProviderSubject = profile.Subject
	}
	account.EmailVerified = true
	account.ClearVerification()
	account.RecomputeProvider()

	if account.ProfilePicture == "" && profile.AvatarURL != "" {
		account.ProfilePicture = profile.AvatarURL
	}

	updated, err := r.Accounts.Save(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to link external identity: %w", err)
	}

	if r.OnAccountLinked != nil {
		if err := r.OnAccountLinked(ctx, updated, profile); err != nil {
			return nil, err
		}
	}

	return updated, nil
}

func (r *Resolver) create(ctx context.Context, profile *Profile, requestedRole string) (*auth.Account, error) {
	role, ok := auth.ParseSignupRole(requestedRole)
	if !ok {
		role = r.DefaultRole
	}
	if role == "" {
		role = auth.RoleJobSeeker
	}

	account := &auth.Account{
		Email:           auth.NormalizeEmail(profile.Email),
		Role:            role,
		ProviderSubject: profile.Subject,
		EmailVerified:   true,
		ProfilePicture:  profile.AvatarURL,
	}
	account.RecomputeProvider()

	if profile.FirstName != "" {
		account.FirstName = profile.FirstName
		account.LastName = profile.LastName
	} else if profile.Name != "" {
		parts := strings.SplitN(profile.Name, " ", 2)
		account.FirstName = parts[0]
		if len(parts) > 1 {
			account.LastName = parts[1]
		}
	}

	created, err := r.Accounts.Register(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if r.OnAccountCreated != nil {
		if err := r.OnAccountCreated(ctx, created, profile); err != nil {
			return nil, err
		}
	}

	return created, nil
}
