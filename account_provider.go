package auth

import (
	"context"

	"github.com/goliatone/go-errors"
)

// AccountTracker is a store we can use to retrieve accounts during login
type AccountTracker interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByAccountID(ctx context.Context, id string) (*Account, error)
	TrackAttemptedLogin(ctx context.Context, account *Account) error
	TrackSuccessfulLogin(ctx context.Context, account *Account) error
}

// AccountProvider resolves identities against the credential store
type AccountProvider struct {
	store  AccountTracker
	logger Logger
}

// MaxLoginAttempts is the maximum number of attempts an account gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// NewAccountProvider will create a new AccountProvider
func NewAccountProvider(store AccountTracker) *AccountProvider {
	return &AccountProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (p *AccountProvider) WithLogger(l Logger) *AccountProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

// VerifyIdentity runs the login state machine. Step order matters:
//  1. lookup by normalized email; unknown emails and wrong passwords share
//     ErrInvalidCredentials so the two are indistinguishable
//  2. unverified email rejects before any password work
//  3. external-only accounts cannot present a password at all
//  4. constant-time hash comparison, counting failed attempts
func (p AccountProvider) VerifyIdentity(ctx context.Context, email, password string) (Identity, error) {
	account, err := p.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account during verification")
	}

	if !account.EmailVerified {
		return nil, errors.Wrap(ErrEmailNotVerified, ErrEmailNotVerified.Category, ErrEmailNotVerified.Message).
			WithTextCode(ErrEmailNotVerified.TextCode).
			WithMetadata(map[string]any{"email": account.Email})
	}

	if account.Provider == ProviderExternal {
		return nil, ErrExternalOnlyAccount
	}

	if account.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*account.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			account.LoginAttempts = 0
		}
	}

	if account.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		if err2 := p.store.TrackAttemptedLogin(ctx, account); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrInvalidCredentials
	}

	if err := p.store.TrackSuccessfulLogin(ctx, account); err != nil {
		p.logger.Error("failed to track successful login: %v", err)
	}

	return NewIdentityFromAccount(account), nil
}

// FindIdentityByIdentifier resolves an identity by account id or email.
func (p AccountProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	account, err := p.store.GetByAccountID(ctx, identifier)
	if err != nil {
		return nil, err
	}

	return NewIdentityFromAccount(account), nil
}

type authIdentity struct {
	id    string
	email string
	role  string
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) Role() string {
	return a.role
}

// NewIdentityFromAccount adapts an account record into an Identity.
func NewIdentityFromAccount(account *Account) Identity {
	if account == nil {
		return nil
	}

	return authIdentity{
		id:    account.ID.String(),
		email: account.Email,
		role:  string(account.Role),
	}
}
