package social

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
	auth "github.com/kloydmatyo/workqit-auth"
)

// Authenticator orchestrates the external sign-in flow: build the provider
// redirect, then turn the callback into a linked account and a session token.
type Authenticator struct {
	providers map[string]ExternalProvider
	codec     StateCodec
	resolver  *Resolver
	links     IdentityLinkRepository
	tokens    auth.TokenService
	sink      auth.ActivitySink
	logger    auth.Logger
	config    Config
}

// Config configures the social authenticator.
type Config struct {
	// DefaultRedirectURL is where a completed flow lands when the state
	// carries no redirect of its own.
	DefaultRedirectURL string

	// DefaultRole is assigned to fresh accounts when the state carries no
	// usable role.
	DefaultRole auth.AccountRole

	// StateHMACKey switches state encoding to the signed codec when set.
	StateHMACKey []byte

	// StateTTL bounds signed states. Ignored by the plain codec.
	StateTTL time.Duration
}

// Option configures the social authenticator.
type Option func(*Authenticator)

// NewAuthenticator creates a social authenticator.
func NewAuthenticator(
	accounts auth.Accounts,
	links IdentityLinkRepository,
	tokens auth.TokenService,
	config Config,
	opts ...Option,
) *Authenticator {
	cfg := config
	if cfg.DefaultRedirectURL == "" {
		cfg.DefaultRedirectURL = "/"
	}
	if cfg.DefaultRole == "" {
		cfg.DefaultRole = auth.RoleJobSeeker
	}

	sa := &Authenticator{
		providers: make(map[string]ExternalProvider),
		links:     links,
		tokens:    tokens,
		logger:    auth.DefaultLogger(),
		config:    cfg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sa)
		}
	}

	if sa.codec == nil {
		if len(cfg.StateHMACKey) > 0 {
			sa.codec = NewSignedStateCodec(cfg.StateHMACKey, cfg.StateTTL)
		} else {
			sa.codec = PlainStateCodec{}
		}
	}

	if sa.resolver == nil {
		sa.resolver = &Resolver{
			Accounts:    accounts,
			DefaultRole: cfg.DefaultRole,
		}
	}

	return sa
}

// WithProvider registers an external provider.
func WithProvider(provider ExternalProvider) Option {
	return func(sa *Authenticator) {
		if provider == nil {
			return
		}
		sa.providers[provider.Name()] = provider
	}
}

// WithStateCodec sets a custom state codec.
func WithStateCodec(codec StateCodec) Option {
	return func(sa *Authenticator) {
		sa.codec = codec
	}
}

// WithResolver sets a custom account resolver.
func WithResolver(resolver *Resolver) Option {
	return func(sa *Authenticator) {
		sa.resolver = resolver
	}
}

// WithActivitySink sets the activity sink for audit events.
func WithActivitySink(sink auth.ActivitySink) Option {
	return func(sa *Authenticator) {
		sa.sink = sink
	}
}

// WithLogger sets the logger.
func WithLogger(logger auth.Logger) Option {
	return func(sa *Authenticator) {
		if logger != nil {
			sa.logger = logger
		}
	}
}

// AuthRedirect contains the authorization URL for redirecting users.
type AuthRedirect struct {
	URL      string
	State    string
	Provider string
}

// AuthResult is a completed flow: the resolved account and its session token.
type AuthResult struct {
	Account     *auth.Account
	Token       string
	IsNew       bool
	Linked      bool
	Provider    string
	Profile     *Profile
	RedirectURL string
}

// BeginAuth starts the OAuth flow for a provider. The caller's role pick and
// redirect travel to the provider inside the state parameter.
func (sa *Authenticator) BeginAuth(ctx context.Context, providerName, role, redirectURL string) (*AuthRedirect, error) {
	provider, ok := sa.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	if redirectURL == "" {
		redirectURL = sa.config.DefaultRedirectURL
	}

	state := &State{
		Role:        role,
		RedirectURL: redirectURL,
		Nonce:       generateNonce(),
		IssuedAt:    time.Now().Unix(),
	}

	stateToken, err := sa.codec.Encode(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	return &AuthRedirect{
		URL:      provider.AuthCodeURL(stateToken),
		State:    stateToken,
		Provider: providerName,
	}, nil
}

// CompleteAuth finishes the OAuth flow after the provider callback. A state
// that cannot be decoded downgrades to flow defaults instead of aborting:
// by that point the provider has already vouched for the identity, and the
// state only carries role and redirect hints.
func (sa *Authenticator) CompleteAuth(ctx context.Context, providerName, code, stateToken string) (*AuthResult, error) {
	provider, ok := sa.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	state, err := sa.codec.Decode(stateToken)
	if err != nil {
		if errors.Is(err, ErrStateExpired) {
			return nil, ErrStateExpired
		}
		sa.logger.Warn("oauth state decode failed, using flow defaults", "error", err)
		state = &State{Role: sa.config.DefaultRole}
	}

	token, err := provider.Exchange(ctx, code)
	if err != nil {
		return nil, wrapProviderError(ErrTokenExchangeFailed, providerName, "exchange", err)
	}

	profile, err := provider.FetchProfile(ctx, token)
	if err != nil {
		return nil, wrapProviderError(ErrProfileFetchFailed, providerName, "profile", err)
	}

	resolution, err := sa.resolver.Resolve(ctx, profile, state.Role)
	if err != nil {
		return nil, err
	}
	if resolution == nil || resolution.Account == nil {
		return nil, auth.ErrIdentityNotFound
	}
	account := resolution.Account

	if err := sa.saveLink(ctx, account, providerName, profile, token); err != nil {
		return nil, err
	}

	identity := auth.NewIdentityFromAccount(account)
	jwtToken, err := sa.tokens.Generate(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	sa.recordLogin(ctx, account, providerName, profile, resolution.IsNew)

	redirectURL := state.RedirectURL
	if redirectURL == "" {
		redirectURL = sa.config.DefaultRedirectURL
	}

	return &AuthResult{
		Account:     account,
		Token:       jwtToken,
		IsNew:       resolution.IsNew,
		Linked:      resolution.Linked,
		Provider:    providerName,
		Profile:     profile,
		RedirectURL: redirectURL,
	}, nil
}

// ListProviders returns the registered provider names.
func (sa *Authenticator) ListProviders() []string {
	names := make([]string, 0, len(sa.providers))
	for name := range sa.providers {
		names = append(names, name)
	}
	return names
}

// LinkedIdentities returns the stored links for an account.
func (sa *Authenticator) LinkedIdentities(ctx context.Context, accountID string) ([]*IdentityLink, error) {
	if sa.links == nil {
		return nil, nil
	}
	return sa.links.FindByAccountID(ctx, accountID)
}

func (sa *Authenticator) saveLink(ctx context.Context, account *auth.Account, providerName string, profile *Profile, token *Token) error {
	if sa.links == nil {
		return nil
	}

	link := &IdentityLink{
		AccountID: account.ID.String(),
		Provider:  providerName,
		Subject:   profile.Subject,
		Email:     profile.Email,
		Name:      profile.Name,
		AvatarURL: profile.AvatarURL,
	}
	if token != nil {
		link.AccessToken = token.AccessToken
		link.RefreshToken = token.RefreshToken
		link.ProfileData = profile.Raw
		if !token.ExpiresAt.IsZero() {
			expiresAt := token.ExpiresAt
			link.TokenExpiresAt = &expiresAt
		}
	}

	if err := sa.links.Upsert(ctx, link); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to save identity link").
			WithTextCode(TextCodeLinkFailed)
	}

	return nil
}

func (sa *Authenticator) recordLogin(ctx context.Context, account *auth.Account, providerName string, profile *Profile, isNew bool) {
	if sa.sink == nil {
		return
	}

	err := sa.sink.Record(ctx, auth.ActivityEvent{
		EventType:  auth.ActivityEventSocialLogin,
		UserID:     account.ID.String(),
		Actor:      auth.ActorRef{Type: "social", ID: providerName},
		OccurredAt: time.Now(),
		Metadata: map[string]any{
			"provider":       providerName,
			"subject":        profile.Subject,
			"is_new_account": isNew,
		},
	})
	if err != nil {
		sa.logger.Warn("activity sink error", "error", err)
	}
}
