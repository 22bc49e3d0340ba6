package social

import "github.com/goliatone/go-errors"

const (
	TextCodeProviderNotFound  = "oauth_provider_not_found"
	TextCodeInvalidState      = "oauth_invalid_state"
	TextCodeStateExpired      = "oauth_state_expired"
	TextCodeTokenExchangeFail = "oauth_token_exchange_failed"
	TextCodeProfileFail       = "oauth_profile_failed"
	TextCodeLinkFailed        = "oauth_link_failed"
)

// ErrProviderNotFound is returned when a requested provider is not configured.
var ErrProviderNotFound = errors.New("oauth provider not found", errors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidState is returned when the OAuth state cannot be decoded or
// fails its signature check.
var ErrInvalidState = errors.New("invalid oauth state", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidState).
	WithCode(errors.CodeBadRequest)

// ErrStateExpired is returned when a signed OAuth state has expired.
var ErrStateExpired = errors.New("oauth state expired", errors.CategoryBadInput).
	WithTextCode(TextCodeStateExpired).
	WithCode(errors.CodeBadRequest)

// ErrTokenExchangeFailed is returned when the code-for-token exchange fails.
// The exchange is attempted once; there is no retry inside the request.
var ErrTokenExchangeFailed = errors.New("token exchange failed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExchangeFail).
	WithCode(errors.CodeUnauthorized)

// ErrProfileFetchFailed is returned when fetching the external profile fails.
var ErrProfileFetchFailed = errors.New("failed to fetch external profile", errors.CategoryAuth).
	WithTextCode(TextCodeProfileFail).
	WithCode(errors.CodeUnauthorized)

// ErrLinkFailed is returned when the resolved account could not be linked or
// persisted.
var ErrLinkFailed = errors.New("failed to link external identity", errors.CategoryInternal).
	WithTextCode(TextCodeLinkFailed).
	WithCode(errors.CodeInternal)
