package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "auth_invalid_credentials"
	TextCodeEmailNotVerified   = "auth_email_not_verified"
	TextCodeExternalOnly       = "auth_external_sign_in_required"
	TextCodeTokenExpired       = "auth_token_expired"
	TextCodeTokenMalformed     = "auth_token_malformed"
	TextCodeForbidden          = "auth_forbidden"
	TextCodeTooManyAttempts    = "auth_too_many_attempts"
	TextCodeWeakPassword       = "auth_weak_password"
)

// ErrInvalidCredentials is returned both for unknown emails and for wrong
// passwords. The single shared value keeps the two failure modes
// indistinguishable to callers, which closes the account enumeration side
// channel.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrEmailNotVerified rejects local-credential logins until the email
// verification cycle completes.
var ErrEmailNotVerified = errors.New("email address not verified", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeForbidden)

// ErrExternalOnlyAccount rejects password logins for accounts that only carry
// an external identity.
var ErrExternalOnlyAccount = errors.New("account requires external sign-in", errors.CategoryAuth).
	WithTextCode(TextCodeExternalOnly).
	WithCode(errors.CodeForbidden)

// ErrTokenExpired is returned when a session token is past its validity window.
var ErrTokenExpired = errors.New("session token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers signature mismatches and unparseable payloads.
// Verification fails closed: callers treat this the same as an absent token.
var ErrTokenMalformed = errors.New("invalid session token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is the authorization-layer rejection: a valid identity without
// the required role or ownership. Distinct from the unauthenticated errors
// above, and only ever returned after authentication succeeded.
var ErrForbidden = errors.New("insufficient permissions", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrTooManyLoginAttempts throttles repeated failed logins inside the
// cool-down window.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryAuth).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(errors.CodeUnauthorized)

// ErrVerificationExpired is returned when a verification token exists but its
// window has elapsed.
var ErrVerificationExpired = errors.New("verification token expired", errors.CategoryBadInput).
	WithTextCode("auth_verification_expired").
	WithCode(errors.CodeBadRequest)

// ErrVerificationInvalid is returned for unknown or already consumed tokens.
var ErrVerificationInvalid = errors.New("verification token invalid", errors.CategoryBadInput).
	WithTextCode("auth_verification_invalid").
	WithCode(errors.CodeBadRequest)

// ErrIdentityNotFound is the internal error for missing identities.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrUnableToFindSession is returned when the request carries no session cookie.
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession is returned when claims cannot be decoded from a token.
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
