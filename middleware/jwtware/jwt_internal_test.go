package jwtware

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/require"
)

type stubClaims struct {
	subject string
	role    string
}

func (s stubClaims) Subject() string { return s.subject }
func (s stubClaims) UserID() string  { return s.subject }
func (s stubClaims) Email() string   { return s.subject + "@example.com" }
func (s stubClaims) Role() string    { return s.role }
func (s stubClaims) HasRole(role string) bool {
	return s.role == role
}

func TestGetExtractorsParsesLookupSpec(t *testing.T) {
	extractors := GetExtractors("cookie:session, header:Authorization")
	require.Len(t, extractors, 2)

	// malformed segments are skipped
	extractors = GetExtractors("cookie,header:Authorization,bogus:x:y")
	require.Len(t, extractors, 2)
}

func TestJWTFromHeader(t *testing.T) {
	extract := jwtFromHeader("Authorization", "Bearer")

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer abc.def.ghi")
	raw, err := extract(ctx)
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", raw)

	ctx = router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Basic dXNlcjpwYXNz")
	_, err = extract(ctx)
	require.ErrorIs(t, err, ErrJWTMissingOrMalformed)

	ctx = router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")
	_, err = extract(ctx)
	require.ErrorIs(t, err, ErrJWTMissingOrMalformed)
}

func TestJWTFromCookie(t *testing.T) {
	extract := jwtFromCookie("session")

	ctx := router.NewMockContext()
	ctx.CookiesM["session"] = "abc.def.ghi"
	raw, err := extract(ctx)
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", raw)

	ctx = router.NewMockContext()
	_, err = extract(ctx)
	require.ErrorIs(t, err, ErrJWTMissingOrMalformed)
}

func TestPerformAuthorizationChecks(t *testing.T) {
	claims := stubClaims{subject: "u1", role: "employer"}

	t.Run("no policy passes everyone", func(t *testing.T) {
		require.NoError(t, performAuthorizationChecks(claims, Config{}))
	})

	t.Run("any listed role suffices", func(t *testing.T) {
		cfg := Config{RequiredRoles: []string{"admin", "employer"}}
		require.NoError(t, performAuthorizationChecks(claims, cfg))
	})

	t.Run("missing role is rejected", func(t *testing.T) {
		cfg := Config{RequiredRoles: []string{"admin"}}
		err := performAuthorizationChecks(claims, cfg)
		require.ErrorIs(t, err, ErrInsufficientRole)
	})

	t.Run("role checker overrides the list", func(t *testing.T) {
		cfg := Config{
			RequiredRoles: []string{"admin"},
			RoleChecker: func(c AuthClaims, roles []string) bool {
				return c.Role() == "employer"
			},
		}
		require.NoError(t, performAuthorizationChecks(claims, cfg))

		cfg.RoleChecker = func(AuthClaims, []string) bool { return false }
		err := performAuthorizationChecks(claims, cfg)
		require.ErrorIs(t, err, ErrInsufficientRole)
	})
}

func TestGetDefaultConfigRequiresTokenValidator(t *testing.T) {
	require.Panics(t, func() {
		GetDefaultConfig(Config{
			SigningKey: SigningKey{Key: []byte("secret")},
		})
	})
}

func TestGetDefaultConfigDefaults(t *testing.T) {
	cfg := GetDefaultConfig(Config{
		SigningKey: SigningKey{Key: []byte("secret")},
		TokenValidator: TokenValidatorFunc(func(string) (AuthClaims, error) {
			return nil, errors.New("unused")
		}),
	})

	require.Equal(t, "session", cfg.ContextKey)
	require.Equal(t, defaultTokenLookup, cfg.TokenLookup)
	require.Equal(t, "Bearer", cfg.AuthScheme)
	require.NotNil(t, cfg.SuccessHandler)
	require.NotNil(t, cfg.ErrorHandler)
	require.NotNil(t, cfg.KeyFunc)
}

func TestKeyfuncOptionsRefreshErrorHandlerIsSafe(t *testing.T) {
	opts := keyfuncOptions(nil)
	require.NotNil(t, opts.RefreshErrorHandler)
	require.NotPanics(t, func() {
		opts.RefreshErrorHandler(errors.New("refresh failed"))
	})

	require.Equal(t, time.Hour, opts.RefreshInterval)
	require.Equal(t, 5*time.Minute, opts.RefreshRateLimit)
	require.Equal(t, 10*time.Second, opts.RefreshTimeout)
	require.True(t, opts.RefreshUnknownKID)
}
