package auth

import (
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/kloydmatyo/workqit-auth/middleware/jwtware"
)

// RouteAuthenticator owns the cookie transport for session tokens and the
// middleware protecting role gated routes.
type RouteAuthenticator struct {
	auth           Authenticator
	cfg            Config
	validator      TokenValidator
	cookieDuration time.Duration
	Logger         Logger
	ErrorHandler   func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := 24 * 7 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	a := &RouteAuthenticator{
		cfg:  cfg,
		auth: auther,
		validator: NewTokenService(
			[]byte(cfg.GetSigningKey()),
			cfg.GetTokenExpiration(),
			cfg.GetIssuer(),
			cfg.GetAudience(),
			defLogger{},
		),
		Logger:         defLogger{},
		cookieDuration: cookieDuration,
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// ProtectedRoute authenticates the request before any authorization check
// runs: an unverifiable token always yields 401, never 403.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:     cfg.GetAuthScheme(),
			ContextKey:     cfg.GetContextKey(),
			TokenLookup:    cfg.GetTokenLookup(),
			TokenValidator: a.tokenValidator(),
		})
	}
}

// RequireRoles layers the authorization check on top of ProtectedRoute.
func (a *RouteAuthenticator) RequireRoles(cfg Config, errorHandler func(router.Context, error) error, roles ...AccountRole) router.MiddlewareFunc {
	required := make([]string, len(roles))
	copy(required, roles)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:     cfg.GetAuthScheme(),
			ContextKey:     cfg.GetContextKey(),
			TokenLookup:    cfg.GetTokenLookup(),
			TokenValidator: a.tokenValidator(),
			RequiredRoles:  required,
		})
	}
}

func (a *RouteAuthenticator) tokenValidator() jwtware.TokenValidator {
	return jwtware.TokenValidatorFunc(func(tokenString string) (jwtware.AuthClaims, error) {
		claims, err := a.validator.Validate(tokenString)
		if err != nil {
			return nil, err
		}
		return claims, nil
	})
}

// Login authenticates the payload and, on success, sets the session cookie.
// The returned token is also handed back for JSON clients.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) (string, error) {
	token, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return "", err
	}

	a.setCookieToken(ctx, token, a.cookieDuration)
	return token, nil
}

// Logout clears the session by replacing the cookie with one that expires
// immediately. There is no server-side session table: an already issued token
// stays valid until its natural expiry.
func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.cookieDel(ctx, a.cfg.GetContextKey())
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   a.cfg.IsProduction(),
		SameSite: a.cookieSameSite(),
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   a.cfg.IsProduction(),
		SameSite: a.cookieSameSite(),
	})
}

func (a *RouteAuthenticator) cookieSameSite() string {
	if a.cfg.IsProduction() {
		return "Strict"
	}
	return "Lax"
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	return RespondError(c, a.Logger, err)
}

// MakeAuthErrorHandler maps middleware failures onto the 401/403 contract.
// Authentication failures (missing, malformed, expired tokens) are all 401;
// only jwtware's explicit authorization rejection becomes 403.
func (a *RouteAuthenticator) MakeAuthErrorHandler() func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		switch {
		case errors.Is(err, jwtware.ErrInsufficientRole):
			richErr = ErrForbidden
		case IsTokenExpiredError(err):
			richErr = ErrTokenExpired
		default:
			richErr = ErrTokenMalformed
		}

		return RespondError(ctx, a.Logger, richErr)
	}
}

// RespondError renders the error taxonomy as JSON. Internal failures are
// logged server-side with full detail and returned as a generic message only.
func RespondError(c router.Context, logger Logger, err error) error {
	if logger == nil {
		logger = defLogger{}
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := statusFromError(richErr)

	if status >= http.StatusInternalServerError {
		logger.Error(
			"request failed",
			"error", richErr.Message,
			"category", richErr.Category,
		)
		return c.JSON(status, map[string]any{
			"error": "internal server error",
		})
	}

	body := map[string]any{
		"error": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}
	if len(richErr.Metadata) > 0 {
		body["details"] = richErr.Metadata
	}

	return c.JSON(status, body)
}

func statusFromError(richErr *errors.Error) int {
	if richErr.Code != 0 {
		return int(richErr.Code)
	}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
