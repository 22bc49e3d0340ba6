package social

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	auth "github.com/kloydmatyo/workqit-auth"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController handles the external sign-in HTTP routes.
type HTTPController struct {
	authenticator *Authenticator
	config        HTTPConfig
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// PathPrefix for routes (default: "/auth/oauth")
	PathPrefix string

	// SessionContextKey is the router locals key for the session (default: "session")
	SessionContextKey string

	// CookieName for storing the JWT (default: SessionContextKey)
	CookieName string

	// CookieDuration for the session cookie (default: 7 days)
	CookieDuration time.Duration

	// CookieSecure sets the Secure flag on cookies
	CookieSecure bool

	// CookieSameSite sets the SameSite attribute (e.g. "Lax", "Strict")
	CookieSameSite string

	// SuccessRedirect is the default redirect after successful auth
	SuccessRedirect string

	// ErrorRedirect is the redirect base for auth errors
	ErrorRedirect string
}

// NewHTTPController creates an external sign-in HTTP controller.
func NewHTTPController(authenticator *Authenticator, cfg HTTPConfig) *HTTPController {
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/auth/oauth"
	}
	if cfg.SessionContextKey == "" {
		cfg.SessionContextKey = "session"
	}
	if cfg.CookieName == "" {
		cfg.CookieName = cfg.SessionContextKey
	}
	if cfg.CookieDuration == 0 {
		cfg.CookieDuration = 24 * 7 * time.Hour
	}
	if cfg.CookieSameSite == "" {
		cfg.CookieSameSite = "Lax"
	}
	if cfg.SuccessRedirect == "" {
		cfg.SuccessRedirect = "/"
	}
	if cfg.ErrorRedirect == "" {
		cfg.ErrorRedirect = "/login"
	}

	return &HTTPController{
		authenticator: authenticator,
		config:        cfg,
	}
}

// RegisterRoutes registers the sign-in routes under the configured prefix.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Get("/providers", c.ListProviders)
	group.Get("/links", c.ListLinks)
	group.Get("/:provider/callback", c.Callback)
	group.Get("/:provider", c.BeginAuth)
}

// ListProviders returns the configured providers.
func (c *HTTPController) ListProviders(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]any{
		"providers": c.authenticator.ListProviders(),
	})
}

// BeginAuth starts the OAuth flow. The role query parameter picks the role a
// fresh account will get; it rides along in the state parameter.
func (c *HTTPController) BeginAuth(ctx router.Context) error {
	providerName := ctx.Param("provider")
	role := ctx.Query("role", "")
	redirectURL := ctx.Query("redirect_url", "")

	redirect, err := c.authenticator.BeginAuth(ctx.Context(), providerName, role, redirectURL)
	if err != nil {
		return c.redirectError(ctx, err)
	}

	return ctx.Redirect(redirect.URL, http.StatusTemporaryRedirect)
}

// Callback handles the provider callback. Every failure path lands back on
// the login page with an error code, never a raw error status.
func (c *HTTPController) Callback(ctx router.Context) error {
	providerName := ctx.Param("provider")
	code := ctx.Query("code", "")
	state := ctx.Query("state", "")

	if errCode := ctx.Query("error", ""); errCode != "" {
		return ctx.Redirect(
			appendQueryParam(c.config.ErrorRedirect, "error", errCode),
			http.StatusTemporaryRedirect,
		)
	}

	if code == "" {
		return ctx.Redirect(
			appendQueryParam(c.config.ErrorRedirect, "error", "missing_code"),
			http.StatusTemporaryRedirect,
		)
	}

	result, err := c.authenticator.CompleteAuth(ctx.Context(), providerName, code, state)
	if err != nil {
		return c.redirectError(ctx, err)
	}

	c.setAuthCookie(ctx, result.Token)

	redirectURL := result.RedirectURL
	if redirectURL == "" {
		redirectURL = c.config.SuccessRedirect
	}

	if result.IsNew {
		redirectURL = appendQueryParam(redirectURL, "new_account", "true")
	}

	return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
}

// ListLinks returns the linked external identities for the current session.
func (c *HTTPController) ListLinks(ctx router.Context) error {
	session, err := auth.GetRouterSession(ctx, c.config.SessionContextKey)
	if err != nil {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	links, err := c.authenticator.LinkedIdentities(ctx.Context(), session.GetUserID())
	if err != nil {
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	response := make([]map[string]any, 0, len(links))
	for _, link := range links {
		response = append(response, map[string]any{
			"id":         link.ID,
			"provider":   link.Provider,
			"subject":    link.Subject,
			"email":      link.Email,
			"name":       link.Name,
			"avatar_url": link.AvatarURL,
			"created_at": link.CreatedAt,
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"links": response,
	})
}

func (c *HTTPController) setAuthCookie(ctx router.Context, token string) {
	ctx.Cookie(&router.Cookie{
		Name:     c.config.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(c.config.CookieDuration),
		Secure:   c.config.CookieSecure,
		HTTPOnly: true,
		SameSite: c.config.CookieSameSite,
	})
}

// redirectError sends the user back to the login page carrying a stable error
// code. Text codes from the error taxonomy are preferred over raw messages.
func (c *HTTPController) redirectError(ctx router.Context, err error) error {
	code := "auth_failed"

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode != "" {
		code = richErr.TextCode
	}

	return ctx.Redirect(
		appendQueryParam(c.config.ErrorRedirect, "error", code),
		http.StatusTemporaryRedirect,
	)
}

func appendQueryParam(rawURL, key, value string) string {
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err == nil {
		query := parsed.Query()
		query.Set(key, value)
		parsed.RawQuery = query.Encode()
		return parsed.String()
	}

	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
}
