package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

type Middleware interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
	RequireRoles(cfg Config, errorHandler func(router.Context, error) error, roles ...AccountRole) router.MiddlewareFunc
}

// GetRouterSession recovers the session claims the JWT middleware stored in
// the request locals.
func GetRouterSession(c router.Context, key string) (*SessionObject, error) {
	val := c.Locals(key)
	if val == nil {
		return nil, ErrUnableToFindSession
	}

	claims, ok := val.(AuthClaims)
	if claims == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	return sessionFromAuthClaims(claims)
}

// RegisterAuthRoutes mounts the authentication endpoints. Session management
// routes are public; set-password requires a valid session.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Post(controller.Routes.Logout, controller.Logout).
		SetName("auth.logout")

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("auth.register")

	app.Get(controller.Routes.VerifyEmail, controller.VerifyEmail).
		SetName("auth.verify-email")

	app.Post(controller.Routes.VerifyResend, controller.VerificationResend).
		SetName("auth.verify-email.resend")

	app.Post(controller.Routes.ValidatePassword, controller.ValidatePassword).
		SetName("auth.validate-password")

	protected := controller.Auther.ProtectedRoute(controller.Config, controller.ErrorHandler)

	app.Post(controller.Routes.SetPassword, protected(controller.SetPassword)).
		SetName("auth.set-password")
}

type AuthControllerRoutes struct {
	Login            string
	Logout           string
	Register         string
	VerifyEmail      string
	VerifyResend     string
	SetPassword      string
	ValidatePassword string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Config       Config
	Policy       *PasswordPolicy
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Policy: NewPasswordPolicy(),
		Routes: &AuthControllerRoutes{
			Login:            "/auth/login",
			Logout:           "/auth/logout",
			Register:         "/auth/register",
			VerifyEmail:      "/auth/verify-email",
			VerifyResend:     "/auth/verify-email/resend",
			SetPassword:      "/auth/set-password",
			ValidatePassword: "/auth/validate-password",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = func(ctx router.Context, err error) error {
			return RespondError(ctx, c.Logger, err)
		}
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, wrapBindError(err))
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(ctx, err)
	}

	token, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	account, err := a.Repo.Accounts().GetByEmail(ctx.Context(), payload.Identifier)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token":   token,
		"account": account.Sanitized(),
	})
}

func (a *AuthController) Logout(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
	})
}

// RegistrationCreatePayload is the registration payload
type RegistrationCreatePayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Email           string `form:"email" json:"email"`
	Role            string `form:"role" json:"role"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Role, validation.In(signupRolesAsAny()...)),
		validation.Field(&r.Password, validation.Required, validation.Length(PasswordMinLength, 128)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func signupRolesAsAny() []any {
	roles := SignupRoles()
	out := make([]any, len(roles))
	for i, r := range roles {
		out[i] = r
	}
	return out
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register account parse payload", "error", err)
		return a.ErrorHandler(ctx, wrapBindError(err))
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(ctx, err)
	}

	if result := a.Policy.Validate(payload.Password, PasswordIdentifiers{Email: payload.Email}); !result.IsValid {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error":  "password does not meet policy requirements",
			"errors": result.Errors,
		})
	}

	var account *Account
	msg := RegisterAccountMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Role:      payload.Role,
		Password:  payload.Password,
		OnResponse: func(a *Account) {
			account = a
		},
	}

	registerAccount := RegisterAccountHandler{Repo: a.Repo}
	if err := registerAccount.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("register account error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"account": account.Sanitized(),
	})
}

func (a *AuthController) VerifyEmail(ctx router.Context) error {
	token := ctx.Query("token", "")
	if token == "" {
		return a.ErrorHandler(ctx, ErrVerificationInvalid)
	}

	account, err := a.Repo.Accounts().ConsumeVerificationToken(ctx.Context(), token)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"verified": true,
		"account":  account.Sanitized(),
	})
}

// VerificationResendPayload requests a fresh verification token
type VerificationResendPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r VerificationResendPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// VerificationResend issues a new token for an unverified account. The
// response is identical whether or not the email exists, so the endpoint
// cannot be used to enumerate accounts.
func (a *AuthController) VerificationResend(ctx router.Context) error {
	payload := new(VerificationResendPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, wrapBindError(err))
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(ctx, err)
	}

	handler := VerificationRequestHandler{Repo: a.Repo, Logger: a.Logger}
	if err := handler.Execute(ctx.Context(), VerificationRequestMessage{Email: payload.Email}); err != nil {
		a.Logger.Error("verification resend error", "error", err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
	})
}

// SetPasswordPayload carries a password change for the logged in account
type SetPasswordPayload struct {
	CurrentPassword string `form:"current_password" json:"current_password"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r SetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.Length(PasswordMinLength, 128)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

// SetPassword sets or replaces the caller's password. Accounts that signed up
// through an external provider and have no password yet may set one without a
// current password; everyone else must prove they know the old one.
func (a *AuthController) SetPassword(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(SetPasswordPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, wrapBindError(err))
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(ctx, err)
	}

	account, err := a.Repo.Accounts().GetByAccountID(ctx.Context(), session.UserID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if account.HasPassword {
		if payload.CurrentPassword == "" {
			return a.ErrorHandler(ctx, errors.New("current password is required", errors.CategoryBadInput).
				WithCode(errors.CodeBadRequest))
		}
		if err := ComparePasswordAndHash(payload.CurrentPassword, account.PasswordHash); err != nil {
			return a.ErrorHandler(ctx, err)
		}
	}

	result := a.Policy.Validate(payload.Password, PasswordIdentifiers{Email: account.Email})
	if !result.IsValid {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error":  "password does not meet policy requirements",
			"errors": result.Errors,
		})
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	updated, err := a.Repo.Accounts().SetPassword(ctx.Context(), account.ID, hash)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success":       true,
		"auth_provider": updated.Provider,
	})
}

// ValidatePasswordPayload asks for a policy verdict without persisting anything
type ValidatePasswordPayload struct {
	Password string `form:"password" json:"password"`
	Email    string `form:"email" json:"email"`
	Username string `form:"username" json:"username"`
}

// ValidatePassword reports policy compliance and a strength estimate so
// clients can give feedback while the user types.
func (a *AuthController) ValidatePassword(ctx router.Context) error {
	payload := new(ValidatePasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, wrapBindError(err))
	}

	result := a.Policy.Validate(payload.Password, PasswordIdentifiers{
		Email:    payload.Email,
		Username: payload.Username,
	})
	strength := a.Policy.Score(payload.Password)

	return ctx.JSON(router.StatusOK, map[string]any{
		"is_valid": result.IsValid,
		"errors":   result.Errors,
		"strength": strength.Strength,
		"score":    strength.Score,
		"feedback": strength.Feedback,
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match", errors.CategoryValidation)
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		out["_"] = err.Error()
		return out
	}

	for field, ferr := range verrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}

	return out
}

func respondValidationError(ctx router.Context, err error) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"error":      "validation failed",
		"validation": FormatValidationErrorToMap(err),
	})
}

func wrapBindError(err error) error {
	return errors.Wrap(err, errors.CategoryBadInput, "unable to parse request body").
		WithCode(errors.CodeBadRequest)
}
