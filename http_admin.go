package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// RegisterAdminRoutes mounts the account administration endpoints. Every
// route requires a valid session; the admin console routes additionally
// require the admin role before their handlers run.
func RegisterAdminRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	protected := controller.Auther.ProtectedRoute(controller.Config, controller.ErrorHandler)
	adminOnly := controller.Auther.RequireRoles(controller.Config, controller.ErrorHandler, RoleAdmin)

	app.Get("/admin/accounts", adminOnly(controller.AccountList)).
		SetName("admin.accounts.list")

	app.Get("/admin/accounts/export", adminOnly(controller.AccountExport)).
		SetName("admin.accounts.export")

	app.Put("/admin/accounts/:id/role", adminOnly(controller.RoleChange)).
		SetName("admin.accounts.role")

	app.Delete("/admin/accounts/:id", adminOnly(controller.AccountDelete)).
		SetName("admin.accounts.delete")

	app.Get("/accounts/:id", protected(controller.AccountShow)).
		SetName("accounts.show")

	app.Put("/accounts/:id/profile", protected(controller.ProfileUpdate)).
		SetName("accounts.profile")
}

func (a *AuthController) AccountList(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if !Allow(OpAccountList, session.Role, false) {
		return a.ErrorHandler(ctx, ErrForbidden)
	}

	var roles []AccountRole
	if role := ctx.Query("role", ""); role != "" {
		parsed, ok := ParseRole(role)
		if !ok {
			return a.ErrorHandler(ctx, errors.New("unknown role filter", errors.CategoryBadInput).
				WithCode(errors.CodeBadRequest).
				WithMetadata(map[string]any{"role": role}))
		}
		roles = append(roles, parsed)
	}

	accounts, err := a.Repo.Accounts().ListAccounts(ctx.Context(), roles...)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	out := make([]*Account, len(accounts))
	for i, acc := range accounts {
		out[i] = acc.Sanitized()
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"accounts": out,
		"count":    len(out),
	})
}

// AccountExport returns the full account list including audit timestamps.
// Password hashes and verification tokens are still withheld.
func (a *AuthController) AccountExport(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if !Allow(OpAccountExport, session.Role, false) {
		return a.ErrorHandler(ctx, ErrForbidden)
	}

	accounts, err := a.Repo.Accounts().ListAccounts(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	type exportRow struct {
		*Account
		LoginAttempts int `json:"login_attempts"`
	}

	rows := make([]exportRow, len(accounts))
	for i, acc := range accounts {
		rows[i] = exportRow{Account: acc.Sanitized(), LoginAttempts: acc.LoginAttempts}
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"accounts": rows,
	})
}

func (a *AuthController) AccountShow(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	id := ctx.Param("id")
	if !Allow(OpAccountRead, session.Role, OwnsResource(session.UserID, id)) {
		return a.ErrorHandler(ctx, ErrForbidden)
	}

	account, err := a.Repo.Accounts().GetByAccountID(ctx.Context(), id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"account": account.Sanitized(),
	})
}

// RoleChangePayload assigns a new role to a target account
type RoleChangePayload struct {
	Role string `form:"role" json:"role"`
}

// Validate will validate the payload
func (r RoleChangePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required, validation.In(allRolesAsAny()...)),
	)
}

func allRolesAsAny() []any {
	roles := AllRoles()
	out := make([]any, len(roles))
	for i, r := range roles {
		out[i] = r
	}
	return out
}

// RoleChange reassigns a target account's role. Admin accounts cannot be
// modified through this endpoint, not even by another admin.
func (a *AuthController) RoleChange(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if !Allow(OpRoleChange, session.Role, false) {
		return a.ErrorHandler(ctx, ErrForbidden)
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid account id").
			WithCode(errors.CodeBadRequest))
	}

	payload := new(RoleChangePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, wrapBindError(err))
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(ctx, err)
	}

	target, err := a.Repo.Accounts().GetByAccountID(ctx.Context(), id.String())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if !CanAdministerTarget(session.Role, target.Role) {
		return a.ErrorHandler(ctx, ErrForbidden)
	}

	updated, err := a.Repo.Accounts().UpdateRole(ctx.Context(), id, payload.Role)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"account": updated.Sanitized(),
	})
}

// AccountDelete removes an account permanently. Same guard as RoleChange:
// admin targets are off limits.
func (a *AuthController) AccountDelete(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if !Allow(OpAccountDelete, session.Role, false) {
		return a.ErrorHandler(ctx, ErrForbidden)
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid account id").
			WithCode(errors.CodeBadRequest))
	}

	target, err := a.Repo.Accounts().GetByAccountID(ctx.Context(), id.String())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if !CanAdministerTarget(session.Role, target.Role) {
		return a.ErrorHandler(ctx, ErrForbidden)
	}

	if err := a.Repo.Accounts().HardDelete(ctx.Context(), id); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
	})
}

// ProfileUpdatePayload carries the mutable profile fields
type ProfileUpdatePayload struct {
	FirstName      *string   `form:"first_name" json:"first_name"`
	LastName       *string   `form:"last_name" json:"last_name"`
	Headline       *string   `form:"headline" json:"headline"`
	Skills         *[]string `form:"skills" json:"skills"`
	Location       *string   `form:"location" json:"location"`
	Phone          *string   `form:"phone_number" json:"phone_number"`
	ProfilePicture *string   `form:"profile_picture" json:"profile_picture"`
}

// Validate will validate the payload
func (r ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Headline, validation.Length(0, 500)),
		validation.Field(&r.Phone, validation.By(validatePhoneNumber)),
	)
}

// validatePhoneNumber accepts E.164 style numbers. Empty means clearing the
// field and is allowed.
func validatePhoneNumber(value any) error {
	raw, _ := value.(*string)
	if raw == nil || *raw == "" {
		return nil
	}

	num, err := phonenumbers.Parse(*raw, "US")
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("invalid phone number", errors.CategoryValidation)
	}

	return nil
}

// ProfileUpdate lets an account edit its own profile, or an admin edit any
// non admin account. Role, email and credential fields are not touchable here.
func (a *AuthController) ProfileUpdate(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	id := ctx.Param("id")
	owner := OwnsResource(session.UserID, id)

	if !Allow(OpProfileUpdate, session.Role, owner) {
		return a.ErrorHandler(ctx, ErrForbidden)
	}

	payload := new(ProfileUpdatePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, wrapBindError(err))
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(ctx, err)
	}

	account, err := a.Repo.Accounts().GetByAccountID(ctx.Context(), id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if !owner && !CanAdministerTarget(session.Role, account.Role) {
		return a.ErrorHandler(ctx, ErrForbidden)
	}

	applyProfilePatch(account, payload)

	if num := account.Phone; num != "" {
		if parsed, err := phonenumbers.Parse(num, "US"); err == nil {
			account.Phone = phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}

	updated, err := a.Repo.Accounts().Save(ctx.Context(), account)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"account": updated.Sanitized(),
	})
}

func applyProfilePatch(account *Account, p *ProfileUpdatePayload) {
	if p.FirstName != nil {
		account.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		account.LastName = *p.LastName
	}
	if p.Headline != nil {
		account.Headline = *p.Headline
	}
	if p.Skills != nil {
		account.Skills = *p.Skills
	}
	if p.Location != nil {
		account.Location = *p.Location
	}
	if p.Phone != nil {
		account.Phone = *p.Phone
	}
	if p.ProfilePicture != nil {
		account.ProfilePicture = *p.ProfilePicture
	}
}
