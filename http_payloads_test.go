package auth_test

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	auth "github.com/kloydmatyo/workqit-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRequestValidate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		req := auth.LoginRequest{Identifier: "member@example.com", Password: "pw"}
		assert.NoError(t, req.Validate())
	})

	t.Run("identifier must be an email", func(t *testing.T) {
		req := auth.LoginRequest{Identifier: "not-an-email", Password: "pw"}
		assert.Error(t, req.Validate())
	})

	t.Run("both fields are required", func(t *testing.T) {
		err := auth.LoginRequest{}.Validate()
		require.Error(t, err)

		fields := auth.FormatValidationErrorToMap(err)
		assert.Contains(t, fields, "identifier")
		assert.Contains(t, fields, "password")
	})
}

func TestRegistrationCreatePayloadValidate(t *testing.T) {
	valid := auth.RegistrationCreatePayload{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		Role:            auth.RoleMentor,
		Password:        "Str0ng&Secret12",
		ConfirmPassword: "Str0ng&Secret12",
	}

	t.Run("valid payload", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("admin role is rejected", func(t *testing.T) {
		payload := valid
		payload.Role = auth.RoleAdmin
		assert.Error(t, payload.Validate())
	})

	t.Run("empty role is allowed and defaulted later", func(t *testing.T) {
		payload := valid
		payload.Role = ""
		assert.NoError(t, payload.Validate())
	})

	t.Run("short password is rejected", func(t *testing.T) {
		payload := valid
		payload.Password = "Sh0rt!"
		payload.ConfirmPassword = "Sh0rt!"
		assert.Error(t, payload.Validate())
	})

	t.Run("mismatched confirmation is rejected", func(t *testing.T) {
		payload := valid
		payload.ConfirmPassword = "Different&Secret12"

		err := payload.Validate()
		require.Error(t, err)

		fields := auth.FormatValidationErrorToMap(err)
		assert.Contains(t, fields, "confirm_password")
	})
}

func TestSetPasswordPayloadValidate(t *testing.T) {
	t.Run("current password is optional at the payload level", func(t *testing.T) {
		payload := auth.SetPasswordPayload{
			Password:        "Str0ng&Secret12",
			ConfirmPassword: "Str0ng&Secret12",
		}
		assert.NoError(t, payload.Validate())
	})

	t.Run("confirmation must match", func(t *testing.T) {
		payload := auth.SetPasswordPayload{
			Password:        "Str0ng&Secret12",
			ConfirmPassword: "other",
		}
		assert.Error(t, payload.Validate())
	})
}

func TestValidateStringEquals(t *testing.T) {
	rule := auth.ValidateStringEquals("expected")
	assert.NoError(t, rule("expected"))
	assert.Error(t, rule("different"))
	assert.Error(t, rule(42))
}

func TestFormatValidationErrorToMap(t *testing.T) {
	t.Run("flattens field errors", func(t *testing.T) {
		err := auth.LoginRequest{Password: "pw"}.Validate()
		require.Error(t, err)

		fields := auth.FormatValidationErrorToMap(err)
		assert.Contains(t, fields, "identifier")
		assert.NotContains(t, fields, "password")
	})

	t.Run("non validation errors fall back to a single entry", func(t *testing.T) {
		fields := auth.FormatValidationErrorToMap(assert.AnError)
		assert.Equal(t, assert.AnError.Error(), fields["_"])
	})

	t.Run("nested ozzo errors keep their field names", func(t *testing.T) {
		verrs := validation.Errors{"email": assert.AnError}
		fields := auth.FormatValidationErrorToMap(verrs)
		assert.Contains(t, fields, "email")
	})
}
