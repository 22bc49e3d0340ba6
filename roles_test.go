package auth_test

import (
	"testing"

	auth "github.com/kloydmatyo/workqit-auth"
	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for _, role := range auth.AllRoles() {
		parsed, ok := auth.ParseRole(string(role))
		assert.True(t, ok, "expected %q to parse", role)
		assert.Equal(t, role, parsed)
	}

	_, ok := auth.ParseRole("superuser")
	assert.False(t, ok)

	_, ok = auth.ParseRole("")
	assert.False(t, ok)
}

func TestParseSignupRole(t *testing.T) {
	for _, role := range auth.SignupRoles() {
		parsed, ok := auth.ParseSignupRole(string(role))
		assert.True(t, ok)
		assert.Equal(t, role, parsed)
	}

	// admin is never self-provisioned
	_, ok := auth.ParseSignupRole(auth.RoleAdmin)
	assert.False(t, ok)

	_, ok = auth.ParseSignupRole("root")
	assert.False(t, ok)
}

func TestSignupRolesExcludeAdmin(t *testing.T) {
	assert.NotContains(t, auth.SignupRoles(), auth.RoleAdmin)
	assert.Len(t, auth.AllRoles(), len(auth.SignupRoles())+1)
}
