package auth_test

import (
	"testing"

	auth "github.com/kloydmatyo/workqit-auth"
	"github.com/stretchr/testify/assert"
)

func TestAllow(t *testing.T) {
	tests := []struct {
		name  string
		op    auth.Operation
		role  auth.AccountRole
		owner bool
		want  bool
	}{
		{"admin reads any account", auth.OpAccountRead, auth.RoleAdmin, false, true},
		{"owner reads own account", auth.OpAccountRead, auth.RoleJobSeeker, true, true},
		{"non owner cannot read another account", auth.OpAccountRead, auth.RoleJobSeeker, false, false},
		{"owner updates own profile", auth.OpProfileUpdate, auth.RoleMentor, true, true},
		{"non owner cannot update another profile", auth.OpProfileUpdate, auth.RoleMentor, false, false},
		{"role change is admin only", auth.OpRoleChange, auth.RoleEmployer, false, false},
		{"ownership does not grant role change", auth.OpRoleChange, auth.RoleStudent, true, false},
		{"admin changes roles", auth.OpRoleChange, auth.RoleAdmin, false, true},
		{"delete is admin only even for owners", auth.OpAccountDelete, auth.RoleJobSeeker, true, false},
		{"admin deletes accounts", auth.OpAccountDelete, auth.RoleAdmin, false, true},
		{"listing is admin only", auth.OpAccountList, auth.RoleEmployer, false, false},
		{"export is admin only", auth.OpAccountExport, auth.RoleMentor, true, false},
		{"employer mutates own job posting", auth.OpJobMutate, auth.RoleEmployer, true, true},
		{"employer cannot mutate another employer's posting", auth.OpJobMutate, auth.RoleEmployer, false, false},
		{"admin mutates any job posting", auth.OpJobMutate, auth.RoleAdmin, false, true},
		{"unknown operation is denied", auth.Operation("account.unknown"), auth.RoleAdmin, true, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, auth.Allow(tc.op, tc.role, tc.owner))
		})
	}
}

func TestCanAdministerTarget(t *testing.T) {
	assert.True(t, auth.CanAdministerTarget(auth.RoleAdmin, auth.RoleJobSeeker))
	assert.True(t, auth.CanAdministerTarget(auth.RoleAdmin, auth.RoleEmployer))

	// admins never mutate other admins
	assert.False(t, auth.CanAdministerTarget(auth.RoleAdmin, auth.RoleAdmin))

	// nobody else administers anyone
	assert.False(t, auth.CanAdministerTarget(auth.RoleEmployer, auth.RoleJobSeeker))
	assert.False(t, auth.CanAdministerTarget(auth.RoleJobSeeker, auth.RoleJobSeeker))
}

func TestOwnsResource(t *testing.T) {
	assert.True(t, auth.OwnsResource("abc-123", "abc-123"))
	assert.False(t, auth.OwnsResource("abc-123", "def-456"))

	// empty actor never owns anything, even an empty owner id
	assert.False(t, auth.OwnsResource("", ""))
}
