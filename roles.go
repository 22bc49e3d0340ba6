package auth

// AccountRole is the account's role. Fixed at creation, mutable only by an
// admin acting on a non-admin target.
type AccountRole = string

const (
	// RoleJobSeeker browses and applies to job postings
	RoleJobSeeker AccountRole = "job_seeker"
	// RoleEmployer owns job postings and reviews applications
	RoleEmployer AccountRole = "employer"
	// RoleMentor runs mentoring sessions and webinars
	RoleMentor AccountRole = "mentor"
	// RoleStudent participates in the student-sync program
	RoleStudent AccountRole = "student"
	// RoleAdmin operates the admin console
	RoleAdmin AccountRole = "admin"
)

// IsValidRole checks the role is one of the closed set.
func IsValidRole(r AccountRole) bool {
	switch r {
	case RoleJobSeeker, RoleEmployer, RoleMentor, RoleStudent, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into an AccountRole.
func ParseRole(roleStr string) (AccountRole, bool) {
	role := AccountRole(roleStr)
	return role, IsValidRole(role)
}

// AllRoles returns the closed role set.
func AllRoles() []AccountRole {
	return []AccountRole{
		RoleJobSeeker,
		RoleEmployer,
		RoleMentor,
		RoleStudent,
		RoleAdmin,
	}
}

// SignupRoles are the roles a caller may select at registration or through the
// OAuth state parameter. Admin accounts are never self-provisioned.
func SignupRoles() []AccountRole {
	return []AccountRole{
		RoleJobSeeker,
		RoleEmployer,
		RoleMentor,
		RoleStudent,
	}
}

// ParseSignupRole parses a role string, rejecting admin and anything outside
// the closed set.
func ParseSignupRole(roleStr string) (AccountRole, bool) {
	role, ok := ParseRole(roleStr)
	if !ok || role == RoleAdmin {
		return "", false
	}
	return role, true
}
