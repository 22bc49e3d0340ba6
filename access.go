package auth

// Operation identifies a protected action for the access policy table.
type Operation string

const (
	// OpAccountRead reads a single account record
	OpAccountRead Operation = "account.read"
	// OpProfileUpdate mutates an account's profile data
	OpProfileUpdate Operation = "account.profile.update"
	// OpRoleChange changes an account's role
	OpRoleChange Operation = "account.role.change"
	// OpAccountDelete removes an account permanently
	OpAccountDelete Operation = "account.delete"
	// OpAccountList lists accounts in the admin console
	OpAccountList Operation = "admin.accounts.list"
	// OpAccountExport exports account data from the admin console
	OpAccountExport Operation = "admin.accounts.export"
	// OpJobMutate mutates a job posting or its applications
	OpJobMutate Operation = "job.mutate"
)

// accessRule describes who may perform an operation. Roles grants access
// unconditionally; Owner additionally grants access to the resource owner
// regardless of role.
type accessRule struct {
	Roles []AccountRole
	Owner bool
}

// accessPolicy is the single source of truth for role gated routes. Handlers
// and middleware consult it through Allow instead of comparing role strings
// inline.
var accessPolicy = map[Operation]accessRule{
	OpAccountRead:    {Roles: []AccountRole{RoleAdmin}, Owner: true},
	OpProfileUpdate:  {Roles: []AccountRole{RoleAdmin}, Owner: true},
	OpRoleChange:     {Roles: []AccountRole{RoleAdmin}},
	OpAccountDelete:  {Roles: []AccountRole{RoleAdmin}},
	OpAccountList:    {Roles: []AccountRole{RoleAdmin}},
	OpAccountExport:  {Roles: []AccountRole{RoleAdmin}},
	OpJobMutate:      {Roles: []AccountRole{RoleAdmin}, Owner: true},
}

// Allow reports whether role may perform op. owner indicates the actor owns
// the targeted resource (acting account id equals the resource's account id).
// Unknown operations are denied.
func Allow(op Operation, role AccountRole, owner bool) bool {
	rule, ok := accessPolicy[op]
	if !ok {
		return false
	}

	if rule.Owner && owner {
		return true
	}

	for _, allowed := range rule.Roles {
		if role == allowed {
			return true
		}
	}

	return false
}

// CanAdministerTarget reports whether an actor may mutate the target account
// through admin operations. Admins may never mutate another admin; acting on
// your own record goes through the owner rules instead.
func CanAdministerTarget(actorRole, targetRole AccountRole) bool {
	return actorRole == RoleAdmin && targetRole != RoleAdmin
}

// OwnsResource is the ownership check shared by handlers: the acting account
// is the creator/owner of the targeted resource.
func OwnsResource(actorID, resourceOwnerID string) bool {
	return actorID != "" && actorID == resourceOwnerID
}
