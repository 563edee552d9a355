package authz

// Role identifies the single role held by a principal.
type Role string

// Operator roles and the external member role.
const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleChef       Role = "chef"
	RoleUser       Role = "user"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleSuperAdmin, RoleAdmin, RoleChef, RoleUser:
		return Role(raw), true
	}
	return "", false
}

// OperatorRoles lists roles assignable to internal staff.
func OperatorRoles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleChef}
}

// Capability names a permission checked by the engine.
type Capability string

// Capabilities relevant to the core.
const (
	CapReadAuditLog       Capability = "read_audit_log"
	CapWriteAuditLog      Capability = "write_audit_log"
	CapManagePrincipals   Capability = "manage_principals"
	CapAllocateIdentifier Capability = "allocate_identifier"
)

// policy is the explicit allow table. Any pair not present denies. Role
// ordering is deliberately not used to derive grants: a new role added to the
// system starts with nothing.
var policy = map[Capability]map[Role]struct{}{
	CapReadAuditLog: {
		RoleSuperAdmin: {},
	},
	CapManagePrincipals: {
		RoleSuperAdmin: {},
		RoleAdmin:      {},
	},
	CapAllocateIdentifier: {
		RoleSuperAdmin: {},
	},
	// write_audit_log is granted to no role: the audit recorder owns the
	// append path and external callers can never reach it.
	CapWriteAuditLog: {},
}

// RoleAllowed reports whether the allow table grants capability to role.
// Exception rules are evaluated separately by the engine.
func RoleAllowed(role Role, capability Capability) bool {
	allowed, ok := policy[capability]
	if !ok {
		return false
	}
	_, ok = allowed[role]
	return ok
}

// Request describes one authorization question.
type Request struct {
	Actor      Actor
	Capability Capability
	// TargetRole is set for manage_principals requests that create a
	// principal or change a role; empty otherwise.
	TargetRole Role
}

// Actor is the authenticated principal on whose behalf a capability is
// evaluated.
type Actor struct {
	ID   int64
	Name string
	Role Role
}

// exception is a tagged carve-out evaluated after the allow table. A matching
// exception turns an allow into a deny.
type exception struct {
	name    string
	matches func(req Request) bool
}

var exceptions = []exception{
	{
		name: "admin_cannot_elevate_to_super_admin",
		matches: func(req Request) bool {
			return req.Capability == CapManagePrincipals &&
				req.Actor.Role == RoleAdmin &&
				req.TargetRole == RoleSuperAdmin
		},
	},
}

// deniedBy returns the name of the exception rule denying the request, if any.
func deniedBy(req Request) (string, bool) {
	for _, ex := range exceptions {
		if ex.matches(req) {
			return ex.name, true
		}
	}
	return "", false
}
