package models

// Role classifies an actor and determines its default capabilities.
// The set of roles is closed: adding a role means revisiting every
// authorization decision, so there is deliberately no roles table.
type Role string

const (
	// RoleRoot is the distinguished super-role. It is always authorized,
	// exempt from module permission checks, and the only role allowed to
	// manage permissions, users and global audit configuration.
	RoleRoot Role = "root"
	// RoleAdmin manages business content across modules.
	RoleAdmin Role = "admin"
	// RoleTester maintains test plans and cases.
	RoleTester Role = "tester"
	// RoleViewer has read-mostly access.
	RoleViewer Role = "viewer"
	// RoleSupport handles support-facing documentation.
	RoleSupport Role = "support"
)

// Roles lists every known role.
var Roles = []Role{RoleRoot, RoleAdmin, RoleTester, RoleViewer, RoleSupport}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRoot, RoleAdmin, RoleTester, RoleViewer, RoleSupport:
		return true
	}

	return false
}

// IsRoot reports whether r is the super-role.
func (r Role) IsRoot() bool {
	return r == RoleRoot
}

// RootUsername is the reserved account name whose role may never be changed
// and which may never be deleted.
const RootUsername = "root"
