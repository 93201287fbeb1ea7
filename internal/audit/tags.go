// Package audit implements the audit trail: a settings cache deciding what
// gets recorded, a best-effort recorder appending immutable log rows, and a
// filtered, paginated query service over the result.
package audit

// Action is the closed set of mutating operation categories recorded against
// every audit entry.
type Action string

// Known action tags.
const (
	ActionCreate               Action = "CREATE"
	ActionUpdate               Action = "UPDATE"
	ActionDelete               Action = "DELETE"
	ActionLogin                Action = "LOGIN"
	ActionRegister             Action = "REGISTER"
	ActionUpload               Action = "UPLOAD"
	ActionReset                Action = "RESET"
	ActionDuplicate            Action = "DUPLICATE"
	ActionReplicate            Action = "REPLICATE"
	ActionUpdatePassword       Action = "UPDATE_PASSWORD"
	ActionUpdateProfilePicture Action = "UPDATE_PROFILE_PICTURE"
	ActionDeleteProfilePicture Action = "DELETE_PROFILE_PICTURE"
	ActionDeleteUser           Action = "DELETE_USER"
	ActionUpdateUser           Action = "UPDATE_USER"
)

// Module is the closed set of audit configuration tags. Distinct from the
// navigation module ids: these tag what kind of mutation happened, not which
// screen triggered it.
type Module string

// Known module tags.
const (
	ModuleAuth       Module = "AUTH"
	ModuleVersions   Module = "VERSIONS"
	ModuleBuilds     Module = "BUILDS"
	ModuleDocs       Module = "DOCS"
	ModuleUsefulDocs Module = "USEFUL_DOCS"
	ModuleManuals    Module = "MANUALS"
	ModuleTestPlans  Module = "TEST_PLANS"
	ModuleChangelog  Module = "CHANGELOG"
	ModuleUsers      Module = "USERS"
)

// Modules lists every known module tag.
var Modules = []Module{
	ModuleAuth,
	ModuleVersions,
	ModuleBuilds,
	ModuleDocs,
	ModuleUsefulDocs,
	ModuleManuals,
	ModuleTestPlans,
	ModuleChangelog,
	ModuleUsers,
}
