package rbac

import (
	"github.com/qadesk-admin/qadesk-admin/internal/db/models"
)

// Navigation module identifiers. The catalog is closed: permission records
// exist for exactly these modules and unknown ids are denied outright.
const (
	ModuleDashboard   = "dashboard"
	ModuleVersions    = "versions"
	ModuleBuilds      = "builds"
	ModuleUsefulDocs  = "useful-docs"
	ModuleManuals     = "manuals"
	ModuleTests       = "tests"
	ModuleChangelog   = "changelog-manager"
	ModuleAuditLogs   = "audit-logs"
	ModuleUsers       = "users"
	ModulePermissions = "permissions"
)

// ModuleCatalog lists every known module in navigation order.
var ModuleCatalog = []string{
	ModuleDashboard,
	ModuleVersions,
	ModuleBuilds,
	ModuleUsefulDocs,
	ModuleManuals,
	ModuleTests,
	ModuleChangelog,
	ModuleAuditLogs,
	ModuleUsers,
	ModulePermissions,
}

// KnownModule reports whether moduleID is part of the catalog.
func KnownModule(moduleID string) bool {
	for _, m := range ModuleCatalog {
		if m == moduleID {
			return true
		}
	}

	return false
}

// DefaultPermissions returns the built-in allowed-role sets. These are merged
// into read results for any module missing from storage, so new catalog
// entries need no migration. Root is never listed: the gate short-circuits it.
func DefaultPermissions() []models.ModulePermission {
	return []models.ModulePermission{
		{ModuleID: ModuleDashboard, AllowedRoles: models.RoleList{models.RoleAdmin, models.RoleTester, models.RoleViewer, models.RoleSupport}},
		{ModuleID: ModuleVersions, AllowedRoles: models.RoleList{models.RoleAdmin, models.RoleTester}},
		{ModuleID: ModuleBuilds, AllowedRoles: models.RoleList{models.RoleAdmin, models.RoleTester, models.RoleSupport}},
		{ModuleID: ModuleUsefulDocs, AllowedRoles: models.RoleList{models.RoleAdmin, models.RoleTester, models.RoleViewer, models.RoleSupport}},
		{ModuleID: ModuleManuals, AllowedRoles: models.RoleList{models.RoleAdmin, models.RoleViewer, models.RoleSupport}},
		{ModuleID: ModuleTests, AllowedRoles: models.RoleList{models.RoleAdmin, models.RoleTester}},
		{ModuleID: ModuleChangelog, AllowedRoles: models.RoleList{models.RoleAdmin}},
		{ModuleID: ModuleAuditLogs, AllowedRoles: models.RoleList{}},
		{ModuleID: ModuleUsers, AllowedRoles: models.RoleList{}},
		{ModuleID: ModulePermissions, AllowedRoles: models.RoleList{}},
	}
}
