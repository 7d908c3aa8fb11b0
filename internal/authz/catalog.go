// Package authz holds the authorization core of the console: the fixed
// permission catalog, the role order, effective-permission resolution and the
// request guard. All role and permission comparisons in the application go
// through this package; handlers never compare role strings directly.
package authz

// Permission is a key from the fixed permission catalog.
type Permission string

// Catalog of permissions. The catalog is closed: keys outside this list are
// never granted, regardless of what overrides claim.
const (
	PermViewVehicles         Permission = "view_vehicles"
	PermEditVehicles         Permission = "edit_vehicles"
	PermViewRoutes           Permission = "view_routes"
	PermEditRoutes           Permission = "edit_routes"
	PermViewCollectionPoints Permission = "view_collection_points"
	PermEditCollectionPoints Permission = "edit_collection_points"
	PermViewDailyWork        Permission = "view_daily_work"
	PermEditDailyWork        Permission = "edit_daily_work"
	PermViewFuelRecords      Permission = "view_fuel_records"
	PermEditFuelRecords      Permission = "edit_fuel_records"
	PermViewPersonnel        Permission = "view_personnel"
	PermEditPersonnel        Permission = "edit_personnel"
	PermViewReports          Permission = "view_reports"
	PermExportReports        Permission = "export_reports"
	PermManageUsers          Permission = "manage_users"
	PermManageScope          Permission = "manage_scope"
)

var catalog = []Permission{
	PermViewVehicles,
	PermEditVehicles,
	PermViewRoutes,
	PermEditRoutes,
	PermViewCollectionPoints,
	PermEditCollectionPoints,
	PermViewDailyWork,
	PermEditDailyWork,
	PermViewFuelRecords,
	PermEditFuelRecords,
	PermViewPersonnel,
	PermEditPersonnel,
	PermViewReports,
	PermExportReports,
	PermManageUsers,
	PermManageScope,
}

// AllPermissions returns the full catalog.
func AllPermissions() []Permission {
	out := make([]Permission, len(catalog))
	copy(out, catalog)
	return out
}

// KnownPermission reports whether key belongs to the catalog.
func KnownPermission(key Permission) bool {
	for _, p := range catalog {
		if p == key {
			return true
		}
	}
	return false
}

// roleDefaults maps each role to the permissions it is granted out of the box.
// super_admin is absent on purpose: the resolver short-circuits it to the full
// catalog without consulting this table.
var roleDefaults = map[Role][]Permission{
	RoleCompanyAdmin: {
		PermViewVehicles, PermEditVehicles,
		PermViewRoutes, PermEditRoutes,
		PermViewCollectionPoints, PermEditCollectionPoints,
		PermViewDailyWork, PermEditDailyWork,
		PermViewFuelRecords, PermEditFuelRecords,
		PermViewPersonnel, PermEditPersonnel,
		PermViewReports, PermExportReports,
		PermManageUsers, PermManageScope,
	},
	RoleDistrictManager: {
		PermViewVehicles,
		PermViewRoutes, PermEditRoutes,
		PermViewCollectionPoints, PermEditCollectionPoints,
		PermViewDailyWork, PermEditDailyWork,
		PermViewFuelRecords,
		PermViewPersonnel,
		PermViewReports, PermExportReports,
	},
	RoleOperator: {
		PermViewVehicles,
		PermViewRoutes,
		PermViewCollectionPoints,
		PermViewDailyWork, PermEditDailyWork,
		PermViewFuelRecords, PermEditFuelRecords,
	},
	RoleDriver: {
		PermViewRoutes,
		PermViewCollectionPoints,
		PermViewDailyWork,
	},
}

// DefaultsFor returns the default permission grants for a role. Unknown roles
// get nothing.
func DefaultsFor(role Role) []Permission {
	defaults, ok := roleDefaults[role]
	if !ok {
		return nil
	}
	out := make([]Permission, len(defaults))
	copy(out, defaults)
	return out
}
