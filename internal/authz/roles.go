package authz

// Role identifies an authority level. The set is fixed and totally ordered.
type Role string

const (
	RoleSuperAdmin      Role = "super_admin"
	RoleCompanyAdmin    Role = "company_admin"
	RoleDistrictManager Role = "district_manager"
	RoleOperator        Role = "operator"
	RoleDriver          Role = "driver"
)

var roleRanks = map[Role]int{
	RoleSuperAdmin:      5,
	RoleCompanyAdmin:    4,
	RoleDistrictManager: 3,
	RoleOperator:        2,
	RoleDriver:          1,
}

var roleNames = map[Role]string{
	RoleSuperAdmin:      "Super Admin",
	RoleCompanyAdmin:    "Company Admin",
	RoleDistrictManager: "District Manager",
	RoleOperator:        "Operator",
	RoleDriver:          "Driver",
}

// Rank returns the authority rank of a role. Unknown roles rank 0, below every
// known role.
func Rank(role Role) int {
	return roleRanks[role]
}

// Outranks reports whether a has strictly higher authority than b. A role
// never outranks itself, so user-management gates built on this comparison
// exclude peers.
func Outranks(a, b Role) bool {
	return Rank(a) > Rank(b)
}

// DisplayName returns the human-readable role name, falling back to the raw
// identifier for unknown roles.
func (r Role) DisplayName() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return string(r)
}
