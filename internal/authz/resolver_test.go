package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type stubPrincipal struct {
	role      Role
	overrides map[Permission]bool
}

func (s stubPrincipal) GetRole() Role                     { return s.role }
func (s stubPrincipal) GetOverrides() map[Permission]bool { return s.overrides }

func TestResolveSuperAdminGetsFullCatalog(t *testing.T) {
	resolver := NewResolver(nil)

	set := resolver.Resolve(stubPrincipal{role: RoleSuperAdmin})

	require.Len(t, set, len(AllPermissions()))
	for _, perm := range AllPermissions() {
		require.True(t, set.Has(perm), "super_admin missing %s", perm)
	}
}

func TestResolveUnionsDefaultsAndOverrides(t *testing.T) {
	resolver := NewResolver(map[Role]map[Permission]bool{
		RoleDriver: {PermViewFuelRecords: true},
	})
	p := stubPrincipal{
		role:      RoleDriver,
		overrides: map[Permission]bool{PermViewVehicles: true},
	}

	set := resolver.Resolve(p)

	for _, perm := range DefaultsFor(RoleDriver) {
		require.True(t, set.Has(perm), "default %s lost in union", perm)
	}
	require.True(t, set.Has(PermViewFuelRecords), "role override not applied")
	require.True(t, set.Has(PermViewVehicles), "user override not applied")
	require.False(t, set.Has(PermManageUsers))
}

func TestResolveIgnoresKeysOutsideCatalog(t *testing.T) {
	resolver := NewResolver(map[Role]map[Permission]bool{
		RoleOperator: {Permission("launch_rockets"): true},
	})
	p := stubPrincipal{
		role:      RoleOperator,
		overrides: map[Permission]bool{Permission("rule_the_world"): true},
	}

	set := resolver.Resolve(p)

	require.ElementsMatch(t, DefaultsFor(RoleOperator), set.Keys())
}

func TestResolveOverridesNeverRevoke(t *testing.T) {
	resolver := NewResolver(nil)
	p := stubPrincipal{
		role:      RoleOperator,
		overrides: map[Permission]bool{PermViewVehicles: false},
	}

	set := resolver.Resolve(p)

	require.True(t, set.Has(PermViewVehicles), "a false override must not revoke a default grant")
}

func TestResolveUnknownRoleFailsClosed(t *testing.T) {
	resolver := NewResolver(nil)
	p := stubPrincipal{
		role:      Role("intern"),
		overrides: map[Permission]bool{PermViewDailyWork: true},
	}

	set := resolver.Resolve(p)

	// No base grants, only the explicit user override survives.
	require.Equal(t, []Permission{PermViewDailyWork}, set.Keys())
}

func TestHasPointQueries(t *testing.T) {
	resolver := NewResolver(nil)

	require.False(t, resolver.Has(nil, PermViewVehicles))
	require.True(t, resolver.Has(stubPrincipal{role: RoleSuperAdmin}, PermManageUsers))
	require.False(t, resolver.Has(stubPrincipal{role: RoleSuperAdmin}, Permission("launch_rockets")))
	require.True(t, resolver.Has(stubPrincipal{role: RoleDriver}, PermViewRoutes))
	require.False(t, resolver.Has(stubPrincipal{role: RoleDriver}, PermEditRoutes))
}
