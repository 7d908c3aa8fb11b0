package authz

// Resolver computes effective permission sets. Role-level custom overrides are
// operator-configured adjustments to the static defaults; they are loaded once
// at startup (see OverrideRepository) and immutable afterwards.
type Resolver struct {
	roleOverrides map[Role]map[Permission]bool
}

// NewResolver constructs a Resolver. roleOverrides may be nil when no custom
// role configuration exists.
func NewResolver(roleOverrides map[Role]map[Permission]bool) *Resolver {
	return &Resolver{roleOverrides: roleOverrides}
}

// Resolve computes the effective permission set for a principal.
//
// super_admin receives the full catalog unconditionally. Every other role gets
// the union of its catalog defaults, its configured role overrides and the
// principal's own overrides. All sources are additive grants; a later source
// can turn an absent grant into a present one but nothing revokes. Unknown
// roles contribute an empty base set, so only user overrides remain: the
// resolver fails closed. Keys outside the catalog are ignored wherever they
// appear.
func (r *Resolver) Resolve(p Principal) PermissionSet {
	set := make(PermissionSet, len(catalog))
	if p == nil {
		return set
	}

	role := p.GetRole()
	if role == RoleSuperAdmin {
		for _, perm := range catalog {
			set[perm] = true
		}
		return set
	}

	for _, perm := range roleDefaults[role] {
		set[perm] = true
	}
	applyOverrides(set, r.roleOverrides[role])
	applyOverrides(set, p.GetOverrides())
	return set
}

// Has answers a point query against the effective set.
func (r *Resolver) Has(p Principal, perm Permission) bool {
	if p == nil {
		return false
	}
	if p.GetRole() == RoleSuperAdmin {
		return KnownPermission(perm)
	}
	return r.Resolve(p).Has(perm)
}

func applyOverrides(set PermissionSet, overrides map[Permission]bool) {
	for perm, granted := range overrides {
		if granted && KnownPermission(perm) {
			set[perm] = true
		}
	}
}
