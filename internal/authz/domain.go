package authz

// Principal describes the authenticated actor as far as authorization is
// concerned. The identity package owns the concrete type; this package only
// reads the role and the per-user permission overrides.
type Principal interface {
	GetRole() Role
	GetOverrides() map[Permission]bool
}

// PermissionSet is the effective set of granted permissions for a principal.
type PermissionSet map[Permission]bool

// Has reports whether the set grants the given permission.
func (s PermissionSet) Has(p Permission) bool {
	return s[p]
}

// Keys returns the granted permissions in catalog order.
func (s PermissionSet) Keys() []Permission {
	out := make([]Permission, 0, len(s))
	for _, p := range catalog {
		if s[p] {
			out = append(out, p)
		}
	}
	return out
}
