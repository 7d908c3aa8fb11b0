// Package identity resolves the authenticated principal for each request. It
// owns login/logout and the principal shape; authorization decisions live in
// the authz package and scope selection in the scope package.
package identity

import (
	"time"

	"github.com/wasteops/wasteops/internal/authz"
)

// User is the stored account record.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         authz.Role
	CompanyID    *int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the authenticated actor, delivered whole at login and replaced
// wholesale on login/logout. Everything downstream treats it as read-only.
type Principal struct {
	UserID         int64                     `json:"user_id"`
	Email          string                    `json:"email"`
	Role           authz.Role                `json:"role"`
	CompanyID      *int64                    `json:"company_id,omitempty"`
	DistrictAccess []int64                   `json:"district_access,omitempty"`
	Overrides      map[authz.Permission]bool `json:"-"`
}

// GetRole implements authz.Principal.
func (p *Principal) GetRole() authz.Role {
	if p == nil {
		return ""
	}
	return p.Role
}

// GetOverrides implements authz.Principal.
func (p *Principal) GetOverrides() map[authz.Permission]bool {
	if p == nil {
		return nil
	}
	return p.Overrides
}

// CanAccessDistrict reports whether the principal's district access list
// contains the given district. super_admin bypasses the list entirely.
func (p *Principal) CanAccessDistrict(districtID int64) bool {
	if p == nil {
		return false
	}
	if p.Role == authz.RoleSuperAdmin {
		return true
	}
	for _, id := range p.DistrictAccess {
		if id == districtID {
			return true
		}
	}
	return false
}
