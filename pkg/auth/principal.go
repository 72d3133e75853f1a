package auth

import (
	"github.com/fraatlas/backend/pkg/models"
)

// Role is the portal role carried in the access token
type Role string

const (
	RolePattaHolder   Role = "patta_holder"
	RoleDistrictAdmin Role = "district_admin"
	RoleStateAdmin    Role = "state_admin"
	RoleSuperAdmin    Role = "super_admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RolePattaHolder, RoleDistrictAdmin, RoleStateAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Principal is the authenticated caller
type Principal struct {
	UserID   string `json:"user_id"`
	Role     Role   `json:"role"`
	District string `json:"district,omitempty"`
}

// IsAdmin reports whether the principal holds any admin role
func (p *Principal) IsAdmin() bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case RoleDistrictAdmin, RoleStateAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// CanAccessDistrict reports whether the principal may act on a district.
// District admins are confined to their own district.
func (p *Principal) CanAccessDistrict(district string) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case RoleSuperAdmin, RoleStateAdmin:
		return true
	case RoleDistrictAdmin:
		return p.District != "" && p.District == district
	}
	return false
}

// AccessibleDistricts lists the districts the principal may act on. A nil
// slice means every district; an empty one means none.
func (p *Principal) AccessibleDistricts() []string {
	if p == nil {
		return []string{}
	}
	switch p.Role {
	case RoleSuperAdmin, RoleStateAdmin:
		return nil
	case RoleDistrictAdmin:
		if p.District == "" {
			return []string{}
		}
		return []string{p.District}
	}
	return []string{}
}

// CanAccessClaim allows the claim owner and admins with access to the
// claim's district.
func (p *Principal) CanAccessClaim(claim *models.Claim) bool {
	if p == nil || claim == nil {
		return false
	}
	if p.UserID != "" && claim.UserID == p.UserID {
		return true
	}
	return p.IsAdmin() && p.CanAccessDistrict(claim.District)
}
