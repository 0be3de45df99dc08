package auth

import "strings"

// UserRole is the user's role
type UserRole string

const (
	// RoleMember is a regular account
	RoleMember UserRole = "member"
	// RoleAdmin can manage other accounts
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleMember, RoleAdmin:
		return true
	default:
		return false
	}
}

// Label is the human readable name of the role
func (r UserRole) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleMember:
		return "Member"
	default:
		return string(r)
	}
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleAdmin,
		RoleMember,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(strings.ToLower(strings.TrimSpace(roleStr)))
	return role, role.IsValid()
}

// RoleSet is the set of roles allowed to perform an operation
type RoleSet map[UserRole]struct{}

// NewRoleSet builds a RoleSet from the given roles
func NewRoleSet(roles ...UserRole) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports membership of role
func (s RoleSet) Contains(role UserRole) bool {
	_, ok := s[role]
	return ok
}

// Allows checks the role claim of a verified token against the set.
// An empty set allows any authenticated caller.
func (s RoleSet) Allows(claims *JWTClaims) bool {
	if claims == nil {
		return false
	}
	if len(s) == 0 {
		return true
	}
	return s.Contains(UserRole(claims.UserRole))
}

// Authorize returns ErrForbidden unless claims carry a role in required.
func Authorize(required RoleSet, claims *JWTClaims) error {
	if !required.Allows(claims) {
		return ErrForbidden
	}
	return nil
}
