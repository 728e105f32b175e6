package enums

import (
	"fmt"
	"strings"
)

// Role is the account-level role that drives route access.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSeller   Role = "seller"
	RoleCustomer Role = "customer"
)

var validRoles = []Role{
	RoleAdmin,
	RoleSeller,
	RoleCustomer,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// Normalize lower-cases and trims the stored value.
func (r Role) Normalize() Role {
	return Role(strings.ToLower(strings.TrimSpace(string(r))))
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	normalized := r.Normalize()
	for _, candidate := range validRoles {
		if candidate == normalized {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role, ignoring case.
func ParseRole(value string) (Role, error) {
	normalized := Role(value).Normalize()
	for _, candidate := range validRoles {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// RoleSet is the set of roles permitted on a route.
type RoleSet []Role

// Roles builds a RoleSet.
func Roles(roles ...Role) RoleSet {
	set := make(RoleSet, 0, len(roles))
	for _, role := range roles {
		set = append(set, role.Normalize())
	}
	return set
}

// Contains compares case-insensitively. An empty role is never contained.
func (s RoleSet) Contains(role Role) bool {
	normalized := role.Normalize()
	if normalized == "" {
		return false
	}
	for _, candidate := range s {
		if candidate.Normalize() == normalized {
			return true
		}
	}
	return false
}

// Strings returns the members for logging.
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for _, role := range s {
		out = append(out, role.String())
	}
	return out
}
