package types

import "strings"

// Role is the closed set of capabilities the permission resolver understands.
type Role uint8

const (
	RoleSystemAdmin Role = iota + 1
	RoleSchoolAdmin
	RoleTeacher
	RoleContentModerator
	RoleStudent
)

func (r Role) String() string {
	switch r {
	case RoleSystemAdmin:
		return "system_admin"
	case RoleSchoolAdmin:
		return "school_admin"
	case RoleTeacher:
		return "teacher"
	case RoleContentModerator:
		return "content_moderator"
	case RoleStudent:
		return "student"
	default:
		return "unknown"
	}
}

// ParseRole maps a stored role name onto a Role. Unknown names report ok=false.
func ParseRole(name string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "system_admin", "systemadmin":
		return RoleSystemAdmin, true
	case "school_admin", "schooladmin":
		return RoleSchoolAdmin, true
	case "teacher":
		return RoleTeacher, true
	case "content_moderator", "contentmoderator":
		return RoleContentModerator, true
	case "student":
		return RoleStudent, true
	default:
		return 0, false
	}
}

// RoleSet is a bitset of roles held by one user.
type RoleSet uint8

func NewRoleSet(roles ...Role) RoleSet {
	var set RoleSet
	for _, role := range roles {
		set = set.With(role)
	}
	return set
}

func (s RoleSet) With(role Role) RoleSet {
	if role == 0 {
		return s
	}
	return s | 1<<(role-1)
}

func (s RoleSet) Has(role Role) bool {
	if role == 0 {
		return false
	}
	return s&(1<<(role-1)) != 0
}

func (s RoleSet) HasAny(roles ...Role) bool {
	for _, role := range roles {
		if s.Has(role) {
			return true
		}
	}
	return false
}

func (s RoleSet) Roles() []Role {
	var roles []Role
	for _, role := range []Role{RoleSystemAdmin, RoleSchoolAdmin, RoleTeacher, RoleContentModerator, RoleStudent} {
		if s.Has(role) {
			roles = append(roles, role)
		}
	}
	return roles
}

func (s RoleSet) Strings() []string {
	roles := s.Roles()
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.String())
	}
	return names
}
