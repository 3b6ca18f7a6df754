package domain

import (
	"strings"
	"time"
)

// Role enumerates the closed set of organizational roles.
type Role string

const (
	RoleAdministrator  Role = "administrator"
	RoleProjectManager Role = "project_manager"
	RoleTeamMember     Role = "team_member"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdministrator, RoleProjectManager, RoleTeamMember}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleProjectManager, RoleTeamMember:
		return true
	}
	return false
}

// ParseRole normalizes input and returns ok=false for anything outside the enumeration.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// IsReviewer reports whether the role may review time-entry requests.
func (r Role) IsReviewer() bool {
	return r == RoleAdministrator || r == RoleProjectManager
}

// User is an organization member. Users are never hard-deleted.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
