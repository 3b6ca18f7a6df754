package auth

import "github.com/acme-ops/opsboard/internal/domain"

// Action names a gated operation as resource:verb.
type Action string

const (
	ActionAnalyticsRead Action = "analytics:read"

	ActionUsersList       Action = "users:list"
	ActionUsersRead       Action = "users:read"
	ActionUsersUpdate     Action = "users:update"
	ActionUsersDeactivate Action = "users:deactivate"

	ActionProjectsCreate Action = "projects:create"
	ActionProjectsList   Action = "projects:list"
	ActionProjectsRead   Action = "projects:read"
	ActionProjectsUpdate Action = "projects:update"
	ActionProjectsDelete Action = "projects:delete"

	ActionTasksCreate Action = "tasks:create"
	ActionTasksList   Action = "tasks:list"
	ActionTasksRead   Action = "tasks:read"
	ActionTasksUpdate Action = "tasks:update"
	ActionTasksDelete Action = "tasks:delete"

	ActionRequestsSubmit Action = "requests:submit"
	ActionRequestsList   Action = "requests:list"
	ActionRequestsRead   Action = "requests:read"
	ActionRequestsAccept Action = "requests:accept"
	ActionRequestsReject Action = "requests:reject"

	ActionTimeEntriesCreate Action = "time_entries:create"
	ActionTimeEntriesList   Action = "time_entries:list"
	ActionTimeEntriesRead   Action = "time_entries:read"
	ActionTimeEntriesUpdate Action = "time_entries:update"
	ActionTimeEntriesDelete Action = "time_entries:delete"
)

var (
	adminOnly   = []domain.Role{domain.RoleAdministrator}
	reviewers   = []domain.Role{domain.RoleAdministrator, domain.RoleProjectManager}
	teamMembers = []domain.Role{domain.RoleTeamMember}
	everyone    = domain.Roles
)

var policy = map[Action][]domain.Role{
	ActionAnalyticsRead: adminOnly,

	ActionUsersList:       adminOnly,
	ActionUsersRead:       adminOnly,
	ActionUsersUpdate:     adminOnly,
	ActionUsersDeactivate: adminOnly,

	ActionProjectsCreate: adminOnly,
	ActionProjectsUpdate: adminOnly,
	ActionProjectsDelete: adminOnly,
	ActionProjectsList:   everyone,
	ActionProjectsRead:   everyone,

	ActionTasksCreate: reviewers,
	ActionTasksUpdate: reviewers,
	ActionTasksDelete: reviewers,
	ActionTasksList:   everyone,
	ActionTasksRead:   everyone,

	ActionRequestsSubmit: teamMembers,
	ActionRequestsList:   reviewers,
	ActionRequestsRead:   reviewers,
	ActionRequestsAccept: reviewers,
	ActionRequestsReject: reviewers,

	// Row ownership is enforced by the time entry service.
	ActionTimeEntriesCreate: everyone,
	ActionTimeEntriesList:   everyone,
	ActionTimeEntriesRead:   everyone,
	ActionTimeEntriesUpdate: everyone,
	ActionTimeEntriesDelete: everyone,
}

// Allowed reports whether role may perform action. Invalid roles and
// unknown actions are denied.
func Allowed(role domain.Role, action Action) bool {
	allowed, ok := policy[action]
	if !ok {
		return false
	}
	return AnyOf(role, allowed...)
}

// AnyOf reports whether role is valid and a member of roles.
func AnyOf(role domain.Role, roles ...domain.Role) bool {
	if !role.Valid() {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize returns a forbidden error when role may not perform action.
func Authorize(role domain.Role, action Action) error {
	if Allowed(role, action) {
		return nil
	}
	return errForbidden(action)
}
