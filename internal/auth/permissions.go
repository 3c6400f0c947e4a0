package auth

import "github.com/GoEventHub/GoEventHub/internal/db/models"

// Permission constants define the available permissions in the system.
const (
	// PermEventsBrowse allows listing and viewing published events.
	PermEventsBrowse = "events.browse"
	// PermRegistrationOwn allows registering for events and managing own registrations.
	PermRegistrationOwn = "registration.own"
	// PermCheckInSelf allows checking in with an own registration.
	PermCheckInSelf = "checkin.self"

	// PermEventsManage allows creating events and managing the own ones.
	PermEventsManage = "events.manage"
	// PermCheckInStaff opens the check-in desk even without a manageable event.
	// Checking attendees in is decided per event by the EventPolicy.
	PermCheckInStaff = "checkin.staff"
	// PermAdminDashboard allows viewing the admin dashboard.
	PermAdminDashboard = "admin.dashboard"
	// PermAdminUsers allows managing user accounts.
	PermAdminUsers = "admin.users"
	// PermAdminSettings allows managing application-wide settings.
	PermAdminSettings = "admin.settings"
)

// rolePermissions is the permission dispatch table of the closed role set.
var rolePermissions = map[models.Role]map[string]struct{}{ //nolint:gochecknoglobals
	models.RoleAdmin: set(
		PermEventsBrowse, PermRegistrationOwn, PermCheckInSelf,
		PermEventsManage, PermCheckInStaff,
		PermAdminDashboard, PermAdminUsers, PermAdminSettings,
	),
	models.RoleAttendee: set(
		PermEventsBrowse, PermRegistrationOwn, PermCheckInSelf,
	),
}

// HasPermission reports whether role grants permission. Unknown roles get nothing.
func HasPermission(role models.Role, permission string) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}

	_, ok = perms[permission]

	return ok
}

// Permissions lists the permissions of role, used for template rendering.
func Permissions(role models.Role) []string {
	out := make([]string, 0, len(rolePermissions[role]))
	for p := range rolePermissions[role] {
		out = append(out, p)
	}

	return out
}

func set(perms ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		out[p] = struct{}{}
	}

	return out
}
