package auth

import "github.com/GoEventHub/GoEventHub/internal/db/models"

const (
	// AdminHomePath is the landing page of admins.
	AdminHomePath = "/admin"
	// AttendeeHomePath is the landing page of attendees.
	AttendeeHomePath = "/my/registrations"
	// FallbackHomePath is used for roles without an entry.
	FallbackHomePath = "/events"
)

// homePaths is the dashboard dispatch table of the closed role set.
var homePaths = map[models.Role]string{ //nolint:gochecknoglobals
	models.RoleAdmin:    AdminHomePath,
	models.RoleAttendee: AttendeeHomePath,
}

// HomePath returns where the dashboard sends a user of the given role.
func HomePath(role models.Role) string {
	if p, ok := homePaths[role]; ok {
		return p
	}

	return FallbackHomePath
}
