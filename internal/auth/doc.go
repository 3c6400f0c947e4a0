// Package auth provides authentication and authorization for GoEventHub.
//
// # Authentication
//
// LocalProvider verifies email and password against argon2id hashes stored
// on models.User. The password is checked before the active flag, so a caller
// can tell a deactivated account with valid credentials (ErrUserAccountDisabled,
// user returned) from wrong credentials (ErrInvalidPassword, no user).
//
// # Roles
//
// models.Role is a closed set. Every role has exactly one row in the
// permission table (see permissions.go) and in the home page table
// (see HomePath). Adding a role without extending both tables makes
// HasPermission deny and HomePath fall back to the public event list.
//
// # Event authorization
//
// Managing an event (checking in attendees, listing registrations, editing)
// goes through an EventPolicy:
//
//  1. no user            -> apperror.ErrUnauthenticated (redirect to login)
//  2. admin or creator   -> allowed
//  3. policy grant hook  -> allowed if the hook says so
//  4. everybody else     -> apperror.ErrForbidden (403)
//
// The default grant hook denies everything. It is the extension point for a
// future per-event collaborator table.
//
// # Middleware
//
// RequirePermission and RequireEventManager read the current user from
// fiber.Locals (LocalsUser), which the web session middleware fills.
package auth
