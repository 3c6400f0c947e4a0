package models

import (
	"errors"
	"fmt"
)

// Role is the closed set of account roles.
// Every role has an entry in the dispatch tables of the auth package.
type Role string

const (
	// RoleAdmin manages events, users and settings and may check in any attendee.
	RoleAdmin Role = "admin"
	// RoleAttendee registers for events and manages their own registrations.
	RoleAttendee Role = "attendee"
)

// ErrUnknownRole is returned by ParseRole for values outside the closed role set.
var ErrUnknownRole = errors.New("unknown role")

// Roles lists every valid role in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleAttendee}
}

// ParseRole converts a stored or submitted value into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleAttendee:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Valid reports whether r is part of the closed role set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string {
	return string(r)
}
