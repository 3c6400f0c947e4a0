package models

import "time"

// RegistrationStatus is the check-in state of a registration.
type RegistrationStatus string

const (
	// StatusRegistered is the state after a successful registration.
	StatusRegistered RegistrationStatus = "registered"
	// StatusCheckedIn is the final state after check-in.
	StatusCheckedIn RegistrationStatus = "checked_in"
)

// Registration binds one user to one event.
// The pair (UserID, EventID) is unique and Code is unique across all registrations.
type Registration struct {
	// ID is the unique identifier for the registration.
	ID uint64 `gorm:"primaryKey"`
	// UserID references the attendee.
	UserID uint64 `gorm:"uniqueIndex:idx_registrations_user_event;not null"`
	// User is the attendee.
	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:RESTRICT"`
	// EventID references the event.
	EventID uint64 `gorm:"uniqueIndex:idx_registrations_user_event;index;not null"`
	// Event is the event registered for.
	Event Event `gorm:"foreignKey:EventID;references:ID;constraint:OnDelete:RESTRICT"`
	// Code is the check-in lookup key encoded into the QR code.
	Code string `gorm:"uniqueIndex;size:32;not null"`
	// Status is the check-in state.
	Status RegistrationStatus `gorm:"type:varchar(20);not null;default:'registered'"`
	// CheckedInAt is set once on check-in.
	CheckedInAt *time.Time
	// CheckedInByID references the actor who performed the check-in.
	CheckedInByID *uint64
	// CheckedInBy is the actor who performed the check-in.
	CheckedInBy *User `gorm:"foreignKey:CheckedInByID;references:ID"`
	// QRPath is the asset path of the generated QR code.
	QRPath string `gorm:"size:255"`
	// CreatedAt is the registration time (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp of the last change (managed by GORM).
	UpdatedAt time.Time
}

// IsCheckedIn reports whether the registration was checked in.
func (r *Registration) IsCheckedIn() bool {
	return r.CheckedInAt != nil
}
