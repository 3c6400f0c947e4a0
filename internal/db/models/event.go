package models

import (
	"time"

	"gorm.io/gorm"
)

// Event is a scheduled happening attendees can register for.
type Event struct {
	// ID is the unique identifier for the event.
	ID uint64 `gorm:"primaryKey"`
	// Title is the display title.
	Title string `gorm:"size:200;not null"`
	// Slug resolves the event on public routes, unique across all events.
	Slug string `gorm:"uniqueIndex;size:220;not null"`
	// Description is the long text shown on the event page.
	Description string `gorm:"type:text"`
	// Venue is the location of the event.
	Venue string `gorm:"size:255"`
	// StartsAt is the start of the event. Registration closes at this point.
	StartsAt time.Time `gorm:"index;not null"`
	// EndsAt is the end of the event.
	EndsAt time.Time
	// MaxCapacity limits confirmed registrations, nil means unlimited.
	MaxCapacity *int
	// RegisteredCount is the number of confirmed registrations.
	// It is only changed inside registration transactions.
	RegisteredCount int `gorm:"not null;default:0"`
	// ImagePath is the asset path of the featured image.
	ImagePath string `gorm:"size:255"`
	// Published makes the event visible on public routes.
	Published bool
	// CreatorID references the owning user.
	CreatorID uint64 `gorm:"index;not null"`
	// Creator is the owning user.
	Creator User `gorm:"foreignKey:CreatorID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE"`
	// CreatedAt is the timestamp when the event was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the event was last updated (managed by GORM).
	UpdatedAt time.Time
	// DeletedAt is the soft delete timestamp (managed by GORM).
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// HasStarted reports whether the event start lies before now.
func (e *Event) HasStarted(now time.Time) bool {
	return !e.StartsAt.After(now)
}

// HasEnded reports whether the event end lies before now.
// Events without an end are treated as ending at their start.
func (e *Event) HasEnded(now time.Time) bool {
	end := e.EndsAt
	if end.IsZero() {
		end = e.StartsAt
	}

	return end.Before(now)
}

// SpotsLeft returns the remaining capacity, or -1 for unlimited events.
func (e *Event) SpotsLeft() int {
	if e.MaxCapacity == nil {
		return -1
	}

	left := *e.MaxCapacity - e.RegisteredCount
	if left < 0 {
		return 0
	}

	return left
}

// IsFull reports whether a capacity limit is set and reached.
func (e *Event) IsFull() bool {
	return e.SpotsLeft() == 0
}

// CheckInOpen reports whether now lies inside [StartsAt-lead, end].
func (e *Event) CheckInOpen(now time.Time, lead time.Duration) bool {
	return !now.Before(e.StartsAt.Add(-lead)) && !e.HasEnded(now)
}
