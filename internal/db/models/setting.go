// Package models contains database model definitions.
package models

import "time"

// Setting types drive the input rendered by the admin settings form.
const (
	SettingTypeText     = "text"
	SettingTypeTextarea = "textarea"
	SettingTypeColor    = "color"
	SettingTypeSelect   = "select"
)

// Setting represents a configuration value stored in the database.
// Name is the unique key.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"uniqueIndex;size:100;not null"`
	Value string `gorm:"type:text"`
	// Public settings are exposed to every rendered page.
	Public bool
	// Label, Group, Type and SortOrder drive the admin settings form.
	Label     string `gorm:"size:150"`
	Group     string `gorm:"column:setting_group;size:50"`
	Type      string `gorm:"size:20;default:'text'"`
	SortOrder int
	UpdatedAt time.Time
}
