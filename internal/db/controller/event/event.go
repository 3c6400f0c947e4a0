// Package event provides persistence operations for events.
package event

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/db/query"
)

var (
	// ErrEventNotFound is returned when an event does not exist or is not visible.
	ErrEventNotFound = errors.New("event not found")
	// ErrEventHasRegistrations is returned when deleting an event that still has registrations.
	ErrEventHasRegistrations = errors.New("event still has registrations")
	// ErrCapacityBelowRegistrations is returned when a capacity update drops below the registered count.
	ErrCapacityBelowRegistrations = errors.New("capacity can not be lower than the number of registrations")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Filter narrows List results.
type Filter struct {
	PublishedOnly bool
	UpcomingOnly  bool   // hide events that already ended
	Search        string // matches title, venue and description
	CreatorID     uint64 // 0 = any creator
	Now           time.Time
}

// Page is one page of List results.
type Page struct {
	Events     []models.Event
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// Create stores a new event with a unique slug derived from its title.
func Create(db *gorm.DB, e *models.Event) error {
	if db == nil {
		return ErrDBNil
	}

	slug, err := UniqueSlug(db, e.Title, 0)
	if err != nil {
		return err
	}

	e.Slug = slug
	e.RegisteredCount = 0

	if err := db.Omit(clause.Associations).Create(e).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetByID loads an event including unpublished ones.
func GetByID(db *gorm.DB, id uint64) (*models.Event, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var e models.Event
	if err := db.Preload("Creator").First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}

		return nil, err
	}

	return &e, nil
}

// GetPublishedBySlug resolves a public event by slug.
func GetPublishedBySlug(db *gorm.DB, slug string) (*models.Event, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var e models.Event

	err := db.Where("slug = ? AND published = ?", slug, true).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}

	if err != nil {
		return nil, err
	}

	return &e, nil
}

// List returns one page of events ordered by start time.
func List(db *gorm.DB, f Filter, page, pageSize int) (*Page, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if page < 1 {
		page = 1
	}

	tx := db.Model(&models.Event{})

	if f.PublishedOnly {
		tx = tx.Where("published = ?", true)
	}

	if f.UpcomingOnly {
		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}

		tx = tx.Where("(ends_at >= ? OR starts_at >= ?)", now, now)
	}

	if f.CreatorID > 0 {
		tx = tx.Where("creator_id = ?", f.CreatorID)
	}

	if f.Search != "" {
		tx = query.Like(tx, f.Search, "title", "venue", "description")
	}

	out := &Page{Page: page, PageSize: pageSize}

	if err := tx.Count(&out.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	out.TotalPages = int((out.Total + int64(pageSize) - 1) / int64(pageSize))
	if out.TotalPages == 0 {
		out.TotalPages = 1
	}

	if err := tx.Order("starts_at ASC, id ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&out.Events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return out, nil
}

// Update stores editable fields of an event. A changed title regenerates the slug.
// RegisteredCount is never written here, it belongs to the registration workflow.
func Update(db *gorm.DB, e *models.Event) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var current models.Event
		if err := tx.First(&current, e.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}

			return err
		}

		if e.MaxCapacity != nil && *e.MaxCapacity < current.RegisteredCount {
			return ErrCapacityBelowRegistrations
		}

		e.Slug = current.Slug
		if e.Title != current.Title {
			slug, err := UniqueSlug(tx, e.Title, e.ID)
			if err != nil {
				return err
			}

			e.Slug = slug
		}

		return tx.Model(&current).
			Select("title", "slug", "description", "venue", "starts_at", "ends_at",
				"max_capacity", "image_path", "published").
			Updates(map[string]interface{}{
				"title":        e.Title,
				"slug":         e.Slug,
				"description":  e.Description,
				"venue":        e.Venue,
				"starts_at":    e.StartsAt,
				"ends_at":      e.EndsAt,
				"max_capacity": e.MaxCapacity,
				"image_path":   e.ImagePath,
				"published":    e.Published,
			}).Error
	})
}

// Delete soft deletes an event without registrations.
func Delete(db *gorm.DB, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Registration{}).Where("event_id = ?", id).Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return ErrEventHasRegistrations
		}

		result := tx.Delete(&models.Event{}, id)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return ErrEventNotFound
		}

		return nil
	})
}
