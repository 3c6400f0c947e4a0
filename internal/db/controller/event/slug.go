package event

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/GoEventHub/GoEventHub/internal/db/models"
)

const (
	// SlugMaxLen is the maximum slug length including a numeric suffix.
	SlugMaxLen = 200

	defaultSlugBase = "event"
	maxSlugAttempts = 1000
)

// ErrSlugExhausted is returned when no free slug suffix was found.
var ErrSlugExhausted = errors.New("failed to generate unique slug")

// GenerateSlug transliterates s to ASCII and joins every run of letters and digits with a single dash.
func GenerateSlug(s string) string {
	return slug.Make(s)
}

// UniqueSlug returns the slug of title, suffixed with -2, -3, ... if taken.
// Soft deleted events still hold their slug. excludeID skips the event being updated.
func UniqueSlug(db *gorm.DB, title string, excludeID uint64) (string, error) {
	base := GenerateSlug(title)
	if base == "" {
		base = defaultSlugBase
	}

	base = cutToLen(base, SlugMaxLen)

	for i := 1; i <= maxSlugAttempts; i++ {
		candidate := base

		if i > 1 {
			suffix := fmt.Sprintf("-%d", i)
			candidate = strings.TrimRight(cutToLen(base, SlugMaxLen-len(suffix)), "-") + suffix
		}

		taken, err := slugTaken(db, candidate, excludeID)
		if err != nil {
			return "", err
		}

		if !taken {
			return candidate, nil
		}
	}

	return "", ErrSlugExhausted
}

func slugTaken(db *gorm.DB, candidate string, excludeID uint64) (bool, error) {
	var count int64

	tx := db.Unscoped().Model(&models.Event{}).Where("slug = ?", candidate)
	if excludeID > 0 {
		tx = tx.Where("id <> ?", excludeID)
	}

	if err := tx.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}

	return count > 0, nil
}

// cutToLen shortens s to at most n bytes without splitting a rune.
func cutToLen(s string, n int) string {
	if len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}
