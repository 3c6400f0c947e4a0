// Package setting provides CRUD operations for managing application settings.
package setting

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/GoEventHub/GoEventHub/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingNameEmpty is returned when attempting to create/update a setting with an empty name.
	ErrSettingNameEmpty = errors.New("setting name cannot be empty")
	// ErrSettingAlreadyExists is returned when attempting to create a setting that already exists.
	ErrSettingAlreadyExists = errors.New("setting already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a setting by its name.
func Get(db *gorm.DB, name string) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	var setting models.Setting

	result := db.Where(nameQueryPattern, name).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}

		return nil, result.Error
	}

	return &setting, nil
}

// GetAll retrieves all settings ordered for the admin form.
func GetAll(db *gorm.DB) ([]models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings []models.Setting

	result := db.Order("setting_group ASC, sort_order ASC, name ASC").Find(&settings)
	if result.Error != nil {
		return nil, result.Error
	}

	return settings, nil
}

// GetPublicOrNamed retrieves every public setting plus the settings listed in names.
func GetPublicOrNamed(db *gorm.DB, names []string) ([]models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings []models.Setting

	tx := db.Where("public = ?", true)
	if len(names) > 0 {
		tx = tx.Or("name IN ?", names)
	}

	if err := tx.Find(&settings).Error; err != nil {
		return nil, err
	}

	return settings, nil
}

// Create creates a new setting in the database.
func Create(db *gorm.DB, setting *models.Setting) error {
	if db == nil {
		return ErrDBNil
	}

	if setting == nil || setting.Name == "" {
		return ErrSettingNameEmpty
	}

	// Check if setting already exists
	var existing models.Setting

	result := db.Where(nameQueryPattern, setting.Name).First(&existing)
	if result.Error == nil {
		return ErrSettingAlreadyExists
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	return db.Create(setting).Error
}

// Set creates or updates a setting value by name (upsert operation).
// Metadata of existing settings is left untouched.
func Set(db *gorm.DB, name, value string) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	var setting models.Setting

	result := db.Where(nameQueryPattern, name).First(&setting)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		setting = models.Setting{Name: name, Value: value, Type: models.SettingTypeText}
		if err := Create(db, &setting); err != nil {
			return nil, err
		}

		return &setting, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	setting.Value = value

	if err := db.Save(&setting).Error; err != nil {
		return nil, err
	}

	return &setting, nil
}

// UpdateValues stores several existing settings in one transaction.
// Unknown names abort the whole update with ErrSettingNotFound.
func UpdateValues(db *gorm.DB, values map[string]string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for name, value := range values {
			result := tx.Model(&models.Setting{}).Where(nameQueryPattern, name).Update("value", value)
			if result.Error != nil {
				return result.Error
			}

			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: %s", ErrSettingNotFound, name)
			}
		}

		return nil
	})
}

// EnsureDefaults creates missing settings and leaves existing values alone.
func EnsureDefaults(db *gorm.DB, defaults []models.Setting) error {
	if db == nil {
		return ErrDBNil
	}

	for i := range defaults {
		err := Create(db, &defaults[i])
		if err != nil && !errors.Is(err, ErrSettingAlreadyExists) {
			return fmt.Errorf("failed to seed setting %s: %w", defaults[i].Name, err)
		}
	}

	return nil
}

// DeleteByName deletes a setting by name.
func DeleteByName(db *gorm.DB, name string) error {
	if db == nil {
		return ErrDBNil
	}

	if name == "" {
		return ErrSettingNameEmpty
	}

	result := db.Where(nameQueryPattern, name).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}
