package daemon

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/db/controller/setting"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/settings"
)

// ErrSeedAdminIncomplete is returned when an admin must be seeded but the config lacks email or password.
var ErrSeedAdminIncomplete = errors.New("seed.adminEmail and seed.adminPassword are required on an empty database")

// Seed creates the default branding settings and, if no admin exists yet,
// the admin account from cfg.Seed.
func Seed(cfg *config.Config, db *gorm.DB) error {
	if err := setting.EnsureDefaults(db, settings.SeedDefinitions()); err != nil {
		return err
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}

	if count > 0 {
		return nil
	}

	_, err := CreateAdmin(db, cfg.Seed.AdminName, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword)
	if err != nil {
		return err
	}

	log.Warn().Str("email", cfg.Seed.AdminEmail).Msg("created initial admin account, change its password")

	return nil
}

// CreateAdmin creates an active admin account.
func CreateAdmin(db *gorm.DB, name, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, ErrSeedAdminIncomplete
	}

	if name == "" {
		name = "Administrator"
	}

	user, err := auth.NewLocalProvider(db).CreateUser(auth.NewUser{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
		Active:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create admin %s: %w", email, err)
	}

	return user, nil
}
