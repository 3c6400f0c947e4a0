// Package dbtest provides an in-memory database for package tests.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/db"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
)

// New opens a migrated in-memory sqlite database.
// A single connection keeps the memory database alive and serializes concurrent writers.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	gormDB, err := db.Open(&config.Config{DB: config.DB{
		GormEngine: config.GormEngineSQLite,
		Name:       ":memory:",
	}})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, db.Migrate(gormDB), "failed to migrate test database")

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return gormDB
}

// CreateUser inserts an active user with the given role and password "secret".
func CreateUser(t *testing.T, gormDB *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		Active:   true,
		Name:     email,
		Email:    email,
		Password: models.HashPassword("secret"),
		Role:     role,
	}
	require.NoError(t, gormDB.Create(user).Error)

	return user
}
