// Package db opens and migrates the gorm database.
package db

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/db/dsn"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/logger/adapter/stdlogger"
)

const slowQueryThreshold = 500 * time.Millisecond

// Dialector returns the gorm dialector for the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.GormEngine {
	case "", config.GormEngineMySQL:
		return gormmysql.Open(dsn.Create(cfg)), nil
	case config.GormEnginePostgres:
		return postgres.Open(dsn.Create(cfg)), nil
	case config.GormEngineSQLite:
		return sqlite.Open(dsn.Create(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported gorm engine %q", cfg.DB.GormEngine)
	}
}

// Open connects to the configured database. SQL logging goes through zerolog.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if cfg.DB.Debug {
		level = gormlogger.Info
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(stdlogger.New("gorm"), gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// sqlite allows a single writer, serialize connections to avoid SQLITE_BUSY
	if cfg.DB.GormEngine == config.GormEngineSQLite {
		sqlDB, errDB := gormDB.DB()
		if errDB != nil {
			return nil, fmt.Errorf("failed to access sql db: %w", errDB)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	return gormDB, nil
}

// Migrate creates or updates all tables.
func Migrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Registration{},
		&models.Setting{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
