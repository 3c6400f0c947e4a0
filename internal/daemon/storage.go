package daemon

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/gofiber/storage/mysql/v2"
	"github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"

	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/db/dsn"
)

// NewStorage returns the key value store for sessions, csrf tokens, the
// rate limiter and the settings cache. The database backend uses the sql
// server of the gorm engine, sqlite falls back to memory.
func NewStorage(cfg *config.Config) fiber.Storage {
	if cfg.Storage.Backend != config.StorageBackendDatabase {
		return memory.New()
	}

	switch cfg.DB.GormEngine {
	case config.GormEngineMySQL:
		log.Info().Str("table", cfg.Storage.Table).Msg("using mysql session storage")

		return mysql.New(mysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         cfg.Storage.Table,
		})
	case config.GormEnginePostgres:
		log.Info().Str("table", cfg.Storage.Table).Msg("using postgres session storage")

		return postgres.New(postgres.Config{
			ConnectionURI: dsn.URI(cfg),
			Table:         cfg.Storage.Table,
		})
	default:
		log.Warn().Str("engine", cfg.DB.GormEngine).Msg("no database storage for this engine, using memory")

		return memory.New()
	}
}
