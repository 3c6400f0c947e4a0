// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/GoEventHub/GoEventHub/internal/config"
)

// Create builds the Data Source Name for the configured gorm engine.
func Create(dbCfg *config.Config) string {
	switch dbCfg.DB.GormEngine {
	case config.GormEnginePostgres:
		return postgresKeyValue(&dbCfg.DB)
	case config.GormEngineSQLite:
		return sqlite(&dbCfg.DB)
	default:
		return mysql(&dbCfg.DB)
	}
}

// URI builds a connection URI. The postgres session storage only accepts this form.
func URI(dbCfg *config.Config) string {
	if dbCfg.DB.GormEngine != config.GormEnginePostgres {
		return Create(dbCfg)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbCfg.DB.User, dbCfg.DB.Password),
		Host:     dbCfg.DB.Host + ":" + strconv.Itoa(dbCfg.DB.Port),
		Path:     "/" + dbCfg.DB.Name,
		RawQuery: dbCfg.DB.Extras,
	}

	return u.String()
}

func mysql(db *config.DB) string {
	out := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.Extras,
	)

	return out
}

func postgresKeyValue(db *config.DB) string {
	out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		db.Host,
		db.Port,
		db.User,
		db.Password,
		db.Name,
	)

	if db.Extras != "" {
		out += " " + db.Extras
	}

	return out
}

func sqlite(db *config.DB) string {
	if db.Extras == "" {
		return db.Name
	}

	return db.Name + "?" + db.Extras
}
