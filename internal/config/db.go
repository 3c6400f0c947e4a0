package config

const (
	// GormEngineMySQL selects the mysql gorm driver.
	GormEngineMySQL = "mysql"
	// GormEnginePostgres selects the postgres gorm driver.
	GormEnginePostgres = "postgres"
	// GormEngineSQLite selects the pure go sqlite driver, Name is used as file path.
	GormEngineSQLite = "sqlite"
)

// DB holds the database configuration settings.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	GormEngine string
	Debug      bool // log every sql statement
}
