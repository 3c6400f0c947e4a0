package config

import (
	"time"

	"github.com/GoEventHub/GoEventHub/internal/logger"
)

const (
	// QueueBackendLocal runs notification jobs on in-process workers.
	QueueBackendLocal = "local"
	// QueueBackendRabbitMQ publishes notification jobs to a rabbitmq queue.
	QueueBackendRabbitMQ = "rabbitmq"

	// StorageBackendMemory keeps sessions and cache entries in process memory.
	StorageBackendMemory = "memory"
	// StorageBackendDatabase keeps sessions and cache entries in the configured sql database.
	StorageBackendDatabase = "database"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// RateLimit settings for the login and signup forms.
type RateLimit struct {
	Max        int           // max requests per window and client ip, 0 disables the limiter
	Expiration time.Duration // window length
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Storage   Storage
	Cache     Cache
	Queue     Queue
	Mail      Mail
	Event     Event
	Seed      Seed
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic        bool      // enable static file browsing (for development purposes only)
	CacheEnabled        bool      // true = enable etag and compression middlewares
	DisableRecover      bool      // disable recover middleware
	Domain              string    // cookie domain
	Port                int       // listening port for the webserver
	ShutDownTime        int       // wait time for shutdown
	URL                 string    // base url for the webserver
	CookieEncryptionKey string    // base64 32 byte key, empty disables cookie encryption
	Session             Session   // session settings
	RateLimit           RateLimit // login and signup throttling
}

// Storage selects where sessions, the settings cache and uploaded assets live.
type Storage struct {
	Backend    string // memory or database
	Table      string // session table for the database backend
	AssetsPath string // directory for qr codes and event images
}

// Cache settings.
type Cache struct {
	SettingsTTL time.Duration // lifetime of the cached settings aggregate
}

// Queue settings for outbound notifications.
type Queue struct {
	Backend   string // local or rabbitmq
	Workers   int    // consumer goroutines
	Buffer    int    // local backend channel size
	RabbitURL string `json:",omitempty"`
	Exchange  string
	Name      string
}

// Mail holds the smtp transport settings.
type Mail struct {
	Enabled   bool // false logs messages instead of sending them
	Host      string
	Port      int
	Username  string
	Password  string `json:"-" toml:"-"`
	From      string
	FromName  string
	TLSPolicy string // mandatory, opportunistic or none
	Timeout   time.Duration
}

// Event holds event workflow settings.
type Event struct {
	SelfCheckInLead time.Duration // how long before the start attendees may check themselves in
	ImageMaxWidth   int
	ImageMaxHeight  int
}

// Seed holds the initial admin account created on an empty database.
type Seed struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string `json:"-" toml:"-"`
}
