// Package session keeps login sessions in a fiber storage backend.
// The cookie holds a random session id, the storage holds Data.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "session"

	// DefaultExpiry is used when Init receives no expiry.
	DefaultExpiry = 24 * time.Hour
)

// ErrNoSession is returned when the session id is unknown or expired.
var ErrNoSession = errors.New("session not found")

// Store is the global session store instance.
var Store *session.Store //nolint:gochecknoglobals

// Data represents the session data structure.
// Only the user id is kept, the user is reloaded on every request.
type Data struct {
	UserID   uint64
	IssuedAt time.Time
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return Store.Storage.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}

	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err
	}

	if len(byteData) == 0 {
		return ErrNoSession
	}

	return json.Unmarshal(byteData, s)
}

// Delete removes the session from the storage.
func Delete(sessionID string) error {
	if sessionID == "" {
		return nil
	}

	return Store.Storage.Delete(sessionID)
}

// Init initializes the session store with the provided storage backend.
func Init(storage fiber.Storage, expiry time.Duration) {
	if storage == nil {
		panic("storage is nil")
	}

	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	Store = session.New(session.Config{
		Storage:    storage,
		Expiration: expiry,
		KeyLookup:  "cookie:" + CookieName,
	})
}

// Expiry returns the configured session lifetime.
func Expiry() time.Duration {
	if Store == nil || Store.Expiration <= 0 {
		return DefaultExpiry
	}

	return Store.Expiration
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// Start creates a session for userID and sets the cookie.
func Start(c *fiber.Ctx, userID uint64, secure bool) error {
	sessionID, err := GenerateSessionID()
	if err != nil {
		return err
	}

	data := &Data{UserID: userID, IssuedAt: time.Now().UTC()}
	if err := data.Write(sessionID, Expiry()); err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		MaxAge:   int(Expiry().Seconds()),
		Secure:   secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return nil
}

// Destroy deletes the current session and expires the cookie.
func Destroy(c *fiber.Ctx, secure bool) error {
	err := Delete(c.Cookies(CookieName))

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return err
}
