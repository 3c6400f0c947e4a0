package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	userauth "github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/web/session"
)

const (
	// DeactivatedQuery is appended to the login path after a deactivated session was torn down.
	DeactivatedQuery = "deactivated=1"

	// AfterLoginPath is where an authenticated visitor of the login page is sent.
	AfterLoginPath = "/dashboard"
)

// Config for the session middleware.
type Config struct {
	DB *gorm.DB
	// Secure marks the cookie that expires a torn down session as secure.
	Secure bool
	// SkipPrefixes are path prefixes that never touch the session store.
	SkipPrefixes []string
}

// New returns the session middleware.
func New(cfg Config) fiber.Handler {
	if cfg.DB == nil {
		panic("session middleware needs a db")
	}

	return func(c *fiber.Ctx) error {
		path := strings.ToLower(c.Path())
		for _, prefix := range cfg.SkipPrefixes {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		sessionID := c.Cookies(session.CookieName)
		if sessionID == "" {
			return c.Next()
		}

		sessData := new(session.Data)
		if err := sessData.Read(sessionID); err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				log.Error().Err(err).Msg("failed to read session")
			}

			return c.Next()
		}

		var user models.User
		if err := cfg.DB.WithContext(c.UserContext()).First(&user, sessData.UserID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Error().Err(err).Uint64("user_id", sessData.UserID).Msg("failed to load session user")

				return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
			}

			_ = session.Destroy(c, cfg.Secure)

			return c.Next()
		}

		// deactivation takes effect on the next request of an open session
		if !user.Active {
			log.Info().Uint64("user_id", user.ID).Msg("Ending session of deactivated user")

			if err := session.Destroy(c, cfg.Secure); err != nil {
				log.Error().Err(err).Msg("failed to delete session")
			}

			if IsLoginPage(c) {
				return c.Next()
			}

			return c.Redirect(userauth.LoginPath + "?" + DeactivatedQuery)
		}

		c.Locals(userauth.LocalsUser, &user)
		c.Locals(userauth.LocalsUserID, user.ID)

		if IsLoginPage(c) && c.Method() == fiber.MethodGet {
			return c.Redirect(AfterLoginPath)
		}

		return c.Next()
	}
}

// IsLoginPage checks if the current request is for the login page.
func IsLoginPage(c *fiber.Ctx) bool {
	p := strings.TrimRight(strings.ToLower(c.Path()), "/")
	return p == userauth.LoginPath
}
