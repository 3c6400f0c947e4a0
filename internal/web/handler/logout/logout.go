package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/rs/zerolog/log"

	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/login"
	"github.com/GoEventHub/GoEventHub/internal/web/session"
	"github.com/GoEventHub/GoEventHub/internal/web/view"
)

// Path is the logout path.
const Path = handler.RootPath + "logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg *config.Config
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, _ *handler.Services) error {
	if app == nil || cfg == nil {
		return handler.ErrNilServices
	}

	s.cfg = cfg

	// logout route (outside auth middleware protection)
	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)

	return nil
}

// Logout handles user logout by clearing the session and rotating the csrf token.
func (s *Service) Logout(c *fiber.Ctx) error {
	if err := session.Destroy(c, !s.cfg.DevMode); err != nil {
		log.Error().Err(err).Msg("failed to delete session")
	}

	// DeleteToken answers 403 itself when there is no token cookie
	if h, ok := c.Locals(view.CSRFHandlerKey).(*csrf.CSRFHandler); ok && c.Cookies(view.CSRFCookieName) != "" {
		if err := h.DeleteToken(c); err != nil {
			log.Error().Err(err).Msg("failed to delete csrf token")
		}
	}

	return c.Redirect(login.Path)
}
