// Package dashboard sends a logged in user to the landing page of their role.
package dashboard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
)

// Path is the path to the dashboard page.
const Path = handler.RootPath + "dashboard"

// Service is the dashboard handler service.
type Service struct {
	handler.Service
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, _ *handler.Services) error {
	if app == nil || cfg == nil {
		return handler.ErrNilServices
	}

	// register routes with permission checks
	app.Get(Path,
		auth.RequirePermission(auth.PermEventsBrowse),
		s.Get,
	)

	return nil
}

// Get redirects according to the role dispatch table.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Redirect(auth.HomePath(auth.CurrentUser(c).Role))
}
