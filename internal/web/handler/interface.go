package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/GoEventHub/GoEventHub/internal/assets"
	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/checkin"
	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/registration"
	"github.com/GoEventHub/GoEventHub/internal/settings"
	"github.com/GoEventHub/GoEventHub/internal/web/view"
)

// Services bundles the collaborators handlers depend on.
type Services struct {
	DB            *gorm.DB
	Users         *auth.LocalProvider
	Policy        auth.EventPolicy
	Registrations *registration.Service
	CheckIns      *checkin.Service
	Settings      *settings.Provider
	Assets        *assets.Store
	View          *view.Renderer
}

// Valid reports whether the services every handler needs are present.
func (s *Services) Valid() bool {
	return s != nil && s.DB != nil && s.View != nil && s.Assets != nil
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, svc *Services) error
}
