package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	authmiddleware "github.com/GoEventHub/GoEventHub/internal/web/middleware/auth"
	"github.com/GoEventHub/GoEventHub/internal/web/navigation"
	"github.com/GoEventHub/GoEventHub/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = auth.LoginPath

	// TemplateName is the login template.
	TemplateName = "login"
)

// Form is the login form.
type Form struct {
	Email    string `form:"email"    validate:"required,email,max=255"`
	Password string `form:"password" validate:"required,max=200"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	svc *handler.Services
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *handler.Services) error {
	if app == nil || cfg == nil || !svc.Valid() || svc.Users == nil {
		return handler.ErrNilServices
	}

	s.cfg = cfg
	s.svc = svc

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	var message string
	if c.Query("deactivated") != "" {
		message = handler.Capitalize(ErrAccountDeactivated.Error())
	}

	return s.render(c, fiber.StatusOK, "", message)
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	var form Form

	if err := c.BodyParser(&form); err != nil {
		return s.render(c, fiber.StatusOK, "", handler.Capitalize(ErrInvalidFormData.Error()))
	}

	if err := handler.Validate.Struct(form); err != nil {
		return s.render(c, fiber.StatusOK, form.Email, handler.Capitalize(ErrInvalidCredentials.Error()))
	}

	user, err := s.svc.Users.Authenticate(form.Email, form.Password)

	switch {
	case errors.Is(err, auth.ErrUserAccountDisabled):
		// credentials are fine, the account is not: drop any session and tell the user why
		log.Info().Uint64("user_id", user.ID).Msg("Login of deactivated account refused")

		if errDestroy := session.Destroy(c, s.secure()); errDestroy != nil {
			log.Error().Err(errDestroy).Msg("failed to delete session")
		}

		return c.Redirect(Path + "?" + authmiddleware.DeactivatedQuery)
	case err != nil:
		if !errors.Is(err, auth.ErrInvalidPassword) && !errors.Is(err, auth.ErrUserNotFound) {
			log.Error().Err(err).Msg("failed to authenticate user")

			return s.render(c, fiber.StatusOK, form.Email, handler.Capitalize(ErrInternalServerError.Error()))
		}

		return s.render(c, fiber.StatusOK, form.Email, handler.Capitalize(ErrInvalidCredentials.Error()))
	}

	// replace a session that may still be open
	if c.Cookies(session.CookieName) != "" {
		_ = session.Delete(c.Cookies(session.CookieName))
	}

	if err := session.Start(c, user.ID, s.secure()); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return s.render(c, fiber.StatusOK, form.Email, handler.Capitalize(ErrInternalServerError.Error()))
	}

	log.Info().Uint64("user_id", user.ID).Msg("User logged in")

	return c.Redirect(authmiddleware.AfterLoginPath)
}

func (s *Service) render(c *fiber.Ctx, status int, email, message string) error {
	page := s.svc.View.Page(c, navigation.For(navigation.Public, "login", "Login"))
	page.Error = message
	page.Data["Email"] = email

	return s.svc.View.Render(c, status, TemplateName, page)
}

// secure is false in dev mode so the cookie works on plain http.
func (s *Service) secure() bool {
	return !s.cfg.DevMode
}
