// Package account lets a logged in user change their own password.
package account

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	"github.com/GoEventHub/GoEventHub/internal/web/navigation"
)

const (
	// PasswordPath is the password change page.
	PasswordPath = handler.RootPath + "account/password"

	// TemplatePassword is the password change template.
	TemplatePassword = "account/password"
)

// PasswordForm is the password change form.
type PasswordForm struct {
	CurrentPassword string `form:"current_password" validate:"required"`
	Password        string `form:"password"         validate:"required,min=8,max=200"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
}

// Service is the account handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	svc *handler.Services
}

// Handler is the account handler.
var Handler = Service{}

// Init initializes the account handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *handler.Services) error {
	if app == nil || cfg == nil || !svc.Valid() || svc.Users == nil {
		return handler.ErrNilServices
	}

	s.cfg = cfg
	s.svc = svc

	app.Route(PasswordPath, func(router fiber.Router) {
		router.Use(auth.RequirePermission(auth.PermRegistrationOwn))
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get renders the empty form.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, nil, "")
}

// Post verifies the current password and stores the new one.
func (s *Service) Post(c *fiber.Ctx) error {
	var form PasswordForm

	if err := c.BodyParser(&form); err != nil {
		return s.render(c, fiber.StatusBadRequest, nil, "Invalid form data")
	}

	if err := handler.Validate.Struct(form); err != nil {
		var fields apperror.ValidationErrors
		errors.As(apperror.FromValidator(err), &fields)

		return s.render(c, fiber.StatusUnprocessableEntity, fields, apperror.Message(fields))
	}

	user := auth.CurrentUser(c)

	err := s.svc.Users.ChangePassword(user.ID, form.CurrentPassword, form.Password)
	if errors.Is(err, auth.ErrInvalidOldPassword) {
		fields := apperror.ValidationErrors{"CurrentPassword": "The current password is not correct"}

		return s.render(c, fiber.StatusUnprocessableEntity, fields, fields["CurrentPassword"])
	}

	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to change password")

		return s.render(c, fiber.StatusInternalServerError, nil, "Failed to change the password")
	}

	log.Info().Uint64("user_id", user.ID).Msg("Password changed")

	return c.Redirect(PasswordPath + "?done=password")
}

func (s *Service) render(c *fiber.Ctx, status int, fields apperror.ValidationErrors, message string) error {
	nav := navigation.For(navigation.Account, "password", "Change password").Here("", PasswordPath)

	p := s.svc.View.Page(c, nav)
	p.Error = message
	p.Success = handler.Notice(c)
	p.Data["Fields"] = fields

	return s.svc.View.Render(c, status, TemplatePassword, p)
}
