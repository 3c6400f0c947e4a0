// Package signup provides the self-service account registration.
package signup

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	"github.com/GoEventHub/GoEventHub/internal/web/navigation"
	"github.com/GoEventHub/GoEventHub/internal/web/session"
)

const (
	// Path is the signup page.
	Path = handler.RootPath + "register"

	// TemplateName is the signup template.
	TemplateName = "register"

	// SuccessPath is where a new account lands.
	SuccessPath = "/events?done=welcome"
)

// Form is the signup form.
type Form struct {
	Name            string `form:"name"             validate:"required,min=2,max=150"`
	Email           string `form:"email"            validate:"required,email,max=255"`
	Password        string `form:"password"         validate:"required,min=8,max=200"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
	Organization    string `form:"organization"     validate:"max=150"`
	Phone           string `form:"phone"            validate:"max=50"`
}

// Service is the signup handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	svc *handler.Services
}

// Handler is the signup handler.
var Handler = Service{}

// Init initializes the signup handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *handler.Services) error {
	if app == nil || cfg == nil || !svc.Valid() || svc.Users == nil {
		return handler.ErrNilServices
	}

	s.cfg = cfg
	s.svc = svc

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get renders the empty form. Logged in users have an account already.
func (s *Service) Get(c *fiber.Ctx) error {
	if auth.CurrentUser(c) != nil {
		return c.Redirect(auth.FallbackHomePath)
	}

	return s.render(c, fiber.StatusOK, Form{}, nil, "")
}

// Post creates an attendee account and logs it in.
func (s *Service) Post(c *fiber.Ctx) error {
	var form Form

	if err := c.BodyParser(&form); err != nil {
		return s.render(c, fiber.StatusBadRequest, form, nil, "Invalid form data")
	}

	if err := handler.Validate.Struct(form); err != nil {
		var fields apperror.ValidationErrors
		errors.As(apperror.FromValidator(err), &fields)

		return s.render(c, fiber.StatusUnprocessableEntity, form, fields, apperror.Message(fields))
	}

	user, err := s.svc.Users.CreateUser(auth.NewUser{
		Name:         form.Name,
		Email:        form.Email,
		Password:     form.Password,
		Role:         models.RoleAttendee,
		Organization: form.Organization,
		Phone:        form.Phone,
		Active:       true,
	})
	if errors.Is(err, auth.ErrEmailExists) {
		fields := apperror.ValidationErrors{"email": "An account with this email already exists"}

		return s.render(c, fiber.StatusConflict, form, fields, fields["email"])
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to create account")

		return s.render(c, fiber.StatusInternalServerError, form, nil, apperror.Message(err))
	}

	log.Info().Uint64("user_id", user.ID).Msg("Account created")

	if err := session.Start(c, user.ID, !s.cfg.DevMode); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return c.Redirect(auth.LoginPath)
	}

	return c.Redirect(SuccessPath)
}

func (s *Service) render(c *fiber.Ctx, status int, form Form, fields apperror.ValidationErrors, message string) error {
	form.Password, form.PasswordConfirm = "", ""

	page := s.svc.View.Page(c, navigation.For(navigation.Public, "signup", "Create account"))
	page.Error = message
	page.Data["Form"] = form
	page.Data["Fields"] = fields

	return s.svc.View.Render(c, status, TemplateName, page)
}
