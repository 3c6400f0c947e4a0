// Package user provides handlers for managing user accounts in the admin area.
package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/admin/home"
	"github.com/GoEventHub/GoEventHub/internal/web/navigation"
)

const (
	// Path is the base path for user management.
	Path = handler.RootPath + "admin/users"

	// TemplateList is the template for listing users.
	TemplateList = "admin/user/list"
	// TemplateForm is the template for creating a user.
	TemplateForm = "admin/user/form"
)

// Form is the user creation form.
type Form struct {
	Name         string `form:"name"         validate:"required,min=2,max=150"`
	Email        string `form:"email"        validate:"required,email,max=255"`
	Password     string `form:"password"     validate:"required,min=8,max=200"`
	Role         string `form:"role"         validate:"required,oneof=admin attendee"`
	Organization string `form:"organization" validate:"max=150"`
	Phone        string `form:"phone"        validate:"max=50"`
	Active       bool   `form:"active"`
}

// Service manages user accounts.
type Service struct {
	handler.Service
	cfg *config.Config
	svc *handler.Services
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *handler.Services) error {
	if app == nil || cfg == nil || !svc.Valid() || svc.Users == nil {
		return handler.ErrNilServices
	}

	s.cfg = cfg
	s.svc = svc

	perm := auth.RequirePermission(auth.PermAdminUsers)

	// Routes
	app.Get(Path, perm, s.List)
	app.Get(Path+"/new", perm, s.New)
	app.Post(Path, perm, s.Create)
	app.Post(Path+"/:id<int>/activate", perm, s.Activate)
	app.Post(Path+"/:id<int>/deactivate", perm, s.Deactivate)

	return nil
}

func listNav() *navigation.Context {
	return navigation.For(navigation.Admin, "user", "Users").
		Via("Admin", home.Path).
		Here("", Path)
}

// List shows users with pagination, search and role/state filters.
func (s *Service) List(c *fiber.Ctx) error {
	return s.renderList(c, fiber.StatusOK, "")
}

func (s *Service) renderList(c *fiber.Ctx, status int, message string) error {
	page, pageSize := handler.Paging(c)
	search := c.Query("search")

	filter := auth.UserFilter{Search: search}

	if role, err := models.ParseRole(c.Query("role")); err == nil {
		filter.Role = role
	}

	switch c.Query("state") {
	case "active":
		active := true
		filter.Active = &active
	case "inactive":
		active := false
		filter.Active = &active
	}

	users, total, err := s.svc.Users.ListUsers(filter, pageSize, (page-1)*pageSize)
	if err != nil {
		log.Error().Err(err).Msg("query users failed")

		return handler.Fail(c, s.svc.View, err)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	p := s.svc.View.Page(c, listNav())
	p.Error = message
	p.Success = handler.Notice(c)
	p.Data["Users"] = users
	p.Data["Roles"] = models.Roles()
	p.Data["RoleFilter"] = c.Query("role")
	p.Data["StateFilter"] = c.Query("state")
	p.Data["Pager"] = handler.NewPager(page, pageSize, total, totalPages, search)

	return s.svc.View.Render(c, status, TemplateList, p)
}

// New shows the creation form.
func (s *Service) New(c *fiber.Ctx) error {
	return s.renderForm(c, fiber.StatusOK, Form{Role: string(models.RoleAttendee), Active: true}, nil, "")
}

// Create creates a new user.
func (s *Service) Create(c *fiber.Ctx) error {
	var form Form

	if err := c.BodyParser(&form); err != nil {
		return s.renderForm(c, fiber.StatusBadRequest, form, nil, "Invalid form data")
	}

	if err := handler.Validate.Struct(form); err != nil {
		var fields apperror.ValidationErrors
		errors.As(apperror.FromValidator(err), &fields)

		return s.renderForm(c, fiber.StatusUnprocessableEntity, form, fields, apperror.Message(fields))
	}

	user, err := s.svc.Users.CreateUser(auth.NewUser{
		Name:         form.Name,
		Email:        form.Email,
		Password:     form.Password,
		Role:         models.Role(form.Role),
		Organization: form.Organization,
		Phone:        form.Phone,
		Active:       form.Active,
	})
	if errors.Is(err, auth.ErrEmailExists) {
		fields := apperror.ValidationErrors{"Email": "An account with this email already exists"}

		return s.renderForm(c, fiber.StatusConflict, form, fields, fields["Email"])
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to create user")

		return s.renderForm(c, fiber.StatusInternalServerError, form, nil, apperror.Message(err))
	}

	log.Info().Uint64("user_id", user.ID).Str("role", user.Role.String()).
		Uint64("admin_id", auth.CurrentUser(c).ID).Msg("User created")

	return c.Redirect(Path + "?done=created")
}

// Activate re-enables a user account.
func (s *Service) Activate(c *fiber.Ctx) error {
	return s.setActive(c, true)
}

// Deactivate blocks a user account. Open sessions end on their next request.
func (s *Service) Deactivate(c *fiber.Ctx) error {
	return s.setActive(c, false)
}

func (s *Service) setActive(c *fiber.Ctx, active bool) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	// Prevent an admin from locking themselves out
	current := auth.CurrentUser(c)
	if !active && current.ID == id {
		return s.renderList(c, fiber.StatusBadRequest, "You cannot deactivate your own account.")
	}

	if active {
		err = s.svc.Users.ActivateUser(id)
	} else {
		err = s.svc.Users.DeactivateUser(id)
	}

	if errors.Is(err, auth.ErrUserNotFound) {
		return handler.Fail(c, s.svc.View, apperror.ErrNotFound)
	}

	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	done := "deactivated"
	if active {
		done = "activated"
	}

	log.Info().Uint64("user_id", id).Bool("active", active).Uint64("admin_id", current.ID).Msg("User state changed")

	return c.Redirect(Path + "?done=" + done)
}

func (s *Service) renderForm(c *fiber.Ctx, status int, form Form, fields apperror.ValidationErrors, message string) error {
	nav := navigation.For(navigation.Admin, "user", "New User").
		Via("Admin", home.Path).
		Via("Users", Path).
		Here("New", Path+"/new")

	form.Password = ""

	p := s.svc.View.Page(c, nav)
	p.Error = message
	p.Data["Form"] = form
	p.Data["Fields"] = fields
	p.Data["Roles"] = models.Roles()
	p.Data["IsCreate"] = true

	return s.svc.View.Render(c, status, TemplateForm, p)
}
