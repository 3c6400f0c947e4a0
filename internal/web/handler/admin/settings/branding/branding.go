// Package branding provides the admin page for the site wide branding settings.
package branding

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/settings"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/admin/home"
	"github.com/GoEventHub/GoEventHub/internal/web/navigation"
)

const (
	// Path is the path to the branding settings page.
	Path = handler.RootPath + "admin/settings"

	// TemplateName is the name of the branding settings template.
	TemplateName = "admin/settings"
)

// Form holds the editable branding values.
type Form struct {
	SiteName       string `form:"site_name"        validate:"required,max=100"`
	Description    string `form:"site_description" validate:"max=500"`
	Logo           string `form:"logo"             validate:"max=500"`
	Favicon        string `form:"favicon"          validate:"max=500"`
	PrimaryColor   string `form:"primary_color"    validate:"required,hexcolor"`
	SecondaryColor string `form:"secondary_color"  validate:"required,hexcolor"`
	Theme          string `form:"theme"            validate:"required,oneof=light dark"`
	FooterText     string `form:"footer_text"      validate:"max=300"`
	CustomCSS      string `form:"custom_css"       validate:"max=20000"`
}

// FormFromResult fills a form with the current values.
func FormFromResult(r settings.Result) Form {
	return Form{
		SiteName:       r.SiteName(),
		Description:    r.Description(),
		Logo:           r.Logo(),
		Favicon:        r.Favicon(),
		PrimaryColor:   r.PrimaryColor(),
		SecondaryColor: r.SecondaryColor(),
		Theme:          r.Theme(),
		FooterText:     r.FooterText(),
		CustomCSS:      r.CustomCSS(),
	}
}

// Values returns the form keyed by setting name.
func (f Form) Values() map[string]string {
	return map[string]string{
		settings.KeySiteName:       f.SiteName,
		settings.KeyDescription:    f.Description,
		settings.KeyLogo:           f.Logo,
		settings.KeyFavicon:        f.Favicon,
		settings.KeyPrimaryColor:   f.PrimaryColor,
		settings.KeySecondaryColor: f.SecondaryColor,
		settings.KeyTheme:          f.Theme,
		settings.KeyFooterText:     f.FooterText,
		settings.KeyCustomCSS:      f.CustomCSS,
	}
}

// ValidateValue checks a single branding value with the form rules.
func ValidateValue(name, value string) error {
	values := settings.Defaults()
	if _, ok := values[name]; !ok {
		return settings.ErrUnknownKey
	}

	values[name] = value

	if err := handler.Validate.Struct(FormFromResult(settings.Result{Values: values})); err != nil {
		return apperror.FromValidator(err)
	}

	return nil
}

// Labels returns the form label of every branding key. Stored metadata wins
// over the built-in definitions.
func Labels(stored []models.Setting) map[string]string {
	out := make(map[string]string)

	for _, def := range settings.Definitions() {
		out[def.Name] = def.Label
	}

	for _, row := range stored {
		if _, ok := out[row.Name]; ok && row.Label != "" {
			out[row.Name] = row.Label
		}
	}

	return out
}

// Service is the branding settings handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	svc *handler.Services
}

// Handler is the branding settings handler.
var Handler = Service{}

// Init initializes the branding settings handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *handler.Services) error {
	if app == nil || cfg == nil || !svc.Valid() {
		return handler.ErrNilServices
	}

	s.cfg = cfg
	s.svc = svc

	// register routes with permission checks
	app.Get(Path,
		auth.RequirePermission(auth.PermAdminSettings),
		s.Get,
	)
	app.Post(Path,
		auth.RequirePermission(auth.PermAdminSettings),
		s.Post,
	)

	return nil
}

// Get renders the settings form with the stored values.
func (s *Service) Get(c *fiber.Ctx) error {
	current := s.svc.Settings.AppSettings(c.UserContext())

	return s.render(c, fiber.StatusOK, FormFromResult(current), nil, "")
}

// Post validates and stores the submitted values. Fields missing from the
// request keep their stored value, unchanged values are not written.
func (s *Service) Post(c *fiber.Ctx) error {
	current := s.svc.Settings.AppSettings(c.UserContext())
	form := FormFromResult(current)

	if err := c.BodyParser(&form); err != nil {
		log.Error().Err(err).Msg("failed to parse branding settings form")

		return s.render(c, fiber.StatusBadRequest, form, nil, "Invalid form data")
	}

	if err := handler.Validate.Struct(form); err != nil {
		var fields apperror.ValidationErrors
		errors.As(apperror.FromValidator(err), &fields)

		log.Debug().Err(err).Msg("validation failed for branding settings")

		return s.render(c, fiber.StatusUnprocessableEntity, form, fields, apperror.Message(fields))
	}

	changed := make(map[string]string)

	for name, value := range form.Values() {
		if current.Get(name) != value {
			changed[name] = value
		}
	}

	if len(changed) > 0 {
		if err := s.svc.Settings.Save(c.UserContext(), changed); err != nil {
			log.Error().Err(err).Msg("failed to save branding settings")

			return s.render(c, fiber.StatusInternalServerError, form, nil, "Failed to save settings")
		}
	}

	log.Info().Int("changed", len(changed)).Uint64("admin_id", auth.CurrentUser(c).ID).
		Msg("Branding settings saved")

	return c.Redirect(Path + "?done=updated")
}

func (s *Service) render(c *fiber.Ctx, status int, form Form, fields apperror.ValidationErrors, message string) error {
	nav := navigation.For(navigation.Admin, "settings", "Settings").
		Via("Admin", home.Path).
		Here("", Path)

	stored, err := s.svc.Settings.Stored(c.UserContext())
	if err != nil {
		log.Warn().Err(err).Msg("failed to load settings metadata")
	}

	p := s.svc.View.Page(c, nav)
	p.Error = message
	p.Success = handler.Notice(c)
	p.Data["Labels"] = Labels(stored)
	p.Data["Form"] = form
	p.Data["Fields"] = fields
	p.Data["Themes"] = settings.Themes()

	return s.svc.View.Render(c, status, TemplateName, p)
}
