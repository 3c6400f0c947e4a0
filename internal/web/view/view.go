// Package view assembles the data every page template receives.
// Site settings, the current user and the navigation are passed explicitly
// with each render instead of being read by templates from globals.
package view

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/settings"
	"github.com/GoEventHub/GoEventHub/internal/web/navigation"
)

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// CSRFContextKey is the fiber.Locals key of the csrf token.
	CSRFContextKey = "csrf"
	// CSRFFormField is the form field carrying the csrf token.
	CSRFFormField = "_csrf"
	// CSRFCookieName is the cookie holding the csrf token.
	CSRFCookieName = "csrf_"
	// CSRFHandlerKey is the fiber.Locals key of the csrf handler.
	CSRFHandlerKey = "csrfHandler"
)

// SettingsSource provides the settings aggregate.
type SettingsSource interface {
	AppSettings(ctx context.Context) settings.Result
}

// Page is the binding of every full page render.
type Page struct {
	Settings    settings.Result
	CurrentUser *models.User
	Navigation  *navigation.Context
	CSRFToken   string
	Error       string
	Success     string
	Data        fiber.Map
}

// Map flattens the page into the template binding. Data keys are added at the top level.
func (p Page) Map() fiber.Map {
	m := fiber.Map{
		"Settings":    p.Settings,
		"CurrentUser": p.CurrentUser,
		"Navigation":  p.Navigation,
		"CSRFToken":   p.CSRFToken,
		"CSRFField":   CSRFFormField,
		"Error":       p.Error,
		"Success":     p.Success,
	}

	if p.CurrentUser != nil {
		m["IsAdmin"] = p.CurrentUser.IsAdmin()
		m["Permissions"] = permissionSet(p.CurrentUser.Role)
	}

	for k, v := range p.Data {
		m[k] = v
	}

	return m
}

func permissionSet(role models.Role) map[string]bool {
	out := map[string]bool{}
	for _, p := range auth.Permissions(role) {
		out[p] = true
	}

	return out
}

// Renderer builds pages.
type Renderer struct {
	settings SettingsSource
}

// NewRenderer returns a Renderer. A nil source renders the default settings.
func NewRenderer(source SettingsSource) *Renderer {
	return &Renderer{settings: source}
}

// Settings returns the aggregate for the request.
func (r *Renderer) Settings(c *fiber.Ctx) settings.Result {
	if r == nil || r.settings == nil {
		return settings.DefaultResult()
	}

	return r.settings.AppSettings(c.UserContext())
}

// Page returns a page prefilled from the request.
func (r *Renderer) Page(c *fiber.Ctx, nav *navigation.Context) Page {
	token, _ := c.Locals(CSRFContextKey).(string)

	return Page{
		Settings:    r.Settings(c),
		CurrentUser: auth.CurrentUser(c),
		Navigation:  nav,
		CSRFToken:   token,
		Data:        fiber.Map{},
	}
}

// Render renders tmpl inside the base layout.
func (r *Renderer) Render(c *fiber.Ctx, status int, tmpl string, page Page) error {
	return c.Status(status).Render(tmpl, page.Map(), BaseLayout)
}
