// Package home provides the admin dashboard with event, registration and check-in counts.
package home

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	"github.com/GoEventHub/GoEventHub/internal/web/navigation"
)

const (
	// Path is the admin dashboard.
	Path = handler.RootPath + "admin"

	// TemplateName is the admin dashboard template.
	TemplateName = "admin/dashboard"

	recentLimit = 10
)

// Counts is the summary shown on the dashboard.
type Counts struct {
	Events         int64
	Published      int64
	Upcoming       int64
	Users          int64
	ActiveUsers    int64
	Registrations  int64
	CheckIns       int64
	RecentWeekRegs int64
}

// Service is the admin dashboard handler.
type Service struct {
	handler.Service
	svc *handler.Services
	now func() time.Time
}

// Handler is the admin dashboard handler.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *handler.Services) error {
	if app == nil || cfg == nil || !svc.Valid() {
		return handler.ErrNilServices
	}

	s.svc = svc
	s.now = time.Now

	app.Get(Path, auth.RequirePermission(auth.PermAdminDashboard), s.Get)

	return nil
}

// Get renders the dashboard.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := navigation.For(navigation.Admin, "dashboard", "Admin").Here("", Path)

	counts, err := s.counts(c)
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	var recent []models.Registration
	if err := s.svc.DB.WithContext(c.UserContext()).
		Preload("User").Preload("Event").
		Order("created_at DESC").Limit(recentLimit).
		Find(&recent).Error; err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	p := s.svc.View.Page(c, nav)
	p.Data["Counts"] = counts
	p.Data["Recent"] = recent

	return s.svc.View.Render(c, fiber.StatusOK, TemplateName, p)
}

func (s *Service) counts(c *fiber.Ctx) (Counts, error) {
	var (
		out  Counts
		now  = s.now()
		db   = s.svc.DB.WithContext(c.UserContext())
		g    errgroup.Group
		week = now.AddDate(0, 0, -7)
	)

	count := func(dst *int64, model any, query string, args ...any) {
		g.Go(func() error {
			tx := db.Model(model)
			if query != "" {
				tx = tx.Where(query, args...)
			}

			return tx.Count(dst).Error
		})
	}

	count(&out.Events, &models.Event{}, "")
	count(&out.Published, &models.Event{}, "published = ?", true)
	count(&out.Upcoming, &models.Event{}, "starts_at > ?", now)
	count(&out.Users, &models.User{}, "")
	count(&out.ActiveUsers, &models.User{}, "active = ?", true)
	count(&out.Registrations, &models.Registration{}, "")
	count(&out.CheckIns, &models.Registration{}, "checked_in_at IS NOT NULL")
	count(&out.RecentWeekRegs, &models.Registration{}, "created_at >= ?", week)

	return out, g.Wait()
}
