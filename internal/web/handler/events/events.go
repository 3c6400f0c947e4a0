// Package events provides the public event pages and the register action.
package events

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/db/controller/event"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	"github.com/GoEventHub/GoEventHub/internal/web/navigation"
)

const (
	// Path is the public event list.
	Path = handler.RootPath + "events"

	// TemplateList is the event list template.
	TemplateList = "events/list"
	// TemplateDetail is the event page template.
	TemplateDetail = "events/detail"
)

// Service is the public events handler.
type Service struct {
	handler.Service
	cfg *config.Config
	svc *handler.Services
	now func() time.Time
}

// Handler is the events handler.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *handler.Services) error {
	if app == nil || cfg == nil || !svc.Valid() || svc.Registrations == nil {
		return handler.ErrNilServices
	}

	s.cfg = cfg
	s.svc = svc
	s.now = time.Now

	app.Get(Path, s.List)
	app.Get(Path+"/:slug", s.Detail)
	app.Post(Path+"/:id<int>/register",
		auth.RequirePermission(auth.PermRegistrationOwn),
		s.Register,
	)

	return nil
}

// List shows published events that did not end yet.
func (s *Service) List(c *fiber.Ctx) error {
	nav := navigation.For(navigation.Events, "list", "Events").Here("", Path)

	page, pageSize := handler.Paging(c)
	search := c.Query("search")

	result, err := event.List(s.svc.DB.WithContext(c.UserContext()), event.Filter{
		PublishedOnly: true,
		UpcomingOnly:  c.Query("past") == "",
		Search:        search,
		Now:           s.now(),
	}, page, pageSize)
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	p := s.svc.View.Page(c, nav)
	p.Success = handler.Notice(c)
	p.Data["Events"] = result.Events
	p.Data["Pager"] = handler.NewPager(result.Page, result.PageSize, result.Total, result.TotalPages, search)

	return s.svc.View.Render(c, fiber.StatusOK, TemplateList, p)
}

// Detail shows a published event.
func (s *Service) Detail(c *fiber.Ctx) error {
	e, err := event.GetPublishedBySlug(s.svc.DB.WithContext(c.UserContext()), c.Params("slug"))
	if errors.Is(err, event.ErrEventNotFound) {
		return handler.Fail(c, s.svc.View, apperror.ErrNotFound)
	}

	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	return s.renderDetail(c, fiber.StatusOK, e, "")
}

// Register registers the current user for the event.
func (s *Service) Register(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	user := auth.CurrentUser(c)

	reg, err := s.svc.Registrations.Register(c.UserContext(), user.ID, id)
	if err == nil {
		if auth.WantsJSON(c) {
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": reg.ID, "code": reg.Code})
		}

		return c.Redirect("/registrations/" + strconv.FormatUint(reg.ID, 10) + "?done=registered")
	}

	status := apperror.Status(err)
	if status == fiber.StatusInternalServerError || status == fiber.StatusNotFound || auth.WantsJSON(c) {
		return handler.Fail(c, s.svc.View, err)
	}

	// show the reason on the event page
	e, loadErr := event.GetByID(s.svc.DB.WithContext(c.UserContext()), id)
	if loadErr != nil || !e.Published {
		return handler.Fail(c, s.svc.View, err)
	}

	return s.renderDetail(c, status, e, apperror.Message(err))
}

func (s *Service) renderDetail(c *fiber.Ctx, status int, e *models.Event, message string) error {
	nav := navigation.For(navigation.Events, "detail", e.Title).
		Via("Events", Path).
		Here("", Path+"/"+e.Slug)

	p := s.svc.View.Page(c, nav)
	p.Error = message
	p.Data["Event"] = e

	now := s.now()
	canRegister := e.Published && !e.HasStarted(now) && !e.IsFull()

	if user := auth.CurrentUser(c); user != nil {
		var reg models.Registration

		err := s.svc.DB.WithContext(c.UserContext()).
			Where("user_id = ? AND event_id = ?", user.ID, e.ID).
			First(&reg).Error

		switch {
		case err == nil:
			p.Data["Registration"] = &reg
			canRegister = false
		case !errors.Is(err, gorm.ErrRecordNotFound):
			log.Error().Err(err).Uint64("event_id", e.ID).Msg("failed to load registration")
		}
	}

	p.Data["CanRegister"] = canRegister
	p.Data["HasStarted"] = e.HasStarted(now)

	return s.svc.View.Render(c, status, TemplateDetail, p)
}
