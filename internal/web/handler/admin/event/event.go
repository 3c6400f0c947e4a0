// Package event provides the admin event management: listing, create, edit,
// delete, featured images and the registration list of an event.
package event

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/assets"
	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/config"
	eventctl "github.com/GoEventHub/GoEventHub/internal/db/controller/event"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/admin/home"
	"github.com/GoEventHub/GoEventHub/internal/web/navigation"
)

const (
	// Path is the base path for event management.
	Path = handler.RootPath + "admin/events"

	// TemplateList is the template for listing events.
	TemplateList = "admin/event/list"
	// TemplateForm is the template for creating/updating an event.
	TemplateForm = "admin/event/form"
	// TemplateRegistrations is the registration list of one event.
	TemplateRegistrations = "admin/event/registrations"

	// ImageField is the multipart field of the featured image.
	ImageField = "image"

	idParam = "id"
)

// Service provides CRUD operations for events.
type Service struct {
	handler.Service
	cfg *config.Config
	svc *handler.Services
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *handler.Services) error {
	if app == nil || cfg == nil || !svc.Valid() || svc.Registrations == nil || svc.CheckIns == nil {
		return handler.ErrNilServices
	}

	s.cfg = cfg
	s.svc = svc

	manage := auth.RequirePermission(auth.PermEventsManage)
	owner := auth.RequireEventManager(svc.DB, svc.Policy, idParam)

	app.Get(Path, manage, s.List)
	app.Get(Path+"/new", manage, s.New)
	app.Post(Path, manage, s.Create)
	app.Get(Path+"/:id<int>/edit", manage, owner, s.Edit)
	app.Post(Path+"/:id<int>", manage, owner, s.Update)
	app.Post(Path+"/:id<int>/delete", manage, owner, s.Delete)
	app.Post(Path+"/:id<int>/image", manage, owner, s.UploadImage)
	app.Get(Path+"/:id<int>/registrations", manage, owner, s.Registrations)

	return nil
}

func listNav() *navigation.Context {
	return navigation.For(navigation.Admin, "event", "Events").
		Via("Admin", home.Path).
		Here("", Path)
}

func eventNav(title string, e *models.Event, suffix string) *navigation.Context {
	nav := navigation.For(navigation.Admin, "event", title).
		Via("Admin", home.Path).
		Via("Events", Path)

	if e != nil && e.ID > 0 {
		nav.Here(e.Title, eventPath(e, suffix))
	} else {
		nav.Here("", Path+suffix)
	}

	return nav
}

func eventPath(e *models.Event, suffix string) string {
	return Path + "/" + strconv.FormatUint(e.ID, 10) + suffix
}

// List shows events with pagination and search.
func (s *Service) List(c *fiber.Ctx) error {
	page, pageSize := handler.Paging(c)
	search := c.Query("search")

	filter := eventctl.Filter{Search: search}

	if user := auth.CurrentUser(c); !user.IsAdmin() {
		filter.CreatorID = user.ID
	}

	result, err := eventctl.List(s.svc.DB.WithContext(c.UserContext()), filter, page, pageSize)
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	return s.renderList(c, fiber.StatusOK, result, search, "")
}

func (s *Service) renderList(c *fiber.Ctx, status int, result *eventctl.Page, search, message string) error {
	p := s.svc.View.Page(c, listNav())
	p.Error = message
	p.Success = handler.Notice(c)

	if result != nil {
		p.Data["Events"] = result.Events
		p.Data["Pager"] = handler.NewPager(result.Page, result.PageSize, result.Total, result.TotalPages, search)
	}

	return s.svc.View.Render(c, status, TemplateList, p)
}

// New shows the creation form.
func (s *Service) New(c *fiber.Ctx) error {
	return s.renderForm(c, fiber.StatusOK, &models.Event{}, Form{}, nil, "")
}

// Create stores a new event owned by the current user.
func (s *Service) Create(c *fiber.Ctx) error {
	var (
		form Form
		e    = &models.Event{CreatorID: auth.CurrentUser(c).ID}
	)

	if err := c.BodyParser(&form); err != nil {
		return s.renderForm(c, fiber.StatusBadRequest, e, form, nil, "Invalid form data")
	}

	if err := form.Apply(e); err != nil {
		return s.formError(c, e, form, err)
	}

	imagePath, err := s.saveImage(c)
	if err != nil {
		return s.formError(c, e, form, err)
	}

	e.ImagePath = imagePath

	if err := eventctl.Create(s.svc.DB.WithContext(c.UserContext()), e); err != nil {
		s.deleteAsset(imagePath)
		log.Error().Err(err).Msg("failed to create event")

		return s.renderForm(c, fiber.StatusInternalServerError, e, form, nil, apperror.Message(err))
	}

	log.Info().Uint64("event_id", e.ID).Str("slug", e.Slug).Msg("Event created")

	return c.Redirect(Path + "?done=created")
}

// Edit shows the edit form.
func (s *Service) Edit(c *fiber.Ctx) error {
	e := c.Locals(auth.LocalsEvent).(*models.Event)

	return s.renderForm(c, fiber.StatusOK, e, FormFromEvent(e), nil, "")
}

// Update stores the edited event.
func (s *Service) Update(c *fiber.Ctx) error {
	var (
		form     Form
		current  = c.Locals(auth.LocalsEvent).(*models.Event)
		e        = *current
		oldImage = current.ImagePath
	)

	if err := c.BodyParser(&form); err != nil {
		return s.renderForm(c, fiber.StatusBadRequest, current, FormFromEvent(current), nil, "Invalid form data")
	}

	if err := form.Apply(&e); err != nil {
		return s.formError(c, &e, form, err)
	}

	imagePath, err := s.saveImage(c)
	if err != nil {
		return s.formError(c, &e, form, err)
	}

	switch {
	case imagePath != "":
		e.ImagePath = imagePath
	case form.RemoveImage:
		e.ImagePath = ""
	}

	if err := eventctl.Update(s.svc.DB.WithContext(c.UserContext()), &e); err != nil {
		s.deleteAsset(imagePath)

		if errors.Is(err, eventctl.ErrCapacityBelowRegistrations) {
			fields := apperror.ValidationErrors{"MaxCapacity": handler.Capitalize(err.Error())}

			return s.renderForm(c, fiber.StatusUnprocessableEntity, &e, form, fields, fields["MaxCapacity"])
		}

		log.Error().Err(err).Uint64("event_id", e.ID).Msg("failed to update event")

		return s.renderForm(c, fiber.StatusInternalServerError, &e, form, nil, apperror.Message(err))
	}

	if oldImage != "" && oldImage != e.ImagePath {
		s.deleteAsset(oldImage)
	}

	return c.Redirect(Path + "?done=updated")
}

// Delete removes an event without registrations.
func (s *Service) Delete(c *fiber.Ctx) error {
	e := c.Locals(auth.LocalsEvent).(*models.Event)

	err := eventctl.Delete(s.svc.DB.WithContext(c.UserContext()), e.ID)
	if errors.Is(err, eventctl.ErrEventHasRegistrations) {
		return s.renderList(c, fiber.StatusConflict, nil, "",
			"Events with registrations can not be deleted, unpublish it instead")
	}

	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	s.deleteAsset(e.ImagePath)
	log.Info().Uint64("event_id", e.ID).Msg("Event deleted")

	return c.Redirect(Path + "?done=deleted")
}

// UploadImage replaces the featured image.
func (s *Service) UploadImage(c *fiber.Ctx) error {
	e := c.Locals(auth.LocalsEvent).(*models.Event)

	imagePath, err := s.saveImage(c)
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	if imagePath == "" {
		return handler.Fail(c, s.svc.View, apperror.ValidationErrors{ImageField: "Choose an image"})
	}

	if err := s.svc.DB.WithContext(c.UserContext()).Model(e).Update("image_path", imagePath).Error; err != nil {
		s.deleteAsset(imagePath)

		return handler.Fail(c, s.svc.View, err)
	}

	old := e.ImagePath
	e.ImagePath = imagePath
	s.deleteAsset(old)

	if auth.WantsJSON(c) {
		return c.JSON(fiber.Map{"image_path": imagePath, "url": handler.MediaPath + "/" + imagePath})
	}

	return c.Redirect(eventPath(e, "/edit") + "?done=updated")
}

// Registrations lists the registrations and check-ins of an event.
func (s *Service) Registrations(c *fiber.Ctx) error {
	e := c.Locals(auth.LocalsEvent).(*models.Event)
	page, pageSize := handler.Paging(c)
	search := c.Query("search")

	result, err := s.svc.Registrations.ListForEvent(c.UserContext(), e.ID, search, page, pageSize)
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	stats, err := s.svc.CheckIns.Stats(c.UserContext(), e.ID)
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	p := s.svc.View.Page(c, eventNav("Registrations", e, "/registrations"))
	p.Data["Event"] = e
	p.Data["Registrations"] = result.Registrations
	p.Data["Stats"] = stats
	p.Data["Pager"] = handler.NewPager(result.Page, result.PageSize, result.Total, result.TotalPages, search)

	return s.svc.View.Render(c, fiber.StatusOK, TemplateRegistrations, p)
}

// saveImage stores the uploaded image, an absent upload returns "".
func (s *Service) saveImage(c *fiber.Ctx) (string, error) {
	fh, err := c.FormFile(ImageField)
	if err != nil || fh.Size == 0 {
		return "", nil //nolint:nilerr // no upload
	}

	if s.svc.Assets == nil {
		return "", errors.New("asset store is not configured")
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	imagePath, err := s.svc.Assets.SaveImage(f, s.cfg.Event.ImageMaxWidth, s.cfg.Event.ImageMaxHeight)
	if errors.Is(err, assets.ErrUnsupportedImage) {
		return "", apperror.ValidationErrors{ImageField: "The file is not a supported image"}
	}

	return imagePath, err
}

func (s *Service) deleteAsset(name string) {
	if name == "" || s.svc.Assets == nil {
		return
	}

	if err := s.svc.Assets.Delete(name); err != nil {
		log.Warn().Err(err).Str("path", name).Msg("Failed to delete asset")
	}
}

func (s *Service) formError(c *fiber.Ctx, e *models.Event, form Form, err error) error {
	var fields apperror.ValidationErrors
	if errors.As(err, &fields) {
		return s.renderForm(c, fiber.StatusUnprocessableEntity, e, form, fields, apperror.Message(err))
	}

	log.Error().Err(err).Msg("failed to process event form")

	return s.renderForm(c, fiber.StatusInternalServerError, e, form, nil, apperror.Message(err))
}

func (s *Service) renderForm(c *fiber.Ctx, status int, e *models.Event, form Form,
	fields apperror.ValidationErrors, message string,
) error {
	title := "New Event"
	if e.ID > 0 {
		title = "Edit Event"
	}

	p := s.svc.View.Page(c, eventNav(title, e, "/edit"))
	p.Error = message
	p.Success = handler.Notice(c)
	p.Data["Event"] = e
	p.Data["Form"] = form
	p.Data["Fields"] = fields
	p.Data["IsCreate"] = e.ID == 0
	p.Data["DateTimeLayout"] = DateTimeLayout

	return s.svc.View.Render(c, status, TemplateForm, p)
}
