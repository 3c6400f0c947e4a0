// Package registrations provides the attendee's registration list, the ticket
// page with its QR code and cancellation.
package registrations

import (
	"html/template"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/checkin"
	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	"github.com/GoEventHub/GoEventHub/internal/web/navigation"
)

const (
	// Path is the base path of a single registration.
	Path = handler.RootPath + "registrations"
	// MyPath lists the registrations of the current user.
	MyPath = handler.RootPath + "my/registrations"

	// TemplateList is the list template.
	TemplateList = "registrations/list"
	// TemplateDetail is the ticket template.
	TemplateDetail = "registrations/detail"

	mimeSVG = "image/svg+xml"
)

// Service is the registrations handler.
type Service struct {
	handler.Service
	cfg  *config.Config
	svc  *handler.Services
	lead time.Duration
	now  func() time.Time
}

// Handler is the registrations handler.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *handler.Services) error {
	if app == nil || cfg == nil || !svc.Valid() || svc.Registrations == nil {
		return handler.ErrNilServices
	}

	s.cfg = cfg
	s.svc = svc
	s.lead = cfg.Event.SelfCheckInLead
	s.now = time.Now

	own := auth.RequirePermission(auth.PermRegistrationOwn)

	app.Get(MyPath, own, s.List)
	app.Get(Path+"/:id<int>", own, s.Detail)
	app.Get(Path+"/:id<int>/qr", own, s.QRCode)
	app.Delete(Path+"/:id<int>", own, s.Cancel)
	app.Post(Path+"/:id<int>/delete", own, s.Cancel)

	return nil
}

// List shows the registrations of the current user.
func (s *Service) List(c *fiber.Ctx) error {
	nav := navigation.For(navigation.Registrations, "list", "My registrations").Here("", MyPath)

	regs, err := s.svc.Registrations.ListForUser(c.UserContext(), auth.CurrentUser(c).ID)
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	p := s.svc.View.Page(c, nav)
	p.Success = handler.Notice(c)
	p.Data["Registrations"] = regs

	return s.svc.View.Render(c, fiber.StatusOK, TemplateList, p)
}

// Detail shows the ticket with the inline QR code.
func (s *Service) Detail(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	reg, err := s.svc.Registrations.Get(c.UserContext(), auth.CurrentUser(c), id)
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	nav := navigation.For(navigation.Registrations, "detail", reg.Event.Title).
		Via("My registrations", MyPath).
		Here("", Path+"/"+strconv.FormatUint(reg.ID, 10))

	p := s.svc.View.Page(c, nav)
	p.Success = handler.Notice(c)
	p.Data["Registration"] = reg

	svg, err := s.svc.Registrations.QRCode(c.UserContext(), reg)
	if err != nil {
		log.Warn().Err(err).Uint64("registration_id", reg.ID).Msg("Failed to load QR code")
	} else {
		p.Data["QRCode"] = template.HTML(svg) //nolint:gosec // generated by qrcode.Generator
	}

	own := reg.UserID == auth.CurrentUser(c).ID
	p.Data["CanCancel"] = !reg.IsCheckedIn()
	p.Data["CanSelfCheckIn"] = own && !reg.IsCheckedIn() && reg.Event.CheckInOpen(s.now(), s.selfCheckInLead())

	return s.svc.View.Render(c, fiber.StatusOK, TemplateDetail, p)
}

// QRCode sends the SVG of the registration.
func (s *Service) QRCode(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	reg, err := s.svc.Registrations.Get(c.UserContext(), auth.CurrentUser(c), id)
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	svg, err := s.svc.Registrations.QRCode(c.UserContext(), reg)
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	c.Set(fiber.HeaderContentType, mimeSVG)
	c.Set(fiber.HeaderCacheControl, "private, max-age=300")

	if c.Query("download") != "" {
		c.Attachment(reg.Code + ".svg")
	}

	return c.Send(svg)
}

// Cancel removes a registration. DELETE answers 204, the form post redirects.
func (s *Service) Cancel(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	if err := s.svc.Registrations.Cancel(c.UserContext(), auth.CurrentUser(c), id); err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	if c.Method() == fiber.MethodDelete {
		return c.SendStatus(fiber.StatusNoContent)
	}

	return c.Redirect(MyPath + "?done=cancelled")
}

func (s *Service) selfCheckInLead() time.Duration {
	if s.lead > 0 {
		return s.lead
	}

	return checkin.DefaultSelfCheckInLead
}
