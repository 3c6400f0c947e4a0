// Package checkindesk provides the staff check-in desk, the JSON endpoint for
// scanner clients and the attendee self check-in.
package checkindesk

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/checkin"
	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/db/controller/event"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/qrcode"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	"github.com/GoEventHub/GoEventHub/internal/web/navigation"
)

const (
	// Path is the check-in desk.
	Path = handler.RootPath + "check-in"
	// APIPath is the JSON check-in endpoint.
	APIPath = handler.RootPath + "api/check-in"
	// SelfPath is the attendee self check-in.
	SelfPath = Path + "/self"

	// TemplateDesk is the desk template.
	TemplateDesk = "checkin/desk"

	maxDeskEvents = 100
)

// Form is the check-in desk form, also accepted as JSON by the API.
type Form struct {
	EventID uint64 `form:"event_id" json:"event_id" validate:"required"`
	Lookup  string `form:"lookup"   json:"lookup"   validate:"required,max=255"`
}

// SelfForm is the self check-in form.
type SelfForm struct {
	Code string `form:"code" validate:"required,max=255"`
}

// Attendee is the JSON view of a registration.
type Attendee struct {
	RegistrationID uint64     `json:"registration_id"`
	Code           string     `json:"code"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	CheckedInAt    *time.Time `json:"checked_in_at,omitempty"`
}

// APIResponse is the JSON answer of the check-in endpoint.
type APIResponse struct {
	Status     string     `json:"status"`
	Method     string     `json:"method,omitempty"`
	Error      string     `json:"error,omitempty"`
	Attendee   *Attendee  `json:"attendee,omitempty"`
	Candidates []Attendee `json:"candidates,omitempty"`
}

// API status values.
const (
	StatusCheckedIn        = "checked_in"
	StatusAlreadyCheckedIn = "already_checked_in"
	StatusAmbiguous        = "ambiguous"
	StatusError            = "error"
)

// Service is the check-in handler.
type Service struct {
	handler.Service
	cfg *config.Config
	svc *handler.Services
}

// Handler is the check-in handler.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *handler.Services) error {
	if app == nil || cfg == nil || !svc.Valid() || svc.CheckIns == nil {
		return handler.ErrNilServices
	}

	s.cfg = cfg
	s.svc = svc

	// event level rights are decided by the EventPolicy
	member := auth.RequirePermission(auth.PermRegistrationOwn)

	app.Get(Path, member, s.Desk)
	app.Post(Path, member, s.Submit)
	app.Post(APIPath, member, s.API)
	app.Post(SelfPath, auth.RequirePermission(auth.PermCheckInSelf), s.Self)

	return nil
}

// Desk renders the check-in form. A scanned verification URL lands here with
// the code prefilled and its event selected. Attendees opening their own code
// are sent to their ticket.
func (s *Service) Desk(c *fiber.Ctx) error {
	eventID, _ := strconv.ParseUint(c.Query("event_id"), 10, 64)
	lookup := strings.TrimSpace(c.Query(qrcode.CodeParam))

	if lookup != "" {
		user := auth.CurrentUser(c)

		reg, err := s.svc.Registrations.GetByCode(c.UserContext(), user, lookup)
		if err == nil {
			if s.policy().CanManageEvent(c.UserContext(), user, &reg.Event) != nil {
				return c.Redirect(fmt.Sprintf("/registrations/%d", reg.ID))
			}

			eventID = reg.EventID
		}
	}

	return s.render(c, fiber.StatusOK, eventID, lookup, checkin.Result{}, "")
}

// Submit checks in from the desk form.
func (s *Service) Submit(c *fiber.Ctx) error {
	var form Form

	if err := c.BodyParser(&form); err != nil {
		return s.render(c, fiber.StatusBadRequest, 0, "", checkin.Result{}, "Invalid form data")
	}

	if err := handler.Validate.Struct(form); err != nil {
		return s.render(c, fiber.StatusUnprocessableEntity, form.EventID, form.Lookup, checkin.Result{},
			"Choose an event and scan or enter a code")
	}

	res, err := s.svc.CheckIns.CheckIn(c.UserContext(), auth.CurrentUser(c), form.EventID, form.Lookup)
	if err == nil {
		return s.render(c, fiber.StatusOK, form.EventID, "", res, "")
	}

	if errors.Is(err, apperror.ErrUnauthenticated) {
		return auth.Deny(c, err)
	}

	status := apperror.Status(err)
	if status == fiber.StatusForbidden || status == fiber.StatusInternalServerError {
		return handler.Fail(c, s.svc.View, err)
	}

	return s.render(c, status, form.EventID, form.Lookup, res, deskMessage(res, err))
}

// API checks in for scanner clients.
func (s *Service) API(c *fiber.Ctx) error {
	var form Form

	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(APIResponse{Status: StatusError, Error: "invalid request body"})
	}

	if err := handler.Validate.Struct(form); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(APIResponse{
			Status: StatusError,
			Error:  "event_id and lookup are required",
		})
	}

	res, err := s.svc.CheckIns.CheckIn(c.UserContext(), auth.CurrentUser(c), form.EventID, form.Lookup)

	out := APIResponse{Method: string(res.Method), Attendee: attendee(res.Registration)}

	switch {
	case err == nil:
		out.Status = StatusCheckedIn

		return c.JSON(out)
	case errors.Is(err, apperror.ErrAlreadyCheckedIn):
		out.Status = StatusAlreadyCheckedIn
	case errors.Is(err, apperror.ErrAmbiguousLookup):
		out.Status = StatusAmbiguous
		for i := range res.Candidates {
			out.Candidates = append(out.Candidates, *attendee(&res.Candidates[i]))
		}
	default:
		out.Status = StatusError
	}

	out.Error = apperror.Message(err)

	return c.Status(apperror.Status(err)).JSON(out)
}

// Self checks in the current user's own registration.
func (s *Service) Self(c *fiber.Ctx) error {
	var form SelfForm

	if err := c.BodyParser(&form); err != nil {
		return handler.Fail(c, s.svc.View, apperror.ValidationErrors{"code": "Invalid form data"})
	}

	res, err := s.svc.CheckIns.SelfCheckIn(c.UserContext(), auth.CurrentUser(c), form.Code)
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	return c.Redirect(fmt.Sprintf("/registrations/%d?done=checkedin", res.Registration.ID))
}

func (s *Service) render(c *fiber.Ctx, status int, eventID uint64, lookup string, res checkin.Result,
	message string,
) error {
	nav := navigation.For(navigation.CheckIn, "desk", "Check-in").Here("", Path)

	user := auth.CurrentUser(c)

	events, err := s.managedEvents(c, user)
	if err != nil {
		return handler.Fail(c, s.svc.View, err)
	}

	if len(events) == 0 && !auth.HasPermission(user.Role, auth.PermCheckInStaff) {
		return handler.Fail(c, s.svc.View, apperror.ErrForbidden)
	}

	p := s.svc.View.Page(c, nav)
	p.Error = message
	p.Data["Events"] = events
	p.Data["EventID"] = eventID
	p.Data["Lookup"] = lookup
	p.Data["Result"] = res

	if res.Registration != nil && message == "" {
		p.Success = "Checked in " + res.Registration.User.Name
	}

	if eventID > 0 {
		if stats, err := s.svc.CheckIns.Stats(c.UserContext(), eventID); err == nil {
			p.Data["Stats"] = stats
		}
	}

	return s.svc.View.Render(c, status, TemplateDesk, p)
}

// managedEvents lists the upcoming events user may check attendees in for.
func (s *Service) managedEvents(c *fiber.Ctx, user *models.User) ([]models.Event, error) {
	page, err := event.List(s.svc.DB.WithContext(c.UserContext()), event.Filter{UpcomingOnly: true}, 1, maxDeskEvents)
	if err != nil {
		return nil, err
	}

	policy := s.policy()
	out := make([]models.Event, 0, len(page.Events))

	for i := range page.Events {
		err := policy.CanManageEvent(c.UserContext(), user, &page.Events[i])

		switch {
		case err == nil:
			out = append(out, page.Events[i])
		case apperror.Status(err) >= fiber.StatusInternalServerError:
			return nil, err
		}
	}

	return out, nil
}

func (s *Service) policy() auth.EventPolicy {
	if s.svc.Policy == nil {
		return auth.NewCreatorOrAdminPolicy()
	}

	return s.svc.Policy
}

// deskMessage names the attendee of a repeated check-in.
func deskMessage(res checkin.Result, err error) string {
	if errors.Is(err, apperror.ErrAlreadyCheckedIn) && res.Registration != nil && res.Registration.CheckedInAt != nil {
		return fmt.Sprintf("%s is already checked in (since %s)",
			res.Registration.User.Name, res.Registration.CheckedInAt.Format("15:04"))
	}

	return apperror.Message(err)
}

func attendee(reg *models.Registration) *Attendee {
	if reg == nil {
		return nil
	}

	return &Attendee{
		RegistrationID: reg.ID,
		Code:           reg.Code,
		Name:           reg.User.Name,
		Email:          reg.User.Email,
		CheckedInAt:    reg.CheckedInAt,
	}
}
