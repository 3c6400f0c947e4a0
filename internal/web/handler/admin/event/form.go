package event

import (
	"strconv"
	"strings"
	"time"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
)

// DateTimeLayout is the format of datetime-local inputs.
const DateTimeLayout = "2006-01-02T15:04"

// Form is the event create and edit form.
type Form struct {
	Title       string `form:"title"        validate:"required,min=3,max=200"`
	Description string `form:"description"  validate:"max=20000"`
	Venue       string `form:"venue"        validate:"max=255"`
	StartsAt    string `form:"starts_at"    validate:"required"`
	EndsAt      string `form:"ends_at"`
	MaxCapacity string `form:"max_capacity" validate:"omitempty,number"`
	Published   bool   `form:"published"`
	RemoveImage bool   `form:"remove_image"`
}

// FormFromEvent fills the form for editing.
func FormFromEvent(e *models.Event) Form {
	f := Form{
		Title:       e.Title,
		Description: e.Description,
		Venue:       e.Venue,
		StartsAt:    e.StartsAt.In(time.Local).Format(DateTimeLayout),
		Published:   e.Published,
	}

	if !e.EndsAt.IsZero() {
		f.EndsAt = e.EndsAt.In(time.Local).Format(DateTimeLayout)
	}

	if e.MaxCapacity != nil {
		f.MaxCapacity = strconv.Itoa(*e.MaxCapacity)
	}

	return f
}

// Apply validates the form and copies it onto e.
func (f Form) Apply(e *models.Event) error {
	fields := apperror.ValidationErrors{}

	if err := handler.Validate.Struct(f); err != nil {
		if verr, ok := apperror.FromValidator(err).(apperror.ValidationErrors); ok {
			fields = verr
		} else {
			return err
		}
	}

	startsAt, err := time.ParseInLocation(DateTimeLayout, f.StartsAt, time.Local)
	if err != nil && f.StartsAt != "" {
		fields["StartsAt"] = "Enter a valid start date and time"
	}

	var endsAt time.Time

	if f.EndsAt != "" {
		endsAt, err = time.ParseInLocation(DateTimeLayout, f.EndsAt, time.Local)

		switch {
		case err != nil:
			fields["EndsAt"] = "Enter a valid end date and time"
		case !startsAt.IsZero() && endsAt.Before(startsAt):
			fields["EndsAt"] = "The event can not end before it starts"
		}
	}

	var capacity *int

	if s := strings.TrimSpace(f.MaxCapacity); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			fields["MaxCapacity"] = "Capacity must be a positive number or empty for unlimited"
		} else {
			capacity = &n
		}
	}

	if len(fields) > 0 {
		return fields
	}

	e.Title = strings.TrimSpace(f.Title)
	e.Description = f.Description
	e.Venue = strings.TrimSpace(f.Venue)
	e.StartsAt = startsAt.UTC()
	e.EndsAt = endsAt
	e.MaxCapacity = capacity
	e.Published = f.Published

	if !endsAt.IsZero() {
		e.EndsAt = endsAt.UTC()
	}

	return nil
}
