package events

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoEventHub/GoEventHub/internal/db/controller/event"
	"github.com/GoEventHub/GoEventHub/internal/db/dbtest"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	"github.com/GoEventHub/GoEventHub/internal/web/webtest"
)

type fixture struct {
	app      *fiber.App
	svc      *handler.Services
	admin    *models.User
	attendee *models.User
}

func setup(t *testing.T) *fixture {
	t.Helper()

	svc := webtest.Services(t)
	app := webtest.NewApp(svc)

	var s Service
	require.NoError(t, s.Init(app, webtest.Config(), svc))

	return &fixture{
		app:      app,
		svc:      svc,
		admin:    dbtest.CreateUser(t, svc.DB, "admin@example.com", models.RoleAdmin),
		attendee: dbtest.CreateUser(t, svc.DB, "attendee@example.com", models.RoleAttendee),
	}
}

func (f *fixture) createEvent(t *testing.T, title string, published bool, capacity *int) *models.Event {
	t.Helper()

	e := &models.Event{
		Title:       title,
		StartsAt:    time.Now().Add(48 * time.Hour),
		EndsAt:      time.Now().Add(50 * time.Hour),
		MaxCapacity: capacity,
		Published:   published,
		CreatorID:   f.admin.ID,
	}
	require.NoError(t, event.Create(f.svc.DB, e))

	return e
}

func TestList(t *testing.T) {
	f := setup(t)
	f.createEvent(t, "Go Meetup", true, nil)

	resp := webtest.Do(t, f.app, http.MethodGet, Path+"?search=Go", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, TemplateList, webtest.Body(t, resp))
}

func TestDetail(t *testing.T) {
	f := setup(t)
	published := f.createEvent(t, "Go Meetup", true, nil)
	draft := f.createEvent(t, "Secret Draft", false, nil)

	resp := webtest.Do(t, f.app, http.MethodGet, Path+"/"+published.Slug, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, TemplateDetail, webtest.Body(t, resp))

	resp = webtest.Do(t, f.app, http.MethodGet, Path+"/"+draft.Slug, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegister(t *testing.T) {
	f := setup(t)
	e := f.createEvent(t, "Go Meetup", true, nil)
	target := fmt.Sprintf("%s/%d/register", Path, e.ID)

	resp := webtest.Do(t, f.app, http.MethodPost, target, nil, "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))

	cookie := webtest.Login(t, f.attendee.ID)

	resp = webtest.Do(t, f.app, http.MethodPost, target, nil, cookie)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderLocation), "/registrations/"))
	assert.True(t, strings.HasSuffix(resp.Header.Get(fiber.HeaderLocation), "?done=registered"))

	resp = webtest.Do(t, f.app, http.MethodPost, target, nil, cookie)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, webtest.Body(t, resp), "Already registered for this event")
}

func TestRegister_Full(t *testing.T) {
	f := setup(t)
	capacity := 1
	e := f.createEvent(t, "Tiny Workshop", true, &capacity)
	target := fmt.Sprintf("%s/%d/register", Path, e.ID)

	resp := webtest.Do(t, f.app, http.MethodPost, target, nil, webtest.Login(t, f.admin.ID))
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp = webtest.Do(t, f.app, http.MethodPost, target, nil, webtest.Login(t, f.attendee.ID))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := webtest.Body(t, resp)
	assert.Contains(t, body, TemplateDetail)
	assert.Contains(t, body, "Event is fully booked")
}

func TestRegister_UnknownEvent(t *testing.T) {
	f := setup(t)

	resp := webtest.Do(t, f.app, http.MethodPost, Path+"/999/register", nil, webtest.Login(t, f.attendee.ID))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
