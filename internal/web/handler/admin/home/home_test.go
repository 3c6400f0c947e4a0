package home

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoEventHub/GoEventHub/internal/db/controller/event"
	"github.com/GoEventHub/GoEventHub/internal/db/dbtest"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/web/webtest"
)

func TestGet(t *testing.T) {
	svc := webtest.Services(t)
	views := webtest.NewCaptureViews()
	app := webtest.NewAppWithViews(svc, views)

	var s Service
	require.NoError(t, s.Init(app, webtest.Config(), svc))

	admin := dbtest.CreateUser(t, svc.DB, "admin@example.com", models.RoleAdmin)
	attendee := dbtest.CreateUser(t, svc.DB, "attendee@example.com", models.RoleAttendee)

	e := &models.Event{Title: "Go Meetup", StartsAt: time.Now().Add(time.Hour), Published: true, CreatorID: admin.ID}
	require.NoError(t, event.Create(svc.DB, e))

	reg, err := svc.Registrations.Register(t.Context(), attendee.ID, e.ID)
	require.NoError(t, err)

	_, err = svc.CheckIns.CheckIn(t.Context(), admin, e.ID, reg.Code)
	require.NoError(t, err)

	resp := webtest.Do(t, app, http.MethodGet, Path, nil, webtest.Login(t, attendee.ID))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = webtest.Do(t, app, http.MethodGet, Path, nil, webtest.Login(t, admin.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	counts, ok := (*views.Last)["Counts"].(Counts)
	require.True(t, ok)
	assert.EqualValues(t, 1, counts.Events)
	assert.EqualValues(t, 1, counts.Upcoming)
	assert.EqualValues(t, 2, counts.Users)
	assert.EqualValues(t, 1, counts.Registrations)
	assert.EqualValues(t, 1, counts.CheckIns)
	assert.EqualValues(t, 1, counts.RecentWeekRegs)
}
