package signup

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoEventHub/GoEventHub/internal/db/dbtest"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	"github.com/GoEventHub/GoEventHub/internal/web/session"
	"github.com/GoEventHub/GoEventHub/internal/web/webtest"
)

func setup(t *testing.T) (*fiber.App, *handler.Services) {
	t.Helper()

	svc := webtest.Services(t)
	app := webtest.NewApp(svc)

	var s Service
	require.NoError(t, s.Init(app, webtest.Config(), svc))

	return app, svc
}

func validForm() url.Values {
	return url.Values{
		"name":             {"Frank Attendee"},
		"email":            {"frank@example.com"},
		"password":         {"correct horse"},
		"password_confirm": {"correct horse"},
	}
}

func TestPost_CreatesAttendee(t *testing.T) {
	app, svc := setup(t)

	resp := webtest.Do(t, app, http.MethodPost, Path, validForm(), "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, SuccessPath, resp.Header.Get(fiber.HeaderLocation))
	assert.Contains(t, resp.Header.Get(fiber.HeaderSetCookie), session.CookieName+"=")

	var user models.User
	require.NoError(t, svc.DB.Where("email = ?", "frank@example.com").First(&user).Error)
	assert.Equal(t, models.RoleAttendee, user.Role)
	assert.True(t, user.Active)
	assert.True(t, user.VerifyPassword("correct horse"))
}

func TestPost_Validation(t *testing.T) {
	app, _ := setup(t)

	form := validForm()
	form.Set("password_confirm", "something else")

	resp := webtest.Do(t, app, http.MethodPost, Path, form, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, webtest.Body(t, resp), "Please correct the highlighted fields")
}

func TestPost_DuplicateEmail(t *testing.T) {
	app, svc := setup(t)
	dbtest.CreateUser(t, svc.DB, "frank@example.com", models.RoleAttendee)

	resp := webtest.Do(t, app, http.MethodPost, Path, validForm(), "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, webtest.Body(t, resp), "already exists")
}

func TestGet_LoggedInRedirects(t *testing.T) {
	app, svc := setup(t)
	user := dbtest.CreateUser(t, svc.DB, "gina@example.com", models.RoleAttendee)

	resp := webtest.Do(t, app, http.MethodGet, Path, nil, webtest.Login(t, user.ID))
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	resp = webtest.Do(t, app, http.MethodGet, Path, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, TemplateName, webtest.Body(t, resp))
}
