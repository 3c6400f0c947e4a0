package account

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
	"github.com/GoEventHub/GoEventHub/internal/web/webtest"
)

func setup(t *testing.T) (*fiber.App, *handler.Services, *models.User) {
	t.Helper()

	svc := webtest.Services(t)
	app := webtest.NewApp(svc)

	var s Service
	require.NoError(t, s.Init(app, webtest.Config(), svc))

	return app, svc, dbtest.CreateUser(t, svc.DB, "jane@example.com", models.RoleAttendee)
}

func passwordForm(current, password, confirm string) url.Values {
	return url.Values{
		"current_password": {current},
		"password":         {password},
		"password_confirm": {confirm},
	}
}

func reload(t *testing.T, svc *handler.Services, id uint64) *models.User {
	t.Helper()

	var user models.User
	require.NoError(t, svc.DB.First(&user, id).Error)

	return &user
}

func TestGet(t *testing.T) {
	app, _, user := setup(t)

	resp := webtest.Do(t, app, http.MethodGet, PasswordPath, nil, webtest.Login(t, user.ID))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, TemplatePassword, webtest.Body(t, resp))

	resp = webtest.Do(t, app, http.MethodGet, PasswordPath, nil, "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestPost_ChangesPassword(t *testing.T) {
	app, svc, user := setup(t)

	resp := webtest.Do(t, app, http.MethodPost, PasswordPath,
		passwordForm("secret", "correct horse", "correct horse"), webtest.Login(t, user.ID))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, PasswordPath+"?done=password", resp.Header.Get(fiber.HeaderLocation))

	stored := reload(t, svc, user.ID)
	assert.True(t, stored.VerifyPassword("correct horse"))
	assert.False(t, stored.VerifyPassword("secret"))
}

func TestPost_Rejected(t *testing.T) {
	app, svc, user := setup(t)
	cookie := webtest.Login(t, user.ID)

	resp := webtest.Do(t, app, http.MethodPost, PasswordPath,
		passwordForm("wrong", "correct horse", "correct horse"), cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, webtest.Body(t, resp), "The current password is not correct")

	resp = webtest.Do(t, app, http.MethodPost, PasswordPath,
		passwordForm("secret", "correct horse", "something else"), cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = webtest.Do(t, app, http.MethodPost, PasswordPath, passwordForm("secret", "short", "short"), cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	assert.True(t, reload(t, svc, user.ID).VerifyPassword("secret"), "password unchanged")
}
