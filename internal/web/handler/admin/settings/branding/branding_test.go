package branding

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/db/controller/setting"
	"github.com/GoEventHub/GoEventHub/internal/db/dbtest"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/settings"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	"github.com/GoEventHub/GoEventHub/internal/web/webtest"
)

func setup(t *testing.T) (*fiber.App, *handler.Services, string) {
	t.Helper()

	svc := webtest.Services(t)
	require.NoError(t, setting.EnsureDefaults(svc.DB, settings.SeedDefinitions()))

	app := webtest.NewApp(svc)

	var s Service
	require.NoError(t, s.Init(app, webtest.Config(), svc))

	admin := dbtest.CreateUser(t, svc.DB, "admin@example.com", models.RoleAdmin)

	return app, svc, webtest.Login(t, admin.ID)
}

func TestGet(t *testing.T) {
	app, svc, cookie := setup(t)

	resp := webtest.Do(t, app, http.MethodGet, Path, nil, cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, TemplateName, webtest.Body(t, resp))

	attendee := dbtest.CreateUser(t, svc.DB, "attendee@example.com", models.RoleAttendee)
	resp = webtest.Do(t, app, http.MethodGet, Path, nil, webtest.Login(t, attendee.ID))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPostUpdatesCache(t *testing.T) {
	app, svc, cookie := setup(t)

	// warm the cache
	assert.Equal(t, "#dc2626", svc.Settings.AppSettings(context.Background()).PrimaryColor())

	resp := webtest.Do(t, app, http.MethodPost, Path, url.Values{
		"primary_color": {"#2563eb"},
		"site_name":     {"City Meetups"},
	}, cookie)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, Path+"?done=updated", resp.Header.Get(fiber.HeaderLocation))

	got := svc.Settings.AppSettings(context.Background())
	assert.Equal(t, "#2563eb", got.PrimaryColor())
	assert.Equal(t, "City Meetups", got.SiteName())
	// untouched keys keep their value
	assert.Equal(t, settings.ThemeLight, got.Theme())
}

func TestPostValidation(t *testing.T) {
	app, svc, cookie := setup(t)

	resp := webtest.Do(t, app, http.MethodPost, Path, url.Values{"primary_color": {"red"}}, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = webtest.Do(t, app, http.MethodPost, Path, url.Values{"theme": {"neon"}}, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	stored, err := setting.Get(svc.DB, settings.KeyPrimaryColor)
	require.NoError(t, err)
	assert.Equal(t, "#dc2626", stored.Value)
}

func TestValidateValue(t *testing.T) {
	require.NoError(t, ValidateValue(settings.KeyPrimaryColor, "#2563eb"))
	require.NoError(t, ValidateValue(settings.KeyTheme, settings.ThemeDark))

	assert.ErrorIs(t, ValidateValue(settings.KeyPrimaryColor, "red"), apperror.ErrValidationFailed)
	assert.ErrorIs(t, ValidateValue(settings.KeySiteName, ""), apperror.ErrValidationFailed)
	assert.ErrorIs(t, ValidateValue("smtp_secret", "x"), settings.ErrUnknownKey)
}

func TestLabels(t *testing.T) {
	labels := Labels([]models.Setting{
		{Name: settings.KeySiteName, Label: "Community name"},
		{Name: settings.KeyLogo},
		{Name: "smtp_secret", Label: "Secret"},
	})

	assert.Equal(t, "Community name", labels[settings.KeySiteName])
	assert.Equal(t, "Logo URL", labels[settings.KeyLogo])
	assert.NotContains(t, labels, "smtp_secret")
	assert.Len(t, labels, len(settings.Definitions()))
}
