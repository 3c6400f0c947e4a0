// Package webtest wires handlers against in-memory collaborators for tests.
package webtest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/GoEventHub/GoEventHub/internal/assets"
	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/checkin"
	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/db/dbtest"
	"github.com/GoEventHub/GoEventHub/internal/qrcode"
	"github.com/GoEventHub/GoEventHub/internal/registration"
	"github.com/GoEventHub/GoEventHub/internal/settings"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	authmiddleware "github.com/GoEventHub/GoEventHub/internal/web/middleware/auth"
	"github.com/GoEventHub/GoEventHub/internal/web/session"
	"github.com/GoEventHub/GoEventHub/internal/web/view"
)

// BaseURL is the webserver url of the test config.
const BaseURL = "http://events.test"

// NoOpViews is a minimal Fiber Views engine.
// It writes the template name followed by the Error and Success fields
// so tests can assert what a handler rendered.
type NoOpViews struct{}

// Load implements fiber.Views.
func (NoOpViews) Load() error { return nil }

// Render implements fiber.Views.
func (NoOpViews) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	_, _ = io.WriteString(w, name)

	if m, ok := data.(fiber.Map); ok {
		for _, key := range []string{"Error", "Success"} {
			if v, ok := m[key].(string); ok && v != "" {
				_, _ = io.WriteString(w, "\n"+key+": "+v)
			}
		}
	}

	return nil
}

// CaptureViews behaves like NoOpViews and keeps the binding of the last render.
type CaptureViews struct {
	NoOpViews
	Last *fiber.Map
}

// NewCaptureViews returns an empty CaptureViews.
func NewCaptureViews() *CaptureViews {
	return &CaptureViews{Last: &fiber.Map{}}
}

// Render implements fiber.Views.
func (v *CaptureViews) Render(w io.Writer, name string, data interface{}, layout ...string) error {
	if m, ok := data.(fiber.Map); ok {
		*v.Last = m
	}

	return v.NoOpViews.Render(w, name, data, layout...)
}

// Config returns a config for handler tests.
func Config() *config.Config {
	return &config.Config{
		DevMode: true,
		Webserver: config.Webserver{
			URL:     BaseURL,
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Hour},
		},
		Event: config.Event{ImageMaxWidth: 1200, ImageMaxHeight: 630},
	}
}

// Services returns services backed by sqlite, afero and memory storage.
// The session store is initialized as well.
func Services(t *testing.T) *handler.Services {
	t.Helper()

	db := dbtest.New(t)
	store := assets.NewWithFs(afero.NewMemMapFs())
	policy := auth.NewCreatorOrAdminPolicy()
	provider := settings.NewProvider(db, memory.New(), settings.DefaultTTL)

	session.Init(memory.New(), time.Hour)

	return &handler.Services{
		DB:            db,
		Users:         auth.NewLocalProvider(db),
		Policy:        policy,
		Registrations: registration.NewService(db, store, qrcode.NewGenerator(BaseURL), nil, policy),
		CheckIns:      checkin.NewService(db, policy, 0),
		Settings:      provider,
		Assets:        store,
		View:          view.NewRenderer(provider),
	}
}

// NewApp returns a fiber app with the no-op views and the session middleware.
func NewApp(svc *handler.Services) *fiber.App {
	return NewAppWithViews(svc, NoOpViews{})
}

// NewAppWithViews returns a fiber app with views and the session middleware.
func NewAppWithViews(svc *handler.Services, views fiber.Views) *fiber.App {
	app := fiber.New(fiber.Config{Views: views})
	app.Use(authmiddleware.New(authmiddleware.Config{DB: svc.DB}))

	return app
}

// Login creates a session for userID and returns the cookie header value.
func Login(t *testing.T, userID uint64) string {
	t.Helper()

	id, err := session.GenerateSessionID()
	require.NoError(t, err)

	data := &session.Data{UserID: userID, IssuedAt: time.Now()}
	require.NoError(t, data.Write(id, time.Hour))

	return fmt.Sprintf("%s=%s", session.CookieName, id)
}

// Do performs a request. form may be nil, cookie may be empty.
func Do(t *testing.T, app *fiber.App, method, target string, form url.Values, cookie string) *http.Response {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}

	if cookie != "" {
		req.Header.Set(fiber.HeaderCookie, cookie)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

// Body reads and closes the response body.
func Body(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(b)
}
