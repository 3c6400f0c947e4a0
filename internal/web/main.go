// Package web wires the fiber application: middleware, templates, static
// files and the route handlers.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/config"
	fiberlogger "github.com/GoEventHub/GoEventHub/internal/logger/adapter/fiber"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/account"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/admin/event"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/admin/home"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/admin/settings/branding"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/admin/user"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/checkindesk"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/dashboard"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/events"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/login"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/logout"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/registrations"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/signup"
	authmiddleware "github.com/GoEventHub/GoEventHub/internal/web/middleware/auth"
	"github.com/GoEventHub/GoEventHub/internal/web/view"
)

const (
	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"
	// MetricsPath exposes the prometheus collectors.
	MetricsPath = "/metrics"
	// StaticPath serves the embedded static files.
	StaticPath = "/static"
)

// ErrNilConfig is returned by New without a config.
var ErrNilConfig = errors.New("web: config cannot be nil")

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for a termination signal and shuts the http server down.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates the web service and registers every route.
// store backs csrf tokens and the rate limiter, nil keeps them in memory.
func New(cfg *config.Config, svc *handler.Services, store fiber.Storage) (*Service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if !svc.Valid() {
		return nil, handler.ErrNilServices
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			BodyLimit:      12 * 1024 * 1024,
			Views:          newTemplateEngine(cfg),
		},
	)

	service := &Service{
		App:          app,
		cfg:          cfg,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
		UserLocal:     auth.LocalsUserID,
	}))

	if cfg.Webserver.CacheEnabled {
		app.Use(compress.New())
		app.Use(etag.New())
	}

	if cfg.Webserver.CookieEncryptionKey != "" {
		app.Use(encryptcookie.New(encryptcookie.Config{
			Key:    cfg.Webserver.CookieEncryptionKey,
			Except: []string{view.CSRFCookieName},
		}))
	}

	// routes without session
	app.Get(CheckAlivePath, service.checkAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	app.Use(StaticPath,
		filesystem.New(
			filesystem.Config{
				Root:   embeddedDir(embeddedStaticFiles, "static"),
				Browse: cfg.Webserver.BrowseStatic,
				MaxAge: maxAge(cfg),
			},
		),
	)

	app.Use(handler.MediaPath,
		filesystem.New(
			filesystem.Config{
				Root:   svc.Assets.HTTPFileSystem(),
				MaxAge: maxAge(cfg),
			},
		),
	)

	app.Use(authmiddleware.New(authmiddleware.Config{
		DB:     svc.DB,
		Secure: !cfg.DevMode,
	}))

	app.Use(csrf.New(csrf.Config{
		CookieName:        view.CSRFCookieName,
		CookieSameSite:    "Lax",
		CookieSecure:      !cfg.DevMode,
		CookieHTTPOnly:    true,
		Expiration:        cfg.Webserver.Session.ExpiryTime,
		Storage:           store,
		ContextKey:        view.CSRFContextKey,
		HandlerContextKey: view.CSRFHandlerKey,
		Extractor:         csrfToken,
		KeyGenerator:      uuid.NewString,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Warn().Err(err).Str("path", c.Path()).Msg("csrf check failed")

			return handler.Fail(c, svc.View, apperror.ErrForbidden)
		},
	}))

	if cfg.Webserver.RateLimit.Max > 0 {
		app.Use(limiter.New(limiter.Config{
			Next:       notRateLimited,
			Max:        cfg.Webserver.RateLimit.Max,
			Expiration: cfg.Webserver.RateLimit.Expiration,
			Storage:    store,
			KeyGenerator: func(c *fiber.Ctx) string {
				return "limit:" + c.Path() + ":" + c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).SendString("Too many attempts, please try again later")
			},
		}))
	}

	// init handlers (they register their own routes with permission checks)
	handlers := []interface {
		Init(app *fiber.App, cfg *config.Config, svc *handler.Services) error
	}{
		&login.Handler,
		&logout.Handler,
		&signup.Handler,
		&account.Handler,
		&dashboard.Handler,
		&events.Handler,
		&registrations.Handler,
		&checkindesk.Handler,
		&home.Handler,
		&event.Handler,
		&user.Handler,
		&branding.Handler,
	}

	for _, h := range handlers {
		if err := h.Init(app, cfg, svc); err != nil {
			return nil, err
		}
	}

	// redirect root to the public event list
	app.Get(handler.RootPath, func(c *fiber.Ctx) error {
		return c.Redirect(auth.FallbackHomePath)
	})

	app.Use(func(c *fiber.Ctx) error {
		return handler.Fail(c, svc.View, apperror.ErrNotFound)
	})

	return service, nil
}

func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("OK")
}

// csrfToken reads the token from the header used by scripts, then from the form.
func csrfToken(c *fiber.Ctx) (string, error) {
	if token := c.Get(csrf.HeaderName); token != "" {
		return token, nil
	}

	return csrf.CsrfFromForm(view.CSRFFormField)(c)
}

// notRateLimited skips the limiter for everything but credential posts.
func notRateLimited(c *fiber.Ctx) bool {
	if c.Method() != fiber.MethodPost {
		return true
	}

	path := strings.TrimSuffix(c.Path(), "/")

	return path != login.Path && path != signup.Path
}

func maxAge(cfg *config.Config) int {
	if !cfg.Webserver.CacheEnabled {
		return 0
	}

	return int((24 * time.Hour).Seconds())
}

func newTemplateEngine(cfg *config.Config) *html.Engine {
	engine := html.NewFileSystem(embeddedDir(embeddedTemplates, "templates"), ".gohtml")

	// in debug mode, use local filesystem for templates
	if cfg.DevMode {
		engine = html.New("./internal/web/templates", ".gohtml")
		engine.Reload(true)

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	engine.AddFuncMap(templateFuncs())

	return engine
}
