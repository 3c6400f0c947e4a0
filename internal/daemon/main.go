// Package daemon assembles the services and runs the web server together
// with the notification workers.
package daemon

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoEventHub/GoEventHub/internal/assets"
	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/checkin"
	"github.com/GoEventHub/GoEventHub/internal/config"
	"github.com/GoEventHub/GoEventHub/internal/db"
	"github.com/GoEventHub/GoEventHub/internal/mail"
	"github.com/GoEventHub/GoEventHub/internal/notify"
	"github.com/GoEventHub/GoEventHub/internal/qrcode"
	"github.com/GoEventHub/GoEventHub/internal/registration"
	"github.com/GoEventHub/GoEventHub/internal/settings"
	"github.com/GoEventHub/GoEventHub/internal/web"
	"github.com/GoEventHub/GoEventHub/internal/web/handler"
	"github.com/GoEventHub/GoEventHub/internal/web/session"
	"github.com/GoEventHub/GoEventHub/internal/web/view"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	store      fiber.Storage
	assets     *assets.Store
	settings   *settings.Provider
	queue      notify.Queue
	webService *web.Service
}

// New opens the database, seeds it and wires every service.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, web.ErrNilConfig
	}

	gormDB, err := Database(cfg)
	if err != nil {
		return nil, err
	}

	if err := Seed(cfg, gormDB); err != nil {
		return nil, err
	}

	store := NewStorage(cfg)
	session.Init(store, cfg.Webserver.Session.ExpiryTime)

	assetStore, err := assets.New(cfg.Storage.AssetsPath)
	if err != nil {
		return nil, err
	}

	queue, err := notify.New(cfg.Queue)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification queue: %w", err)
	}

	provider := settings.NewProvider(gormDB, store, cfg.Cache.SettingsTTL)
	policy := auth.NewCreatorOrAdminPolicy()

	svc := &handler.Services{
		DB:    gormDB,
		Users: auth.NewLocalProvider(gormDB),
		Registrations: registration.NewService(gormDB, assetStore, qrcode.NewGenerator(cfg.Webserver.URL),
			queue, policy),
		CheckIns: checkin.NewService(gormDB, policy, cfg.Event.SelfCheckInLead),
		Policy:   policy,
		Settings: provider,
		Assets:   assetStore,
		View:     view.NewRenderer(provider),
	}

	webService, err := web.New(cfg, svc, store)
	if err != nil {
		_ = queue.Close()

		return nil, err
	}

	return &Daemon{
		cfg:        cfg,
		db:         gormDB,
		store:      store,
		assets:     assetStore,
		settings:   provider,
		queue:      queue,
		webService: webService,
	}, nil
}

// Database opens and migrates the configured database.
func Database(cfg *config.Config) (*gorm.DB, error) {
	gormDB, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(gormDB); err != nil {
		return nil, err
	}

	return gormDB, nil
}

// Start runs the notification workers and the web service until a
// termination signal arrives. Pending notifications are drained on the way out.
func (d *Daemon) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	composer, err := mail.NewComposer(d.cfg.Webserver.URL)
	if err != nil {
		return err
	}

	sender, err := mail.NewSender(d.cfg.Mail)
	if err != nil {
		return err
	}

	worker := notify.NewConfirmationWorker(d.db, d.assets, composer, sender, d.settings)
	if err := d.queue.Start(ctx, worker.Handle); err != nil {
		return fmt.Errorf("failed to start notification workers: %w", err)
	}

	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)
	log.Info().Str("addr", addr).Str("url", d.cfg.Webserver.URL).Msg("starting web service")

	go func() {
		_ = d.webService.Start(addr)
	}()

	d.webService.WaitShutdown()

	if err := d.queue.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close notification queue")
	}

	if err := d.store.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close storage")
	}

	if sqlDB, err := d.db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	return nil
}
