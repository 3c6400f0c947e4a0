package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoEventHub/GoEventHub/internal/assets"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/mail"
	"github.com/GoEventHub/GoEventHub/internal/metrics"
	"github.com/GoEventHub/GoEventHub/internal/settings"
)

// SettingsSource provides the branding used in messages.
type SettingsSource interface {
	AppSettings(ctx context.Context) settings.Result
}

// ConfirmationWorker sends the confirmation mail of a registration.
type ConfirmationWorker struct {
	db       *gorm.DB
	assets   *assets.Store
	composer *mail.Composer
	sender   mail.Sender
	settings SettingsSource
}

// NewConfirmationWorker returns a worker. settings may be nil.
func NewConfirmationWorker(db *gorm.DB, store *assets.Store, composer *mail.Composer, sender mail.Sender,
	source SettingsSource,
) *ConfirmationWorker {
	return &ConfirmationWorker{db: db, assets: store, composer: composer, sender: sender, settings: source}
}

// Handle implements Handler. Delivery failures are logged and not retried,
// only database errors are returned.
func (w *ConfirmationWorker) Handle(ctx context.Context, job Job) error {
	var reg models.Registration

	err := w.db.WithContext(ctx).Preload("User").Preload("Event").First(&reg, job.RegistrationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Info().Str("job_id", job.ID).Uint64("registration_id", job.RegistrationID).
			Msg("Registration gone before confirmation, skipping")

		return nil
	}

	if err != nil {
		metrics.Notifications.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("failed to load registration %d: %w", job.RegistrationID, err)
	}

	var qr []byte

	if reg.QRPath != "" && w.assets != nil && w.assets.Exists(reg.QRPath) {
		if qr, err = w.assets.Read(reg.QRPath); err != nil {
			log.Warn().Err(err).Str("path", reg.QRPath).Msg("Failed to read QR code, sending without attachment")
		}
	}

	site := settings.DefaultResult()
	if w.settings != nil {
		site = w.settings.AppSettings(ctx)
	}

	msg, err := w.composer.Confirmation(&reg, qr, site)
	if err != nil {
		metrics.Notifications.WithLabelValues(metrics.OutcomeError).Inc()
		log.Error().Err(err).Uint64("registration_id", reg.ID).Msg("Failed to compose confirmation")

		return nil
	}

	if err := w.sender.Send(ctx, msg); err != nil {
		metrics.Notifications.WithLabelValues(metrics.OutcomeError).Inc()
		log.Error().Err(err).Uint64("registration_id", reg.ID).Str("to", msg.To).Msg("Failed to send confirmation")

		return nil
	}

	metrics.Notifications.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Info().Uint64("registration_id", reg.ID).Str("to", msg.To).Msg("Confirmation sent")

	return nil
}
