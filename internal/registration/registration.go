// Package registration implements the event registration workflow: capacity
// guarded registration, unique check-in codes, QR generation, confirmation
// jobs and cancellation.
package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/assets"
	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/db/query"
	"github.com/GoEventHub/GoEventHub/internal/metrics"
	"github.com/GoEventHub/GoEventHub/internal/notify"
	"github.com/GoEventHub/GoEventHub/internal/qrcode"
	"github.com/GoEventHub/GoEventHub/internal/uniuri"
)

const (
	// CodeGroups and CodeGroupLen shape codes like "K7QX-M2PA".
	CodeGroups   = 2
	CodeGroupLen = 4

	maxCodeAttempts = 8
)

// ErrCodeSpaceExhausted is returned when no free code was found.
var ErrCodeSpaceExhausted = errors.New("failed to generate a unique registration code")

// Service runs the registration workflow.
type Service struct {
	db        *gorm.DB
	assets    *assets.Store
	qr        *qrcode.Generator
	publisher notify.Publisher
	policy    auth.EventPolicy

	now     func() time.Time
	newCode func() string
}

// NewService returns a Service. publisher may be nil to skip confirmations.
func NewService(db *gorm.DB, store *assets.Store, qr *qrcode.Generator, publisher notify.Publisher,
	policy auth.EventPolicy,
) *Service {
	if policy == nil {
		policy = auth.NewCreatorOrAdminPolicy()
	}

	return &Service{
		db:        db,
		assets:    store,
		qr:        qr,
		publisher: publisher,
		policy:    policy,
		now:       time.Now,
		newCode:   func() string { return uniuri.NewCode(CodeGroups, CodeGroupLen) },
	}
}

// Register binds the user to the event.
// The capacity check and the insert run in one transaction.
func (s *Service) Register(ctx context.Context, userID, eventID uint64) (*models.Registration, error) {
	reg, err := s.register(ctx, userID, eventID)

	switch {
	case err == nil:
		metrics.Registrations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	case errors.Is(err, apperror.ErrDuplicateRegistration):
		metrics.Registrations.WithLabelValues(metrics.OutcomeDuplicate).Inc()
	case apperror.Status(err) < 500:
		metrics.Registrations.WithLabelValues(metrics.OutcomeRejected).Inc()
	default:
		metrics.Registrations.WithLabelValues(metrics.OutcomeError).Inc()
	}

	if err != nil {
		return nil, err
	}

	log.Info().Uint64("user_id", userID).Uint64("event_id", eventID).Uint64("registration_id", reg.ID).
		Str("code", reg.Code).Msg("Registration created")

	s.attachQRCode(ctx, reg)
	s.enqueueConfirmation(ctx, reg)

	return reg, nil
}

func (s *Service) register(ctx context.Context, userID, eventID uint64) (*models.Registration, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrUnauthenticated
		}

		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	if !user.Active {
		return nil, apperror.ErrUserInactive
	}

	reg := &models.Registration{UserID: userID, EventID: eventID, Status: models.StatusRegistered}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.ErrNotFound
			}

			return fmt.Errorf("failed to load event %d: %w", eventID, err)
		}

		if !event.Published || event.HasStarted(s.now()) {
			return apperror.ErrEventClosed
		}

		var existing int64
		if err := tx.Model(&models.Registration{}).
			Where("user_id = ? AND event_id = ?", userID, eventID).
			Count(&existing).Error; err != nil {
			return err
		}

		if existing > 0 {
			return apperror.ErrDuplicateRegistration
		}

		// reserve a seat, the row is locked until commit
		result := tx.Model(&models.Event{}).
			Where("id = ? AND (max_capacity IS NULL OR registered_count < max_capacity)", eventID).
			UpdateColumn("registered_count", gorm.Expr("registered_count + ?", 1))
		if result.Error != nil {
			return fmt.Errorf("failed to reserve seat: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			return apperror.ErrCapacityExceeded
		}

		code, err := s.uniqueCode(tx)
		if err != nil {
			return err
		}

		reg.Code = code
		reg.QRPath = assets.QRPath(code)

		if err := tx.Omit(clause.Associations).Create(reg).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.ErrDuplicateRegistration
			}

			return fmt.Errorf("failed to create registration: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return reg, nil
}

func (s *Service) uniqueCode(tx *gorm.DB) (string, error) {
	for range maxCodeAttempts {
		code := s.newCode()

		var count int64
		if err := tx.Model(&models.Registration{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}

		if count == 0 {
			return code, nil
		}

		log.Debug().Str("code", code).Msg("Registration code collision, retrying")
	}

	return "", ErrCodeSpaceExhausted
}

// attachQRCode renders and stores the QR code. Failures are logged only,
// QRCode regenerates a missing asset later.
func (s *Service) attachQRCode(ctx context.Context, reg *models.Registration) {
	if _, err := s.writeQRCode(ctx, reg); err != nil {
		log.Error().Err(err).Uint64("registration_id", reg.ID).Msg("Failed to generate QR code")
	}
}

func (s *Service) writeQRCode(ctx context.Context, reg *models.Registration) ([]byte, error) {
	if s.qr == nil || s.assets == nil {
		return nil, errors.New("qr generation is not configured")
	}

	svg, err := s.qr.ForCode(reg.Code)
	if err != nil {
		return nil, err
	}

	path := assets.QRPath(reg.Code)
	if err := s.assets.Put(path, svg); err != nil {
		return nil, err
	}

	if reg.QRPath != path {
		reg.QRPath = path
		if err := s.db.WithContext(ctx).Model(&models.Registration{}).Where("id = ?", reg.ID).
			UpdateColumn("qr_path", path).Error; err != nil {
			return nil, fmt.Errorf("failed to store qr path: %w", err)
		}
	}

	return svg, nil
}

func (s *Service) enqueueConfirmation(ctx context.Context, reg *models.Registration) {
	if s.publisher == nil {
		return
	}

	job := notify.NewJob(reg.ID)
	if err := s.publisher.Publish(ctx, job); err != nil {
		metrics.Notifications.WithLabelValues(metrics.OutcomeRejected).Inc()
		log.Error().Err(err).Uint64("registration_id", reg.ID).Str("job_id", job.ID).
			Msg("Failed to enqueue confirmation")
	}
}

// Cancel removes a registration of the actor, or any registration for admins.
// Checked in registrations stay untouched.
func (s *Service) Cancel(ctx context.Context, actor *models.User, registrationID uint64) error {
	if actor == nil || actor.ID == 0 {
		return apperror.ErrUnauthenticated
	}

	if !actor.Active {
		return apperror.ErrUserInactive
	}

	var reg models.Registration

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reg, registrationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.ErrNotFound
			}

			return err
		}

		if reg.UserID != actor.ID && !actor.IsAdmin() {
			return apperror.ErrForbidden
		}

		if reg.IsCheckedIn() {
			return apperror.ErrAlreadyCheckedIn
		}

		result := tx.Where("id = ? AND checked_in_at IS NULL", reg.ID).Delete(&models.Registration{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete registration: %w", result.Error)
		}

		// checked in between read and delete
		if result.RowsAffected == 0 {
			return apperror.ErrAlreadyCheckedIn
		}

		return tx.Model(&models.Event{}).
			Where("id = ? AND registered_count > 0", reg.EventID).
			UpdateColumn("registered_count", gorm.Expr("registered_count - ?", 1)).Error
	})
	if err != nil {
		return err
	}

	metrics.Cancellations.Inc()
	log.Info().Uint64("registration_id", reg.ID).Uint64("actor_id", actor.ID).Msg("Registration cancelled")

	if s.assets != nil && reg.QRPath != "" {
		if err := s.assets.Delete(reg.QRPath); err != nil {
			log.Warn().Err(err).Str("path", reg.QRPath).Msg("Failed to delete QR code")
		}
	}

	return nil
}

// Get returns a registration with user and event to its owner, admins and
// managers of the event.
func (s *Service) Get(ctx context.Context, actor *models.User, registrationID uint64) (*models.Registration, error) {
	return s.get(ctx, actor, "id = ?", registrationID)
}

// GetByCode is Get for a registration code or a scanned verification URL.
func (s *Service) GetByCode(ctx context.Context, actor *models.User, code string) (*models.Registration, error) {
	code = uniuri.NormalizeCode(qrcode.CodeFromPayload(code), CodeGroupLen)
	if code == "" {
		return nil, apperror.ErrNotFound
	}

	return s.get(ctx, actor, "code = ?", code)
}

func (s *Service) get(ctx context.Context, actor *models.User, cond string, arg any) (*models.Registration, error) {
	if actor == nil || actor.ID == 0 {
		return nil, apperror.ErrUnauthenticated
	}

	var reg models.Registration
	if err := s.db.WithContext(ctx).Preload("User").Preload("Event").Preload("CheckedInBy").
		Where(cond, arg).First(&reg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}

		return nil, err
	}

	if reg.UserID == actor.ID {
		return &reg, nil
	}

	if err := s.policy.CanManageEvent(ctx, actor, &reg.Event); err != nil {
		return nil, err
	}

	return &reg, nil
}

// ListForUser returns the registrations of a user, next events first.
func (s *Service) ListForUser(ctx context.Context, userID uint64) ([]models.Registration, error) {
	var regs []models.Registration

	err := s.db.WithContext(ctx).Preload("Event").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&regs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	return regs, nil
}

// Page is one page of ListForEvent results.
type Page struct {
	Registrations []models.Registration
	Total         int64
	CheckedIn     int64
	Page          int
	PageSize      int
	TotalPages    int
}

// ListForEvent returns one page of the registrations of an event, optionally
// filtered by attendee name, email or code.
func (s *Service) ListForEvent(ctx context.Context, eventID uint64, search string, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}

	if pageSize < 1 {
		pageSize = 25
	}

	tx := s.db.WithContext(ctx).Model(&models.Registration{}).Where("event_id = ?", eventID)
	if search != "" {
		tx = SearchScope(tx, search)
	}

	out := &Page{Page: page, PageSize: pageSize}

	if err := tx.Session(&gorm.Session{}).Count(&out.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}

	if err := tx.Session(&gorm.Session{}).Where("checked_in_at IS NOT NULL").Count(&out.CheckedIn).Error; err != nil {
		return nil, fmt.Errorf("failed to count check-ins: %w", err)
	}

	out.TotalPages = max(int((out.Total+int64(pageSize)-1)/int64(pageSize)), 1)

	if err := tx.Preload("User").Preload("CheckedInBy").
		Order("created_at ASC, id ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&out.Registrations).Error; err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	return out, nil
}

// SearchScope filters registrations by attendee name, email or code.
// The match is case-insensitive and treats wildcards in search literally.
func SearchScope(tx *gorm.DB, search string) *gorm.DB {
	users := query.Like(tx.Session(&gorm.Session{NewDB: true}).Model(&models.User{}).Select("id"),
		search, "name", "email")
	cond, args := query.LikeCondition(search, "code")

	return tx.Where("("+cond+" OR user_id IN (?))", append(args, users)...)
}

// QRCode returns the SVG of a registration, regenerating a missing asset.
func (s *Service) QRCode(ctx context.Context, reg *models.Registration) ([]byte, error) {
	if s.assets != nil && reg.QRPath != "" {
		svg, err := s.assets.Read(reg.QRPath)
		if err == nil {
			return svg, nil
		}

		if !errors.Is(err, assets.ErrAssetNotFound) {
			return nil, err
		}
	}

	log.Info().Uint64("registration_id", reg.ID).Msg("QR code missing, regenerating")

	return s.writeQRCode(ctx, reg)
}
