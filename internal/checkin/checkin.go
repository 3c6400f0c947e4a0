// Package checkin implements attendee check-in by QR payload, typed code or
// attendee search, plus attendee self check-in.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/auth"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/metrics"
	"github.com/GoEventHub/GoEventHub/internal/qrcode"
	"github.com/GoEventHub/GoEventHub/internal/registration"
	"github.com/GoEventHub/GoEventHub/internal/uniuri"
)

// Method tells how a registration was resolved.
type Method string

// Lookup methods.
const (
	MethodQR     Method = "qr"
	MethodCode   Method = "code"
	MethodSearch Method = "search"
	MethodSelf   Method = "self"
)

const maxCandidates = 10

// DefaultSelfCheckInLead opens self check-in two hours before the start.
const DefaultSelfCheckInLead = 2 * time.Hour

// Result describes a check-in attempt.
// Registration is set on success and on ErrAlreadyCheckedIn,
// Candidates on ErrAmbiguousLookup.
type Result struct {
	Registration *models.Registration
	Candidates   []models.Registration
	Method       Method
}

// Stats counts registrations and check-ins of an event.
type Stats struct {
	Registered  int64
	CheckedIn   int64
	MaxCapacity *int
}

// Pending returns the number of registrations not yet checked in.
func (s Stats) Pending() int64 {
	return s.Registered - s.CheckedIn
}

// Service runs check-ins.
type Service struct {
	db     *gorm.DB
	policy auth.EventPolicy
	lead   time.Duration
	now    func() time.Time
}

// NewService returns a Service. A nil policy means auth.NewCreatorOrAdminPolicy,
// a zero lead DefaultSelfCheckInLead.
func NewService(db *gorm.DB, policy auth.EventPolicy, selfCheckInLead time.Duration) *Service {
	if policy == nil {
		policy = auth.NewCreatorOrAdminPolicy()
	}

	if selfCheckInLead <= 0 {
		selfCheckInLead = DefaultSelfCheckInLead
	}

	return &Service{db: db, policy: policy, lead: selfCheckInLead, now: time.Now}
}

// CheckIn resolves lookup within the event and checks the registration in.
// Exact code matches win, free text only applies when no code matched.
func (s *Service) CheckIn(ctx context.Context, actor *models.User, eventID uint64, lookup string) (Result, error) {
	res, err := s.checkIn(ctx, actor, eventID, lookup)
	observe(res.Method, err)

	return res, err
}

func (s *Service) checkIn(ctx context.Context, actor *models.User, eventID uint64, lookup string) (Result, error) {
	if actor == nil || actor.ID == 0 {
		return Result{}, apperror.ErrUnauthenticated
	}

	var event models.Event
	if err := s.db.WithContext(ctx).First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{}, apperror.ErrNotFound
		}

		return Result{}, fmt.Errorf("failed to load event %d: %w", eventID, err)
	}

	if err := s.policy.CanManageEvent(ctx, actor, &event); err != nil {
		return Result{}, err
	}

	lookup = strings.TrimSpace(lookup)
	if lookup == "" {
		return Result{}, apperror.ValidationErrors{"lookup": "Enter a code or search for an attendee"}
	}

	code := qrcode.CodeFromPayload(lookup)

	method := MethodCode
	if code != lookup {
		method = MethodQR
	}

	reg, err := s.byCode(ctx, eventID, code)
	if err != nil {
		return Result{Method: method}, err
	}

	if reg == nil {
		if method == MethodQR {
			return Result{Method: method}, apperror.ErrNotFound
		}

		method = MethodSearch

		candidates, err := s.search(ctx, eventID, lookup)
		if err != nil {
			return Result{Method: method}, err
		}

		switch len(candidates) {
		case 0:
			return Result{Method: method}, apperror.ErrNotFound
		case 1:
			reg = &candidates[0]
		default:
			return Result{Method: method, Candidates: candidates}, apperror.ErrAmbiguousLookup
		}
	}

	reg.Event = event

	return s.mark(ctx, reg, actor.ID, method)
}

// SelfCheckIn checks in the user's own registration identified by code
// while the event's check-in window is open.
func (s *Service) SelfCheckIn(ctx context.Context, user *models.User, code string) (Result, error) {
	res, err := s.selfCheckIn(ctx, user, code)
	observe(MethodSelf, err)

	return res, err
}

func (s *Service) selfCheckIn(ctx context.Context, user *models.User, code string) (Result, error) {
	res := Result{Method: MethodSelf}

	if user == nil || user.ID == 0 {
		return res, apperror.ErrUnauthenticated
	}

	if !user.Active {
		return res, apperror.ErrUserInactive
	}

	code = uniuri.NormalizeCode(qrcode.CodeFromPayload(code), registration.CodeGroupLen)
	if code == "" {
		return res, apperror.ValidationErrors{"code": "Enter your registration code"}
	}

	var reg models.Registration
	if err := s.db.WithContext(ctx).Preload("Event").Where("code = ?", code).First(&reg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return res, apperror.ErrNotFound
		}

		return res, err
	}

	if reg.UserID != user.ID {
		return res, apperror.ErrForbidden
	}

	if !reg.Event.CheckInOpen(s.now(), s.lead) {
		res.Registration = &reg
		return res, apperror.ErrCheckInClosed
	}

	return s.mark(ctx, &reg, user.ID, MethodSelf)
}

// mark performs the registered -> checked_in transition exactly once.
func (s *Service) mark(ctx context.Context, reg *models.Registration, actorID uint64, method Method) (Result, error) {
	now := s.now().UTC()
	res := Result{Registration: reg, Method: method}

	result := s.db.WithContext(ctx).Model(&models.Registration{}).
		Where("id = ? AND checked_in_at IS NULL", reg.ID).
		Updates(map[string]any{
			"checked_in_at":    now,
			"checked_in_by_id": actorID,
			"status":           models.StatusCheckedIn,
		})
	if result.Error != nil {
		return res, fmt.Errorf("failed to check in registration %d: %w", reg.ID, result.Error)
	}

	if result.RowsAffected == 0 {
		// report who got there first
		var current models.Registration
		if err := s.db.WithContext(ctx).Preload("User").Preload("CheckedInBy").First(&current, reg.ID).Error; err == nil {
			current.Event = reg.Event
			res.Registration = &current
		}

		return res, apperror.ErrAlreadyCheckedIn
	}

	reg.CheckedInAt = &now
	reg.CheckedInByID = &actorID
	reg.Status = models.StatusCheckedIn

	if reg.User.ID == 0 {
		_ = s.db.WithContext(ctx).First(&reg.User, reg.UserID).Error
	}

	log.Info().Uint64("registration_id", reg.ID).Uint64("event_id", reg.EventID).Uint64("actor_id", actorID).
		Str("method", string(method)).Msg("Attendee checked in")

	return res, nil
}

func (s *Service) byCode(ctx context.Context, eventID uint64, code string) (*models.Registration, error) {
	candidates := []string{code}
	if normalized := uniuri.NormalizeCode(code, registration.CodeGroupLen); normalized != code {
		candidates = append(candidates, normalized)
	}

	var reg models.Registration

	err := s.db.WithContext(ctx).Preload("User").
		Where("event_id = ? AND code IN ?", eventID, candidates).
		First(&reg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}

	return &reg, nil
}

func (s *Service) search(ctx context.Context, eventID uint64, text string) ([]models.Registration, error) {
	var regs []models.Registration

	tx := s.db.WithContext(ctx).Model(&models.Registration{}).Where("event_id = ?", eventID)

	err := registration.SearchScope(tx, text).
		Preload("User").
		Order("id ASC").
		Limit(maxCandidates).
		Find(&regs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search registrations: %w", err)
	}

	return regs, nil
}

// Stats returns registration and check-in counts of an event.
func (s *Service) Stats(ctx context.Context, eventID uint64) (Stats, error) {
	var (
		event models.Event
		out   Stats
	)

	if err := s.db.WithContext(ctx).First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, apperror.ErrNotFound
		}

		return out, err
	}

	out.MaxCapacity = event.MaxCapacity

	base := s.db.WithContext(ctx).Model(&models.Registration{}).Where("event_id = ?", eventID)

	if err := base.Session(&gorm.Session{}).Count(&out.Registered).Error; err != nil {
		return out, err
	}

	if err := base.Session(&gorm.Session{}).Where("checked_in_at IS NOT NULL").Count(&out.CheckedIn).Error; err != nil {
		return out, err
	}

	return out, nil
}

func observe(method Method, err error) {
	if method == "" {
		method = MethodCode
	}

	outcome := metrics.OutcomeSuccess

	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrAlreadyCheckedIn):
		outcome = metrics.OutcomeDuplicate
	case apperror.Status(err) < 500:
		outcome = metrics.OutcomeRejected
	default:
		outcome = metrics.OutcomeError
	}

	metrics.CheckIns.WithLabelValues(string(method), outcome).Inc()
}
