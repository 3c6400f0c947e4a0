package auth

import (
	"context"
	"fmt"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
)

// EventPolicy decides whether a user may manage an event.
// Implementations must return nil, apperror.ErrUnauthenticated or apperror.ErrForbidden.
type EventPolicy interface {
	CanManageEvent(ctx context.Context, user *models.User, event *models.Event) error
}

// GrantFunc is asked for users that are neither admin nor creator of the event.
type GrantFunc func(ctx context.Context, user *models.User, event *models.Event) (bool, error)

// DenyGrants is the default GrantFunc. It grants nothing.
func DenyGrants(context.Context, *models.User, *models.Event) (bool, error) {
	return false, nil
}

// CreatorOrAdminPolicy allows admins and the creator of an event.
// Grants extends it for other users and defaults to DenyGrants.
type CreatorOrAdminPolicy struct {
	Grants GrantFunc
}

// NewCreatorOrAdminPolicy returns the default policy with the deny-all grant hook.
func NewCreatorOrAdminPolicy() *CreatorOrAdminPolicy {
	return &CreatorOrAdminPolicy{Grants: DenyGrants}
}

// CanManageEvent implements EventPolicy.
func (p *CreatorOrAdminPolicy) CanManageEvent(ctx context.Context, user *models.User, event *models.Event) error {
	// tier one: somebody must be logged in
	if user == nil || user.ID == 0 {
		return apperror.ErrUnauthenticated
	}

	if !user.Active {
		return apperror.ErrUserInactive
	}

	// tier two: ownership or explicit grant
	if event == nil {
		return apperror.ErrNotFound
	}

	if user.IsAdmin() || event.CreatorID == user.ID {
		return nil
	}

	grants := p.Grants
	if grants == nil {
		grants = DenyGrants
	}

	ok, err := grants(ctx, user, event)
	if err != nil {
		return fmt.Errorf("failed to evaluate event grant: %w", err)
	}

	if !ok {
		return apperror.ErrForbidden
	}

	return nil
}
