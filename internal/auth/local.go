package auth

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/GoEventHub/GoEventHub/internal/db/models"
	dbquery "github.com/GoEventHub/GoEventHub/internal/db/query"
)

// LocalProvider handles local database authentication and account management.
type LocalProvider struct {
	db *gorm.DB
}

const (
	whereID    = "id = ?"
	whereEmail = "email = ?"
)

// NewUser holds the fields for CreateUser.
type NewUser struct {
	Name         string
	Email        string
	Password     string
	Role         models.Role
	Organization string
	Phone        string
	Active       bool
}

// UserFilter narrows ListUsers results.
type UserFilter struct {
	Role   models.Role
	Active *bool
	Search string
}

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate authenticates a user against the local database.
// A deactivated account with a correct password returns the user together with ErrUserAccountDisabled.
func (p *LocalProvider) Authenticate(email, password string) (*models.User, error) {
	var user models.User

	err := p.db.Where(whereEmail, NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	// Verify password before disclosing the account state
	if !user.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	if !user.Active {
		return &user, ErrUserAccountDisabled
	}

	return &user, nil
}

// CreateUser creates a new local user.
func (p *LocalProvider) CreateUser(in NewUser) (*models.User, error) {
	if in.Role == "" {
		in.Role = models.RoleAttendee
	}

	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, in.Role)
	}

	email := NormalizeEmail(in.Email)

	// Check if user already exists, soft deleted accounts keep their address
	var existing models.User

	err := p.db.Unscoped().Where(whereEmail, email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailExists
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	user := models.User{
		Active:       in.Active,
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Password:     models.HashPassword(in.Password),
		Role:         in.Role,
		Organization: in.Organization,
		Phone:        in.Phone,
	}

	if err := p.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// ChangePassword changes a user's password after verifying the old one.
func (p *LocalProvider) ChangePassword(userID uint64, oldPassword, newPassword string) error {
	user, err := p.GetUserByID(userID)
	if err != nil {
		return err
	}

	if !user.VerifyPassword(oldPassword) {
		return ErrInvalidOldPassword
	}

	return p.ResetPassword(userID, newPassword)
}

// ResetPassword sets a new password without checking the old one (admin function).
func (p *LocalProvider) ResetPassword(userID uint64, newPassword string) error {
	result := p.db.Model(&models.User{}).
		Where(whereID, userID).
		Update("password", models.HashPassword(newPassword))
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ActivateUser activates a user account.
func (p *LocalProvider) ActivateUser(userID uint64) error {
	return p.setActive(userID, true)
}

// DeactivateUser deactivates a user account. Open sessions are torn down on their next request.
func (p *LocalProvider) DeactivateUser(userID uint64) error {
	return p.setActive(userID, false)
}

func (p *LocalProvider) setActive(userID uint64, active bool) error {
	result := p.db.Model(&models.User{}).Where(whereID, userID).Update("active", active)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// GetUserByID retrieves a user by ID.
func (p *LocalProvider) GetUserByID(userID uint64) (*models.User, error) {
	var user models.User
	if err := p.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by email address.
func (p *LocalProvider) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := p.db.Where(whereEmail, NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return &user, nil
}

// ListUsers lists users with optional filters.
func (p *LocalProvider) ListUsers(f UserFilter, limit, offset int) ([]models.User, int64, error) {
	var (
		users []models.User
		total int64
	)

	query := p.db.Model(&models.User{})

	if f.Role != "" {
		query = query.Where("role = ?", f.Role)
	}

	if f.Active != nil {
		query = query.Where("active = ?", *f.Active)
	}

	if f.Search != "" {
		query = dbquery.Like(query, f.Search, "name", "email", "organization")
	}

	// Get total count
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Get paginated results
	if err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
