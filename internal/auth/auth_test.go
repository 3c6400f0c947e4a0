package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/db/dbtest"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
)

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(models.RoleAdmin, PermAdminSettings))
	assert.True(t, HasPermission(models.RoleAdmin, PermCheckInStaff))
	assert.True(t, HasPermission(models.RoleAttendee, PermRegistrationOwn))
	assert.True(t, HasPermission(models.RoleAttendee, PermCheckInSelf))
	assert.False(t, HasPermission(models.RoleAttendee, PermCheckInStaff))
	assert.False(t, HasPermission(models.RoleAttendee, PermAdminUsers))
	assert.False(t, HasPermission(models.Role("organizer"), PermEventsBrowse))

	for _, role := range models.Roles() {
		assert.NotEmpty(t, Permissions(role), "every role needs a permission entry")
		assert.NotEqual(t, FallbackHomePath, HomePath(role), "every role needs a home path")
	}
}

func TestHomePath(t *testing.T) {
	assert.Equal(t, AdminHomePath, HomePath(models.RoleAdmin))
	assert.Equal(t, AttendeeHomePath, HomePath(models.RoleAttendee))
	assert.Equal(t, FallbackHomePath, HomePath(models.Role("")))
}

func TestCreatorOrAdminPolicy(t *testing.T) {
	ctx := context.Background()
	admin := &models.User{ID: 1, Active: true, Role: models.RoleAdmin}
	creator := &models.User{ID: 2, Active: true, Role: models.RoleAttendee}
	other := &models.User{ID: 3, Active: true, Role: models.RoleAttendee}
	inactiveAdmin := &models.User{ID: 4, Active: false, Role: models.RoleAdmin}
	event := &models.Event{ID: 10, CreatorID: creator.ID}

	p := NewCreatorOrAdminPolicy()

	assert.NoError(t, p.CanManageEvent(ctx, admin, event))
	assert.NoError(t, p.CanManageEvent(ctx, creator, event))
	assert.ErrorIs(t, p.CanManageEvent(ctx, other, event), apperror.ErrForbidden)
	assert.ErrorIs(t, p.CanManageEvent(ctx, nil, event), apperror.ErrUnauthenticated)
	assert.ErrorIs(t, p.CanManageEvent(ctx, &models.User{}, event), apperror.ErrUnauthenticated)
	assert.ErrorIs(t, p.CanManageEvent(ctx, inactiveAdmin, event), apperror.ErrUserInactive)
	assert.ErrorIs(t, p.CanManageEvent(ctx, admin, nil), apperror.ErrNotFound)

	t.Run("nil grant hook denies", func(t *testing.T) {
		assert.ErrorIs(t, (&CreatorOrAdminPolicy{}).CanManageEvent(ctx, other, event), apperror.ErrForbidden)
	})

	t.Run("grant hook", func(t *testing.T) {
		staff := &CreatorOrAdminPolicy{Grants: func(_ context.Context, u *models.User, _ *models.Event) (bool, error) {
			return u.ID == other.ID, nil
		}}
		assert.NoError(t, staff.CanManageEvent(ctx, other, event))

		broken := &CreatorOrAdminPolicy{Grants: func(context.Context, *models.User, *models.Event) (bool, error) {
			return false, errors.New("lookup failed")
		}}
		err := broken.CanManageEvent(ctx, other, event)
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, apperror.Status(err))
	})
}

func TestLocalProvider(t *testing.T) {
	db := dbtest.New(t)
	p := NewLocalProvider(db)

	user, err := p.CreateUser(NewUser{
		Name:     "Jane Doe",
		Email:    "  Jane@Example.com ",
		Password: "s3cret-pass",
		Active:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, models.RoleAttendee, user.Role)

	_, err = p.CreateUser(NewUser{Email: "jane@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = p.CreateUser(NewUser{Email: "bob@example.com", Password: "x", Role: "organizer"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	t.Run("authenticate", func(t *testing.T) {
		got, err := p.Authenticate("JANE@example.com", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		_, err = p.Authenticate("jane@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidPassword)

		_, err = p.Authenticate("nobody@example.com", "s3cret-pass")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("deactivated user", func(t *testing.T) {
		require.NoError(t, p.DeactivateUser(user.ID))

		// wrong password does not disclose the account state
		_, err := p.Authenticate("jane@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidPassword)

		got, err := p.Authenticate("jane@example.com", "s3cret-pass")
		assert.ErrorIs(t, err, ErrUserAccountDisabled)
		require.NotNil(t, got)
		assert.False(t, got.Active)

		require.NoError(t, p.ActivateUser(user.ID))
		_, err = p.Authenticate("jane@example.com", "s3cret-pass")
		assert.NoError(t, err)

		assert.ErrorIs(t, p.DeactivateUser(9999), ErrUserNotFound)
	})

	t.Run("passwords", func(t *testing.T) {
		assert.ErrorIs(t, p.ChangePassword(user.ID, "wrong", "new-pass"), ErrInvalidOldPassword)
		require.NoError(t, p.ChangePassword(user.ID, "s3cret-pass", "new-pass"))

		_, err := p.Authenticate("jane@example.com", "new-pass")
		require.NoError(t, err)

		require.NoError(t, p.ResetPassword(user.ID, "reset-pass"))
		_, err = p.Authenticate("jane@example.com", "reset-pass")
		assert.NoError(t, err)

		assert.ErrorIs(t, p.ResetPassword(9999, "reset-pass"), ErrUserNotFound)
	})

	t.Run("list", func(t *testing.T) {
		_, err := p.CreateUser(NewUser{Name: "Admin", Email: "admin@example.com", Password: "x", Role: models.RoleAdmin, Active: true})
		require.NoError(t, err)

		users, total, err := p.ListUsers(UserFilter{}, 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, users, 2)

		users, total, err = p.ListUsers(UserFilter{Role: models.RoleAdmin}, 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, "admin@example.com", users[0].Email)

		_, total, err = p.ListUsers(UserFilter{Search: "JANE"}, 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)

		_, total, err = p.ListUsers(UserFilter{Search: "%"}, 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)

		got, err := p.GetUserByEmail(" Admin@Example.com ")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, got.Role)

		_, err = p.GetUserByEmail("nobody@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = p.GetUserByID(9999)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestRequirePermission(t *testing.T) {
	attendee := &models.User{ID: 7, Active: true, Role: models.RoleAttendee}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-Test-User") != "" {
			c.Locals(LocalsUser, attendee)
		}

		return c.Next()
	})
	app.Get("/own", RequirePermission(PermRegistrationOwn), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/staff", RequirePermission(PermCheckInStaff), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Post("/api/staff", RequirePermission(PermCheckInStaff), func(c *fiber.Ctx) error { return c.SendString("ok") })

	tests := []struct {
		name     string
		method   string
		path     string
		loggedIn bool
		want     int
	}{
		{name: "anonymous page redirects", method: http.MethodGet, path: "/own", want: fiber.StatusFound},
		{name: "anonymous api is 401", method: http.MethodPost, path: "/api/staff", want: fiber.StatusUnauthorized},
		{name: "allowed", method: http.MethodGet, path: "/own", loggedIn: true, want: fiber.StatusOK},
		{name: "forbidden", method: http.MethodGet, path: "/staff", loggedIn: true, want: fiber.StatusForbidden},
		{name: "forbidden api", method: http.MethodPost, path: "/api/staff", loggedIn: true, want: fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.loggedIn {
				req.Header.Set("X-Test-User", "1")
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)

			if tt.want == fiber.StatusFound {
				assert.Equal(t, LoginPath, resp.Header.Get("Location"))
			}
		})
	}
}

func TestRequireEventManager(t *testing.T) {
	db := dbtest.New(t)
	creator := dbtest.CreateUser(t, db, "creator@example.com", models.RoleAttendee)
	other := dbtest.CreateUser(t, db, "other@example.com", models.RoleAttendee)

	event := &models.Event{Title: "Meetup", Slug: "meetup", CreatorID: creator.ID}
	require.NoError(t, db.Create(event).Error)

	users := map[string]*models.User{"creator": creator, "other": other}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if u, ok := users[c.Get("X-Test-User")]; ok {
			c.Locals(LocalsUser, u)
		}

		return c.Next()
	})
	app.Get("/events/:id/manage", RequireEventManager(db, NewCreatorOrAdminPolicy(), "id"), func(c *fiber.Ctx) error {
		e, ok := c.Locals(LocalsEvent).(*models.Event)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		return c.SendString(e.Slug)
	})

	do := func(user, id string) int {
		req := httptest.NewRequest(http.MethodGet, "/events/"+id+"/manage", nil)
		req.Header.Set("X-Test-User", user)

		resp, err := app.Test(req, -1)
		require.NoError(t, err)

		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, do("creator", "1"))
	assert.Equal(t, fiber.StatusForbidden, do("other", "1"))
	assert.Equal(t, fiber.StatusNotFound, do("creator", "999"))
	assert.Equal(t, fiber.StatusFound, do("", "1"))
}
