package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
)

const (
	// LocalsUser is the fiber.Locals key of the authenticated *models.User.
	LocalsUser = "CurrentUser"
	// LocalsUserID is the fiber.Locals key of the authenticated user id (uint64).
	LocalsUserID = "CurrentUserID"
	// LocalsEvent is the fiber.Locals key of the event loaded by RequireEventManager.
	LocalsEvent = "Event"

	// LoginPath is where unauthenticated page requests are sent.
	LoginPath = "/login"
)

// CurrentUser returns the user the session middleware stored in the context.
func CurrentUser(c *fiber.Ctx) *models.User {
	if u, ok := c.Locals(LocalsUser).(*models.User); ok && u != nil && u.ID > 0 {
		return u
	}

	return nil
}

// RequirePermission creates Fiber middleware that requires a specific permission.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return Deny(c, apperror.ErrUnauthenticated)
		}

		if !HasPermission(user.Role, permission) {
			log.Warn().Uint64("user_id", user.ID).Str("role", user.Role.String()).Str("permission", permission).
				Msg("User lacks required permission")

			return Deny(c, apperror.ErrForbidden)
		}

		// User has permission, proceed
		return c.Next()
	}
}

// RequireEventManager loads the event named by the route parameter param and
// checks it against policy. The event is stored in fiber.Locals under LocalsEvent.
func RequireEventManager(db *gorm.DB, policy EventPolicy, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return Deny(c, apperror.ErrUnauthenticated)
		}

		id, err := c.ParamsInt(param)
		if err != nil || id <= 0 {
			return Deny(c, apperror.ErrNotFound)
		}

		var event models.Event
		if err := db.WithContext(c.UserContext()).First(&event, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Deny(c, apperror.ErrNotFound)
			}

			log.Error().Err(err).Int("event_id", id).Msg("Failed to load event")

			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		}

		if err := policy.CanManageEvent(c.UserContext(), user, &event); err != nil {
			if apperror.Status(err) == fiber.StatusInternalServerError {
				log.Error().Err(err).Uint64("user_id", user.ID).Uint64("event_id", event.ID).
					Msg("Failed to check event permission")
			}

			return Deny(c, err)
		}

		c.Locals(LocalsEvent, &event)

		return c.Next()
	}
}

// Deny answers an authorization failure. Unauthenticated page requests are
// redirected to the login, API requests and all other errors get a status code.
func Deny(c *fiber.Ctx, err error) error {
	if errors.Is(err, apperror.ErrUnauthenticated) && !WantsJSON(c) {
		return c.Redirect(LoginPath)
	}

	if WantsJSON(c) {
		return c.Status(apperror.Status(err)).JSON(fiber.Map{"error": apperror.Message(err)})
	}

	status := apperror.Status(err)
	if status == fiber.StatusInternalServerError {
		return c.Status(status).SendString("Internal Server Error")
	}

	return c.Status(status).SendString(apperror.Message(err))
}

// WantsJSON reports whether the request is an API call.
func WantsJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/") ||
		c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}
