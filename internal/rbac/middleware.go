package rbac

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/qadesk-admin/qadesk-admin/internal/db/models"
)

// CurrentUserKey is the fiber.Locals key under which the authentication
// middleware stores the acting user.
const CurrentUserKey = "CurrentUser"

// CurrentUser returns the acting user set by the authentication middleware.
func CurrentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals(CurrentUserKey).(models.User)
	return user, ok
}

// RequireModule creates Fiber middleware that requires access to a module.
// The gate is re-checked server-side on every request: the client-side copy
// of the permission set is a UI hint, not a security boundary.
func RequireModule(service *Service, moduleID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		if !service.CanAccessModule(moduleID, user.Role) {
			log.Warn().Uint64("user_id", user.ID).Str("role", string(user.Role)).Str("module", moduleID).
				Msg("User lacks access to module")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}

		return c.Next()
	}
}

// RequireRoot creates Fiber middleware that only lets the root role through.
// Used for permission management, user administration and global audit
// configuration.
func RequireRoot() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		if !user.Role.IsRoot() {
			log.Warn().Uint64("user_id", user.ID).Str("role", string(user.Role)).
				Msg("Non-root user attempted a root-only operation")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}

		return c.Next()
	}
}
