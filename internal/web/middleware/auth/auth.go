// Package auth provides the session authentication middleware for the JSON API.
package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/qadesk-admin/qadesk-admin/internal/config"
	"github.com/qadesk-admin/qadesk-admin/internal/rbac"
	"github.com/qadesk-admin/qadesk-admin/internal/web/session"
)

// publicPaths are reachable without a session.
var publicPaths = []string{
	"/api/login",
	"/api/register",
	"/checkalive",
}

// IsPublic checks if the current request may pass without authentication.
func IsPublic(c *fiber.Ctx) bool {
	originalURL := strings.ToLower(c.OriginalURL())

	for _, p := range publicPaths {
		if originalURL == p || strings.HasPrefix(originalURL, p+"?") {
			return true
		}
	}

	return strings.HasPrefix(originalURL, "/static")
}

// Middleware creates a Fiber middleware that checks for user authentication.
//
// A session that has seen no request for the configured inactivity window is
// marked expired but kept in storage until its absolute TTL. The client gets
// a distinct error for that case so it can prompt for re-login without
// discarding its local state.
func Middleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IsPublic(c) {
			return c.Next()
		}

		sessionID := c.Cookies(session.CookieName)
		if sessionID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		sessData := new(session.Data)
		if err := sessData.Read(sessionID); err != nil || sessData.User.ID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		if sessData.Expired {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Session expired"})
		}

		if time.Since(sessData.LastActivity) > cfg.Webserver.Session.InactivityTimeout {
			sessData.Expired = true
			if err := sessData.Write(sessionID, cfg.Webserver.Session.ExpiryTime); err != nil {
				log.Error().Err(err).Msg("failed to mark session expired")
			}

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Session expired"})
		}

		sessData.LastActivity = time.Now()
		if err := sessData.Write(sessionID, cfg.Webserver.Session.ExpiryTime); err != nil {
			log.Error().Err(err).Msg("failed to refresh session activity")
		}

		c.Locals(rbac.CurrentUserKey, sessData.User)

		return c.Next()
	}
}
