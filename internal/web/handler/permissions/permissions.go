// Package permissions exposes the module permission set over REST. Reads are
// open to any authenticated user so the client can filter its navigation;
// writes are root-only and replace the whole set.
package permissions

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/qadesk-admin/qadesk-admin/internal/config"
	"github.com/qadesk-admin/qadesk-admin/internal/db/models"
	"github.com/qadesk-admin/qadesk-admin/internal/rbac"
	"github.com/qadesk-admin/qadesk-admin/internal/web/handler"
)

// Path is the permissions endpoint.
const Path = handler.APIPath + "/permissions"

// Service is the permissions handler service.
type Service struct {
	handler.Service
	cfg  *config.Config
	db   *gorm.DB
	rbac *rbac.Service
}

// Handler is the permissions handler.
var Handler = Service{}

// Init initializes the permissions handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, rbacService *rbac.Service) error {
	if app == nil || cfg == nil || db == nil || rbacService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.rbac = rbacService

	app.Get(Path, s.Get)
	app.Put(Path, rbac.RequireRoot(), s.Put)

	return nil
}

// Get returns the full permission set, defaults merged in.
func (s *Service) Get(c *fiber.Ctx) error {
	perms, err := s.rbac.GetPermissions()
	if err != nil {
		log.Error().Err(err).Msg("failed to load permissions")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load permissions"})
	}

	return c.JSON(fiber.Map{"permissions": perms})
}

type putRequest struct {
	Permissions []models.ModulePermission `json:"permissions"`
}

// Put replaces the stored permission set wholesale. Validation failures
// reject the whole call with nothing applied.
func (s *Service) Put(c *fiber.Ctx) error {
	var in putRequest

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.rbac.SavePermissions(in.Permissions); err != nil {
		switch {
		case errors.Is(err, rbac.ErrUnknownModule),
			errors.Is(err, rbac.ErrUnknownRole),
			errors.Is(err, rbac.ErrDuplicateModule):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			log.Error().Err(err).Msg("failed to save permissions")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save permissions"})
		}
	}

	perms, err := s.rbac.GetPermissions()
	if err != nil {
		log.Error().Err(err).Msg("failed to reload permissions after save")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load permissions"})
	}

	return c.JSON(fiber.Map{"permissions": perms})
}
