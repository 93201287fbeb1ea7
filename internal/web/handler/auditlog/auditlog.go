// Package auditlog exposes the audit trail: filtered paginated reads, the
// administrative clear, and the audit configuration switches. Operations on
// the trail itself are audit-exempt so the log never records its own
// administration.
package auditlog

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/qadesk-admin/qadesk-admin/internal/audit"
	"github.com/qadesk-admin/qadesk-admin/internal/config"
	"github.com/qadesk-admin/qadesk-admin/internal/rbac"
	"github.com/qadesk-admin/qadesk-admin/internal/web/handler"
)

const (
	// Path is the audit log endpoint.
	Path = handler.APIPath + "/audit-logs"

	// SettingsPath carries the audit switches.
	SettingsPath = Path + "/settings"

	// CacheClearPath invalidates the settings cache.
	CacheClearPath = Path + "/cache/clear"

	// StatusPath exposes and toggles the global switch.
	StatusPath = Path + "/status"
)

// Service is the audit log handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	db    *gorm.DB
	query *audit.QueryService
	cache *audit.Cache
}

// Handler is the audit log handler.
var Handler = Service{}

// Init initializes the audit log handler.
func (s *Service) Init(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	rbacService *rbac.Service,
	query *audit.QueryService,
	cache *audit.Cache,
) error {
	if app == nil || cfg == nil || db == nil || rbacService == nil || query == nil || cache == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.query = query
	s.cache = cache

	viewGate := rbac.RequireModule(rbacService, rbac.ModuleAuditLogs)

	app.Get(Path, viewGate, s.List)
	app.Delete(Path, rbac.RequireRoot(), s.Clear)
	app.Get(SettingsPath, viewGate, s.GetSettings)
	app.Put(SettingsPath, rbac.RequireRoot(), s.PutSettings)
	app.Post(CacheClearPath, rbac.RequireRoot(), s.ClearCache)
	app.Get(StatusPath, viewGate, s.Status)
	app.Post(StatusPath, rbac.RequireRoot(), s.SetStatus)

	return nil
}

// List returns one page of audit log entries, newest first.
func (s *Service) List(c *fiber.Ctx) error {
	filters := audit.Filters{
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", audit.DefaultPageSize),
		Module:    c.Query("module"),
		Action:    c.Query("action"),
		Username:  c.Query("username"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}

	result, err := s.query.Query(filters)
	if err != nil {
		if errors.Is(err, audit.ErrInvalidDate) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		log.Error().Err(err).Msg("failed to query audit logs")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to query audit logs"})
	}

	return c.JSON(result)
}

// Clear irreversibly deletes every audit log entry.
func (s *Service) Clear(c *fiber.Ctx) error {
	if err := s.query.ClearAll(); err != nil {
		log.Error().Err(err).Msg("failed to clear audit logs")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to clear audit logs"})
	}

	return c.JSON(fiber.Map{"message": "audit logs cleared"})
}

// GetSettings returns the current audit switches.
func (s *Service) GetSettings(c *fiber.Ctx) error {
	return c.JSON(s.cache.Get())
}

// PutSettings replaces the audit switches, write-through.
func (s *Service) PutSettings(c *fiber.Ctx) error {
	var in audit.Settings

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.cache.Update(in); err != nil {
		log.Error().Err(err).Msg("failed to update audit settings")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update audit settings"})
	}

	return c.JSON(s.cache.Get())
}

// ClearCache drops the cached settings so the next read hits storage.
func (s *Service) ClearCache(c *fiber.Ctx) error {
	s.cache.Invalidate()

	return c.JSON(fiber.Map{"message": "audit settings cache cleared"})
}

// Status reports the global switch.
func (s *Service) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"globalEnabled": s.cache.Get().GlobalEnabled})
}

type statusRequest struct {
	GlobalEnabled bool `json:"globalEnabled"`
}

// SetStatus flips the global switch, leaving the per-module map untouched.
func (s *Service) SetStatus(c *fiber.Ctx) error {
	var in statusRequest

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	settings := s.cache.Get()
	settings.GlobalEnabled = in.GlobalEnabled

	if err := s.cache.Update(settings); err != nil {
		log.Error().Err(err).Msg("failed to update audit status")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update audit status"})
	}

	return c.JSON(fiber.Map{"globalEnabled": settings.GlobalEnabled})
}
