// Package entity provides one generic CRUD handler mounted once per content
// module. Every route re-checks the permission gate server-side and every
// mutation goes through the audit recorder with the module's tag.
package entity

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/qadesk-admin/qadesk-admin/internal/audit"
	"github.com/qadesk-admin/qadesk-admin/internal/config"
	"github.com/qadesk-admin/qadesk-admin/internal/db/models"
	"github.com/qadesk-admin/qadesk-admin/internal/rbac"
	"github.com/qadesk-admin/qadesk-admin/internal/web/handler"
)

// auditTags maps each content module to its audit configuration tag.
var auditTags = map[string]audit.Module{
	rbac.ModuleVersions:   audit.ModuleVersions,
	rbac.ModuleBuilds:     audit.ModuleBuilds,
	rbac.ModuleUsefulDocs: audit.ModuleUsefulDocs,
	rbac.ModuleManuals:    audit.ModuleManuals,
	rbac.ModuleTests:      audit.ModuleTestPlans,
	rbac.ModuleChangelog:  audit.ModuleChangelog,
}

// ContentModules lists the modules this handler serves, in mount order.
var ContentModules = []string{
	rbac.ModuleVersions,
	rbac.ModuleBuilds,
	rbac.ModuleUsefulDocs,
	rbac.ModuleManuals,
	rbac.ModuleTests,
	rbac.ModuleChangelog,
}

// Service is a CRUD handler bound to a single content module.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	recorder  *audit.Recorder
	validator *validator.Validate

	moduleID string
	auditTag audit.Module
}

// Init mounts one Service per content module.
func Init(app *fiber.App, cfg *config.Config, db *gorm.DB, rbacService *rbac.Service, recorder *audit.Recorder) error {
	if app == nil || cfg == nil || db == nil || rbacService == nil || recorder == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	for _, moduleID := range ContentModules {
		s := &Service{
			cfg:       cfg,
			db:        db,
			recorder:  recorder,
			validator: validator.New(),
			moduleID:  moduleID,
			auditTag:  auditTags[moduleID],
		}

		gate := rbac.RequireModule(rbacService, moduleID)
		base := handler.APIPath + "/" + moduleID

		app.Get(base, gate, s.List)
		app.Get(base+"/:id", gate, s.Get)
		app.Post(base, gate, s.Create)
		app.Put(base+"/:id", gate, s.Update)
		app.Delete(base+"/:id", gate, s.Delete)
		app.Post(base+"/:id/duplicate", gate, s.Duplicate)
	}

	return nil
}

// List returns every entity of the module, newest first.
func (s *Service) List(c *fiber.Ctx) error {
	var entities []models.Entity

	err := s.db.Where("module = ?", s.moduleID).Order("id DESC").Find(&entities).Error
	if err != nil {
		log.Error().Err(err).Str("module", s.moduleID).Msg("failed to list entities")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load entries"})
	}

	return c.JSON(fiber.Map{"entries": entities})
}

// Get returns a single entity.
func (s *Service) Get(c *fiber.Ctx) error {
	entity, ok := s.loadTarget(c)
	if !ok {
		return nil
	}

	return c.JSON(fiber.Map{"entry": entity})
}

type entityRequest struct {
	Title   string          `json:"title" validate:"required,max=255"`
	Payload json.RawMessage `json:"payload"`
}

// Create stores a new entity and records the mutation.
func (s *Service) Create(c *fiber.Ctx) error {
	var in entityRequest

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required"})
	}

	current, _ := rbac.CurrentUser(c)

	entity := models.Entity{
		Module:    s.moduleID,
		Title:     in.Title,
		Payload:   in.Payload,
		CreatedBy: current.Username,
	}

	if err := s.db.Create(&entity).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create entry"})
	}

	s.audit(c, audit.ActionCreate, entity)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entry": entity})
}

// Update replaces an entity's title and payload and records the mutation.
func (s *Service) Update(c *fiber.Ctx) error {
	entity, ok := s.loadTarget(c)
	if !ok {
		return nil
	}

	var in entityRequest

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required"})
	}

	entity.Title = in.Title
	entity.Payload = in.Payload

	if err := s.db.Save(&entity).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update entry"})
	}

	s.audit(c, audit.ActionUpdate, entity)

	return c.JSON(fiber.Map{"entry": entity})
}

// Delete removes an entity and records the mutation.
func (s *Service) Delete(c *fiber.Ctx) error {
	entity, ok := s.loadTarget(c)
	if !ok {
		return nil
	}

	if err := s.db.Delete(&models.Entity{}, entity.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete entry"})
	}

	s.audit(c, audit.ActionDelete, entity)

	return c.JSON(fiber.Map{"message": "entry deleted"})
}

// Duplicate copies an entity within the same module and records the mutation.
func (s *Service) Duplicate(c *fiber.Ctx) error {
	entity, ok := s.loadTarget(c)
	if !ok {
		return nil
	}

	current, _ := rbac.CurrentUser(c)

	copied := models.Entity{
		Module:    entity.Module,
		Title:     entity.Title + " (copy)",
		Payload:   entity.Payload,
		CreatedBy: current.Username,
	}

	if err := s.db.Create(&copied).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to duplicate entry"})
	}

	s.audit(c, audit.ActionDuplicate, copied)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entry": copied})
}

// loadTarget resolves the :id route parameter within the module. On failure
// it writes the response itself and reports ok false.
func (s *Service) loadTarget(c *fiber.Ctx) (models.Entity, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid entry id"})
		return models.Entity{}, false
	}

	var entity models.Entity
	if err := s.db.Where("module = ?", s.moduleID).First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Entry not found"})
			return models.Entity{}, false
		}

		log.Error().Err(err).Str("module", s.moduleID).Msg("failed to load entity")
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load entry"})

		return models.Entity{}, false
	}

	return entity, true
}

func (s *Service) audit(c *fiber.Ctx, action audit.Action, entity models.Entity) {
	current, _ := rbac.CurrentUser(c)

	s.recorder.Record(audit.Descriptor{
		ActorID:       &current.ID,
		ActorUsername: current.Username,
		Action:        action,
		Module:        s.auditTag,
		ResourceID:    strconv.FormatUint(entity.ID, 10),
		Details:       entity.Title,
		IPAddress:     c.IP(),
	})
}
