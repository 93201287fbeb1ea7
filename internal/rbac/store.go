// Package rbac implements the module permission store and gate.
//
// Every navigation module carries a set of roles allowed to access it. The
// gate decision is pure membership testing with two special cases: the root
// role always passes and unknown modules always fail. The same decision gates
// client navigation and, via the middleware in this package, every mutating
// endpoint server-side.
package rbac

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/qadesk-admin/qadesk-admin/internal/db/models"
)

// Service provides module permission storage and access decisions.
type Service struct {
	db *gorm.DB
}

// NewService creates a new rbac service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetPermissions returns one record per catalog module. Modules missing from
// storage get their built-in default, so the result always covers the full
// catalog regardless of what has been persisted.
func (s *Service) GetPermissions() ([]models.ModulePermission, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	var stored []models.ModulePermission
	if err := s.db.Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to load module permissions: %w", err)
	}

	storedByModule := make(map[string]models.ModulePermission, len(stored))
	for _, p := range stored {
		storedByModule[p.ModuleID] = p
	}

	defaults := DefaultPermissions()
	defaultByModule := make(map[string]models.ModulePermission, len(defaults))
	for _, p := range defaults {
		defaultByModule[p.ModuleID] = p
	}

	out := make([]models.ModulePermission, 0, len(ModuleCatalog))
	for _, moduleID := range ModuleCatalog {
		if p, ok := storedByModule[moduleID]; ok {
			out = append(out, p)
			continue
		}

		out = append(out, defaultByModule[moduleID])
	}

	return out, nil
}

// SavePermissions replaces the stored permission set wholesale. There are no
// partial patch semantics: callers submit the full set after mutating one
// entry. Unknown modules, unknown roles and duplicates reject the whole call
// with nothing applied.
func (s *Service) SavePermissions(perms []models.ModulePermission) error {
	if s.db == nil {
		return ErrDBNil
	}

	seen := make(map[string]bool, len(perms))

	for _, p := range perms {
		if !KnownModule(p.ModuleID) {
			return fmt.Errorf("%w: %q", ErrUnknownModule, p.ModuleID)
		}

		if seen[p.ModuleID] {
			return fmt.Errorf("%w: %q", ErrDuplicateModule, p.ModuleID)
		}

		seen[p.ModuleID] = true

		for _, r := range p.AllowedRoles {
			if !r.Valid() {
				return fmt.Errorf("%w: %q", ErrUnknownRole, r)
			}
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ModulePermission{}).Error; err != nil {
			return fmt.Errorf("failed to clear module permissions: %w", err)
		}

		for _, p := range perms {
			record := models.ModulePermission{
				ModuleID:     p.ModuleID,
				AllowedRoles: p.AllowedRoles,
			}

			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to store permission for %q: %w", p.ModuleID, err)
			}
		}

		return nil
	})
}

// CanAccessModule decides whether role may access moduleID. Root passes
// unconditionally, unknown modules are denied, and a storage failure denies
// access rather than granting it.
func (s *Service) CanAccessModule(moduleID string, role models.Role) bool {
	if role.IsRoot() {
		return true
	}

	if !KnownModule(moduleID) {
		return false
	}

	if s.db == nil {
		return false
	}

	var record models.ModulePermission

	err := s.db.Where("module_id = ?", moduleID).First(&record).Error
	switch {
	case err == nil:
		return record.AllowedRoles.Contains(role)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// nothing persisted for this module yet, fall back to the default
		for _, p := range DefaultPermissions() {
			if p.ModuleID == moduleID {
				return p.AllowedRoles.Contains(role)
			}
		}

		return false
	default:
		// fail closed on storage trouble
		log.Error().Err(err).Str("module", moduleID).Msg("permission lookup failed, denying access")
		return false
	}
}
