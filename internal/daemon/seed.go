package daemon

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/qadesk-admin/qadesk-admin/internal/audit"
	"github.com/qadesk-admin/qadesk-admin/internal/config"
	"github.com/qadesk-admin/qadesk-admin/internal/db/controller/setting"
	"github.com/qadesk-admin/qadesk-admin/internal/db/models"
	"github.com/qadesk-admin/qadesk-admin/internal/rbac"
)

// defaultRootPassword is used when no seed password is configured. Rotate it
// after the first login.
const defaultRootPassword = "changeme"

// seed creates the root account, the default module permissions and the audit
// switches on first run. Every step is idempotent: existing rows win.
func seed(cfg *config.Config, db *gorm.DB) {
	seedRootUser(cfg, db)
	seedPermissions(db)
	seedAuditSettings(db)
}

func seedRootUser(cfg *config.Config, db *gorm.DB) {
	var count int64

	db.Model(&models.User{}).Where("username = ?", models.RootUsername).Count(&count)
	if count > 0 {
		return
	}

	password := cfg.Seed.RootPassword
	if password == "" {
		password = defaultRootPassword
		log.Warn().Msg("seeding root account with the default password, change it after first login")
	}

	err := db.Create(
		&models.User{
			Active:   true,
			Username: models.RootUsername,
			Password: models.HashPassword(password),
			Role:     models.RoleRoot,
		},
	).Error
	if err != nil {
		log.Error().Err(err).Msg("failed to seed root account")
	}
}

func seedPermissions(db *gorm.DB) {
	var count int64

	db.Model(&models.ModulePermission{}).Count(&count)
	if count > 0 {
		return
	}

	for _, p := range rbac.DefaultPermissions() {
		record := p
		if err := db.Create(&record).Error; err != nil {
			log.Error().Err(err).Str("module", p.ModuleID).Msg("failed to seed module permission")
		}
	}
}

func seedAuditSettings(db *gorm.DB) {
	// only seed when nothing is persisted yet, a disabled switch is a
	// deliberate administrative choice
	_, err := setting.Get(db, audit.SettingGlobalEnabled)
	if !errors.Is(err, setting.ErrSettingNotFound) {
		return
	}

	cache := audit.NewCache(db)
	if err := cache.Update(audit.Settings{GlobalEnabled: true}); err != nil {
		log.Error().Err(err).Msg("failed to seed audit settings")
	}
}
