package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/qadesk-admin/qadesk-admin/internal/db/controller/setting"
)

// Storage keys for the audit switches in the settings table.
const (
	// SettingGlobalEnabled holds "true" or "false" for the global switch.
	SettingGlobalEnabled = "audit_global_enabled"
	// SettingConfig holds the JSON-encoded per-module map.
	SettingConfig = "audit_config"
)

// Settings are the audit switches: one global flag and a per-module map.
// A module tag absent from PerModule means enabled (default-allow).
type Settings struct {
	GlobalEnabled bool            `json:"globalEnabled"`
	PerModule     map[Module]bool `json:"perModuleEnabled"`
}

// ModuleEnabled reports whether actions tagged with module should be
// recorded under these settings.
func (s Settings) ModuleEnabled(module Module) bool {
	if !s.GlobalEnabled {
		return false
	}

	if enabled, ok := s.PerModule[module]; ok {
		return enabled
	}

	return true
}

// Cache holds the audit settings in memory so the recorder does not hit the
// database on every mutating request. It is an injected component, not a
// package global: tests construct isolated instances and the invalidation
// scope is exactly one process.
type Cache struct {
	db *gorm.DB

	mu       sync.RWMutex
	loaded   bool
	settings Settings
}

// NewCache creates a new settings cache backed by the settings table.
func NewCache(db *gorm.DB) *Cache {
	return &Cache{db: db}
}

// Get returns the cached settings, loading from storage on first use or
// after Invalidate. When the settings can not be determined the returned
// value has GlobalEnabled false: never audit when unsure, and never block
// the business operation because audit is unavailable.
func (c *Cache) Get() Settings {
	c.mu.RLock()
	if c.loaded {
		defer c.mu.RUnlock()
		return c.settings
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.settings
	}

	loaded, err := c.load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load audit settings, auditing disabled until the store recovers")
		return Settings{GlobalEnabled: false}
	}

	c.settings = loaded
	c.loaded = true

	return c.settings
}

// Update persists the settings and then replaces the cached value, so
// readers never observe a state where store and cache disagree after a
// successful call. Concurrent updates are last-write-wins at the storage
// layer.
func (c *Cache) Update(s Settings) error {
	if s.PerModule == nil {
		s.PerModule = map[Module]bool{}
	}

	configJSON, err := json.Marshal(s.PerModule)
	if err != nil {
		return fmt.Errorf("failed to encode audit config: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err = setting.Set(c.db, SettingGlobalEnabled, []byte(strconv.FormatBool(s.GlobalEnabled))); err != nil {
		return fmt.Errorf("failed to persist audit global switch: %w", err)
	}

	if _, err = setting.Set(c.db, SettingConfig, configJSON); err != nil {
		return fmt.Errorf("failed to persist audit config: %w", err)
	}

	c.settings = s
	c.loaded = true

	return nil
}

// Invalidate drops the cached value so the next Get re-reads from storage.
// Settings edited directly at the storage layer (operational recovery)
// become visible without a process restart.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loaded = false
	c.settings = Settings{}
}

// load reads both switch keys. Missing keys fall back to the defaults:
// auditing enabled, no per-module overrides.
func (c *Cache) load() (Settings, error) {
	out := Settings{GlobalEnabled: true, PerModule: map[Module]bool{}}

	row, err := setting.Get(c.db, SettingGlobalEnabled)
	switch {
	case err == nil:
		enabled, parseErr := strconv.ParseBool(string(row.Value))
		if parseErr != nil {
			return Settings{}, fmt.Errorf("invalid audit global switch value %q: %w", row.Value, parseErr)
		}

		out.GlobalEnabled = enabled
	case errors.Is(err, setting.ErrSettingNotFound):
		// nothing persisted yet, default enabled
	default:
		return Settings{}, err
	}

	row, err = setting.Get(c.db, SettingConfig)
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(row.Value, &out.PerModule); jsonErr != nil {
			return Settings{}, fmt.Errorf("invalid audit config value: %w", jsonErr)
		}
	case errors.Is(err, setting.ErrSettingNotFound):
		// nothing persisted yet, default allow
	default:
		return Settings{}, err
	}

	return out, nil
}
