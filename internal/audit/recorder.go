package audit

import (
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/qadesk-admin/qadesk-admin/internal/db/models"
)

// Descriptor describes one mutating action to be recorded.
type Descriptor struct {
	// ActorID is the acting user's id, nil for anonymous actions.
	ActorID *uint64
	// ActorUsername is recorded denormalized so entries outlive the user.
	ActorUsername string
	// Action is the closed action tag.
	Action Action
	// Module is the closed module tag the switches are keyed by.
	Module Module
	// ResourceID identifies the affected resource.
	ResourceID string
	// Details carries free-form context.
	Details string
	// IPAddress is the remote address the action originated from.
	IPAddress string
	// Exempt marks self-referential administrative actions (clear-all-logs,
	// cache-clear) that must never produce an entry. An explicit flag, not a
	// naming convention, so new administrative actions can not recurse by
	// accident.
	Exempt bool
}

// Recorder appends audit log rows for mutating actions, subject to the
// cached settings. Recording is best effort: a write failure must never fail
// the business mutation that triggered it.
type Recorder struct {
	db    *gorm.DB
	cache *Cache
}

// NewRecorder creates a new Recorder using cache for the switch decisions.
func NewRecorder(db *gorm.DB, cache *Cache) *Recorder {
	return &Recorder{db: db, cache: cache}
}

// Record conditionally appends an audit entry for d. It runs synchronously
// in the request path: a slow audit store adds latency to the triggering
// request, which this design accepts in exchange for bounded loss.
func (r *Recorder) Record(d Descriptor) {
	if d.Exempt {
		return
	}

	settings := r.cache.Get()
	if !settings.ModuleEnabled(d.Module) {
		return
	}

	entry := models.AuditLog{
		UserID:     d.ActorID,
		Username:   d.ActorUsername,
		Action:     string(d.Action),
		Module:     string(d.Module),
		ResourceID: d.ResourceID,
		Details:    d.Details,
		Timestamp:  time.Now(),
		IPAddress:  d.IPAddress,
	}

	if err := r.db.Create(&entry).Error; err != nil {
		// swallowed on purpose: audit is observability, not a transactional
		// participant of the business mutation
		log.Error().Err(err).
			Str("action", string(d.Action)).
			Str("module", string(d.Module)).
			Str("username", d.ActorUsername).
			Msg("failed to write audit log entry")
	}
}
