package models

import (
	"encoding/json"
	"time"
)

// Entity is a business record belonging to one of the content modules
// (versions, builds, useful-docs, manuals, tests, changelog-manager).
// The payload is a free-form JSON blob owned by the client; the server only
// gates access per module and records the audit trail.
type Entity struct {
	// ID is the unique identifier for the entity.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Module is the navigation module the entity belongs to.
	Module string `gorm:"size:100;not null;index" json:"module"`
	// Title is the display name of the entity.
	Title string `gorm:"size:255;not null" json:"title"`
	// Payload is the client-owned JSON document.
	Payload json.RawMessage `gorm:"type:json" json:"payload"`
	// CreatedBy is the username of the creating actor.
	CreatedBy string `gorm:"size:100" json:"createdBy"`
	// CreatedAt is the timestamp when the entity was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the entity was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Entity model.
func (Entity) TableName() string {
	return "entities"
}
