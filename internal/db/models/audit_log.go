package models

import "time"

// AuditLog is one immutable record of a mutating action. Rows are only ever
// appended; the single destructive operation is the administrative
// clear-all, which never writes a row about itself.
type AuditLog struct {
	// ID is the auto-increment identifier for the entry.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// UserID is the acting user's id, nil for anonymous actions such as
	// failed registrations.
	UserID *uint64 `gorm:"index" json:"userId"`
	// Username is denormalized so entries survive user deletion.
	Username string `gorm:"size:100;not null" json:"username"`
	// Action is the closed action tag (CREATE, UPDATE, LOGIN, ...).
	Action string `gorm:"size:50;not null;index" json:"action"`
	// Module is the closed module tag the action belongs to.
	Module string `gorm:"size:50;not null;index" json:"module"`
	// ResourceID identifies the affected resource within the module.
	ResourceID string `gorm:"size:100" json:"resourceId"`
	// Details carries free-form context for the entry.
	Details string `gorm:"size:1024" json:"details"`
	// Timestamp is the server time the action was recorded.
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	// IPAddress is the remote address the action originated from.
	IPAddress string `gorm:"size:64" json:"ipAddress"`
}

// TableName specifies the database table name for the AuditLog model.
func (AuditLog) TableName() string {
	return "audit_logs"
}
