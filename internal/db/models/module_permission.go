package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RoleList is a set of roles stored as a JSON array column.
type RoleList []Role

// Value implements driver.Valuer for RoleList.
func (l RoleList) Value() (driver.Value, error) {
	out, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal role list: %w", err)
	}

	return string(out), nil
}

// Scan implements sql.Scanner for RoleList.
func (l *RoleList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var raw []byte

	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported role list column type %T", value)
	}

	if err := json.Unmarshal(raw, l); err != nil {
		return fmt.Errorf("failed to unmarshal role list: %w", err)
	}

	return nil
}

// Contains reports whether role is part of the list.
func (l RoleList) Contains(role Role) bool {
	for _, r := range l {
		if r == role {
			return true
		}
	}

	return false
}

// ModulePermission holds, per navigation module, the set of roles allowed to
// access it. Exactly one record exists per known module; modules are a fixed
// catalog and records are never deleted.
type ModulePermission struct {
	// ID is the unique identifier for the record.
	ID uint64 `gorm:"primaryKey" json:"-"`
	// ModuleID is the navigation module this record gates.
	ModuleID string `gorm:"unique;size:100;not null" json:"moduleId"`
	// AllowedRoles is the set of roles allowed to access the module.
	AllowedRoles RoleList `gorm:"type:json" json:"allowedRoles"`
	// CreatedAt is the timestamp when the record was created (managed by GORM).
	CreatedAt time.Time `json:"-"`
	// UpdatedAt is the timestamp when the record was last updated (managed by GORM).
	UpdatedAt time.Time `json:"-"`
}

// TableName specifies the database table name for the ModulePermission model.
func (ModulePermission) TableName() string {
	return "module_permissions"
}
