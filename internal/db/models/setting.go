package models

// Setting represents a configuration setting stored in the database.
// The audit switches (global flag and per-module map) live here.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique"`
	Value []byte `gorm:"type:blob"`
}
