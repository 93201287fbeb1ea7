package rbac

import (
	"errors"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")

	// ErrUnknownModule is returned when a permission entry names a module
	// outside the catalog.
	ErrUnknownModule = errors.New("unknown module id")

	// ErrUnknownRole is returned when a permission entry contains a role
	// outside the closed role set.
	ErrUnknownRole = errors.New("unknown role")

	// ErrDuplicateModule is returned when a permission set names the same
	// module twice.
	ErrDuplicateModule = errors.New("duplicate module id in permission set")
)
