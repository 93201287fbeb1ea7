package audit

import (
	"errors"
)

var (
	// ErrInvalidDate is returned when a date filter is not a calendar date.
	ErrInvalidDate = errors.New("invalid date filter, expected YYYY-MM-DD")
)
