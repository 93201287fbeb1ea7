// Package presence tracks which users are connected and whether they are
// actively using the client. State is ephemeral: it lives exactly as long as
// the WebSocket connection and is never persisted or audited.
package presence

import "time"

// Status is the activity state of a connected user.
type Status string

const (
	// StatusActive means a tracked client event arrived within the idle window.
	StatusActive Status = "active"
	// StatusInactive means the idle window elapsed without a tracked event.
	StatusInactive Status = "inactive"
)

// Session is the ephemeral per-connection presence record.
type Session struct {
	SocketID     string    `json:"socketId"`
	UserID       uint64    `json:"userId"`
	Username     string    `json:"username"`
	CurrentPath  string    `json:"currentPath"`
	LastActivity time.Time `json:"lastActivity"`
	Status       Status    `json:"status"`
}

// Touch records a tracked client event at now. It reports whether the status
// flipped from inactive back to active.
func (s *Session) Touch(now time.Time) bool {
	s.LastActivity = now

	if s.Status == StatusInactive {
		s.Status = StatusActive
		return true
	}

	return false
}

// MarkIdle flips the session to inactive. It reports whether the status
// actually changed.
func (s *Session) MarkIdle() bool {
	if s.Status == StatusActive {
		s.Status = StatusInactive
		return true
	}

	return false
}
