package config

import (
	"time"

	"github.com/qadesk-admin/qadesk-admin/internal/logger"
)

// Session settings.
type Session struct {
	// ExpiryTime is the absolute lifetime of a session entry in storage.
	ExpiryTime time.Duration
	// InactivityTimeout marks a session expired after this much time without
	// a tracked request. Re-authentication with the same credentials resumes
	// without losing client-side state.
	InactivityTimeout time.Duration
	// PresenceIdleTimeout flips a connected client to inactive on the
	// presence channel. Independent of InactivityTimeout.
	PresenceIdleTimeout time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Seed      Seed
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath           bool    // use clean path middleware to allow multi slash requests
	DisableRecover      bool    // disable recover middleware
	Domain              string  // domain name for the webserver
	Port                int     // listening port for the webserver
	ShutDownTime        int     // wait time for shutdown
	URL                 string  // base url for the webserver
	CookieEncryptionKey string  // encryption key for cookies
	Session             Session // session settings
}

// Seed holds first-run seeding settings.
type Seed struct {
	RootPassword string // initial password for the root account, "changeme" if empty
}
