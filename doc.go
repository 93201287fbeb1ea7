// Package main provides the entry point for the QADesk-Admin backend.
// It initializes and runs a web server using the Fiber framework that exposes
// a JSON REST API for the QA-process management client: role-based module
// permissions, an audit-log trail over every mutating action, user
// administration, business entity CRUD and a WebSocket presence channel.
// The application uses gorm for data persistence.
package main
