// Package stdlogger adapts the global zerolog logger for libraries that
// expect a leveled printf-style logger.
package stdlogger

import (
	"github.com/rs/zerolog/log"
)

// Adapter implements printf style leveled logging on top of zerolog.
type Adapter struct{}

// New returns a new Adapter.
func New() *Adapter {
	return &Adapter{}
}

// Debugf logs a debug message.
func (a *Adapter) Debugf(format string, args ...interface{}) {
	log.Debug().Msgf(format, args...)
}

// Infof logs an info message.
func (a *Adapter) Infof(format string, args ...interface{}) {
	log.Info().Msgf(format, args...)
}

// Warningf logs a warning message.
func (a *Adapter) Warningf(format string, args ...interface{}) {
	log.Warn().Msgf(format, args...)
}

// Errorf logs an error message.
func (a *Adapter) Errorf(format string, args ...interface{}) {
	log.Error().Msgf(format, args...)
}

// Printf logs at info level. Satisfies gorm's logger writer.
func (a *Adapter) Printf(format string, args ...interface{}) {
	log.Info().Msgf(format, args...)
}
