// Package stdlogger adapts the global zerolog logger to the printf style
// logger interfaces expected by gorm and the amqp client.
package stdlogger

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger forwards printf style calls to zerolog.
type Logger struct {
	logger    zerolog.Logger
	component string
}

// New returns a Logger writing through the global zerolog logger.
// An optional component name is added to every line.
func New(component ...string) *Logger {
	l := &Logger{logger: log.Logger}

	if len(component) > 0 && component[0] != "" {
		l.component = component[0]
		l.logger = log.Logger.With().Str("component", l.component).Logger()
	}

	return l
}

// Printf logs at info level. Used by gorm's logger.Writer and amqp.Logging.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.logger.Info().Msgf(strings.TrimSpace(format), v...)
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.logger.Info().Msgf(format, v...)
}

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, v ...interface{}) {
	l.logger.Warn().Msgf(format, v...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}
