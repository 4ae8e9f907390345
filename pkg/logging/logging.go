// Package logging provides structured logging for nodeatlas using zerolog.
// Console output is used when stderr is a terminal, structured JSON
// otherwise. The level is controlled via LOG_LEVEL or DEBUG.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("source", "npm").Int("records", n).Msg("scrape complete")
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger zerolog.Logger

	// Nop discards all output.
	Nop = zerolog.Nop()
)

func init() {
	defaultLogger = createDefaultLogger()
}

func createDefaultLogger() zerolog.Logger {
	var writer io.Writer = os.Stderr

	if isTerminal() && os.Getenv("LOG_FORMAT") != "json" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	level := levelFromEnv()
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()

	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}

	return logger
}

// Default returns the default global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault sets the default global logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// New creates a new logger writing to w.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(zerolog.GlobalLevel()).
		With().
		Timestamp().
		Logger()
}

// NewConsole creates a new console logger for human-readable output.
func NewConsole() zerolog.Logger {
	return New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    os.Getenv("NO_COLOR") != "",
	})
}

// Debug starts a new debug level log event on the default logger.
func Debug() *zerolog.Event {
	return defaultLogger.Debug()
}

// Info starts a new info level log event on the default logger.
func Info() *zerolog.Event {
	return defaultLogger.Info()
}

// Warn starts a new warning level log event on the default logger.
func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

// Error starts a new error level log event on the default logger.
func Error() *zerolog.Event {
	return defaultLogger.Error()
}

// Err creates a new error log event with the given error.
func Err(err error) *zerolog.Event {
	return defaultLogger.Err(err)
}

func isTerminal() bool {
	if fileInfo, _ := os.Stderr.Stat(); (fileInfo.Mode() & os.ModeCharDevice) != 0 {
		return true
	}
	return false
}

func levelFromEnv() zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if os.Getenv("DEBUG") != "" {
			return zerolog.DebugLevel
		}
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
