// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Output formats accepted by Init.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Keys used on per-request log events.
const (
	CorrelationIDKey = "correlation_id"
	MethodKey        = "method"
	PathKey          = "path"
)

// Init sets the global logger, writing to stdout.
func Init(level, format string) error {
	return InitWriter(os.Stdout, level, format)
}

// InitWriter sets the global logger, writing to out. Level is any level
// zerolog.ParseLevel accepts; an empty level means info.
func InitWriter(out io.Writer, level, format string) error {
	logLevel, err := ParseLevel(level)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
	case FormatConsole, "":
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	default:
		return errors.Errorf("unknown log format %q", format)
	}

	log.Logger = zerolog.New(out).
		With().
		Timestamp().
		Logger().
		Level(logLevel)
	return nil
}

// ParseLevel parses a log level name. An empty name means info.
func ParseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}

	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, errors.Wrapf(err, "invalid log level %q", level)
	}
	return logLevel, nil
}
