// Package logger provides a configured zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

// DefaultLevel keeps command output clean unless asked otherwise.
const DefaultLevel = zerolog.WarnLevel

// New returns a logger writing JSON lines to stderr. Call sites should
// use .Stack() on error events to include stacks.
func New(serviceName string, level zerolog.Level) zerolog.Logger {
	return NewTo(os.Stderr, serviceName, level)
}

// NewTo is New with an explicit destination.
func NewTo(w io.Writer, serviceName string, level zerolog.Level) zerolog.Logger {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}

	return zerolog.New(w).Level(level).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}

// ParseLevel accepts zerolog level names; the empty string means DefaultLevel.
func ParseLevel(value string) (zerolog.Level, error) {
	v := strings.TrimSpace(strings.ToLower(value))
	if v == "" {
		return DefaultLevel, nil
	}
	if v == "warning" {
		v = "warn"
	}
	level, err := zerolog.ParseLevel(v)
	if err != nil {
		return DefaultLevel, pkgerrors.Wrapf(err, "invalid log level %q", value)
	}
	return level, nil
}
