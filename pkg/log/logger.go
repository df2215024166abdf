package log

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	transportErrors "github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
)

// SetupLogger configures process-wide logging for the binaries: a zerolog
// provider writing JSON to stderr, returned by GetLogger/GetLoggerWithName.
// Warnings raised through pkg/errors are routed into the same provider.
func SetupLogger(loglevel string) error {
	return SetupLoggerTo(os.Stderr, loglevel)
}

// SetupLoggerTo is SetupLogger with an explicit destination.
func SetupLoggerTo(w io.Writer, loglevel string) error {
	level, err := ParseLevel(loglevel)
	if err != nil {
		return err
	}

	provider := NewZerologProviderTo(w, level)
	SetGlobalLoggerProvider(provider)
	warnLogger := provider.GetLoggerWithName("warnings")
	transportErrors.SetZerologWarnFunc(func(w error) {
		warnLogger.Warn(w.Error(), "warning", w)
	})
	return nil
}

// ParseLevel converts a config string ("debug", "info", "warn", "error").
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.Newf("invalid log level: %q", level)
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)
