// Package log provides the structured logging interface used by every stage of
// the pipeline and by the serving front end.
//
// The interface is slog-compatible so that a zerolog backend (the default, see
// NewZerologProvider), a slog handler, or the in-memory TestLogger can be swapped
// without touching call sites.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("pipeline.train").With(
//	    log.ModelNameKey, "RandomForestRegressor",
//	)
//	logger.Info("model fitted",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 584,
//	    log.FeaturesKey, 11,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. The With method returns a child
// logger with the given fields pre-populated.
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	//
	// Example:
	//   logger.Info("metrics written",
	//       log.RMSEKey, 612.4,
	//       log.R2ScoreKey, 0.88,
	//   )
	Info(msg string, fields ...any)

	// Warn logs conditions that are unexpected but not fatal, for example a
	// serving request naming a field that is not in the schema.
	Warn(msg string, fields ...any)

	// Error logs an error condition. If the first field is an error value it
	// is attached under the "error" key together with its stack trace.
	//
	// Example:
	//   logger.Error("stage failed",
	//       err,
	//       log.StageKey, "train",
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates loggers. It is the seam that lets tests and binaries
// choose the backend.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
