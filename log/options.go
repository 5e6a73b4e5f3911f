package log

import (
	"context"
	"log/slog"
	"time"
)

const (
	logDirMode  = 0700
	logFileMode = 0600

	// OriginKey tags a sub-logger with the component that created it.
	OriginKey = "origin"
)

type contextKey int

// ContextLogKey is the context key under which a *Logger is stashed by
// CreateContextWithLogger.
const ContextLogKey contextKey = 0

// LogFormat selects the slog handler used to render log lines.
type LogFormat int

const (
	LogFormat_Json LogFormat = iota
	LogFormat_Logfmt
)

// LoggerOptions configures a new Logger: the slog handler options plus the
// lumberjack rotation policy.
type LoggerOptions struct {
	Format LogFormat
	Level  slog.Leveler

	AddSource         bool
	EnableHttpTracing bool

	// lumberjack rotation policy
	MaxSize    int
	MaxBackups int
	MaxAge     int
	LocalTime  bool
	Compress   bool
}

// DefaultLoggerOptions is a sensible starting point: logfmt output at info
// level, rotation at 100 MB keeping 3 compressed backups for up to 28 days,
// no source locations.
func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{
		Format:     LogFormat_Logfmt,
		Level:      slog.LevelInfo,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		LocalTime:  true,
		Compress:   true,
	}
}

// Err renders an error as a slog attribute, or omits it entirely when nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// ReplaceTime formats the timestamp attribute as RFC3339 instead of slog's
// default encoding, matching the rest of this service's log lines.
func ReplaceTime(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 {
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.Format(time.RFC3339))
		}
	}
	return a
}

// FromContextOrDefault retrieves the logger stashed by
// CreateContextWithLogger, falling back to a default terminal logger if none
// was stored.
func FromContextOrDefault(ctx context.Context) *Logger {
	if l, ok := FromContext(ctx); ok {
		return l
	}
	return NewDefaultLogger()
}
