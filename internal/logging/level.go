package logging

import (
	"context"
	"log/slog"
)

// LevelTrace is more verbose than Debug. It is used for per-probe and
// per-signal detail during port allocation and process shutdown.
const LevelTrace = slog.LevelDebug - 4

// LevelFromVerbosity maps the count of -v flags to a log level.
//
//	0 (or negative) -> Warn
//	1               -> Info
//	2               -> Debug
//	3+              -> Trace
func LevelFromVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelWarn
	case v == 1:
		return slog.LevelInfo
	case v == 2:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// LevelName is slog's level name, except that LevelTrace reads TRACE.
func LevelName(l slog.Level) string {
	if l <= LevelTrace {
		return "TRACE"
	}
	return l.String()
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default() if none.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}
