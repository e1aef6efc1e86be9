package logging

import (
	"fmt"
	"log/slog"

	"github.com/Cognitive-Stack/mcphub/internal/redact"
)

// RedactAttr is a slog.HandlerOptions.ReplaceAttr function that masks
// secrets. Env maps and argv slices are masked entry by entry; scalar values
// are masked when their key looks secret or the value carries a token prefix.
// It also names LevelTrace.
func RedactAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.LevelKey {
		if l, ok := a.Value.Any().(slog.Level); ok {
			return slog.String(slog.LevelKey, LevelName(l))
		}
		return a
	}
	if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.MessageKey) {
		return a
	}
	if a.Value.Kind() == slog.KindGroup {
		return a
	}
	v := a.Value.Resolve()
	masked, changed := redactValue(a.Key, v.Any())
	if !changed {
		return a
	}
	return slog.Any(a.Key, masked)
}

// redactValue returns the masked form of v and whether it differs.
func redactValue(key string, v any) (any, bool) {
	switch v := v.(type) {
	case map[string]string:
		return redact.Env(v), true
	case []string:
		return redact.Args(v), true
	case string:
		if redact.ShouldMask(key) || redact.ContainsTokenPrefix(v) {
			return redact.Value(v), true
		}
		return v, false
	case nil:
		return v, false
	default:
		if redact.ShouldMask(key) {
			return redact.Value(fmt.Sprint(v)), true
		}
		return v, false
	}
}
