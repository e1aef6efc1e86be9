package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

// Format is the --log-format value.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config describes a logger for [New].
type Config struct {
	Level  slog.Level
	Format Format
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New builds a logger from cfg. Unknown formats fall back to text.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == FormatJSON {
		return slog.New(NewJSONHandler(out, cfg.Level))
	}
	return slog.New(NewHandler(out, &slog.HandlerOptions{Level: cfg.Level}))
}

// NewJSONHandler returns a JSON handler that masks secrets via [RedactAttr].
func NewJSONHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: RedactAttr,
	})
}

// Default is the logger in effect before flags are parsed: warnings and up,
// text, stderr.
func Default() *slog.Logger {
	return New(Config{Level: slog.LevelWarn, Format: FormatText})
}

// OpenFileHandler appends JSON records to path. The caller closes the file
// when the command finishes.
func OpenFileHandler(path string, level slog.Leveler) (slog.Handler, *os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening log file %s", path)
	}
	return NewJSONHandler(f, level), f, nil
}

// testWriter sends handler output to t.Log.
type testWriter struct {
	t *testing.T
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	if msg := strings.TrimSuffix(string(p), "\n"); msg != "" {
		w.t.Log(msg)
	}
	return len(p), nil
}

// ForTest returns a debug-level logger whose output shows up with the
// test's own log (on failure or with -v).
func ForTest(t *testing.T) *slog.Logger {
	t.Helper()
	return New(Config{
		Level:  slog.LevelDebug,
		Format: FormatText,
		Output: &testWriter{t: t},
	})
}
