package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// TimeLayout is the timestamp layout of the text handler.
const TimeLayout = "15:04:05.000"

// Handler writes one human-readable line per record:
//
//	15:04:05.123 INFO  process started name=demo pid=4242
//
// Levels and keys are colored when the writer is a terminal. Secrets are
// masked the same way [RedactAttr] masks them for JSON output.
type Handler struct {
	opts   slog.HandlerOptions
	out    io.Writer
	mu     *sync.Mutex
	prefix string // pre-rendered WithAttrs attributes
	groups []string

	palette *palette
}

type palette struct {
	time  *color.Color
	key   *color.Color
	trace *color.Color
	debug *color.Color
	info  *color.Color
	warn  *color.Color
	err   *color.Color
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler returns a text handler writing to out.
func NewHandler(out io.Writer, opts *slog.HandlerOptions) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	h := &Handler{
		opts: *opts,
		out:  out,
		mu:   &sync.Mutex{},
	}
	if SupportsColor(out) {
		h.palette = &palette{
			time:  color.New(color.FgHiBlack),
			key:   color.New(color.FgCyan),
			trace: color.New(color.FgHiBlack),
			debug: color.New(color.FgMagenta),
			info:  color.New(color.FgGreen),
			warn:  color.New(color.FgYellow),
			err:   color.New(color.FgRed, color.Bold),
		}
		// the palette decides, not the process-wide NoColor switch
		for _, c := range []*color.Color{h.palette.time, h.palette.key, h.palette.trace,
			h.palette.debug, h.palette.info, h.palette.warn, h.palette.err} {
			c.EnableColor()
		}
	}
	return h
}

// Enabled reports whether level reaches the configured minimum (Info by
// default).
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle renders r as a single line.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !r.Time.IsZero() {
		buf.WriteString(h.paint(h.timeColor(), r.Time.Format(TimeLayout)))
		buf.WriteByte(' ')
	}

	level := fmt.Sprintf("%-5s", LevelName(r.Level))
	buf.WriteString(h.paint(h.levelColor(r.Level), level))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)
	buf.WriteString(h.prefix)

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, h.groups, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

// WithAttrs returns a handler that renders attrs on every line.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var buf bytes.Buffer
	buf.WriteString(h.prefix)
	for _, a := range attrs {
		h.writeAttr(&buf, h.groups, a)
	}
	clone := *h
	clone.prefix = buf.String()
	return &clone
}

// WithGroup returns a handler that prefixes later keys with name and a dot.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func (h *Handler) writeAttr(buf *bytes.Buffer, groups []string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := groups
		if a.Key != "" {
			sub = append(append([]string(nil), groups...), a.Key)
		}
		for _, ga := range a.Value.Group() {
			h.writeAttr(buf, sub, ga)
		}
		return
	}

	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	value, _ := redactValue(a.Key, a.Value.Resolve().Any())

	buf.WriteByte(' ')
	buf.WriteString(h.paint(h.keyColor(), key))
	fmt.Fprintf(buf, "=%v", value)
}

func (h *Handler) paint(c *color.Color, s string) string {
	if c == nil {
		return s
	}
	return c.Sprint(s)
}

func (h *Handler) timeColor() *color.Color {
	if h.palette == nil {
		return nil
	}
	return h.palette.time
}

func (h *Handler) keyColor() *color.Color {
	if h.palette == nil {
		return nil
	}
	return h.palette.key
}

func (h *Handler) levelColor(l slog.Level) *color.Color {
	if h.palette == nil {
		return nil
	}
	switch {
	case l >= slog.LevelError:
		return h.palette.err
	case l >= slog.LevelWarn:
		return h.palette.warn
	case l >= slog.LevelInfo:
		return h.palette.info
	case l >= slog.LevelDebug:
		return h.palette.debug
	default:
		return h.palette.trace
	}
}
