package logging

import (
	"context"
	"log/slog"
	"slices"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

// MultiHandler fans records out to several handlers, e.g. the terminal and
// the --log-file sink. Each handler keeps its own level.
type MultiHandler struct {
	handlers []slog.Handler
}

var _ slog.Handler = (*MultiHandler)(nil)

// NewMultiHandler returns a handler writing to every non-nil handler.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{
		handlers: slices.DeleteFunc(slices.Clone(handlers), func(h slog.Handler) bool { return h == nil }),
	}
}

// Enabled reports whether any handler accepts level.
func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(h.handlers, func(sub slog.Handler) bool {
		return sub.Enabled(ctx, level)
	})
}

// Handle passes a clone of r to every handler that accepts its level and
// joins their errors.
func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, sub := range h.handlers {
		if !sub.Enabled(ctx, r.Level) {
			continue
		}
		if err := sub.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs applies attrs to every handler.
func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(sub slog.Handler) slog.Handler { return sub.WithAttrs(attrs) })
}

// WithGroup applies the group to every handler.
func (h *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.derive(func(sub slog.Handler) slog.Handler { return sub.WithGroup(name) })
}

func (h *MultiHandler) derive(fn func(slog.Handler) slog.Handler) *MultiHandler {
	out := make([]slog.Handler, len(h.handlers))
	for i, sub := range h.handlers {
		out[i] = fn(sub)
	}
	return &MultiHandler{handlers: out}
}
