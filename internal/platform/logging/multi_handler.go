package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// MultiHandler sends each record to every handler that accepts its level.
// New uses it to write the console and the rolling JSON file together.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler returns a handler over hs.
func NewMultiHandler(hs ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: hs}
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(h.handlers, func(sub slog.Handler) bool {
		return sub.Enabled(ctx, level)
	})
}

// Handle gives each accepting handler its own clone of r. A failing
// handler does not stop the others; their errors are joined.
func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler interface requires value
	var errs []error

	for _, sub := range h.handlers {
		if sub.Enabled(ctx, r.Level) {
			errs = append(errs, sub.Handle(ctx, r.Clone()))
		}
	}

	return errors.Join(errs...)
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(sub slog.Handler) slog.Handler { return sub.WithAttrs(attrs) })
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	return h.each(func(sub slog.Handler) slog.Handler { return sub.WithGroup(name) })
}

func (h *MultiHandler) each(fn func(slog.Handler) slog.Handler) *MultiHandler {
	out := make([]slog.Handler, 0, len(h.handlers))
	for _, sub := range h.handlers {
		out = append(out, fn(sub))
	}

	return &MultiHandler{handlers: out}
}
