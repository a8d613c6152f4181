package logging

import (
	"context"
	"log/slog"
)

// MultiHandler copies each record to every wrapped handler, so module
// loggers can write to stdout and the journal through one slog.Logger.
// Records only reach handlers whose own level admits them.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler wraps the given handlers.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Enabled reports whether any wrapped handler wants the level.
func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle forwards the record to every handler that accepts its level.
// Each gets its own clone; handlers may retain the record.
func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

// WithAttrs forwards the attrs to every wrapped handler.
func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.fanout(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

// WithGroup forwards the group to every wrapped handler.
func (m *MultiHandler) WithGroup(name string) slog.Handler {
	return m.fanout(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m *MultiHandler) fanout(wrap func(slog.Handler) slog.Handler) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = wrap(h)
	}
	return &MultiHandler{handlers: handlers}
}
