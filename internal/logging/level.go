package logging

import (
	"context"
	"log/slog"
)

// minLevelHandler drops records below min before they reach next. next is
// expected to be built at the most verbose level any stage override needs.
type minLevelHandler struct {
	next slog.Handler
	min  slog.Level
}

func (h *minLevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.min && h.next.Enabled(ctx, level)
}

func (h *minLevelHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.min {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *minLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &minLevelHandler{next: h.next.WithAttrs(attrs), min: h.min}
}

func (h *minLevelHandler) WithGroup(name string) slog.Handler {
	return &minLevelHandler{next: h.next.WithGroup(name), min: h.min}
}

// withMinLevel swaps the minimum level of logger. An existing minLevelHandler
// is replaced rather than stacked so a stage override can lower the global
// level as well as raise it.
func withMinLevel(logger *slog.Logger, level slog.Level) *slog.Logger {
	handler := logger.Handler()
	if existing, ok := handler.(*minLevelHandler); ok {
		handler = existing.next
	}
	return slog.New(&minLevelHandler{next: handler, min: level})
}
