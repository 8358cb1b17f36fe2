package backbone

import (
	"context"
	"log/slog"
	"time"

	"streamer/internal/logging"
)

// Ticker is anything Drive can advance; *Backbone and the pipeline satisfy it.
type Ticker interface {
	Tick(ctx context.Context) error
}

// Drive ticks t every interval until ctx is cancelled. Tick errors are
// logged and do not stop the loop.
func Drive(ctx context.Context, t Ticker, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := t.Tick(ctx); err != nil {
			logger.Error("pipeline tick failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "stage_tick_failed"),
				logging.String(logging.FieldErrorHint, "check the generator backend; the failed input was dropped"),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}
