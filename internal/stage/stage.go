package stage

import (
	"context"

	"streamer/internal/media"
)

// Stage describes the contract the backbone and pipeline need from each
// stage variant. Typed input and output methods live on the variants.
type Stage interface {
	Name() string
	Status() Status
	Tick(ctx context.Context) error
	AddStopRequest(req media.StopRequest)
	Exception() (Exception, bool)
	AcknowledgeException() bool
	Snapshot() Snapshot
}

// Handlers are the per-status hooks a stage variant implements.
type Handlers interface {
	OnWait(ctx context.Context)
	OnExecute(ctx context.Context)
	OnStop(ctx context.Context)
	OnError(ctx context.Context)
}

// Dispatch runs the handler for the stage's current status. It is the only
// place a status is mapped to behavior.
func Dispatch(ctx context.Context, b *Base, h Handlers) {
	switch b.Status() {
	case Wait:
		h.OnWait(ctx)
	case Execute:
		h.OnExecute(ctx)
	case Stop:
		h.OnStop(ctx)
	case Error:
		h.OnError(ctx)
	default:
		b.logger.Warn("unknown stage status; resetting to wait",
			"status", int(b.Status()),
		)
		b.Transition(Wait)
	}
}
