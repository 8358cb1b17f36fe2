package stage

import (
	"log/slog"
	"sync"
	"time"

	"streamer/internal/logging"
	"streamer/internal/media"
)

// Options configures the shared stage machinery.
type Options struct {
	Logger   *slog.Logger
	Clock    Clock
	Observer Observer
}

// Base holds the status, stop queue, and exception queue shared by every
// stage variant. Variants embed *Base and own their input and output queues.
type Base struct {
	name     string
	logger   *slog.Logger
	clock    Clock
	observer Observer

	mu     sync.Mutex
	status Status
	seq    uint64

	stops      *Queue[media.StopRequest]
	exceptions *Queue[Exception]
}

// NewBase constructs a Base in Wait status.
func NewBase(name string, opts Options) *Base {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	observer := opts.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	return &Base{
		name:       name,
		logger:     logger.With(logging.String(logging.FieldStage, name)),
		clock:      clock,
		observer:   observer,
		stops:      NewQueue[media.StopRequest](),
		exceptions: NewQueue[Exception](),
	}
}

func (b *Base) Name() string { return b.name }

func (b *Base) Logger() *slog.Logger { return b.logger }

func (b *Base) Observer() Observer { return b.observer }

func (b *Base) Now() time.Time { return b.clock.Now() }

// Status returns the current status.
func (b *Base) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// AddStopRequest queues a stop request. In-flight work is never interrupted;
// the request is observed before the next item is dequeued.
func (b *Base) AddStopRequest(req media.StopRequest) {
	b.stops.Push(req)
	b.logger.Info("stop requested",
		logging.String(logging.FieldEventType, "stage_stop_requested"),
		logging.String(logging.FieldConversationID, req.ConversationID),
		logging.String("reason", req.Reason),
	)
}

// PendingStops reports how many stop requests are queued.
func (b *Base) PendingStops() int { return b.stops.Len() }

// PopStop removes the oldest stop request.
func (b *Base) PopStop() (media.StopRequest, bool) { return b.stops.Pop() }

// Exception returns the head of the exception queue without removing it.
func (b *Base) Exception() (Exception, bool) { return b.exceptions.Peek() }

// Exceptions returns every pending exception, oldest first.
func (b *Base) Exceptions() []Exception { return b.exceptions.Items() }

// PendingExceptions reports how many exceptions await acknowledgment.
func (b *Base) PendingExceptions() int { return b.exceptions.Len() }

// AcknowledgeException removes the head exception. It reports false when
// there was nothing to acknowledge.
func (b *Base) AcknowledgeException() bool {
	exc, ok := b.exceptions.Pop()
	if ok {
		b.logger.Info("exception acknowledged",
			logging.String(logging.FieldEventType, "stage_exception_acknowledged"),
			logging.String(logging.FieldExceptionType, exc.Type.String()),
			logging.Uint64("exception_seq", exc.Seq),
		)
	}
	return ok
}

// Record appends an exception for item and returns it.
func (b *Base) Record(t ExceptionType, item any, err error) Exception {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.mu.Unlock()

	exc := Exception{Seq: seq, Type: t, Item: item, Err: err, At: b.clock.Now()}
	b.exceptions.Push(exc)

	attrs := []logging.Attr{
		logging.String(logging.FieldExceptionType, t.String()),
		logging.String("exception_category", string(t.Category())),
		logging.Uint64("exception_seq", seq),
		logging.Bool("has_item", item != nil),
	}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
	}
	logging.WarnWithContext(b.logger, "stage exception recorded", "stage_exception",
		append(attrs,
			logging.String(logging.FieldErrorHint, "inspect the exception and acknowledge it to resume the stage"),
			logging.String(logging.FieldImpact, "stage holds in error until acknowledged"),
		)...,
	)
	b.observer.ExceptionRecorded(b.name, exc)
	return exc
}

// Reject records an admission failure for item and returns it as an error so
// callers that submitted the item can report the rejection.
func (b *Base) Reject(t ExceptionType, item any, reason string) error {
	cause := &RejectionError{Stage: b.name, Type: t, Reason: reason}
	b.Record(t, item, cause)
	return cause
}

// HandleStop implements the shared part of the Stop handler. It returns the
// consumed request and true when the variant should apply its stop side
// effect. A pending exception moves the stage to Error first; an empty stop
// queue re-evaluates precedence.
func (b *Base) HandleStop(hasInput bool) (media.StopRequest, bool) {
	if b.exceptions.Len() > 0 {
		b.Transition(Error)
		return media.StopRequest{}, false
	}
	req, ok := b.stops.Pop()
	if !ok {
		b.Advance(Stop, hasInput)
		return media.StopRequest{}, false
	}
	b.logger.Info("stop request applied",
		logging.String(logging.FieldEventType, "stage_stop_applied"),
		logging.String(logging.FieldConversationID, req.ConversationID),
		logging.String("reason", req.Reason),
	)
	return req, true
}

// Next evaluates the status precedence: a pending exception wins over a
// pending stop, which wins over available input.
func (b *Base) Next(hasInput bool) Status {
	switch {
	case b.exceptions.Len() > 0:
		return Error
	case b.stops.Len() > 0:
		return Stop
	case hasInput:
		return Execute
	default:
		return Wait
	}
}

// Advance moves the stage to the precedence target when it differs from
// current and reports whether a transition happened. Handlers return
// immediately after a transition; the new status runs on the next tick.
func (b *Base) Advance(current Status, hasInput bool) bool {
	next := b.Next(hasInput)
	if next == current {
		return false
	}
	b.Transition(next)
	return true
}

// Transition sets the status unconditionally.
func (b *Base) Transition(to Status) {
	b.mu.Lock()
	from := b.status
	b.status = to
	b.mu.Unlock()
	if from == to {
		return
	}
	b.logger.Debug("stage transition",
		logging.String(logging.FieldEventType, "stage_transition"),
		logging.String("from", from.String()),
		logging.String("to", to.String()),
	)
	b.observer.StatusChanged(b.name, from, to)
}

// Snapshot builds a status summary given the variant's queue depths.
func (b *Base) Snapshot(inputs, outputs int) Snapshot {
	snap := Snapshot{
		Name:       b.name,
		Status:     b.Status(),
		Inputs:     inputs,
		Outputs:    outputs,
		Stops:      b.stops.Len(),
		Exceptions: b.exceptions.Len(),
	}
	if head, ok := b.exceptions.Peek(); ok {
		snap.Head = &head
		snap.Detail = head.Type.String()
	}
	return snap
}
