package backbone_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"streamer/internal/backbone"
	"streamer/internal/media"
	"streamer/internal/speech"
	"streamer/internal/stage"
	"streamer/internal/testsupport"
)

type countingStage struct {
	*stage.Base
	ticks *[]string
	err   error
}

func newCounting(name string, ticks *[]string, err error) *countingStage {
	return &countingStage{Base: stage.NewBase(name, stage.Options{}), ticks: ticks, err: err}
}

func (c *countingStage) Tick(context.Context) error {
	*c.ticks = append(*c.ticks, c.Name())
	return c.err
}

func (c *countingStage) Snapshot() stage.Snapshot { return c.Base.Snapshot(0, 0) }

func TestTickVisitsStagesInOrder(t *testing.T) {
	var ticks []string
	a := newCounting("a", &ticks, nil)
	b := newCounting("b", &ticks, nil)
	c := newCounting("c", &ticks, nil)
	bb := backbone.New(a, b, c)

	if err := bb.Tick(context.Background()); err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if len(ticks) != 3 || ticks[0] != "a" || ticks[1] != "b" || ticks[2] != "c" {
		t.Fatalf("unexpected tick order %v", ticks)
	}
}

func TestRemoveStage(t *testing.T) {
	var ticks []string
	a := newCounting("a", &ticks, nil)
	b := newCounting("b", &ticks, nil)
	bb := backbone.New(a, b)

	if !bb.RemoveStage(a) {
		t.Fatal("expected a to be removed")
	}
	if bb.RemoveStage(a) {
		t.Fatal("expected second removal to report false")
	}
	if err := bb.Tick(context.Background()); err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if len(ticks) != 1 || ticks[0] != "b" {
		t.Fatalf("unexpected ticks %v", ticks)
	}
	if len(bb.Stages()) != 1 {
		t.Fatalf("unexpected stage count %d", len(bb.Stages()))
	}
}

func TestTickJoinsErrorsAndContinues(t *testing.T) {
	var ticks []string
	errA := errors.New("a failed")
	errC := errors.New("c failed")
	bb := backbone.New(
		newCounting("a", &ticks, errA),
		newCounting("b", &ticks, nil),
		newCounting("c", &ticks, errC),
	)

	err := bb.Tick(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errC) {
		t.Fatalf("expected both errors, got %v", err)
	}
	if len(ticks) != 3 {
		t.Fatalf("a failing stage must not stop the others: %v", ticks)
	}
}

func TestPrepareErrorSurfacesThroughBackbone(t *testing.T) {
	gen := testsupport.NewFakeTTS()
	gen.PrepareErr = errors.New("bad tokenizer")
	s := speech.New(gen, speech.Options{})
	bb := backbone.New(s)

	if err := s.AddInput("hello"); err != nil {
		t.Fatalf("AddInput: %v", err)
	}
	if err := bb.Tick(context.Background()); !errors.Is(err, gen.PrepareErr) {
		t.Fatalf("expected prepare error from backbone tick, got %v", err)
	}
}

func TestErrorPrecedesInputThroughBackbone(t *testing.T) {
	s := speech.New(testsupport.NewFakeTTS(), speech.Options{})
	bb := backbone.New(s)

	if err := s.AddInput(" "); err == nil {
		t.Fatal("expected rejection")
	}
	if err := s.AddInput("valid"); err != nil {
		t.Fatalf("AddInput: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := bb.Tick(context.Background()); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if s.Status() != stage.Error {
		t.Fatalf("status = %s, want error", s.Status())
	}
	if _, ok := s.Output(); ok {
		t.Fatal("no generation may happen while an exception is pending")
	}
	s.AddStopRequest(media.StopRequest{})
	if err := bb.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if s.Status() != stage.Error {
		t.Fatalf("stop must not override error, got %s", s.Status())
	}
}

type tickFunc func(context.Context) error

func (f tickFunc) Tick(ctx context.Context) error { return f(ctx) }

func TestDriveTicksUntilCancelled(t *testing.T) {
	var count atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		backbone.Drive(ctx, tickFunc(func(context.Context) error {
			if count.Add(1) == 2 {
				return errors.New("transient")
			}
			return nil
		}), time.Millisecond, nil)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for count.Load() < 5 {
		select {
		case <-deadline:
			t.Fatalf("drive stalled after %d ticks", count.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drive did not return after cancellation")
	}
}
