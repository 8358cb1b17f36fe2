package backbone

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"streamer/internal/stage"
)

// Backbone ticks an ordered list of stages.
type Backbone struct {
	mu     sync.Mutex
	stages []stage.Stage
}

// New returns a Backbone holding stages in the given order.
func New(stages ...stage.Stage) *Backbone {
	b := &Backbone{}
	for _, s := range stages {
		b.AddStage(s)
	}
	return b
}

// AddStage appends s. Stages tick in insertion order.
func (b *Backbone) AddStage(s stage.Stage) {
	if s == nil {
		return
	}
	b.mu.Lock()
	b.stages = append(b.stages, s)
	b.mu.Unlock()
}

// RemoveStage removes the first occurrence of s and reports whether it was
// present.
func (b *Backbone) RemoveStage(s stage.Stage) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.stages {
		if existing == s {
			b.stages = append(b.stages[:i:i], b.stages[i+1:]...)
			return true
		}
	}
	return false
}

// Stages returns a copy of the stage list in tick order.
func (b *Backbone) Stages() []stage.Stage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]stage.Stage, len(b.stages))
	copy(out, b.stages)
	return out
}

// Tick ticks every stage once, in order. A stage error does not stop the
// remaining stages; all errors are joined and returned.
func (b *Backbone) Tick(ctx context.Context) error {
	var errs []error
	for _, s := range b.Stages() {
		if err := s.Tick(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stage %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
