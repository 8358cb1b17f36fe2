package stage

import "time"

// Observer receives stage lifecycle events. The metrics package implements it;
// stages default to NopObserver.
type Observer interface {
	StatusChanged(stage string, from, to Status)
	ExceptionRecorded(stage string, exc Exception)
	GenerationObserved(stage string, elapsed time.Duration, err error)
	TickObserved(snap Snapshot)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) StatusChanged(string, Status, Status) {}
func (NopObserver) ExceptionRecorded(string, Exception) {}
func (NopObserver) GenerationObserved(string, time.Duration, error) {}
func (NopObserver) TickObserved(Snapshot) {}
