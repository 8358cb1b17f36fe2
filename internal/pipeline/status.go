package pipeline

import (
	"errors"
	"time"

	"streamer/internal/media"
	"streamer/internal/services"
	"streamer/internal/stage"
)

// Artifact describes one generator output that left the pipeline.
type Artifact struct {
	Stage     string    `json:"stage"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	AudioName string    `json:"audio_name"`
	Path      string    `json:"path,omitempty"`
	Duration  float64   `json:"duration"`
	Frames    int       `json:"frames,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ExceptionView is the reportable form of a stage exception.
type ExceptionView struct {
	Stage          string     `json:"stage"`
	Seq            uint64     `json:"seq"`
	Type           string     `json:"type"`
	Code           int        `json:"code"`
	Category       string     `json:"category"`
	FailureKind    string     `json:"failure_kind,omitempty"`
	Message        string     `json:"message"`
	Item           string     `json:"item,omitempty"`
	At             time.Time  `json:"at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
}

func newExceptionView(name string, exc stage.Exception) ExceptionView {
	view := ExceptionView{
		Stage:       name,
		Seq:         exc.Seq,
		Type:        exc.Type.String(),
		Code:        exc.Type.Code(),
		Category:    string(exc.Type.Category()),
		FailureKind: services.FailureKind(exc.Err),
		Message:     exc.Message(),
		Item:        itemName(exc.Item),
		At:          exc.At,
	}
	var rejection *stage.RejectionError
	if errors.As(exc.Err, &rejection) {
		view.FailureKind = "rejected"
	}
	return view
}

func itemName(item any) string {
	switch v := item.(type) {
	case nil:
		return ""
	case *media.AudioData:
		if v == nil {
			return ""
		}
		return v.Name
	case string:
		const limit = 64
		if r := []rune(v); len(r) > limit {
			return string(r[:limit]) + "…"
		}
		return v
	default:
		return ""
	}
}

// StageStatus is a stage snapshot plus its head exception.
type StageStatus struct {
	stage.Snapshot
	Head *ExceptionView `json:"head,omitempty"`
}

// StatusSummary represents pipeline diagnostics.
type StatusSummary struct {
	Running   bool          `json:"running"`
	LastError string        `json:"last_error,omitempty"`
	Stages    []StageStatus `json:"stages"`
}

// Status returns the latest pipeline information.
func (p *Pipeline) Status() StatusSummary {
	p.mu.RLock()
	summary := StatusSummary{Running: p.running}
	if p.lastErr != nil {
		summary.LastError = p.lastErr.Error()
	}
	p.mu.RUnlock()

	for _, s := range p.backbone.Stages() {
		st := StageStatus{Snapshot: s.Snapshot()}
		if exc, ok := s.Exception(); ok {
			view := newExceptionView(s.Name(), exc)
			st.Head = &view
		}
		summary.Stages = append(summary.Stages, st)
	}
	return summary
}

// Exceptions lists every pending exception, stage by stage, oldest first.
func (p *Pipeline) Exceptions() []ExceptionView {
	var out []ExceptionView
	for _, s := range p.backbone.Stages() {
		lister, ok := s.(interface{ Exceptions() []stage.Exception })
		if !ok {
			continue
		}
		for _, exc := range lister.Exceptions() {
			out = append(out, newExceptionView(s.Name(), exc))
		}
	}
	return out
}

// Recent returns the retained artifacts, newest first.
func (p *Pipeline) Recent() []Artifact {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Artifact, len(p.recent))
	for i, art := range p.recent {
		out[len(p.recent)-1-i] = art
	}
	return out
}
