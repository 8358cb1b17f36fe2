package pipeline

import (
	"context"
	"errors"
	"path/filepath"

	"streamer/internal/artifact"
	"streamer/internal/backbone"
	"streamer/internal/face"
	"streamer/internal/journal"
	"streamer/internal/logging"
	"streamer/internal/media"
	"streamer/internal/motion"
	"streamer/internal/notifications"
	"streamer/internal/speech"
	"streamer/internal/stage"
)

// Start runs the driver loop in the background until Shutdown or ctx ends.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("pipeline already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.wg.Add(1)
	p.mu.Unlock()

	p.logger.Info("pipeline started",
		logging.String(logging.FieldEventType, "pipeline_started"),
		logging.Any("stages", p.StageNames()),
		logging.Duration("tick_interval", p.cfg.TickInterval()),
	)
	go func() {
		defer p.wg.Done()
		backbone.Drive(runCtx, p, p.cfg.TickInterval(), p.logger)
	}()
	return nil
}

// Shutdown stops the driver loop and waits for the current tick to finish.
func (p *Pipeline) Shutdown() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
	p.logger.Info("pipeline stopped", logging.String(logging.FieldEventType, "pipeline_stopped"))
}

// Tick advances every stage once, then moves outputs downstream and
// surfaces new exceptions. The backbone error is returned after the
// bookkeeping so a failing stage never starves the others.
func (p *Pipeline) Tick(ctx context.Context) error {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	err := p.backbone.Tick(ctx)
	p.route(ctx)
	p.drainTerminal(ctx)
	for _, s := range p.backbone.Stages() {
		p.surface(ctx, s)
		if p.metrics != nil {
			p.metrics.TickObserved(s.Snapshot())
		}
	}

	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
	return err
}

// route hands each synthesized clip to face and motion. When neither is
// enabled the clip is the terminal artifact.
func (p *Pipeline) route(ctx context.Context) {
	if p.speech == nil {
		return
	}
	for {
		audio, ok := p.speech.Output()
		if !ok {
			return
		}
		p.collect(ctx, Artifact{
			Stage:     speech.Name,
			Kind:      "audio",
			Name:      audio.Name,
			AudioName: audio.Name,
			Path:      p.artifactPath(p.cfg.Speech.Persist, p.cfg.Paths.AudioDir, audio.Name, "wav"),
			Duration:  audio.Duration,
		})
		if p.face != nil {
			p.forward(face.Name, audio, p.face.AddInput)
		}
		if p.motion != nil {
			p.forward(motion.Name, audio, p.motion.AddInput)
		}
	}
}

func (p *Pipeline) forward(target string, audio *media.AudioData, add func(*media.AudioData) error) {
	if err := add(audio); err != nil {
		p.logger.Warn("clip rejected downstream",
			logging.String(logging.FieldEventType, "route_rejected"),
			logging.String("target_stage", target),
			logging.String(logging.FieldArtifact, audio.Name),
			logging.Error(err),
		)
	}
}

func (p *Pipeline) drainTerminal(ctx context.Context) {
	if p.face != nil {
		for {
			expr, ok := p.face.Output()
			if !ok {
				break
			}
			p.collect(ctx, Artifact{
				Stage:     face.Name,
				Kind:      "face",
				Name:      artifact.FileName(expr.AudioName, "json"),
				AudioName: expr.AudioName,
				Path:      p.artifactPath(p.cfg.Face.Persist, p.cfg.Paths.FaceDir, expr.AudioName, "json"),
				Duration:  expr.Duration,
				Frames:    expr.FrameCount,
			})
		}
	}
	if p.motion != nil {
		for {
			m, ok := p.motion.Output()
			if !ok {
				break
			}
			p.collect(ctx, Artifact{
				Stage:     motion.Name,
				Kind:      "motion",
				Name:      artifact.FileName(m.AudioName, p.cfg.Motion.Format),
				AudioName: m.AudioName,
				Path:      p.artifactPath(p.cfg.Motion.Persist, p.cfg.Paths.MotionDir, m.AudioName, p.cfg.Motion.Format),
				Duration:  m.Duration,
				Frames:    m.FrameCount,
			})
		}
	}
}

func (p *Pipeline) artifactPath(persist bool, dir, audioName, ext string) string {
	if !persist || dir == "" {
		return ""
	}
	return filepath.Join(dir, artifact.FileName(audioName, ext))
}

func (p *Pipeline) collect(ctx context.Context, art Artifact) {
	art.CreatedAt = p.clock.Now()

	p.mu.Lock()
	p.recent = append(p.recent, art)
	if overflow := len(p.recent) - p.maxRecent; overflow > 0 {
		p.recent = append(p.recent[:0:0], p.recent[overflow:]...)
	}
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.ArtifactProduced(art.Stage, art.Kind)
	}
	if p.journal != nil {
		if err := p.journal.RecordArtifact(ctx, journal.Artifact{
			Stage:     art.Stage,
			Kind:      art.Kind,
			Name:      art.Name,
			AudioName: art.AudioName,
			Path:      art.Path,
			Duration:  art.Duration,
			Frames:    art.Frames,
			CreatedAt: art.CreatedAt,
		}); err != nil {
			p.logger.Warn("journal artifact failed",
				logging.String(logging.FieldEventType, "journal_write_failed"),
				logging.String(logging.FieldErrorHint, "check state_dir permissions and disk space"),
				logging.Error(err),
			)
		}
	}
}

// surface reports the stage's head exception if it has not been reported
// yet and acknowledges it when auto-acknowledge is on.
func (p *Pipeline) surface(ctx context.Context, s stage.Stage) {
	exc, ok := s.Exception()
	if !ok {
		return
	}
	if !p.report(ctx, s.Name(), exc) {
		return
	}
	if p.cfg.Workflow.AutoAcknowledge {
		p.acknowledge(ctx, s, exc)
	}
}

// report logs, journals and publishes exc once per stage sequence number.
func (p *Pipeline) report(ctx context.Context, name string, exc stage.Exception) bool {
	p.mu.Lock()
	if exc.Seq <= p.surfaced[name] {
		p.mu.Unlock()
		return false
	}
	p.surfaced[name] = exc.Seq
	p.mu.Unlock()

	view := newExceptionView(name, exc)
	logging.ErrorWithContext(p.logger, "stage exception surfaced", "exception_surfaced",
		logging.String(logging.FieldStage, name),
		logging.String(logging.FieldExceptionType, view.Type),
		logging.Uint64("exception_seq", view.Seq),
		logging.String("failure_kind", view.FailureKind),
		logging.String(logging.FieldArtifact, view.Item),
		logging.String("message", view.Message),
		logging.String(logging.FieldErrorHint, "acknowledge the exception to resume the stage"),
	)

	if p.journal != nil {
		if err := p.journal.RecordException(ctx, journal.Exception{
			Stage:       name,
			Seq:         view.Seq,
			Type:        view.Type,
			Code:        view.Code,
			Category:    view.Category,
			FailureKind: view.FailureKind,
			Message:     view.Message,
			ItemName:    view.Item,
			RecordedAt:  view.At,
		}); err != nil {
			p.logger.Warn("journal exception failed",
				logging.String(logging.FieldEventType, "journal_write_failed"),
				logging.Error(err),
			)
		}
	}

	if err := p.notifier.Publish(ctx, notifications.EventException, notifications.Payload{
		"stage":   name,
		"type":    view.Type,
		"message": view.Message,
		"item":    view.Item,
	}); err != nil {
		p.logger.Warn("exception notification failed",
			logging.String(logging.FieldEventType, "notify_failed"),
			logging.Error(err),
		)
	}
	return true
}

func (p *Pipeline) acknowledge(ctx context.Context, s stage.Stage, exc stage.Exception) ExceptionView {
	s.AcknowledgeException()
	view := newExceptionView(s.Name(), exc)
	now := p.clock.Now()
	view.AcknowledgedAt = &now
	if p.journal != nil {
		if err := p.journal.MarkAcknowledged(ctx, s.Name(), exc.Seq, now); err != nil {
			p.logger.Warn("journal acknowledgement failed",
				logging.String(logging.FieldEventType, "journal_write_failed"),
				logging.Error(err),
			)
		}
	}
	return view
}
