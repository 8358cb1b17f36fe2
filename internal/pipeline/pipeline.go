package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"streamer/internal/backbone"
	"streamer/internal/config"
	"streamer/internal/face"
	"streamer/internal/journal"
	"streamer/internal/logging"
	"streamer/internal/media"
	"streamer/internal/metrics"
	"streamer/internal/motion"
	"streamer/internal/notifications"
	"streamer/internal/services"
	"streamer/internal/speech"
	"streamer/internal/stage"
)

var (
	// ErrUnknownStage is returned when a stage name is not part of the pipeline.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrNoException is returned when acknowledging a stage with nothing pending.
	ErrNoException = errors.New("no pending exception")
)

const defaultRecentArtifacts = 50

// Options carries the optional collaborators of a Pipeline.
type Options struct {
	Logger   *slog.Logger
	Clock    stage.Clock
	Metrics  *metrics.Recorder
	Journal  *journal.Journal
	Notifier notifications.Service
}

// Pipeline owns the enabled stages and the backbone that ticks them.
type Pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	clock    stage.Clock
	metrics  *metrics.Recorder
	journal  *journal.Journal
	notifier notifications.Service

	speech   *speech.Stage
	face     *face.Stage
	motion   *motion.Stage
	backbone *backbone.Backbone

	// tickMu serializes Tick and Acknowledge so the exception being
	// acknowledged is always the one that was surfaced.
	tickMu sync.Mutex

	mu        sync.RWMutex
	surfaced  map[string]uint64
	recent    []Artifact
	maxRecent int
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
}

// New builds the enabled stages in speech, face, motion order.
func New(cfg *config.Config, gens Generators, opts Options) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = stage.SystemClock{}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	var observer stage.Observer = stage.NopObserver{}
	if opts.Metrics != nil {
		observer = opts.Metrics
	}
	maxRecent := cfg.Workflow.RecentArtifacts
	if maxRecent <= 0 {
		maxRecent = defaultRecentArtifacts
	}

	p := &Pipeline{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		clock:     clock,
		metrics:   opts.Metrics,
		journal:   opts.Journal,
		notifier:  notifier,
		backbone:  backbone.New(),
		surfaced:  make(map[string]uint64),
		maxRecent: maxRecent,
	}

	stageOpts := func(name string) stage.Options {
		return stage.Options{
			Logger:   logging.ForStage(logger, cfg.Logging.StageOverrides, name),
			Clock:    clock,
			Observer: observer,
		}
	}

	if cfg.Speech.Enabled {
		if gens.TTS == nil {
			return nil, fmt.Errorf("pipeline: speech enabled without a TTS generator")
		}
		p.speech = speech.New(gens.TTS, speech.Options{
			Options:   stageOpts(speech.Name),
			OutputDir: persistDir(cfg.Speech.Persist, cfg.Paths.AudioDir),
		})
		p.backbone.AddStage(p.speech)
	}
	if cfg.Face.Enabled {
		if gens.Face == nil {
			return nil, fmt.Errorf("pipeline: face enabled without a face generator")
		}
		p.face = face.New(gens.Face, face.Options{
			Options:   stageOpts(face.Name),
			Limits:    faceLimits(cfg),
			Timeout:   cfg.FaceTimeout(),
			OutputDir: persistDir(cfg.Face.Persist, cfg.Paths.FaceDir),
		})
		p.backbone.AddStage(p.face)
	}
	if cfg.Motion.Enabled {
		if gens.Motion == nil {
			p.closeFace()
			return nil, fmt.Errorf("pipeline: motion enabled without a motion generator")
		}
		p.motion = motion.New(gens.Motion, motion.Options{
			Options:       stageOpts(motion.Name),
			InputDir:      cfg.Paths.AudioDir,
			OutputDir:     persistDir(cfg.Motion.Persist, cfg.Paths.MotionDir),
			Format:        cfg.Motion.Format,
			IdleWindow:    cfg.MotionIdleWindow(),
			ValidateInput: cfg.Motion.ValidateInput,
			Limits:        faceLimits(cfg),
		})
		p.backbone.AddStage(p.motion)
	}
	if len(p.backbone.Stages()) == 0 {
		return nil, errors.New("pipeline: no stages enabled")
	}
	return p, nil
}

func faceLimits(cfg *config.Config) face.Limits {
	return face.Limits{
		MinBytes:    cfg.Face.MinAudioBytes,
		MaxBytes:    cfg.Face.MaxAudioBytes,
		SampleRate:  cfg.Face.SampleRate,
		MinDuration: cfg.Face.MinDurationSeconds,
		MaxDuration: cfg.Face.MaxDurationSeconds,
	}
}

func persistDir(persist bool, dir string) string {
	if !persist {
		return ""
	}
	return dir
}

// StageNames lists the enabled stages in tick order.
func (p *Pipeline) StageNames() []string {
	stages := p.backbone.Stages()
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, s.Name())
	}
	return names
}

// Speak submits text to the speech stage. Blank text is rejected with a
// *stage.RejectionError and recorded as an exception on the stage.
func (p *Pipeline) Speak(ctx context.Context, text string) error {
	if p.speech == nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "speak", "speech stage is disabled", nil)
	}
	logger := logging.WithContext(ctx, p.logger)
	if err := p.speech.AddInput(text); err != nil {
		logger.Warn("speech input rejected",
			logging.String(logging.FieldEventType, "speak_rejected"),
			logging.Error(err),
		)
		return err
	}
	logger.Info("speech input accepted",
		logging.String(logging.FieldEventType, "speak_accepted"),
		logging.Int("characters", len(text)),
	)
	return nil
}

// Stop broadcasts req to every stage. An empty conversation ID is replaced
// with a fresh one; the request actually sent is returned.
func (p *Pipeline) Stop(ctx context.Context, req media.StopRequest) media.StopRequest {
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}
	for _, s := range p.backbone.Stages() {
		s.AddStopRequest(req)
	}
	logging.WithContext(services.WithConversationID(ctx, req.ConversationID), p.logger).Info("stop requested",
		logging.String(logging.FieldEventType, "stop_broadcast"),
		logging.String("reason", req.Reason),
		logging.Int("stages", len(p.backbone.Stages())),
	)
	return req
}

// Acknowledge clears the head exception of the named stage so it can leave
// Error on its next tick.
func (p *Pipeline) Acknowledge(ctx context.Context, name string) (ExceptionView, error) {
	s, ok := p.stage(name)
	if !ok {
		return ExceptionView{}, fmt.Errorf("%w: %q", ErrUnknownStage, name)
	}

	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	exc, ok := s.Exception()
	if !ok {
		return ExceptionView{}, fmt.Errorf("%w on %s", ErrNoException, name)
	}
	p.report(ctx, name, exc)
	view := p.acknowledge(ctx, s, exc)
	if err := p.notifier.Publish(ctx, notifications.EventAcknowledged, notifications.Payload{
		"stage": name,
		"type":  exc.Type.String(),
	}); err != nil {
		p.logger.Warn("acknowledgement notification failed",
			logging.String(logging.FieldEventType, "notify_failed"),
			logging.Error(err),
		)
	}
	return view, nil
}

func (p *Pipeline) stage(name string) (stage.Stage, bool) {
	for _, s := range p.backbone.Stages() {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Close stops the driver loop and the face worker.
func (p *Pipeline) Close() {
	p.Shutdown()
	p.closeFace()
}

func (p *Pipeline) closeFace() {
	if p.face != nil {
		p.face.Close()
	}
}
