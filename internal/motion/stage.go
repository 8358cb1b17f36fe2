package motion

import (
	"context"
	"sync"
	"time"

	"streamer/internal/face"
	"streamer/internal/generator"
	"streamer/internal/logging"
	"streamer/internal/media"
	"streamer/internal/services"
	"streamer/internal/stage"
)

// Name identifies the motion stage in logs, metrics, and the API.
const Name = "motion"

// DefaultIdleWindow is how long the stage may wait before dropping its seed.
const DefaultIdleWindow = 10 * time.Second

// DefaultFormat is the on-disk motion format.
const DefaultFormat = "csv"

// Options configures a Stage.
type Options struct {
	stage.Options
	// InputDir is where the speech stage persists audio; passed through to
	// the generator.
	InputDir  string
	OutputDir string
	Format    string

	IdleWindow time.Duration

	// ValidateInput applies the face admission gate to incoming audio.
	ValidateInput bool
	Limits        face.Limits
}

// Stage generates pose sequences from admitted audio clips.
type Stage struct {
	*stage.Base

	gen        generator.Motion
	inputDir   string
	outputDir  string
	format     string
	idleWindow time.Duration
	validate   bool
	limits     face.Limits

	inputs  *stage.Queue[*media.AudioData]
	outputs *stage.Queue[*media.MotionData]

	// mu guards seed and lastGenerate; Snapshot reads them off the driver
	// goroutine.
	mu           sync.Mutex
	seed         *media.MotionData
	lastGenerate time.Time
}

// New constructs a motion stage.
func New(gen generator.Motion, opts Options) *Stage {
	if opts.IdleWindow <= 0 {
		opts.IdleWindow = DefaultIdleWindow
	}
	if opts.Format == "" {
		opts.Format = DefaultFormat
	}
	if opts.Limits == (face.Limits{}) {
		opts.Limits = face.DefaultLimits()
	}
	return &Stage{
		Base:       stage.NewBase(Name, opts.Options),
		gen:        gen,
		inputDir:   opts.InputDir,
		outputDir:  opts.OutputDir,
		format:     opts.Format,
		idleWindow: opts.IdleWindow,
		validate:   opts.ValidateInput,
		limits:     opts.Limits,
		inputs:     stage.NewQueue[*media.AudioData](),
		outputs:    stage.NewQueue[*media.MotionData](),
	}
}

// AddInput admits audio. Without ValidateInput every clip is accepted.
func (s *Stage) AddInput(audio *media.AudioData) error {
	if s.validate {
		if typ, err := face.Validate(audio, s.limits); err != nil {
			return s.Reject(typ, audio, err.Error())
		}
	}
	s.inputs.Push(audio)
	return nil
}

// Output pops the oldest generated motion.
func (s *Stage) Output() (*media.MotionData, bool) {
	return s.outputs.Pop()
}

// Seed returns the motion the next generation will continue from.
func (s *Stage) Seed() *media.MotionData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seed
}

func (s *Stage) touch() {
	s.mu.Lock()
	s.lastGenerate = s.Now()
	s.mu.Unlock()
}

// Snapshot reports queue depths and status.
func (s *Stage) Snapshot() stage.Snapshot {
	snap := s.Base.Snapshot(s.inputs.Len(), s.outputs.Len())
	if seed := s.Seed(); snap.Detail == "" && seed != nil {
		snap.Detail = "seeded from " + seed.AudioName
	}
	return snap
}

// Tick runs the handler for the current status.
func (s *Stage) Tick(ctx context.Context) error {
	stage.Dispatch(ctx, s.Base, s)
	return nil
}

func (s *Stage) OnWait(context.Context) {
	if s.Advance(stage.Wait, s.inputs.Len() > 0) {
		return
	}
	s.mu.Lock()
	expired := s.seed
	if expired != nil && s.Now().Sub(s.lastGenerate) > s.idleWindow {
		s.seed = nil
	} else {
		expired = nil
	}
	s.mu.Unlock()
	if expired != nil {
		s.Logger().Debug("motion seed expired",
			logging.String(logging.FieldEventType, "motion_seed_reset"),
			logging.String("seed", expired.AudioName),
			logging.Duration("idle_window", s.idleWindow),
		)
	}
}

func (s *Stage) OnExecute(ctx context.Context) {
	if s.Advance(stage.Execute, s.inputs.Len() > 0) {
		return
	}
	audio, ok := s.inputs.Pop()
	if !ok {
		return
	}
	ctx = services.WithStage(ctx, Name)
	if audio == nil {
		s.Record(stage.StageExecuteFailed, nil, services.Wrap(services.ErrValidation, Name, "generate", "nil audio", nil))
		return
	}

	started := s.Now()
	motion, err := s.gen.Generate(ctx, s.inputDir, audio, s.Seed())
	if err == nil && motion == nil {
		err = services.Wrap(services.ErrExternalTool, Name, "generate", "generator returned no motion", nil)
	}
	s.Observer().GenerationObserved(Name, s.Now().Sub(started), err)
	if err != nil {
		s.Record(stage.StageExecuteFailed, nil, err)
		return
	}

	if s.outputDir != "" {
		if _, err := s.gen.SaveMotion(ctx, motion, s.format, s.outputDir); err != nil {
			s.Record(stage.StageExecuteFailed, nil, err)
			return
		}
	}
	s.outputs.Push(motion)
	s.mu.Lock()
	s.seed = motion
	s.lastGenerate = s.Now()
	s.mu.Unlock()
	logging.WithContext(ctx, s.Logger()).Info("motion generated",
		logging.String(logging.FieldEventType, "motion_generated"),
		logging.String(logging.FieldArtifact, audio.Name),
		logging.Int("frames", motion.FrameCount),
	)
}

func (s *Stage) OnStop(context.Context) {
	if _, ok := s.HandleStop(s.inputs.Len() > 0); ok {
		s.touch()
	}
}

func (s *Stage) OnError(context.Context) {
	if s.Advance(stage.Error, s.inputs.Len() > 0) {
		return
	}
	s.touch()
}
