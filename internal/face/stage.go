package face

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"streamer/internal/generator"
	"streamer/internal/logging"
	"streamer/internal/media"
	"streamer/internal/services"
	"streamer/internal/stage"
)

// Name identifies the face stage in logs, metrics, and the API.
const Name = "face"

// DefaultTimeout bounds a single generation.
const DefaultTimeout = 30 * time.Second

var errWorkerClosed = errors.New("face worker closed")

// Options configures a Stage.
type Options struct {
	stage.Options
	Limits    Limits
	Timeout   time.Duration
	OutputDir string
}

type job struct {
	ctx    context.Context
	audio  *media.AudioData
	result chan<- result
}

type result struct {
	face *media.FaceExpression
	err  error
}

// Stage generates face expressions from admitted audio clips.
type Stage struct {
	*stage.Base

	gen       generator.Face
	limits    Limits
	timeout   time.Duration
	outputDir string

	inputs  *stage.Queue[*media.AudioData]
	outputs *stage.Queue[*media.FaceExpression]

	jobs      chan job
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New constructs a face stage and starts its worker. Call Close to stop it.
func New(gen generator.Face, opts Options) *Stage {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Limits == (Limits{}) {
		opts.Limits = DefaultLimits()
	}
	s := &Stage{
		Base:      stage.NewBase(Name, opts.Options),
		gen:       gen,
		limits:    opts.Limits,
		timeout:   opts.Timeout,
		outputDir: opts.OutputDir,
		inputs:    stage.NewQueue[*media.AudioData](),
		outputs:   stage.NewQueue[*media.FaceExpression](),
		jobs:      make(chan job),
		done:      make(chan struct{}),
	}
	s.wg.Add(1)
	go s.work()
	return s
}

// Close stops the worker after any in-flight generation returns.
func (s *Stage) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

// AddInput admits audio that passes Validate. Rejected clips are recorded as
// exceptions carrying the clip and never enqueued.
func (s *Stage) AddInput(audio *media.AudioData) error {
	if typ, err := Validate(audio, s.limits); err != nil {
		return s.Reject(typ, audio, err.Error())
	}
	s.inputs.Push(audio)
	return nil
}

// Output pops the oldest generated expression.
func (s *Stage) Output() (*media.FaceExpression, bool) {
	return s.outputs.Pop()
}

// Snapshot reports queue depths and status.
func (s *Stage) Snapshot() stage.Snapshot {
	return s.Base.Snapshot(s.inputs.Len(), s.outputs.Len())
}

// Tick runs the handler for the current status.
func (s *Stage) Tick(ctx context.Context) error {
	stage.Dispatch(ctx, s.Base, s)
	return nil
}

func (s *Stage) OnWait(context.Context) {
	s.Advance(stage.Wait, s.inputs.Len() > 0)
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
	logger := logging.WithContext(ctx, s.Logger())

	started := s.Now()
	face, err := s.generate(ctx, audio)
	elapsed := s.Now().Sub(started)
	s.Observer().GenerationObserved(Name, elapsed, err)
	if err != nil {
		s.Record(stage.ExecutionFailed, nil, err)
		return
	}

	s.outputs.Push(face)
	logger.Info("face expression generated",
		logging.String(logging.FieldEventType, "face_generated"),
		logging.String(logging.FieldArtifact, audio.Name),
		logging.Int("frames", face.FrameCount),
		logging.Duration("elapsed", elapsed),
	)

	if s.outputDir == "" {
		return
	}
	if _, err := s.gen.SaveFace(ctx, face, "json", s.outputDir); err != nil {
		s.Record(stage.ExecutionFailed, nil, err)
	}
}

func (s *Stage) OnStop(context.Context) {
	s.HandleStop(s.inputs.Len() > 0)
}

func (s *Stage) OnError(context.Context) {
	s.Advance(stage.Error, s.inputs.Len() > 0)
}

// generate hands audio to the worker and waits for the result or the
// deadline, whichever comes first. The deadline covers time spent waiting
// for a worker still busy with an abandoned call. The worker's context does
// not carry the deadline, so a timed out call is abandoned, not cancelled.
func (s *Stage) generate(ctx context.Context, audio *media.AudioData) (*media.FaceExpression, error) {
	jobCtx := context.WithoutCancel(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results := make(chan result, 1)
	select {
	case s.jobs <- job{ctx: jobCtx, audio: audio, result: results}:
	case <-s.done:
		return nil, errWorkerClosed
	case <-ctx.Done():
		return nil, services.Wrap(services.ErrTimeout, Name, "generate", fmt.Sprintf("worker busy past %s deadline", s.timeout), ctx.Err())
	}

	select {
	case r := <-results:
		return r.face, r.err
	case <-ctx.Done():
		return nil, services.Wrap(services.ErrTimeout, Name, "generate", fmt.Sprintf("no result within %s", s.timeout), ctx.Err())
	}
}

func (s *Stage) work() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case j := <-s.jobs:
			face, err := s.gen.Generate(j.ctx, j.audio)
			if err == nil && face == nil {
				err = services.Wrap(services.ErrExternalTool, Name, "generate", "generator returned no expression", nil)
			}
			j.result <- result{face: face, err: err}
		}
	}
}
