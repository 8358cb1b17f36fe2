package speech

import (
	"context"
	"fmt"
	"strings"

	"streamer/internal/generator"
	"streamer/internal/logging"
	"streamer/internal/media"
	"streamer/internal/services"
	"streamer/internal/stage"
)

// Name identifies the speech stage in logs, metrics, and the API.
const Name = "speech"

// Options configures a Stage.
type Options struct {
	stage.Options
	OutputDir string
}

// Stage synthesizes audio from admitted text.
type Stage struct {
	*stage.Base

	gen       generator.TTS
	outputDir string

	raw     *stage.Queue[string]
	handled *stage.Queue[generator.ModelInput]
	outputs *stage.Queue[*media.AudioData]
}

// New constructs a speech stage.
func New(gen generator.TTS, opts Options) *Stage {
	return &Stage{
		Base:      stage.NewBase(Name, opts.Options),
		gen:       gen,
		outputDir: opts.OutputDir,
		raw:       stage.NewQueue[string](),
		handled:   stage.NewQueue[generator.ModelInput](),
		outputs:   stage.NewQueue[*media.AudioData](),
	}
}

// AddInput admits non-blank text. Blank text is recorded as an exception
// carrying the text and never enqueued.
func (s *Stage) AddInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return s.Reject(stage.InvalidDataContent, text, "text is empty")
	}
	s.raw.Push(text)
	return nil
}

// Output pops the oldest synthesized clip.
func (s *Stage) Output() (*media.AudioData, bool) {
	return s.outputs.Pop()
}

// Snapshot reports queue depths and status. Inputs counts both raw and
// prepared text.
func (s *Stage) Snapshot() stage.Snapshot {
	return s.Base.Snapshot(s.raw.Len()+s.handled.Len(), s.outputs.Len())
}

// Tick prepares at most one pending text, then runs the handler for the
// current status. A preparation failure is returned unclassified; the text
// is dropped and no exception is recorded.
func (s *Stage) Tick(ctx context.Context) error {
	if text, ok := s.raw.Pop(); ok {
		in, err := s.gen.Prepare(services.WithStage(ctx, Name), []string{text})
		if err != nil {
			return fmt.Errorf("speech: prepare input: %w", err)
		}
		s.handled.Push(in)
	}
	stage.Dispatch(ctx, s.Base, s)
	return nil
}

func (s *Stage) OnWait(context.Context) {
	s.Advance(stage.Wait, s.handled.Len() > 0)
}

func (s *Stage) OnExecute(ctx context.Context) {
	if s.Advance(stage.Execute, s.handled.Len() > 0) {
		return
	}
	in, ok := s.handled.Pop()
	if !ok {
		return
	}
	ctx = services.WithStage(ctx, Name)

	started := s.Now()
	audio, err := s.gen.Generate(ctx, in)
	if err == nil && audio == nil {
		err = services.Wrap(services.ErrExternalTool, Name, "generate", "generator returned no audio", nil)
	}
	s.Observer().GenerationObserved(Name, s.Now().Sub(started), err)
	if err != nil {
		s.Record(stage.StageExecuteFailed, nil, err)
		return
	}

	if s.outputDir != "" {
		if _, err := s.gen.SaveAudio(ctx, audio, string(media.FormatWAV), s.outputDir); err != nil {
			s.Record(stage.StageExecuteFailed, nil, err)
			return
		}
	}
	s.outputs.Push(audio)
	logging.WithContext(ctx, s.Logger()).Info("speech synthesized",
		logging.String(logging.FieldEventType, "speech_generated"),
		logging.String(logging.FieldArtifact, audio.Name),
		logging.Float64("duration_seconds", audio.Duration),
		logging.Int("sample_rate", audio.SampleRate),
	)
}

// OnStop discards pending text, prepared text, and undelivered audio for
// each consumed stop request.
func (s *Stage) OnStop(context.Context) {
	req, ok := s.HandleStop(s.handled.Len() > 0)
	if !ok {
		return
	}
	raw := s.raw.Clear()
	handled := s.handled.Clear()
	outputs := s.outputs.Clear()
	if raw+handled+outputs > 0 {
		s.Logger().Info("speech queues cleared",
			logging.String(logging.FieldEventType, "speech_queues_cleared"),
			logging.String(logging.FieldConversationID, req.ConversationID),
			logging.Int("raw", raw),
			logging.Int("prepared", handled),
			logging.Int("outputs", outputs),
		)
	}
}

func (s *Stage) OnError(context.Context) {
	s.Advance(stage.Error, s.handled.Len() > 0)
}
