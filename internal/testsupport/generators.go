package testsupport

import (
	"context"
	"errors"
	"strings"
	"sync"

	"streamer/internal/artifact"
	"streamer/internal/generator"
	"streamer/internal/media"
)

// FakeTTS records prepared texts and returns a fixed-length clip per call.
type FakeTTS struct {
	*artifact.Store

	mu         sync.Mutex
	Prepared   []string
	Generated  []string
	PrepareErr error
	GenerateFn func(text string) (*media.AudioData, error)
}

// NewFakeTTS returns a FakeTTS backed by a real artifact store.
func NewFakeTTS() *FakeTTS {
	return &FakeTTS{Store: artifact.NewStore(nil)}
}

func (f *FakeTTS) Prepare(_ context.Context, texts []string) (generator.ModelInput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PrepareErr != nil {
		return nil, f.PrepareErr
	}
	joined := strings.Join(texts, " ")
	f.Prepared = append(f.Prepared, joined)
	return joined, nil
}

func (f *FakeTTS) Generate(_ context.Context, in generator.ModelInput) (*media.AudioData, error) {
	text, _ := in.(string)
	f.mu.Lock()
	f.Generated = append(f.Generated, text)
	fn := f.GenerateFn
	f.mu.Unlock()
	if fn != nil {
		return fn(text)
	}
	return Audio(strings.ReplaceAll(text, " ", "_")+".wav", 0.5), nil
}

// FakeFace returns an expression per clip, optionally blocking until
// Release is closed.
type FakeFace struct {
	*artifact.Store

	mu        sync.Mutex
	Calls     []string
	Err       error
	Release   chan struct{}
	cancelled int
	// IgnoreContext makes Generate wait on Release alone, like a model call
	// that cannot be interrupted.
	IgnoreContext bool
}

// NewFakeFace returns a FakeFace backed by a real artifact store.
func NewFakeFace() *FakeFace {
	return &FakeFace{Store: artifact.NewStore(nil)}
}

func (f *FakeFace) Generate(ctx context.Context, audio *media.AudioData) (*media.FaceExpression, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, audio.Name)
	release := f.Release
	err := f.Err
	f.mu.Unlock()

	if release != nil {
		if f.IgnoreContext {
			<-release
		} else {
			select {
			case <-release:
			case <-ctx.Done():
				f.mu.Lock()
				f.cancelled++
				f.mu.Unlock()
				return nil, ctx.Err()
			}
		}
	}
	if err != nil {
		return nil, err
	}
	frames := int(audio.Duration * 30)
	face := &media.FaceExpression{
		AudioName:   audio.Name,
		BlendShapes: make([][]float64, frames),
		Emotion:     make([][]float64, frames),
		Timestamp:   audio.Timestamp,
		Duration:    audio.Duration,
		FrameCount:  frames,
	}
	for i := 0; i < frames; i++ {
		face.BlendShapes[i] = make([]float64, len(media.BlendShapeNames))
		face.Emotion[i] = make([]float64, len(media.Emotions))
	}
	return face, nil
}

// CallCount reports how many times Generate was entered.
func (f *FakeFace) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// CancelCount reports how many blocked calls returned because their context
// ended.
func (f *FakeFace) CancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

// MotionCall captures the arguments of one FakeMotion.Generate call.
type MotionCall struct {
	InputDir string
	Audio    string
	Seed     *media.MotionData
}

// FakeMotion records the seed it was given and returns a single-frame motion
// whose pose encodes the call number.
type FakeMotion struct {
	*artifact.Store

	mu    sync.Mutex
	Calls []MotionCall
	Err   error
}

// NewFakeMotion returns a FakeMotion backed by a real artifact store.
func NewFakeMotion() *FakeMotion {
	return &FakeMotion{Store: artifact.NewStore(nil)}
}

// ErrFakeMotion is a canned generation failure.
var ErrFakeMotion = errors.New("fake motion failure")

func (f *FakeMotion) Generate(_ context.Context, inputDir string, audio *media.AudioData, seed *media.MotionData) (*media.MotionData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, MotionCall{InputDir: inputDir, Audio: audio.Name, Seed: seed})
	if f.Err != nil {
		return nil, f.Err
	}
	pose := make([]float64, media.PoseWidth)
	pose[0] = float64(len(f.Calls))
	return &media.MotionData{
		AudioName:  audio.Name,
		Poses:      [][]float64{pose},
		Timestamp:  audio.Timestamp,
		Duration:   audio.Duration,
		FrameCount: 1,
	}, nil
}

// LastCall returns the most recent Generate arguments.
func (f *FakeMotion) LastCall() MotionCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return MotionCall{}
	}
	return f.Calls[len(f.Calls)-1]
}
