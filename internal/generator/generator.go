package generator

import (
	"context"

	"streamer/internal/media"
)

// ModelInput is the opaque, model-specific result of TTS.Prepare. Stages pass
// it back to Generate unchanged.
type ModelInput any

// AudioStore persists synthesized speech.
type AudioStore interface {
	SaveAudio(ctx context.Context, audio *media.AudioData, format, dir string) (string, error)
	LoadAudio(ctx context.Context, path string) (*media.AudioData, error)
	Delete(ctx context.Context, path string) error
}

// FaceStore persists face expression sequences.
type FaceStore interface {
	SaveFace(ctx context.Context, face *media.FaceExpression, format, dir string) (string, error)
	LoadFace(ctx context.Context, path string) (*media.FaceExpression, error)
	Delete(ctx context.Context, path string) error
}

// MotionStore persists pose sequences.
type MotionStore interface {
	SaveMotion(ctx context.Context, motion *media.MotionData, format, dir string) (string, error)
	LoadMotion(ctx context.Context, path string) (*media.MotionData, error)
	Delete(ctx context.Context, path string) error
}

// TTS converts text into speech. Prepare runs once per admitted text before
// the text is eligible for generation.
type TTS interface {
	AudioStore
	Prepare(ctx context.Context, texts []string) (ModelInput, error)
	Generate(ctx context.Context, in ModelInput) (*media.AudioData, error)
}

// Face converts speech into per-frame blend shapes and emotion vectors.
// Generate may block for a long time; callers bound it with ctx.
type Face interface {
	FaceStore
	Generate(ctx context.Context, audio *media.AudioData) (*media.FaceExpression, error)
}

// Motion converts speech into body poses. seed is the previous output, or
// nil to start from a neutral pose. inputDir is where the audio artifact was
// persisted, for backends that read it from disk.
type Motion interface {
	MotionStore
	Generate(ctx context.Context, inputDir string, audio *media.AudioData, seed *media.MotionData) (*media.MotionData, error)
}
