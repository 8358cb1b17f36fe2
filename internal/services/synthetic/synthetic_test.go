package synthetic_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"streamer/internal/artifact"
	"streamer/internal/logging"
	"streamer/internal/media"
	"streamer/internal/services"
	"streamer/internal/services/synthetic"
)

func newStore() *artifact.Store {
	return artifact.NewStore(logging.NewNop())
}

func TestTTSPrepareNormalizesAndRejectsBlank(t *testing.T) {
	tts := synthetic.NewTTS(synthetic.Config{Voice: "calm"}, newStore())
	in, err := tts.Prepare(context.Background(), []string{"  hello\tthere ", "", "friend"})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	prompt, ok := in.(synthetic.Prompt)
	if !ok {
		t.Fatalf("expected Prompt, got %T", in)
	}
	if prompt.Text != "hello there friend" || prompt.Voice != "calm" {
		t.Fatalf("unexpected prompt %+v", prompt)
	}

	_, err = tts.Prepare(context.Background(), []string{" ", ""})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTTSGenerateProducesWAV(t *testing.T) {
	tts := synthetic.NewTTS(synthetic.Config{SampleRate: 8000}, newStore())
	in, err := tts.Prepare(context.Background(), []string{"one two three four"})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	audio, err := tts.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if audio.Format != media.FormatWAV || !strings.HasSuffix(audio.Name, ".wav") {
		t.Fatalf("unexpected clip %q (%s)", audio.Name, audio.Format)
	}
	info, err := artifact.InspectWAV(audio.Data)
	if err != nil {
		t.Fatalf("InspectWAV: %v", err)
	}
	if info.SampleRate != 8000 {
		t.Fatalf("expected 8000 Hz, got %d", info.SampleRate)
	}
	if audio.Duration < 1.2 || audio.Duration > 1.4 {
		t.Fatalf("expected ~1.28s for four words, got %.2f", audio.Duration)
	}

	again, err := tts.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if again.Name == audio.Name {
		t.Fatalf("expected unique clip names, got %q twice", audio.Name)
	}
}

func TestTTSGenerateRejectsForeignInput(t *testing.T) {
	tts := synthetic.NewTTS(synthetic.Config{}, newStore())
	if _, err := tts.Generate(context.Background(), "raw string"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func speak(t *testing.T, words string) *media.AudioData {
	t.Helper()
	tts := synthetic.NewTTS(synthetic.Config{}, newStore())
	in, err := tts.Prepare(context.Background(), []string{words})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	audio, err := tts.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return audio
}

func TestFaceFollowsAudio(t *testing.T) {
	audio := speak(t, "the quick brown fox")
	face, err := synthetic.NewFace(synthetic.Config{FaceFPS: 25}, newStore()).Generate(context.Background(), audio)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if face.AudioName != audio.Name {
		t.Fatalf("expected audio name %q, got %q", audio.Name, face.AudioName)
	}
	if face.FrameCount != len(face.BlendShapes) || len(face.Emotion) != face.FrameCount {
		t.Fatalf("frame count mismatch: %d shapes=%d emotion=%d", face.FrameCount, len(face.BlendShapes), len(face.Emotion))
	}
	if face.FrameCount < 30 || face.FrameCount > 34 {
		t.Fatalf("expected ~32 frames at 25fps, got %d", face.FrameCount)
	}
	jaw := media.BlendShapeIndex("JawOpen")
	peak := 0.0
	for _, frame := range face.BlendShapes {
		if len(frame) != len(media.BlendShapeNames) {
			t.Fatalf("expected %d blend shapes, got %d", len(media.BlendShapeNames), len(frame))
		}
		if frame[jaw] > peak {
			peak = frame[jaw]
		}
	}
	if peak != 1 {
		t.Fatalf("expected loudest frame to fully open the jaw, got %.2f", peak)
	}
	if face.Emotion[0][media.EmotionIndex("neutral")] != 1 {
		t.Fatalf("expected neutral emotion")
	}
}

func TestFaceRejectsNonWAV(t *testing.T) {
	audio := &media.AudioData{Name: "x.mp3", Data: []byte("not audio"), Format: media.FormatMP3}
	_, err := synthetic.NewFace(synthetic.Config{}, newStore()).Generate(context.Background(), audio)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMotionContinuesFromSeed(t *testing.T) {
	audio := speak(t, "hello world")
	motion := synthetic.NewMotion(synthetic.Config{PoseFPS: 20}, newStore())

	first, err := motion.Generate(context.Background(), "", audio, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if first.FrameCount != len(first.Poses) || first.FrameCount == 0 {
		t.Fatalf("unexpected frame count %d", first.FrameCount)
	}
	for _, v := range first.Poses[0] {
		if v != 0 {
			t.Fatalf("expected unseeded motion to start at rest")
		}
	}

	second, err := motion.Generate(context.Background(), "", audio, first)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	last := first.LastPose()
	for i, v := range second.Poses[0] {
		if v != last[i] {
			t.Fatalf("pose[0][%d]: expected %v from seed, got %v", i, last[i], v)
		}
	}
}

func TestGeneratorsHonourCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	audio := speak(t, "cancelled")
	if _, err := synthetic.NewFace(synthetic.Config{}, newStore()).Generate(ctx, audio); !errors.Is(err, context.Canceled) {
		t.Fatalf("face: expected context.Canceled, got %v", err)
	}
	if _, err := synthetic.NewMotion(synthetic.Config{}, newStore()).Generate(ctx, "", audio, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("motion: expected context.Canceled, got %v", err)
	}
}
