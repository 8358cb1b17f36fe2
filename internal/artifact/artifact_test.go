package artifact_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"streamer/internal/artifact"
	"streamer/internal/media"
	"streamer/internal/services"
)

func TestWAVEncodeInspectDecode(t *testing.T) {
	samples := make([]int16, 1600)
	for i := range samples {
		samples[i] = int16(i % 200)
	}
	data := artifact.EncodeWAV(samples, 16000)

	if !artifact.IsWAV(data) {
		t.Fatal("expected RIFF/WAVE header")
	}
	info, err := artifact.InspectWAV(data)
	if err != nil {
		t.Fatalf("InspectWAV returned error: %v", err)
	}
	if info.SampleRate != 16000 || info.Channels != 1 || info.BitsPerSample != 16 {
		t.Fatalf("unexpected header: %+v", info)
	}
	if got := info.Duration(); got != 0.1 {
		t.Fatalf("duration = %v, want 0.1", got)
	}

	decoded, _, err := artifact.DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV returned error: %v", err)
	}
	if len(decoded) != len(samples) || decoded[199] != 199 {
		t.Fatalf("decoded samples mismatch: len=%d", len(decoded))
	}
}

func TestInspectWAVRejectsGarbage(t *testing.T) {
	if _, err := artifact.InspectWAV([]byte("ID3 not a wav file")); !errors.Is(err, artifact.ErrNotWAV) {
		t.Fatalf("expected ErrNotWAV, got %v", err)
	}
	truncated := artifact.EncodeWAV([]int16{1, 2}, 16000)[:20]
	if _, err := artifact.InspectWAV(truncated); err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestMotionCSVRoundTrip(t *testing.T) {
	motion := &media.MotionData{
		AudioName: "clip-1.wav",
		Poses:     [][]float64{{0, 0.5, -1.25}, {1, 2, 3}},
	}
	data, err := artifact.EncodeMotionCSV(motion)
	if err != nil {
		t.Fatalf("EncodeMotionCSV returned error: %v", err)
	}
	if !strings.HasPrefix(string(data), "j0_x,j0_y,j0_z\n") {
		t.Fatalf("unexpected header in %q", data)
	}
	decoded, err := artifact.DecodeMotionCSV(data)
	if err != nil {
		t.Fatalf("DecodeMotionCSV returned error: %v", err)
	}
	if decoded.FrameCount != 2 || decoded.Poses[0][2] != -1.25 {
		t.Fatalf("unexpected decoded motion: %+v", decoded)
	}
}

func TestMotionCSVRejectsRaggedFrames(t *testing.T) {
	motion := &media.MotionData{Poses: [][]float64{{1, 2, 3}, {1, 2}}}
	if _, err := artifact.EncodeMotionCSV(motion); err == nil {
		t.Fatal("expected error for ragged frames")
	}
}

func TestDecodeFaceChecksFrameWidth(t *testing.T) {
	if _, err := artifact.DecodeFace([]byte(`{"blend_shapes":[[1,2]]}`)); err == nil {
		t.Fatal("expected width error")
	}
}

func TestStoreAudioRoundTrip(t *testing.T) {
	store := artifact.NewStore(nil)
	dir := t.TempDir()
	audio := &media.AudioData{
		Data:       artifact.EncodeWAV(make([]int16, 8000), 16000),
		Format:     media.FormatWAV,
		Name:       "utt-7.wav",
		Timestamp:  1,
		SampleRate: 16000,
		Duration:   0.5,
	}

	path, err := store.SaveAudio(context.Background(), audio, "wav", dir)
	if err != nil {
		t.Fatalf("SaveAudio returned error: %v", err)
	}
	if path != filepath.Join(dir, "utt-7.wav") {
		t.Fatalf("unexpected path %q", path)
	}
	loaded, err := store.LoadAudio(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadAudio returned error: %v", err)
	}
	if loaded.SampleRate != 16000 || loaded.Duration != 0.5 || loaded.Name != "utt-7.wav" || loaded.Timestamp <= 0 {
		t.Fatalf("unexpected loaded audio: %+v", loaded)
	}

	if err := store.Delete(context.Background(), path); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := store.Delete(context.Background(), path); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestStoreRejectsUnsupportedFormats(t *testing.T) {
	store := artifact.NewStore(nil)
	dir := t.TempDir()
	audio := &media.AudioData{Data: artifact.EncodeWAV([]int16{1}, 16000), Name: "a.wav"}
	if _, err := store.SaveAudio(context.Background(), audio, "mp3", dir); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for mp3, got %v", err)
	}
	if _, err := store.SaveMotion(context.Background(), &media.MotionData{}, "bvh", dir); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for bvh, got %v", err)
	}
	if _, err := store.SaveFace(context.Background(), &media.FaceExpression{}, "json", ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for empty dir, got %v", err)
	}
}

func TestStoreMotionAndFace(t *testing.T) {
	store := artifact.NewStore(nil)
	dir := t.TempDir()
	ctx := context.Background()

	motion := &media.MotionData{AudioName: "utt-3.wav", Poses: [][]float64{{1, 2, 3}}, FrameCount: 1}
	csvPath, err := store.SaveMotion(ctx, motion, "csv", dir)
	if err != nil {
		t.Fatalf("SaveMotion csv returned error: %v", err)
	}
	loaded, err := store.LoadMotion(ctx, csvPath)
	if err != nil {
		t.Fatalf("LoadMotion returned error: %v", err)
	}
	if loaded.AudioName != "utt-3" || len(loaded.Poses) != 1 {
		t.Fatalf("unexpected motion: %+v", loaded)
	}

	jsonPath, err := store.SaveMotion(ctx, motion, "json", dir)
	if err != nil {
		t.Fatalf("SaveMotion json returned error: %v", err)
	}
	if filepath.Ext(jsonPath) != ".json" {
		t.Fatalf("unexpected json path %q", jsonPath)
	}

	face := &media.FaceExpression{
		AudioName:   "utt-3.wav",
		BlendShapes: [][]float64{make([]float64, len(media.BlendShapeNames))},
		Emotion:     [][]float64{make([]float64, len(media.Emotions))},
		FrameCount:  1,
	}
	facePath, err := store.SaveFace(ctx, face, "json", filepath.Join(dir, "face"))
	if err != nil {
		t.Fatalf("SaveFace returned error: %v", err)
	}
	if _, err := os.Stat(facePath); err != nil {
		t.Fatalf("expected face file: %v", err)
	}
	reloaded, err := store.LoadFace(ctx, facePath)
	if err != nil {
		t.Fatalf("LoadFace returned error: %v", err)
	}
	if reloaded.FrameCount != 1 || reloaded.AudioName != "utt-3.wav" {
		t.Fatalf("unexpected face: %+v", reloaded)
	}
}
