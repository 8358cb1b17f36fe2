package inference_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"streamer/internal/artifact"
	"streamer/internal/logging"
	"streamer/internal/media"
	"streamer/internal/services"
	"streamer/internal/services/inference"
	"streamer/internal/testsupport"
)

func newClient(t *testing.T, handler http.HandlerFunc, opts ...inference.Option) *inference.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	opts = append([]inference.Option{inference.WithSleeper(func(time.Duration) {})}, opts...)
	return inference.NewClient(inference.Config{
		BaseURL:    server.URL + "/",
		APIKey:     "secret",
		Voice:      "narrator",
		SampleRate: 16000,
		FaceFPS:    30,
		PoseFPS:    25,
	}, opts...)
}

func store() *artifact.Store {
	return artifact.NewStore(logging.NewNop())
}

func TestTTSRoundTrip(t *testing.T) {
	wav := testsupport.WAV(0.5, 16000)
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tts" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		var prompt inference.Prompt
		if err := json.NewDecoder(r.Body).Decode(&prompt); err != nil {
			t.Errorf("decode prompt: %v", err)
		}
		if prompt.Text != "hello there" || prompt.Voice != "narrator" || prompt.SampleRate != 16000 {
			t.Errorf("unexpected prompt %+v", prompt)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":        "hello.wav",
			"format":      "WAV",
			"audio":       wav,
			"sample_rate": 16000,
			"duration":    0.5,
		})
	})

	tts := inference.NewTTS(client, store())
	in, err := tts.Prepare(context.Background(), []string{" hello ", "there"})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	audio, err := tts.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if audio.Name != "hello.wav" || audio.Format != media.FormatWAV || len(audio.Data) != len(wav) {
		t.Fatalf("unexpected audio %q %s %d bytes", audio.Name, audio.Format, len(audio.Data))
	}
}

func TestFaceFillsDefaults(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Audio struct {
				Name string `json:"name"`
			} `json:"audio"`
			FPS int `json:"fps"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.URL.Path != "/v1/face" || body.Audio.Name != "clip.wav" || body.FPS != 30 {
			t.Errorf("unexpected face request %s %+v", r.URL.Path, body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"blend_shapes": [][]float64{make([]float64, 3), make([]float64, 3)},
			"emotion":      [][]float64{{1}, {1}},
		})
	})
	face, err := inference.NewFace(client, store()).Generate(context.Background(), testsupport.Audio("clip.wav", 0.1))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if face.AudioName != "clip.wav" || face.FrameCount != 2 {
		t.Fatalf("unexpected face %+v", face)
	}
}

func TestMotionSendsSeed(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			InputDir string      `json:"input_dir"`
			Seed     [][]float64 `json:"seed"`
			FPS      int         `json:"fps"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.InputDir != "/data/in" || len(body.Seed) != 1 || body.Seed[0][0] != 7 || body.FPS != 25 {
			t.Errorf("unexpected motion request %+v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"poses": [][]float64{{1, 2, 3}}})
	})
	seed := &media.MotionData{Poses: [][]float64{{7}}}
	motion, err := inference.NewMotion(client, store()).Generate(context.Background(), "/data/in", testsupport.Audio("clip.wav", 0.1), seed)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if motion.FrameCount != 1 || motion.AudioName != "clip.wav" {
		t.Fatalf("unexpected motion %+v", motion)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"poses": [][]float64{{0}}})
	})
	_, err := inference.NewMotion(client, store()).Generate(context.Background(), "", testsupport.Audio("clip.wav", 0.1), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		marker error
		calls  int32
	}{
		{"unauthorized", http.StatusUnauthorized, services.ErrConfiguration, 1},
		{"missing", http.StatusNotFound, services.ErrNotFound, 1},
		{"bad request", http.StatusBadRequest, services.ErrValidation, 1},
		{"overloaded", http.StatusTooManyRequests, services.ErrTransient, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				http.Error(w, "nope", tc.status)
			}, inference.WithRetryMaxAttempts(2))
			_, err := inference.NewFace(client, store()).Generate(context.Background(), testsupport.Audio("clip.wav", 0.1))
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
			if calls.Load() != tc.calls {
				t.Fatalf("expected %d calls, got %d", tc.calls, calls.Load())
			}
		})
	}
}

func TestEmptyReplyIsExternalFailure(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"poses":[]}`))
	})
	_, err := inference.NewMotion(client, store()).Generate(context.Background(), "", testsupport.Audio("clip.wav", 0.1), nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			w.WriteHeader(http.StatusNotFound)
		}
	})
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
