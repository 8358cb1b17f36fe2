package pipeline

import (
	"log/slog"

	"streamer/internal/artifact"
	"streamer/internal/config"
	"streamer/internal/generator"
	"streamer/internal/logging"
	"streamer/internal/services/inference"
	"streamer/internal/services/synthetic"
)

// Generators bundles the model backends the stages call.
type Generators struct {
	TTS    generator.TTS
	Face   generator.Face
	Motion generator.Motion
}

// NewGenerators builds the backend selected by backend.kind.
func NewGenerators(cfg *config.Config, logger *slog.Logger) Generators {
	if logger == nil {
		logger = logging.NewNop()
	}
	store := artifact.NewStore(logger)
	backend := cfg.Backend

	if backend.Kind == config.BackendHTTP {
		client := inference.NewClient(inference.Config{
			BaseURL:        backend.BaseURL,
			APIKey:         backend.APIKey,
			TimeoutSeconds: backend.TimeoutSeconds,
			Voice:          backend.Voice,
			SampleRate:     backend.SampleRate,
			FaceFPS:        backend.FaceFPS,
			PoseFPS:        backend.PoseFPS,
		})
		return Generators{
			TTS:    inference.NewTTS(client, store),
			Face:   inference.NewFace(client, store),
			Motion: inference.NewMotion(client, store),
		}
	}

	synth := synthetic.Config{
		SampleRate: backend.SampleRate,
		FaceFPS:    backend.FaceFPS,
		PoseFPS:    backend.PoseFPS,
		Voice:      backend.Voice,
	}
	return Generators{
		TTS:    synthetic.NewTTS(synth, store),
		Face:   synthetic.NewFace(synth, store),
		Motion: synthetic.NewMotion(synth, store),
	}
}
