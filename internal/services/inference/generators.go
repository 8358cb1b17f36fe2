package inference

import (
	"context"
	"fmt"
	"strings"

	"streamer/internal/artifact"
	"streamer/internal/generator"
	"streamer/internal/media"
	"streamer/internal/services"
)

// Prompt is the prepared TTS input sent to the server.
type Prompt struct {
	Text       string `json:"text"`
	Voice      string `json:"voice,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

type audioPayload struct {
	Name       string  `json:"name"`
	Format     string  `json:"format"`
	Audio      []byte  `json:"audio"`
	SampleRate int     `json:"sample_rate"`
	Duration   float64 `json:"duration"`
	Timestamp  float64 `json:"timestamp,omitempty"`
}

type faceRequest struct {
	Audio audioPayload `json:"audio"`
	FPS   int          `json:"fps,omitempty"`
}

type motionRequest struct {
	Audio    audioPayload `json:"audio"`
	InputDir string       `json:"input_dir,omitempty"`
	Seed     [][]float64  `json:"seed,omitempty"`
	FPS      int          `json:"fps,omitempty"`
}

func toPayload(audio *media.AudioData) audioPayload {
	return audioPayload{
		Name:       audio.Name,
		Format:     string(audio.Format),
		Audio:      audio.Data,
		SampleRate: audio.SampleRate,
		Duration:   audio.Duration,
		Timestamp:  audio.Timestamp,
	}
}

// TTS implements generator.TTS against POST /v1/tts.
type TTS struct {
	*artifact.Store
	client *Client
}

// NewTTS returns a remote speech generator.
func NewTTS(client *Client, store *artifact.Store) *TTS {
	return &TTS{Store: store, client: client}
}

// Prepare normalizes the texts into a single prompt.
func (t *TTS) Prepare(_ context.Context, texts []string) (generator.ModelInput, error) {
	text := services.NormalizeTexts(texts)
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, "inference", "prepare", "no speakable text", nil)
	}
	return Prompt{Text: text, Voice: t.client.cfg.Voice, SampleRate: t.client.cfg.SampleRate}, nil
}

// Generate synthesizes the prompt into audio.
func (t *TTS) Generate(ctx context.Context, in generator.ModelInput) (*media.AudioData, error) {
	prompt, ok := in.(Prompt)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "inference", "tts", fmt.Sprintf("unexpected model input %T", in), nil)
	}
	var reply audioPayload
	if err := t.client.post(ctx, "tts", prompt, &reply); err != nil {
		return nil, err
	}
	if len(reply.Audio) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "inference", "tts", "server returned empty audio", nil)
	}
	format, err := media.ParseAudioFormat(reply.Format)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "inference", "tts", "server returned unknown format", err)
	}
	name := strings.TrimSpace(reply.Name)
	if name == "" {
		return nil, services.Wrap(services.ErrExternalTool, "inference", "tts", "server returned unnamed clip", nil)
	}
	return &media.AudioData{
		Data:       reply.Audio,
		Format:     format,
		Name:       name,
		Timestamp:  reply.Timestamp,
		SampleRate: reply.SampleRate,
		Duration:   reply.Duration,
	}, nil
}

// Face implements generator.Face against POST /v1/face.
type Face struct {
	*artifact.Store
	client *Client
}

// NewFace returns a remote face generator.
func NewFace(client *Client, store *artifact.Store) *Face {
	return &Face{Store: store, client: client}
}

// Generate derives blend shapes for audio.
func (f *Face) Generate(ctx context.Context, audio *media.AudioData) (*media.FaceExpression, error) {
	var face media.FaceExpression
	if err := f.client.post(ctx, "face", faceRequest{Audio: toPayload(audio), FPS: f.client.cfg.FaceFPS}, &face); err != nil {
		return nil, err
	}
	if len(face.BlendShapes) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "inference", "face", "server returned no frames", nil)
	}
	if face.AudioName == "" {
		face.AudioName = audio.Name
	}
	if face.FrameCount == 0 {
		face.FrameCount = len(face.BlendShapes)
	}
	return &face, nil
}

// Motion implements generator.Motion against POST /v1/motion.
type Motion struct {
	*artifact.Store
	client *Client
}

// NewMotion returns a remote motion generator.
func NewMotion(client *Client, store *artifact.Store) *Motion {
	return &Motion{Store: store, client: client}
}

// Generate produces poses for audio, continuing from seed when present.
func (m *Motion) Generate(ctx context.Context, inputDir string, audio *media.AudioData, seed *media.MotionData) (*media.MotionData, error) {
	req := motionRequest{Audio: toPayload(audio), InputDir: inputDir, FPS: m.client.cfg.PoseFPS}
	if seed != nil {
		req.Seed = seed.Poses
	}
	var motion media.MotionData
	if err := m.client.post(ctx, "motion", req, &motion); err != nil {
		return nil, err
	}
	if len(motion.Poses) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "inference", "motion", "server returned no poses", nil)
	}
	if motion.AudioName == "" {
		motion.AudioName = audio.Name
	}
	if motion.FrameCount == 0 {
		motion.FrameCount = len(motion.Poses)
	}
	return &motion, nil
}
