package synthetic

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"streamer/internal/artifact"
	"streamer/internal/generator"
	"streamer/internal/media"
	"streamer/internal/services"
)

const (
	secondsPerWord = 0.32
	minSpeech      = 0.3
	maxSpeech      = 20.0
	baseFrequency  = 140.0
)

// Config holds the rendering parameters shared by the synthetic backends.
type Config struct {
	SampleRate int
	FaceFPS    int
	PoseFPS    int
	Voice      string
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.FaceFPS <= 0 {
		c.FaceFPS = 30
	}
	if c.PoseFPS <= 0 {
		c.PoseFPS = 30
	}
	return c
}

// Prompt is the prepared input the synthetic TTS consumes.
type Prompt struct {
	Text  string
	Voice string
}

// TTS renders speech-like audio for text.
type TTS struct {
	*artifact.Store
	cfg Config
	now func() time.Time
}

// NewTTS constructs a synthetic speech backend persisting through store.
func NewTTS(cfg Config, store *artifact.Store) *TTS {
	return &TTS{Store: store, cfg: cfg.withDefaults(), now: time.Now}
}

// Prepare normalizes and joins the texts into one prompt.
func (t *TTS) Prepare(_ context.Context, texts []string) (generator.ModelInput, error) {
	text := services.NormalizeTexts(texts)
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, "synthetic", "prepare", "no speakable text", nil)
	}
	return Prompt{Text: text, Voice: t.cfg.Voice}, nil
}

// Generate renders a tone whose duration scales with the word count and
// whose pitch contour follows word boundaries.
func (t *TTS) Generate(ctx context.Context, in generator.ModelInput) (*media.AudioData, error) {
	prompt, ok := in.(Prompt)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "synthetic", "generate", "unexpected model input", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	words := strings.Fields(prompt.Text)
	seconds := math.Min(math.Max(float64(len(words))*secondsPerWord, minSpeech), maxSpeech)
	rate := t.cfg.SampleRate
	n := int(seconds * float64(rate))
	samples := make([]int16, n)
	wordSamples := int(secondsPerWord * float64(rate))
	for i := range samples {
		word := 0
		if wordSamples > 0 {
			word = i / wordSamples
		}
		pos := float64(i%max(wordSamples, 1)) / float64(max(wordSamples, 1))
		envelope := math.Sin(math.Pi * pos)
		freq := baseFrequency * (1 + 0.15*float64(word%3))
		samples[i] = int16(9000 * envelope * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	data := artifact.EncodeWAV(samples, rate)
	return &media.AudioData{
		Data:       data,
		Format:     media.FormatWAV,
		Name:       "speech-" + uuid.NewString() + ".wav",
		Timestamp:  float64(t.now().UnixNano()) / float64(time.Second),
		SampleRate: rate,
		Duration:   float64(n) / float64(rate),
	}, nil
}

// Face derives blend shapes from the loudness of each frame of audio.
type Face struct {
	*artifact.Store
	cfg Config
}

// NewFace constructs a synthetic face backend persisting through store.
func NewFace(cfg Config, store *artifact.Store) *Face {
	return &Face{Store: store, cfg: cfg.withDefaults()}
}

// Generate opens the jaw in proportion to frame loudness and keeps the
// emotion channel neutral.
func (f *Face) Generate(ctx context.Context, audio *media.AudioData) (*media.FaceExpression, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	samples, info, err := artifact.DecodeWAV(audio.Data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "synthetic", "face", "decode audio", err)
	}
	energy := frameEnergy(samples, info.SampleRate, f.cfg.FaceFPS)
	jaw := media.BlendShapeIndex("JawOpen")
	funnel := media.BlendShapeIndex("MouthFunnel")
	blink := media.BlendShapeIndex("EyeBlinkLeft")
	blinkRight := media.BlendShapeIndex("EyeBlinkRight")
	neutral := media.EmotionIndex("neutral")

	face := &media.FaceExpression{
		AudioName:   audio.Name,
		BlendShapes: make([][]float64, len(energy)),
		Emotion:     make([][]float64, len(energy)),
		Timestamp:   audio.Timestamp,
		Duration:    info.Duration(),
		FrameCount:  len(energy),
	}
	for i, e := range energy {
		shapes := make([]float64, len(media.BlendShapeNames))
		shapes[jaw] = e
		shapes[funnel] = 0.4 * e
		if i%(3*f.cfg.FaceFPS) < 4 {
			shapes[blink], shapes[blinkRight] = 1, 1
		}
		emotion := make([]float64, len(media.Emotions))
		emotion[neutral] = 1
		face.BlendShapes[i] = shapes
		face.Emotion[i] = emotion
	}
	return face, nil
}

// Motion produces a gentle sway that starts from the seed's final pose.
type Motion struct {
	*artifact.Store
	cfg Config
}

// NewMotion constructs a synthetic motion backend persisting through store.
func NewMotion(cfg Config, store *artifact.Store) *Motion {
	return &Motion{Store: store, cfg: cfg.withDefaults()}
}

// Generate renders one pose per frame. The first frame equals the seed's
// last pose so consecutive clips join without a jump.
func (m *Motion) Generate(ctx context.Context, _ string, audio *media.AudioData, seed *media.MotionData) (*media.MotionData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	duration := audio.Duration
	var energy []float64
	if samples, info, err := artifact.DecodeWAV(audio.Data); err == nil {
		duration = info.Duration()
		energy = frameEnergy(samples, info.SampleRate, m.cfg.PoseFPS)
	}
	frames := int(math.Ceil(duration * float64(m.cfg.PoseFPS)))
	if frames <= 0 {
		return nil, services.Wrap(services.ErrValidation, "synthetic", "motion", "audio has no duration", nil)
	}

	start := make([]float64, media.PoseWidth)
	if last := seed.LastPose(); len(last) == media.PoseWidth {
		copy(start, last)
	}
	poses := make([][]float64, frames)
	for i := range poses {
		pose := make([]float64, media.PoseWidth)
		copy(pose, start)
		phase := 2 * math.Pi * float64(i) / float64(m.cfg.PoseFPS)
		gain := 0.02
		if i < len(energy) {
			gain += 0.05 * energy[i]
		}
		for j := 0; j < media.PoseWidth; j += 3 {
			joint := float64(j / 3)
			pose[j] += gain * math.Sin(phase*0.5) * (1 + 0.1*joint)
			pose[j+1] += gain * (1 - math.Cos(phase*0.25)) / 2 * (1 + 0.05*joint)
		}
		poses[i] = pose
	}
	return &media.MotionData{
		AudioName:  audio.Name,
		Poses:      poses,
		Timestamp:  audio.Timestamp,
		Duration:   duration,
		FrameCount: frames,
	}, nil
}

// frameEnergy returns the RMS of each video frame's worth of samples,
// normalized so the loudest frame is 1.
func frameEnergy(samples []int16, sampleRate, fps int) []float64 {
	if sampleRate <= 0 || fps <= 0 || len(samples) == 0 {
		return nil
	}
	window := sampleRate / fps
	if window <= 0 {
		window = 1
	}
	frames := (len(samples) + window - 1) / window
	out := make([]float64, frames)
	peak := 0.0
	for f := 0; f < frames; f++ {
		end := min((f+1)*window, len(samples))
		var sum float64
		for _, s := range samples[f*window : end] {
			v := float64(s) / math.MaxInt16
			sum += v * v
		}
		rms := math.Sqrt(sum / float64(end-f*window))
		out[f] = rms
		peak = math.Max(peak, rms)
	}
	if peak > 0 {
		for i := range out {
			out[i] /= peak
		}
	}
	return out
}
