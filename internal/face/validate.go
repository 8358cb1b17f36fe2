package face

import (
	"fmt"

	"streamer/internal/media"
	"streamer/internal/stage"
)

// Limits bounds the audio a face generator accepts.
type Limits struct {
	MinBytes    int
	MaxBytes    int
	SampleRate  int
	MinDuration float64
	MaxDuration float64
}

// DefaultLimits matches the face models' training input.
func DefaultLimits() Limits {
	return Limits{
		MinBytes:    1024,
		MaxBytes:    10 * 1024 * 1024,
		SampleRate:  16000,
		MinDuration: 0.1,
		MaxDuration: 30.0,
	}
}

// Validate checks audio against limits. Checks run in a fixed order and the
// first failure wins. It returns the exception type to record and a reason,
// or a nil error when the clip is acceptable.
func Validate(audio *media.AudioData, limits Limits) (stage.ExceptionType, error) {
	switch {
	case audio == nil || len(audio.Data) == 0:
		return stage.InvalidDataContent, fmt.Errorf("audio payload is empty")
	case len(audio.Data) < limits.MinBytes:
		return stage.InvalidDataSize, fmt.Errorf("audio is %d bytes, below minimum %d", len(audio.Data), limits.MinBytes)
	case len(audio.Data) > limits.MaxBytes:
		return stage.InvalidDataSize, fmt.Errorf("audio is %d bytes, above maximum %d", len(audio.Data), limits.MaxBytes)
	case audio.Format != media.FormatWAV:
		return stage.InvalidDataFormat, fmt.Errorf("audio format %q, want %q", audio.Format, media.FormatWAV)
	case audio.SampleRate != limits.SampleRate:
		return stage.InvalidDataFormat, fmt.Errorf("sample rate %d Hz, want %d Hz", audio.SampleRate, limits.SampleRate)
	case audio.Duration < limits.MinDuration || audio.Duration > limits.MaxDuration:
		return stage.InvalidDataSize, fmt.Errorf("duration %.2fs outside [%.2f, %.2f]", audio.Duration, limits.MinDuration, limits.MaxDuration)
	case audio.Timestamp <= 0:
		return stage.InvalidDataContent, fmt.Errorf("timestamp %v is not positive", audio.Timestamp)
	default:
		return 0, nil
	}
}
