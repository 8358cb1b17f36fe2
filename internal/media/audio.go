package media

import (
	"fmt"
	"strings"
)

// AudioFormat tags the container/codec of an audio payload.
type AudioFormat string

const (
	FormatWAV  AudioFormat = "wav"
	FormatMP3  AudioFormat = "mp3"
	FormatAAC  AudioFormat = "aac"
	FormatM4A  AudioFormat = "m4a"
	FormatFLAC AudioFormat = "flac"
	FormatOGG  AudioFormat = "ogg"
)

var audioFormats = []AudioFormat{FormatWAV, FormatMP3, FormatAAC, FormatM4A, FormatFLAC, FormatOGG}

// ParseAudioFormat resolves a case-insensitive format name or file extension.
func ParseAudioFormat(value string) (AudioFormat, error) {
	trimmed := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), "."))
	for _, f := range audioFormats {
		if string(f) == trimmed {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported audio format %q", value)
}

// AudioData is a synthesized speech clip.
type AudioData struct {
	Data       []byte
	Format     AudioFormat
	Name       string
	Timestamp  float64 // unix seconds
	SampleRate int
	Duration   float64 // seconds
}

// BaseName returns the clip name without its extension; derived artifacts
// (face, motion) are named after it.
func (a *AudioData) BaseName() string {
	if a == nil {
		return ""
	}
	return Stem(a.Name)
}

// Stem strips everything from the first dot of a clip name.
func Stem(name string) string {
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		name = name[:idx]
	}
	return name
}
