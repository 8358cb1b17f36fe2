package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"streamer/internal/artifact"
	"streamer/internal/media"
)

// WAV renders a sine tone of the requested length as a PCM16 WAV payload.
func WAV(seconds float64, sampleRate int) []byte {
	n := int(seconds * float64(sampleRate))
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*220*float64(i)/float64(sampleRate)))
	}
	return artifact.EncodeWAV(samples, sampleRate)
}

// Audio returns a clip that passes the face stage admission gate with
// default limits.
func Audio(name string, seconds float64) *media.AudioData {
	return &media.AudioData{
		Data:       WAV(seconds, 16000),
		Format:     media.FormatWAV,
		Name:       name,
		Timestamp:  float64(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Unix()),
		SampleRate: 16000,
		Duration:   seconds,
	}
}

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}
