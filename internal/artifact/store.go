package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"streamer/internal/logging"
	"streamer/internal/media"
	"streamer/internal/services"
)

// Store reads and writes pipeline artifacts on the local filesystem.
type Store struct {
	logger *slog.Logger
}

// NewStore constructs a Store. A nil logger discards output.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{logger: logging.NewComponentLogger(logger, "artifact-store")}
}

// SaveAudio writes audio as <dir>/<name>.wav. Payloads that are not already
// WAV are rejected; only PCM WAV is produced by the speech backends.
func (s *Store) SaveAudio(ctx context.Context, audio *media.AudioData, format, dir string) (string, error) {
	if audio == nil || len(audio.Data) == 0 {
		return "", services.Wrap(services.ErrValidation, "artifact", "save audio", "empty audio", nil)
	}
	if f, err := media.ParseAudioFormat(format); err != nil || f != media.FormatWAV {
		return "", services.Wrap(services.ErrValidation, "artifact", "save audio", fmt.Sprintf("unsupported format %q", format), nil)
	}
	if !IsWAV(audio.Data) {
		return "", services.Wrap(services.ErrValidation, "artifact", "save audio", "payload is not WAV", nil)
	}
	return s.write(ctx, dir, FileName(audio.Name, "wav"), audio.Data)
}

// LoadAudio reads a WAV file and fills rate, duration, and timestamp from the
// header and file modification time.
func (s *Store) LoadAudio(_ context.Context, path string) (*media.AudioData, error) {
	data, info, err := readFile(path)
	if err != nil {
		return nil, err
	}
	header, err := InspectWAV(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "artifact", "load audio", path, err)
	}
	return &media.AudioData{
		Data:       data,
		Format:     media.FormatWAV,
		Name:       filepath.Base(path),
		Timestamp:  unixSeconds(info.ModTime()),
		SampleRate: header.SampleRate,
		Duration:   header.Duration(),
	}, nil
}

// SaveFace writes a face expression as <dir>/<name>.json.
func (s *Store) SaveFace(ctx context.Context, face *media.FaceExpression, format, dir string) (string, error) {
	if !strings.EqualFold(strings.TrimSpace(format), "json") {
		return "", services.Wrap(services.ErrValidation, "artifact", "save face", fmt.Sprintf("unsupported format %q", format), nil)
	}
	data, err := EncodeFace(face)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "artifact", "save face", "", err)
	}
	return s.write(ctx, dir, FileName(face.AudioName, "json"), data)
}

// LoadFace reads a face expression JSON file.
func (s *Store) LoadFace(_ context.Context, path string) (*media.FaceExpression, error) {
	data, _, err := readFile(path)
	if err != nil {
		return nil, err
	}
	face, err := DecodeFace(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "artifact", "load face", path, err)
	}
	return face, nil
}

// SaveMotion writes motion data as <dir>/<name>.csv or .json.
func (s *Store) SaveMotion(ctx context.Context, motion *media.MotionData, format, dir string) (string, error) {
	if motion == nil {
		return "", services.Wrap(services.ErrValidation, "artifact", "save motion", "nil motion", nil)
	}
	format = strings.ToLower(strings.TrimSpace(format))
	var (
		data []byte
		err  error
	)
	switch format {
	case "csv":
		data, err = EncodeMotionCSV(motion)
	case "json":
		data, err = EncodeMotionJSON(motion)
	default:
		return "", services.Wrap(services.ErrValidation, "artifact", "save motion", fmt.Sprintf("unsupported format %q", format), nil)
	}
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "artifact", "save motion", "", err)
	}
	return s.write(ctx, dir, FileName(motion.AudioName, format), data)
}

// LoadMotion reads a motion file, choosing the decoder from its extension.
func (s *Store) LoadMotion(_ context.Context, path string) (*media.MotionData, error) {
	data, info, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var motion *media.MotionData
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		motion, err = DecodeMotionCSV(data)
		if err == nil {
			motion.AudioName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			motion.Timestamp = unixSeconds(info.ModTime())
		}
	case ".json":
		motion, err = DecodeMotionJSON(data)
	default:
		return nil, services.Wrap(services.ErrValidation, "artifact", "load motion", "unknown extension "+filepath.Ext(path), nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "artifact", "load motion", path, err)
	}
	return motion, nil
}

// Delete removes an artifact file.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, "artifact", "delete", path, err)
		}
		return services.Wrap(services.ErrTransient, "artifact", "delete", path, err)
	}
	s.logger.DebugContext(ctx, "artifact deleted", logging.String(logging.FieldArtifact, path))
	return nil
}

func (s *Store) write(ctx context.Context, dir, name string, data []byte) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", services.Wrap(services.ErrConfiguration, "artifact", "save", "output directory not set", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrTransient, "artifact", "ensure dir", dir, err)
	}
	target := filepath.Join(dir, name)
	tmp := filepath.Join(dir, fmt.Sprintf(".streamer-%d.tmp", time.Now().UnixNano()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "artifact", "write temp", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", services.Wrap(services.ErrTransient, "artifact", "rename", target, err)
	}
	s.logger.DebugContext(ctx, "artifact saved",
		logging.String(logging.FieldArtifact, target),
		logging.Int("bytes", len(data)),
	)
	return target, nil
}

func readFile(path string) ([]byte, fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, services.Wrap(services.ErrNotFound, "artifact", "load", path, err)
		}
		return nil, nil, services.Wrap(services.ErrTransient, "artifact", "stat", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrTransient, "artifact", "read", path, err)
	}
	return data, info, nil
}

func baseName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		name = name[:idx]
	}
	return name
}

// FileName returns the file name an artifact derived from the clip name
// is stored under.
func FileName(name, ext string) string {
	return artifactName(baseName(name), ext)
}

func artifactName(base, ext string) string {
	if base == "" || base == "." || base == "/" {
		base = fmt.Sprintf("artifact-%d", time.Now().UnixNano())
	}
	return base + "." + ext
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
