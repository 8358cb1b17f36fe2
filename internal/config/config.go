package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	AudioDir  string `toml:"audio_dir"`
	FaceDir   string `toml:"face_dir"`
	MotionDir string `toml:"motion_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
}

// Workflow contains configuration for the driver loop and exception handling.
type Workflow struct {
	TickIntervalMillis int  `toml:"tick_interval_ms"`
	AutoAcknowledge    bool `toml:"auto_acknowledge"`
	RecentArtifacts    int  `toml:"recent_artifacts"`
}

// Speech contains configuration for the text-to-speech stage.
type Speech struct {
	Enabled bool `toml:"enabled"`
	Persist bool `toml:"persist"`
}

// Face contains configuration for the face-expression stage and its
// audio admission gate.
type Face struct {
	Enabled            bool    `toml:"enabled"`
	Persist            bool    `toml:"persist"`
	TimeoutSeconds     int     `toml:"timeout_seconds"`
	MinAudioBytes      int     `toml:"min_audio_bytes"`
	MaxAudioBytes      int     `toml:"max_audio_bytes"`
	SampleRate         int     `toml:"sample_rate"`
	MinDurationSeconds float64 `toml:"min_duration_seconds"`
	MaxDurationSeconds float64 `toml:"max_duration_seconds"`
}

// Motion contains configuration for the body-motion stage.
type Motion struct {
	Enabled           bool   `toml:"enabled"`
	Persist           bool   `toml:"persist"`
	Format            string `toml:"format"`
	IdleWindowSeconds int    `toml:"idle_window_seconds"`
	ValidateInput     bool   `toml:"validate_input"`
}

// Backend selects and configures the generator implementation.
type Backend struct {
	Kind           string `toml:"kind"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Voice          string `toml:"voice"`
	SampleRate     int    `toml:"sample_rate"`
	PoseFPS        int    `toml:"pose_fps"`
	FaceFPS        int    `toml:"face_fps"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Exceptions     bool   `toml:"exceptions"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format         string            `toml:"format"`
	Level          string            `toml:"level"`
	RetentionDays  int               `toml:"retention_days"`
	StageOverrides map[string]string `toml:"stage_overrides"`
}

// Config encapsulates all configuration values for the streamer daemon.
//
// Configuration sections by subsystem:
//   - Paths: artifact directories, state, logs, and API bind address
//   - Workflow: tick interval and exception acknowledgement policy
//   - Speech, Face, Motion: per-stage switches and limits
//   - Backend: generator implementation (synthetic or http)
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Workflow      Workflow      `toml:"workflow"`
	Speech        Speech        `toml:"speech"`
	Face          Face          `toml:"face"`
	Motion        Motion        `toml:"motion"`
	Backend       Backend       `toml:"backend"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("streamer.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// Artifact directories are only created for stages that persist output.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.LogDir}
	// motion reads its clips back from the audio directory
	if (c.Speech.Enabled && c.Speech.Persist) || c.Motion.Enabled {
		dirs = append(dirs, c.Paths.AudioDir)
	}
	if c.Face.Enabled && c.Face.Persist {
		dirs = append(dirs, c.Paths.FaceDir)
	}
	if c.Motion.Enabled && c.Motion.Persist {
		dirs = append(dirs, c.Paths.MotionDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TickInterval returns the driver loop period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Workflow.TickIntervalMillis) * time.Millisecond
}

// FaceTimeout returns the deadline applied to a single face generation.
func (c *Config) FaceTimeout() time.Duration {
	return time.Duration(c.Face.TimeoutSeconds) * time.Second
}

// MotionIdleWindow returns how long the motion stage may sit idle before its
// seed pose is discarded.
func (c *Config) MotionIdleWindow() time.Duration {
	return time.Duration(c.Motion.IdleWindowSeconds) * time.Second
}

// BackendTimeout returns the per-request timeout for remote backends.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// JournalPath returns the SQLite journal location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "streamer.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
