package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	c.normalizeFace()
	c.normalizeMotion()
	c.normalizeBackend()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.audio_dir", &c.Paths.AudioDir, defaultAudioDir},
		{"paths.face_dir", &c.Paths.FaceDir, defaultFaceDir},
		{"paths.motion_dir", &c.Paths.MotionDir, defaultMotionDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("STREAMER_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.TickIntervalMillis <= 0 {
		c.Workflow.TickIntervalMillis = defaultTickIntervalMs
	}
	if c.Workflow.RecentArtifacts <= 0 {
		c.Workflow.RecentArtifacts = defaultRecentArtifacts
	}
}

func (c *Config) normalizeFace() {
	if c.Face.TimeoutSeconds <= 0 {
		c.Face.TimeoutSeconds = defaultFaceTimeout
	}
	if c.Face.SampleRate <= 0 {
		c.Face.SampleRate = defaultAudioSampleRate
	}
}

func (c *Config) normalizeMotion() {
	c.Motion.Format = strings.ToLower(strings.TrimSpace(c.Motion.Format))
	if c.Motion.Format == "" {
		c.Motion.Format = defaultMotionFormat
	}
	if c.Motion.IdleWindowSeconds <= 0 {
		c.Motion.IdleWindowSeconds = defaultIdleWindowSeconds
	}
}

func (c *Config) normalizeBackend() {
	c.Backend.Kind = strings.ToLower(strings.TrimSpace(c.Backend.Kind))
	if c.Backend.Kind == "" {
		c.Backend.Kind = defaultBackendKind
	}
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	c.Backend.APIKey = strings.TrimSpace(c.Backend.APIKey)
	if c.Backend.APIKey == "" {
		if value, ok := os.LookupEnv("STREAMER_BACKEND_API_KEY"); ok {
			c.Backend.APIKey = strings.TrimSpace(value)
		}
	}
	c.Backend.Voice = strings.TrimSpace(c.Backend.Voice)
	if c.Backend.Voice == "" {
		c.Backend.Voice = defaultBackendVoice
	}
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = defaultBackendTimeout
	}
	if c.Backend.SampleRate <= 0 {
		c.Backend.SampleRate = defaultAudioSampleRate
	}
	if c.Backend.PoseFPS <= 0 {
		c.Backend.PoseFPS = defaultPoseFPS
	}
	if c.Backend.FaceFPS <= 0 {
		c.Backend.FaceFPS = defaultFaceFPS
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if len(c.Logging.StageOverrides) > 0 {
		normalized := make(map[string]string, len(c.Logging.StageOverrides))
		for stage, level := range c.Logging.StageOverrides {
			key := strings.ToLower(strings.TrimSpace(stage))
			if key == "" {
				continue
			}
			normalized[key] = strings.ToLower(strings.TrimSpace(level))
		}
		c.Logging.StageOverrides = normalized
	}
}
