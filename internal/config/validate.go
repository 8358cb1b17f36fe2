package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var stageNames = map[string]struct{}{"speech": {}, "face": {}, "motion": {}}

var logLevels = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStages(); err != nil {
		return err
	}
	if err := c.validateFace(); err != nil {
		return err
	}
	if err := c.validateMotion(); err != nil {
		return err
	}
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"workflow.tick_interval_ms":     c.Workflow.TickIntervalMillis,
		"workflow.recent_artifacts":     c.Workflow.RecentArtifacts,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateStages() error {
	if !c.Speech.Enabled && !c.Face.Enabled && !c.Motion.Enabled {
		return errors.New("at least one of speech.enabled, face.enabled, motion.enabled must be true")
	}
	return nil
}

func (c *Config) validateFace() error {
	if c.Face.MinAudioBytes < 0 {
		return errors.New("face.min_audio_bytes must be >= 0")
	}
	if c.Face.MaxAudioBytes <= 0 {
		return errors.New("face.max_audio_bytes must be positive")
	}
	if c.Face.MinAudioBytes > c.Face.MaxAudioBytes {
		return errors.New("face.min_audio_bytes must not exceed face.max_audio_bytes")
	}
	if c.Face.MinDurationSeconds < 0 {
		return errors.New("face.min_duration_seconds must be >= 0")
	}
	if c.Face.MaxDurationSeconds <= c.Face.MinDurationSeconds {
		return errors.New("face.max_duration_seconds must be greater than face.min_duration_seconds")
	}
	return nil
}

func (c *Config) validateMotion() error {
	switch c.Motion.Format {
	case "csv", "json":
		return nil
	default:
		return fmt.Errorf("motion.format must be csv or json (got %q)", c.Motion.Format)
	}
}

func (c *Config) validateBackend() error {
	switch c.Backend.Kind {
	case BackendSynthetic:
		return nil
	case BackendHTTP:
		if c.Backend.BaseURL == "" {
			return errors.New("backend.base_url must be set when backend.kind is http")
		}
		parsed, err := url.Parse(c.Backend.BaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("backend.base_url %q is not an absolute URL", c.Backend.BaseURL)
		}
		return nil
	default:
		return fmt.Errorf("backend.kind must be synthetic or http (got %q)", c.Backend.Kind)
	}
}

func (c *Config) validateLogging() error {
	if _, ok := logLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	for stage, level := range c.Logging.StageOverrides {
		if _, ok := stageNames[stage]; !ok {
			return fmt.Errorf("logging.stage_overrides: unknown stage %q", stage)
		}
		if _, ok := logLevels[level]; !ok {
			return fmt.Errorf("logging.stage_overrides.%s: invalid level %q", stage, strings.TrimSpace(level))
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
