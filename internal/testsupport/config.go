package testsupport

import (
	"path/filepath"
	"testing"

	"streamer/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.AudioDir = filepath.Join(base, "audio")
	cfgVal.Paths.FaceDir = filepath.Join(base, "face")
	cfgVal.Paths.MotionDir = filepath.Join(base, "motion")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Workflow.TickIntervalMillis = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithoutPersistence disables artifact persistence for every stage.
func WithoutPersistence() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Speech.Persist = false
		b.cfg.Face.Persist = false
		b.cfg.Motion.Persist = false
	}
}

// WithAutoAcknowledge toggles automatic exception acknowledgement.
func WithAutoAcknowledge(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.AutoAcknowledge = enabled
	}
}

// WithHTTPBackend points the backend at a remote inference server.
func WithHTTPBackend(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backend.Kind = config.BackendHTTP
		b.cfg.Backend.BaseURL = baseURL
		b.cfg.Backend.TimeoutSeconds = 5
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
