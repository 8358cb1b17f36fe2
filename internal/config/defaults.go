package config

const (
	defaultConfigPath        = "~/.config/streamer/config.toml"
	defaultAudioDir          = "~/.local/share/streamer/audio"
	defaultFaceDir           = "~/.local/share/streamer/face"
	defaultMotionDir         = "~/.local/share/streamer/motion"
	defaultStateDir          = "~/.local/share/streamer/state"
	defaultLogDir            = "~/.local/share/streamer/logs"
	defaultAPIBind           = "127.0.0.1:7490"
	defaultTickIntervalMs    = 50
	defaultRecentArtifacts   = 50
	defaultFaceTimeout       = 30
	defaultMinAudioBytes     = 1024
	defaultMaxAudioBytes     = 10 * 1024 * 1024
	defaultAudioSampleRate   = 16000
	defaultMinDuration       = 0.1
	defaultMaxDuration       = 30.0
	defaultMotionFormat      = "csv"
	defaultIdleWindowSeconds = 10
	defaultBackendKind       = "synthetic"
	defaultBackendTimeout    = 60
	defaultBackendVoice      = "v2/en_speaker_6"
	defaultPoseFPS           = 30
	defaultFaceFPS           = 30
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	defaultNotifyTimeout     = 10
)

// BackendSynthetic renders deterministic media locally.
const BackendSynthetic = "synthetic"

// BackendHTTP forwards generation to a remote inference server.
const BackendHTTP = "http"

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AudioDir:  defaultAudioDir,
			FaceDir:   defaultFaceDir,
			MotionDir: defaultMotionDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Workflow: Workflow{
			TickIntervalMillis: defaultTickIntervalMs,
			RecentArtifacts:    defaultRecentArtifacts,
		},
		Speech: Speech{
			Enabled: true,
			Persist: true,
		},
		Face: Face{
			Enabled:            true,
			Persist:            true,
			TimeoutSeconds:     defaultFaceTimeout,
			MinAudioBytes:      defaultMinAudioBytes,
			MaxAudioBytes:      defaultMaxAudioBytes,
			SampleRate:         defaultAudioSampleRate,
			MinDurationSeconds: defaultMinDuration,
			MaxDurationSeconds: defaultMaxDuration,
		},
		Motion: Motion{
			Enabled:           true,
			Persist:           true,
			Format:            defaultMotionFormat,
			IdleWindowSeconds: defaultIdleWindowSeconds,
		},
		Backend: Backend{
			Kind:           defaultBackendKind,
			TimeoutSeconds: defaultBackendTimeout,
			Voice:          defaultBackendVoice,
			SampleRate:     defaultAudioSampleRate,
			PoseFPS:        defaultPoseFPS,
			FaceFPS:        defaultFaceFPS,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Exceptions:     true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
