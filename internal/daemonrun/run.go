package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"streamer/internal/config"
	"streamer/internal/daemon"
	"streamer/internal/journal"
	"streamer/internal/logging"
	"streamer/internal/metrics"
	"streamer/internal/notifications"
	"streamer/internal/pipeline"
	"streamer/internal/preflight"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Ready, when set, receives the daemon once it has started.
	Ready func(*daemon.Daemon)
}

// Run starts the streamer daemon and blocks until cmdCtx ends or the
// process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("streamer-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
		StageOverrides:   cfg.Logging.StageOverrides,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logConfigSnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update streamer.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "streamer-*.log", Exclude: []string{logPath}},
	)
	logPreflight(signalCtx, logger, cfg)

	pidPath := filepath.Join(cfg.Paths.StateDir, "streamer.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	j, err := journal.Open(cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open journal", "journal_open_failed",
			logging.Error(err),
			logging.String("path", cfg.JournalPath()),
			logging.String(logging.FieldErrorHint, "check paths.state_dir permissions"),
		)
		return err
	}

	recorder := metrics.New()
	notifier := notifications.NewService(cfg)
	pipe, err := pipeline.New(cfg, pipeline.NewGenerators(cfg, logger), pipeline.Options{
		Logger:   logger,
		Metrics:  recorder,
		Journal:  j,
		Notifier: notifier,
	})
	if err != nil {
		_ = j.Close()
		return fmt.Errorf("build pipeline: %w", err)
	}

	d, err := daemon.New(cfg, pipe, daemon.Options{
		Logger:   logger,
		Journal:  j,
		Metrics:  recorder,
		Notifier: notifier,
	})
	if err != nil {
		pipe.Close()
		_ = j.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.api_bind and whether another daemon holds the lock"),
			logging.String(logging.FieldImpact, "no stages are ticking"),
		)
		return err
	}
	if opts.Ready != nil {
		opts.Ready(d)
	}

	<-signalCtx.Done()
	logger.Info("streamer daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	results := preflight.RunAll(ctx, cfg)
	for _, result := range preflight.Failed(results) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "stages depending on this check will record exceptions"),
		)
	}
	logger.Info("preflight complete",
		logging.String(logging.FieldEventType, "preflight_complete"),
		logging.Int("checks", len(results)),
		logging.Int("failed", len(preflight.Failed(results))),
	)
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "streamer.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("config snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("backend", cfg.Backend.Kind),
		logging.Bool("speech_enabled", cfg.Speech.Enabled),
		logging.Bool("face_enabled", cfg.Face.Enabled),
		logging.Bool("motion_enabled", cfg.Motion.Enabled),
		logging.Bool("auto_acknowledge", cfg.Workflow.AutoAcknowledge),
		logging.Duration("tick_interval", cfg.TickInterval()),
		logging.String("api_bind", cfg.Paths.APIBind),
		logging.Bool("api_token_present", cfg.Paths.APIToken != ""),
		logging.Bool("ntfy_configured", cfg.Notifications.NtfyTopic != ""),
	)
}
