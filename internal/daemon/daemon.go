package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"streamer/internal/config"
	"streamer/internal/journal"
	"streamer/internal/logging"
	"streamer/internal/metrics"
	"streamer/internal/notifications"
	"streamer/internal/pipeline"
)

// Options carries the optional collaborators of a Daemon.
type Options struct {
	Logger   *slog.Logger
	Journal  *journal.Journal
	Metrics  *metrics.Recorder
	Notifier notifications.Service
}

// Daemon coordinates the pipeline and API server and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
	journal  *journal.Journal
	metrics  *metrics.Recorder
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running     bool
	PID         int
	Backend     string
	JournalPath string
	LockPath    string
	Pipeline    pipeline.StatusSummary
}

// New constructs a daemon around an assembled pipeline.
func New(cfg *config.Config, pipe *pipeline.Pipeline, opts Options) (*Daemon, error) {
	if cfg == nil || pipe == nil {
		return nil, errors.New("daemon requires config and pipeline")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		pipeline: pipe,
		journal:  opts.Journal,
		metrics:  opts.Metrics,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, then launches the pipeline and API server.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another streamer daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.pipeline.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start pipeline: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		cancel()
		d.pipeline.Shutdown()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("streamer daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("api", d.APIAddress()),
	)
	d.publish(ctx, notifications.EventDaemonStarted, notifications.Payload{
		"stages": strings.Join(d.pipeline.StageNames(), ", "),
	})
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pipeline.Shutdown()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.String("lock", d.lockPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "next daemon start may report a running instance"),
		)
	}
	d.running.Store(false)
	d.logger.Info("streamer daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
	d.publish(context.Background(), notifications.EventDaemonStopped, nil)
}

// Close stops the daemon and releases the pipeline and journal.
func (d *Daemon) Close() error {
	d.Stop()
	d.pipeline.Close()
	if d.journal != nil {
		return d.journal.Close()
	}
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// APIAddress returns the bound API address, or "" when the server is not listening.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:  d.running.Load(),
		PID:      os.Getpid(),
		Backend:  d.cfg.Backend.Kind,
		LockPath: d.lockPath,
		Pipeline: d.pipeline.Status(),
	}
	if d.journal != nil {
		status.JournalPath = d.journal.Path()
	}
	return status
}

// Pipeline exposes the pipeline for in-process callers.
func (d *Daemon) Pipeline() *pipeline.Pipeline {
	return d.pipeline
}

// ListExceptions returns journaled exceptions, newest first.
func (d *Daemon) ListExceptions(ctx context.Context, filter journal.Filter) ([]journal.Exception, error) {
	if d.journal == nil {
		return nil, errors.New("journal unavailable")
	}
	return d.journal.ListExceptions(ctx, filter)
}

// ListArtifacts returns journaled artifacts, newest first.
func (d *Daemon) ListArtifacts(ctx context.Context, filter journal.Filter) ([]journal.Artifact, error) {
	if d.journal == nil {
		return nil, errors.New("journal unavailable")
	}
	return d.journal.ListArtifacts(ctx, filter)
}

// ClearJournal removes every journal row.
func (d *Daemon) ClearJournal(ctx context.Context) (int64, error) {
	if d.journal == nil {
		return 0, errors.New("journal unavailable")
	}
	return d.journal.Clear(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

func (d *Daemon) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := d.notifier.Publish(ctx, event, payload); err != nil {
		d.logger.Warn("daemon notification failed",
			logging.String(logging.FieldEventType, "notify_failed"),
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}
