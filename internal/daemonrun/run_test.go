package daemonrun_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"streamer/internal/daemon"
	"streamer/internal/daemonrun"
	"streamer/internal/testsupport"
)

func TestRunStartsAndStopsDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Format = "json"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan *daemon.Daemon, 1)
	done := make(chan error, 1)
	go func() {
		done <- daemonrun.Run(ctx, cfg, daemonrun.Options{
			LogLevel: "error",
			Ready:    func(d *daemon.Daemon) { ready <- d },
		})
	}()

	pidPath := filepath.Join(cfg.Paths.StateDir, "streamer.pid")
	select {
	case d := <-ready:
		if !d.Running() {
			t.Fatal("expected daemon to be running")
		}
		if d.APIAddress() == "" {
			t.Fatal("expected api server to be listening")
		}
		if _, err := os.Stat(pidPath); err != nil {
			t.Fatalf("expected pid file: %v", err)
		}
	case err := <-done:
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon never became ready")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not shut down")
	}

	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed, got %v", err)
	}
	if _, err := os.Lstat(filepath.Join(cfg.Paths.LogDir, "streamer.log")); err != nil {
		t.Fatalf("expected current log pointer: %v", err)
	}
	if _, err := os.Stat(cfg.JournalPath()); err != nil {
		t.Fatalf("expected journal database: %v", err)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := daemonrun.Run(context.Background(), nil, daemonrun.Options{}); err == nil {
		t.Fatal("expected error without config")
	}
}
