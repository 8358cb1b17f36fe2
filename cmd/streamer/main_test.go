package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"streamer/internal/journal"
	"streamer/internal/testsupport"
)

func TestStatusShowsStages(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running (pid")
	requireContains(t, out, "== Stages ==")
	requireContains(t, out, "Speech")
	requireContains(t, out, "Motion")
	requireContains(t, out, "State directory")
}

func TestStatusWhenDaemonDown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	out, _, err := runCLI(t, []string{"status"}, closedAddress(t), configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running")
}

func TestSpeakProducesArtifacts(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"speak", "hello", "world"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	requireContains(t, out, "Speech queued")

	waitFor(t, 3*time.Second, func() bool {
		return len(env.daemon.Pipeline().Recent()) == 3
	})

	out, _, err = runCLI(t, []string{"artifacts", "--stage", "motion"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("artifacts: %v", err)
	}
	requireContains(t, out, "hello_world")
	requireContains(t, out, "Motion")

	out, _, err = runCLI(t, []string{"journal", "artifacts", "--json"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("journal artifacts: %v", err)
	}
	requireContains(t, out, `"kind": "motion"`)
}

func TestExceptionsAcknowledgeFlow(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"speak", "   "}, env.apiAddr, env.configPath)
	if err == nil {
		t.Fatal("expected blank speech to be rejected")
	}
	requireContains(t, err.Error(), "422")

	out, _, err := runCLI(t, []string{"exceptions"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("exceptions: %v", err)
	}
	requireContains(t, out, "Speech")
	requireContains(t, out, "rejected")

	out, _, err = runCLI(t, []string{"exceptions", "ack", "Speech"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("exceptions ack: %v", err)
	}
	requireContains(t, out, "Acknowledged Speech exception #")

	out, _, err = runCLI(t, []string{"exceptions"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("exceptions: %v", err)
	}
	requireContains(t, out, "No pending exceptions")

	if _, _, err := runCLI(t, []string{"exceptions", "ack", "speech"}, env.apiAddr, env.configPath); err == nil {
		t.Fatal("expected second acknowledgement to fail")
	}
}

func TestStopCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"stop", "--conversation", "conv-1", "--reason", "barge-in"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Stop conv-1 sent to speech, face, motion")
}

func TestJournalFallsBackToDirectAccess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	j, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	err = j.RecordException(context.Background(), journal.Exception{
		Stage:      "face",
		Seq:        1,
		Type:       "FACE_TIMEOUT",
		Code:       4,
		Category:   "runtime",
		Message:    "face generation exceeded 30s",
		ItemName:   "clip.wav",
		RecordedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("RecordException: %v", err)
	}
	_ = j.Close()

	addr := closedAddress(t)
	out, _, err := runCLI(t, []string{"journal", "exceptions"}, addr, configPath)
	if err != nil {
		t.Fatalf("journal exceptions: %v", err)
	}
	requireContains(t, out, "FACE_TIMEOUT")
	requireContains(t, out, "clip.wav")

	out, _, err = runCLI(t, []string{"journal", "clear"}, addr, configPath)
	if err != nil {
		t.Fatalf("journal clear: %v", err)
	}
	requireContains(t, out, "Removed 1 journal rows")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, "", env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = "hunter2"
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	out, _, err := runCLI(t, []string{"config", "show"}, "", configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "********")
	if strings.Contains(out, "hunter2") {
		t.Fatalf("expected token to be redacted, got %q", out)
	}
}

func TestLogsCommandFiltersStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	content := "2026-01-01T00:00:00Z INFO pipeline: speech produced stage=speech\n" +
		"2026-01-01T00:00:01Z INFO pipeline: face produced stage=face\n"
	if err := os.WriteFile(filepath.Join(cfg.Paths.LogDir, "streamer.log"), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--stage", "face"}, "", configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "face produced")
	if strings.Contains(out, "speech produced") {
		t.Fatalf("expected speech line filtered out, got %q", out)
	}

	out, _, err = runCLI(t, []string{"logs", "--stage", "motion"}, "", configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No log entries available")
}
