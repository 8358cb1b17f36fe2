package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"streamer/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := logs.CurrentPath(t.TempDir())
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" || result.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset != 6 {
		t.Fatalf("expected offset 6, got %d", result.Offset)
	}
}

func TestTailMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.log")
	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("expected empty result, got %#v", result)
	}
}

func TestTailFromOffsetFiltersStage(t *testing.T) {
	content := "2026-01-01T00:00:00Z INFO pipeline: tick stage=speech\n" +
		`{"msg":"face produced","stage":"face"}` + "\n" +
		"2026-01-01T00:00:01Z INFO pipeline: tick stage=face\n" +
		"2026-01-01T00:00:02Z INFO daemon started\n"
	path := writeLog(t, content)

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 0, Stage: "Face"})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("expected 2 face lines, got %#v", result.Lines)
	}
	if result.Offset != int64(len(content)) {
		t.Fatalf("expected offset %d, got %d", len(content), result.Offset)
	}
}

func TestMatchStage(t *testing.T) {
	tests := []struct {
		line  string
		stage string
		want  bool
	}{
		{line: "anything", stage: "", want: true},
		{line: "x INFO tick stage=motion seq=3", stage: "motion", want: true},
		{line: "x INFO tick stage=motion", stage: "face", want: false},
		{line: `{"stage":"speech"}`, stage: "speech", want: true},
		{line: `{"stage":`, stage: "speech", want: false},
		{line: "x INFO no stage here", stage: "speech", want: false},
	}
	for _, tt := range tests {
		if got := logs.MatchStage(tt.line, tt.stage); got != tt.want {
			t.Fatalf("MatchStage(%q, %q) = %v, want %v", tt.line, tt.stage, got, tt.want)
		}
	}
}

func TestTailFollowWaits(t *testing.T) {
	path := writeLog(t, "start\n")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	initial, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	done := make(chan logs.TailResult, 1)
	go func(offset int64) {
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail error: %v", err)
		}
		done <- res
	}(initial.Offset)

	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case res := <-done:
		if len(res.Lines) != 1 || res.Lines[0] != "later" {
			t.Fatalf("unexpected follow lines: %#v", res.Lines)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}
