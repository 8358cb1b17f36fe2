package speech_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"streamer/internal/media"
	"streamer/internal/speech"
	"streamer/internal/stage"
	"streamer/internal/testsupport"
)

func tick(t *testing.T, s *speech.Stage, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := s.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
}

func TestBlankTextIsRejected(t *testing.T) {
	s := speech.New(testsupport.NewFakeTTS(), speech.Options{})

	for _, text := range []string{"", "   \t\n"} {
		if err := s.AddInput(text); err == nil {
			t.Fatalf("expected rejection for %q", text)
		}
	}
	exc, ok := s.Exception()
	if !ok || exc.Type != stage.InvalidDataContent || exc.Item != "" {
		t.Fatalf("unexpected exception %+v", exc)
	}
	if snap := s.Snapshot(); snap.Inputs != 0 || snap.Exceptions != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestPrepareThenGenerate(t *testing.T) {
	gen := testsupport.NewFakeTTS()
	outDir := t.TempDir()
	s := speech.New(gen, speech.Options{OutputDir: outDir})

	if err := s.AddInput("hello there"); err != nil {
		t.Fatalf("AddInput: %v", err)
	}

	tick(t, s, 1) // prepare + wait -> execute
	if len(gen.Prepared) != 1 || gen.Prepared[0] != "hello there" {
		t.Fatalf("unexpected prepared inputs %v", gen.Prepared)
	}
	if s.Status() != stage.Execute {
		t.Fatalf("status = %s, want execute", s.Status())
	}
	tick(t, s, 1)

	audio, ok := s.Output()
	if !ok || audio.Name != "hello_there.wav" {
		t.Fatalf("unexpected output %+v %v", audio, ok)
	}
	if _, err := os.Stat(filepath.Join(outDir, "hello_there.wav")); err != nil {
		t.Fatalf("expected persisted audio: %v", err)
	}
}

func TestOutputsFollowAdmissionOrder(t *testing.T) {
	s := speech.New(testsupport.NewFakeTTS(), speech.Options{})
	for _, text := range []string{"one", "two", "three"} {
		if err := s.AddInput(text); err != nil {
			t.Fatalf("AddInput(%q): %v", text, err)
		}
	}
	tick(t, s, 6)
	for _, want := range []string{"one.wav", "two.wav", "three.wav"} {
		audio, ok := s.Output()
		if !ok || audio.Name != want {
			t.Fatalf("output = %+v, want %s", audio, want)
		}
	}
}

func TestPrepareErrorEscapesTick(t *testing.T) {
	gen := testsupport.NewFakeTTS()
	gen.PrepareErr = errors.New("tokenizer missing")
	s := speech.New(gen, speech.Options{})
	if err := s.AddInput("hi"); err != nil {
		t.Fatalf("AddInput: %v", err)
	}

	err := s.Tick(context.Background())
	if !errors.Is(err, gen.PrepareErr) {
		t.Fatalf("expected prepare error, got %v", err)
	}
	if _, ok := s.Exception(); ok {
		t.Fatal("prepare failure must not be recorded as an exception")
	}
}

func TestGenerateErrorLatchesUntilAcknowledged(t *testing.T) {
	gen := testsupport.NewFakeTTS()
	gen.GenerateFn = func(string) (*media.AudioData, error) { return nil, errors.New("gpu lost") }
	s := speech.New(gen, speech.Options{})
	if err := s.AddInput("a"); err != nil {
		t.Fatalf("AddInput: %v", err)
	}
	if err := s.AddInput("b"); err != nil {
		t.Fatalf("AddInput: %v", err)
	}

	tick(t, s, 2)
	exc, ok := s.Exception()
	if !ok || exc.Type != stage.StageExecuteFailed || exc.Item != nil {
		t.Fatalf("unexpected exception %+v", exc)
	}

	tick(t, s, 1) // execute sees the exception
	if s.Status() != stage.Error {
		t.Fatalf("status = %s, want error", s.Status())
	}
	tick(t, s, 3)
	if s.Status() != stage.Error {
		t.Fatalf("stage left error without acknowledgment: %s", s.Status())
	}

	gen.GenerateFn = nil
	s.AcknowledgeException()
	tick(t, s, 1)
	if s.Status() != stage.Execute {
		t.Fatalf("status after ack = %s, want execute", s.Status())
	}
	tick(t, s, 1)
	if audio, ok := s.Output(); !ok || audio.Name != "b.wav" {
		t.Fatalf("expected b.wav after recovery, got %+v", audio)
	}
}

func TestStopClearsQueues(t *testing.T) {
	s := speech.New(testsupport.NewFakeTTS(), speech.Options{})
	for _, text := range []string{"one", "two", "three"} {
		if err := s.AddInput(text); err != nil {
			t.Fatalf("AddInput: %v", err)
		}
	}
	tick(t, s, 2) // "one" generated, "two" prepared, "three" raw

	s.AddStopRequest(media.StopRequest{ConversationID: "c1", Reason: "barge-in"})
	tick(t, s, 1) // "three" prepared, execute -> stop
	if s.Status() != stage.Stop {
		t.Fatalf("status = %s, want stop", s.Status())
	}
	tick(t, s, 1) // consume stop and clear

	snap := s.Snapshot()
	if snap.Inputs != 0 || snap.Outputs != 0 || snap.Stops != 0 {
		t.Fatalf("expected empty queues after stop, got %+v", snap)
	}
	tick(t, s, 1)
	if s.Status() != stage.Wait {
		t.Fatalf("status = %s, want wait", s.Status())
	}
}
