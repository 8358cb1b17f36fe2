package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"streamer/internal/api"
	"streamer/internal/config"
	"streamer/internal/metrics"
	"streamer/internal/notifications"
	"streamer/internal/pipeline"
	"streamer/internal/testsupport"
)

type stubNotifier struct {
	events []notifications.Event
}

func (s *stubNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	s.events = append(s.events, event)
	return nil
}

func newTestDaemon(t *testing.T, cfg *config.Config) *Daemon {
	t.Helper()
	j := testsupport.MustOpenJournal(t, cfg)
	rec := metrics.New()
	notifier := &stubNotifier{}
	pipe, err := pipeline.New(cfg, pipeline.Generators{
		TTS:    testsupport.NewFakeTTS(),
		Face:   testsupport.NewFakeFace(),
		Motion: testsupport.NewFakeMotion(),
	}, pipeline.Options{Metrics: rec, Journal: j, Notifier: notifier})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	d, err := New(cfg, pipe, Options{Journal: j, Metrics: rec, Notifier: notifier})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func newTestServer(t *testing.T, d *Daemon, token string) (*httptest.Server, *api.Client) {
	t.Helper()
	srv := httptest.NewServer(d.api.routes(token))
	t.Cleanup(srv.Close)
	return srv, api.NewClient(srv.URL, token)
}

func tickN(d *Daemon, n int) {
	for i := 0; i < n; i++ {
		_ = d.pipeline.Tick(context.Background())
	}
}

func TestAPIStatusRequiresToken(t *testing.T) {
	d := newTestDaemon(t, testsupport.NewConfig(t))
	srv, client := newTestServer(t, d, "secret")

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Backend != config.BackendSynthetic {
		t.Fatalf("unexpected backend %q", status.Backend)
	}
	if status.JournalPath == "" || status.LockPath == "" {
		t.Fatalf("expected journal and lock paths, got %+v", status)
	}
	if len(status.Pipeline.Stages) != 3 || status.Pipeline.Stages[0].Name != "speech" {
		t.Fatalf("unexpected stages %+v", status.Pipeline.Stages)
	}

	wrong := api.NewClient(srv.URL, "nope")
	if _, err := wrong.Status(context.Background()); !api.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401 for wrong token, got %v", err)
	}
}

func TestAPISpeakProducesArtifacts(t *testing.T) {
	d := newTestDaemon(t, testsupport.NewConfig(t))
	_, client := newTestServer(t, d, "")
	ctx := context.Background()

	resp, err := client.Speak(ctx, "hello world")
	if err != nil || !resp.Accepted {
		t.Fatalf("Speak: %+v %v", resp, err)
	}
	tickN(d, 6)

	live, err := client.Artifacts(ctx, api.SourceLive, "", 0)
	if err != nil {
		t.Fatalf("Artifacts live: %v", err)
	}
	if live.Source != api.SourceLive || len(live.Artifacts) != 3 {
		t.Fatalf("expected 3 live artifacts, got %+v", live)
	}

	limited, err := client.Artifacts(ctx, api.SourceLive, "", 1)
	if err != nil || len(limited.Artifacts) != 1 {
		t.Fatalf("expected limit to apply, got %+v %v", limited, err)
	}

	onlyFace, err := client.Artifacts(ctx, api.SourceJournal, "face", 0)
	if err != nil {
		t.Fatalf("Artifacts journal: %v", err)
	}
	if len(onlyFace.Artifacts) != 1 || onlyFace.Artifacts[0].AudioName != "hello_world.wav" {
		t.Fatalf("unexpected journal artifacts %+v", onlyFace.Artifacts)
	}

	cleared, err := client.ClearJournal(ctx)
	if err != nil {
		t.Fatalf("ClearJournal: %v", err)
	}
	if cleared.Removed != 3 {
		t.Fatalf("expected 3 rows removed, got %d", cleared.Removed)
	}
}

func TestAPISpeakRejectionAndAcknowledge(t *testing.T) {
	d := newTestDaemon(t, testsupport.NewConfig(t))
	_, client := newTestServer(t, d, "")
	ctx := context.Background()

	if _, err := client.Speak(ctx, "   "); !api.IsStatus(err, http.StatusUnprocessableEntity) {
		t.Fatalf("expected 422 for blank text, got %v", err)
	}

	pending, err := client.Exceptions(ctx, "", "speech", 0)
	if err != nil {
		t.Fatalf("Exceptions: %v", err)
	}
	if len(pending.Exceptions) != 1 || pending.Exceptions[0].FailureKind != "rejected" {
		t.Fatalf("unexpected pending exceptions %+v", pending.Exceptions)
	}

	ack, err := client.Acknowledge(ctx, "speech")
	if err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	if ack.Exception.Stage != "speech" || ack.Exception.AcknowledgedAt == nil {
		t.Fatalf("unexpected acknowledged exception %+v", ack.Exception)
	}

	journaled, err := client.Exceptions(ctx, api.SourceJournal, "", 0)
	if err != nil {
		t.Fatalf("Exceptions journal: %v", err)
	}
	if len(journaled.Exceptions) != 1 || journaled.Exceptions[0].AcknowledgedAt == nil {
		t.Fatalf("expected acknowledged journal row, got %+v", journaled.Exceptions)
	}

	if _, err := client.Acknowledge(ctx, "speech"); !api.IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409 with nothing pending, got %v", err)
	}
	if _, err := client.Acknowledge(ctx, "lighting"); !api.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404 for unknown stage, got %v", err)
	}
	if _, err := client.Acknowledge(ctx, ""); !api.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("expected 400 for missing stage, got %v", err)
	}
}

func TestAPIStopBroadcastsToStages(t *testing.T) {
	d := newTestDaemon(t, testsupport.NewConfig(t))
	_, client := newTestServer(t, d, "")
	ctx := context.Background()

	resp, err := client.Stop(ctx, api.StopRequest{Reason: "barge-in"})
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if resp.ConversationID == "" || resp.Reason != "barge-in" || len(resp.Stages) != 3 {
		t.Fatalf("unexpected stop response %+v", resp)
	}
	status, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	for _, st := range status.Pipeline.Stages {
		if st.Stops != 1 {
			t.Fatalf("expected one queued stop on %s, got %d", st.Name, st.Stops)
		}
	}
}

func TestAPIRejectsBadRequests(t *testing.T) {
	d := newTestDaemon(t, testsupport.NewConfig(t))
	srv, _ := newTestServer(t, d, "")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "/api/speak", "", http.StatusMethodNotAllowed},
		{"unknown source", http.MethodGet, "/api/exceptions?source=disk", "", http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/api/artifacts?limit=x", "", http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/speak", "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("NewRequest: %v", err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("Do: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
			var body api.ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
				t.Fatalf("expected error body, got %+v %v", body, err)
			}
		})
	}
}

func TestAPIRequestIDEcho(t *testing.T) {
	d := newTestDaemon(t, testsupport.NewConfig(t))
	srv, _ := newTestServer(t, d, "")

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/status", nil)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("expected echoed request id, got %q", got)
	}

	resp, err = http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id")
	}
}

func TestAPIMetricsAndNotify(t *testing.T) {
	d := newTestDaemon(t, testsupport.NewConfig(t))
	srv, client := newTestServer(t, d, "secret")
	tickN(d, 1)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "streamer_stage_status") {
		t.Fatalf("unexpected metrics reply %d", resp.StatusCode)
	}

	notify, err := client.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if notify.Sent || notify.Message != "ntfy topic not configured" {
		t.Fatalf("unexpected notify response %+v", notify)
	}
}
