package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"streamer/internal/api"
	"streamer/internal/config"
	"streamer/internal/journal"
	"streamer/internal/logging"
	"streamer/internal/media"
	"streamer/internal/pipeline"
	"streamer/internal/services"
	"streamer/internal/stage"
)

const maxRequestBody = 1 << 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(cfg.Paths.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return withRequestID(authMiddleware(token, h))
	}
	mux.HandleFunc("/api/status", protect(s.handleStatus))
	mux.HandleFunc("/api/speak", protect(s.handleSpeak))
	mux.HandleFunc("/api/stop", protect(s.handleStop))
	mux.HandleFunc("/api/exceptions", protect(s.handleExceptions))
	mux.HandleFunc("/api/exceptions/ack", protect(s.handleAcknowledge))
	mux.HandleFunc("/api/artifacts", protect(s.handleArtifacts))
	mux.HandleFunc("/api/journal/clear", protect(s.handleJournalClear))
	mux.HandleFunc("/api/notify/test", protect(s.handleNotifyTest))
	if s.daemon.metrics != nil {
		mux.Handle("/metrics", s.daemon.metrics.Handler())
	}
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening",
		logging.String(logging.FieldEventType, "api_listening"),
		logging.String("address", listener.Addr().String()),
	)
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Running:     status.Running,
		PID:         status.PID,
		Backend:     status.Backend,
		JournalPath: status.JournalPath,
		LockPath:    status.LockPath,
		Pipeline:    status.Pipeline,
	})
}

func (s *apiServer) handleSpeak(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.SpeakRequest
	if !s.decode(w, r, &req) {
		return
	}
	err := s.daemon.pipeline.Speak(r.Context(), req.Text)
	var rejection *stage.RejectionError
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusAccepted, api.SpeakResponse{Accepted: true})
	case errors.As(err, &rejection):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrConfiguration):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.StopRequest
	if !s.decode(w, r, &req) {
		return
	}
	sent := s.daemon.pipeline.Stop(r.Context(), media.StopRequest{
		ConversationID: strings.TrimSpace(req.ConversationID),
		Reason:         strings.TrimSpace(req.Reason),
	})
	s.writeJSON(w, http.StatusOK, api.StopResponse{
		ConversationID: sent.ConversationID,
		Reason:         sent.Reason,
		Stages:         s.daemon.pipeline.StageNames(),
	})
}

func (s *apiServer) handleExceptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	source, filter, ok := s.listParams(w, r)
	if !ok {
		return
	}
	if source == api.SourceJournal {
		rows, err := s.daemon.ListExceptions(r.Context(), filter)
		if err != nil {
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.ExceptionListResponse{Source: source, Exceptions: api.FromJournalExceptions(rows)})
		return
	}

	views := make([]pipeline.ExceptionView, 0)
	for _, view := range s.daemon.pipeline.Exceptions() {
		if filter.Stage != "" && view.Stage != filter.Stage {
			continue
		}
		views = append(views, view)
	}
	s.writeJSON(w, http.StatusOK, api.ExceptionListResponse{Source: source, Exceptions: views})
}

func (s *apiServer) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.AckRequest
	if !s.decode(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Stage)
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "stage is required")
		return
	}
	view, err := s.daemon.pipeline.Acknowledge(r.Context(), name)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, api.AckResponse{Exception: view})
	case errors.Is(err, pipeline.ErrUnknownStage):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, pipeline.ErrNoException):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	source, filter, ok := s.listParams(w, r)
	if !ok {
		return
	}
	if source == api.SourceJournal {
		rows, err := s.daemon.ListArtifacts(r.Context(), filter)
		if err != nil {
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.ArtifactListResponse{Source: source, Artifacts: api.FromJournalArtifacts(rows)})
		return
	}

	arts := make([]pipeline.Artifact, 0)
	for _, art := range s.daemon.pipeline.Recent() {
		if filter.Stage != "" && art.Stage != filter.Stage {
			continue
		}
		if filter.Limit > 0 && len(arts) >= filter.Limit {
			break
		}
		arts = append(arts, art)
	}
	s.writeJSON(w, http.StatusOK, api.ArtifactListResponse{Source: source, Artifacts: arts})
}

func (s *apiServer) handleJournalClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	removed, err := s.daemon.ClearJournal(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.log().Info("journal cleared",
		logging.String(logging.FieldEventType, "journal_cleared"),
		logging.Int64("removed", removed),
	)
	s.writeJSON(w, http.StatusOK, api.ClearResponse{Removed: removed})
}

func (s *apiServer) handleNotifyTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, fmt.Sprintf("%s: %v", message, err))
		return
	}
	s.writeJSON(w, http.StatusOK, api.NotifyResponse{Sent: sent, Message: message})
}

func (s *apiServer) listParams(w http.ResponseWriter, r *http.Request) (string, journal.Filter, bool) {
	query := r.URL.Query()
	source := strings.ToLower(strings.TrimSpace(query.Get("source")))
	if source == "" {
		source = api.SourceLive
	}
	if source != api.SourceLive && source != api.SourceJournal {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown source %q", source))
		return "", journal.Filter{}, false
	}
	filter := journal.Filter{Stage: strings.TrimSpace(query.Get("stage"))}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return "", journal.Filter{}, false
		}
		filter.Limit = limit
	}
	return source, filter, true
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Warn("api response encode failed", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s == nil || s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "api-server"))
}

// withRequestID tags the request context with the caller's X-Request-ID or a
// fresh one, and echoes it on the response.
func withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	}
}
