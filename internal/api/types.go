package api

import "streamer/internal/pipeline"

// Listing sources accepted by the exceptions and artifacts endpoints.
const (
	SourceLive    = "live"
	SourceJournal = "journal"
)

// StatusResponse aggregates daemon runtime information.
type StatusResponse struct {
	Running     bool                   `json:"running"`
	PID         int                    `json:"pid"`
	Backend     string                 `json:"backend"`
	JournalPath string                 `json:"journal_path"`
	LockPath    string                 `json:"lock_path"`
	Pipeline    pipeline.StatusSummary `json:"pipeline"`
}

// SpeakRequest submits text to the speech stage.
type SpeakRequest struct {
	Text string `json:"text"`
}

// SpeakResponse reports whether the text was queued.
type SpeakResponse struct {
	Accepted bool `json:"accepted"`
}

// StopRequest asks every stage to abandon a conversation.
type StopRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// StopResponse echoes the broadcast stop, including any generated ID.
type StopResponse struct {
	ConversationID string   `json:"conversation_id"`
	Reason         string   `json:"reason,omitempty"`
	Stages         []string `json:"stages"`
}

// AckRequest acknowledges the head exception of one stage.
type AckRequest struct {
	Stage string `json:"stage"`
}

// AckResponse carries the acknowledged exception.
type AckResponse struct {
	Exception pipeline.ExceptionView `json:"exception"`
}

// ExceptionListResponse wraps exception views.
type ExceptionListResponse struct {
	Source     string                   `json:"source"`
	Exceptions []pipeline.ExceptionView `json:"exceptions"`
}

// ArtifactListResponse wraps artifact views.
type ArtifactListResponse struct {
	Source    string              `json:"source"`
	Artifacts []pipeline.Artifact `json:"artifacts"`
}

// ClearResponse reports how many journal rows were removed.
type ClearResponse struct {
	Removed int64 `json:"removed"`
}

// NotifyResponse reports the outcome of a test notification.
type NotifyResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
