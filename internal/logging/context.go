package logging

import (
	"context"
	"log/slog"

	"streamer/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldEventType tags a log line with a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldConversationID identifies the conversation a stop request or utterance belongs to.
	FieldConversationID = "conversation_id"
	// FieldExceptionType carries the stage exception type name.
	FieldExceptionType = "exception_type"
	// FieldArtifact names the artifact produced or rejected by a stage.
	FieldArtifact = "artifact"
)

// WithContext tags logger with the stage, request and conversation IDs
// carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var fields []Attr
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, String(FieldCorrelationID, rid))
	}
	if cid, ok := services.ConversationIDFromContext(ctx); ok {
		fields = append(fields, String(FieldConversationID, cid))
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(toArgs(fields)...)
}
