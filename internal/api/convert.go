package api

import (
	"streamer/internal/journal"
	"streamer/internal/pipeline"
)

// FromJournalException converts a journal row to its API representation.
func FromJournalException(exc journal.Exception) pipeline.ExceptionView {
	return pipeline.ExceptionView{
		Stage:          exc.Stage,
		Seq:            exc.Seq,
		Type:           exc.Type,
		Code:           exc.Code,
		Category:       exc.Category,
		FailureKind:    exc.FailureKind,
		Message:        exc.Message,
		Item:           exc.ItemName,
		At:             exc.RecordedAt,
		AcknowledgedAt: exc.AcknowledgedAt,
	}
}

// FromJournalExceptions converts a slice of journal rows.
func FromJournalExceptions(rows []journal.Exception) []pipeline.ExceptionView {
	out := make([]pipeline.ExceptionView, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromJournalException(row))
	}
	return out
}

// FromJournalArtifact converts a journal artifact row.
func FromJournalArtifact(art journal.Artifact) pipeline.Artifact {
	return pipeline.Artifact{
		Stage:     art.Stage,
		Kind:      art.Kind,
		Name:      art.Name,
		AudioName: art.AudioName,
		Path:      art.Path,
		Duration:  art.Duration,
		Frames:    art.Frames,
		CreatedAt: art.CreatedAt,
	}
}

// FromJournalArtifacts converts a slice of journal artifact rows.
func FromJournalArtifacts(rows []journal.Artifact) []pipeline.Artifact {
	out := make([]pipeline.Artifact, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromJournalArtifact(row))
	}
	return out
}
