package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingestor/constants"
)

// StatusTracker records job status transitions. Writes are best effort: a failed
// write is logged and swallowed so a job can never fail on recording its own failure.
type StatusTracker struct {
	store  StatusStore
	logger *slog.Logger
}

func NewStatusTracker(store StatusStore, logger *slog.Logger) *StatusTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusTracker{store: store, logger: logger}
}

// Mark writes status and message in a single keyed update. message is only stored for Failed.
func (t *StatusTracker) Mark(ctx context.Context, kind constants.JobKind, id uuid.UUID, status constants.JobStatus, message string) {
	var errMsg *string
	if status == constants.JobStatusFailed {
		errMsg = &message
	}
	if err := t.store.UpdateStatus(ctx, kind, id, status, errMsg); err != nil {
		t.logger.ErrorContext(ctx, "job status write failed",
			"kind", kind, "status", status, "error", err)
		return
	}
	if status == constants.JobStatusFailed {
		t.logger.WarnContext(ctx, "job finished (failed)", "kind", kind, "error", message)
		return
	}
	t.logger.InfoContext(ctx, "job status", "kind", kind, "status", status)
}

func (t *StatusTracker) Processing(ctx context.Context, kind constants.JobKind, id uuid.UUID) {
	t.Mark(ctx, kind, id, constants.JobStatusProcessing, "")
}

func (t *StatusTracker) Completed(ctx context.Context, kind constants.JobKind, id uuid.UUID) {
	t.Mark(ctx, kind, id, constants.JobStatusCompleted, "")
}

func (t *StatusTracker) Failed(ctx context.Context, kind constants.JobKind, id uuid.UUID, message string) {
	t.Mark(ctx, kind, id, constants.JobStatusFailed, message)
}
