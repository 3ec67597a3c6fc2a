package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
)

// StatusStore writes the status columns of a job row.
type StatusStore interface {
	UpdateStatus(ctx context.Context, kind constants.JobKind, id uuid.UUID, status constants.JobStatus, errMsg *string) error
}

// ResumeStore persists what a resume job produced.
type ResumeStore interface {
	// UpsertText stores the extracted text and structured document on the resume row.
	UpsertText(ctx context.Context, id uuid.UUID, text string, structured json.RawMessage) error
	// LinkToArchive sets zip_id on the resume row whose filename is uploadPath and
	// returns the number of rows affected.
	LinkToArchive(ctx context.Context, archiveID uuid.UUID, uploadPath string) (int64, error)
}

// ProjectStore stores rows imported from a project spreadsheet.
type ProjectStore interface {
	InsertProjects(ctx context.Context, uploadID uuid.UUID, projects []entity.Project) (int64, error)
}

// JobStore creates pending job rows for triggers that do not come from the database.
type JobStore interface {
	CreateJob(ctx context.Context, kind constants.JobKind, id uuid.UUID, filename string) error
}

// Store is everything the pipelines need from the backing database.
type Store interface {
	JobStore
	StatusStore
	ResumeStore
	ProjectStore
}
