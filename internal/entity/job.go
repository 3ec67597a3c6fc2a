package entity

import (
	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingestor/constants"
)

// Job identifies one unit of ingestion work. The row exists before the job is triggered.
type Job struct {
	ID       uuid.UUID         `json:"id"`
	Kind     constants.JobKind `json:"kind"`
	Filename string            `json:"filename"`
}
