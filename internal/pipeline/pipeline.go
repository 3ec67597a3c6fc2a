// Package pipeline runs ingestion jobs: single resumes, ZIP archives of resumes
// and project spreadsheets. Every job holds a limiter permit while it works and
// records its outcome through the status tracker.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/common"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
	"github.com/joseph-ayodele/resume-ingestor/internal/limiter"
)

// Acquirer hands out limiter permits.
type Acquirer interface {
	Acquire(ctx context.Context) (*limiter.Permit, error)
}

// Outcome is the in-memory result of a job. Trigger sources never see it; the
// persisted status is the only externally visible result.
type Outcome struct {
	JobID  uuid.UUID
	Status constants.JobStatus // empty when the job never started
	Err    error
}

func jobContext(ctx context.Context, job entity.Job) context.Context {
	return common.WithJob(ctx, job.ID.String(), string(job.Kind))
}

// statusContext keeps status writes alive when the job context was cancelled
// mid-flight, so an interrupted job still records why it stopped.
func statusContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// workContext bounds the work a job does while holding its permit. The wait for
// the permit itself is never bounded: a job that has not started must not be lost.
func workContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
