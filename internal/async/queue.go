// Package async accepts ingestion triggers and runs them in the background.
package async

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
)

// ErrShuttingDown is returned by Enqueue once Shutdown has started.
var ErrShuttingDown = errors.New("dispatcher is shutting down")

// Queue accepts jobs without waiting for them to run. Trigger sources only ever
// see whether the job was accepted; the job's outcome lives in its status row.
type Queue interface {
	Enqueue(ctx context.Context, job entity.Job) error
	Shutdown(ctx context.Context)
}
