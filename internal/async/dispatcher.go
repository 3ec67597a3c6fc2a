package async

import (
	"context"
	"log/slog"
	"sync"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/common"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
	"github.com/joseph-ayodele/resume-ingestor/internal/pipeline"
)

type JobRunner interface {
	Run(ctx context.Context, job entity.Job) pipeline.Outcome
}

type ArchiveRunner interface {
	Run(ctx context.Context, job entity.Job) *pipeline.Expansion
	Drain(ctx context.Context) error
}

// Dispatcher starts one goroutine per accepted job. Concurrency is bounded by
// the pipelines' limiter, so waiting jobs park there instead of in a channel.
type Dispatcher struct {
	resumes  JobRunner
	archives ArchiveRunner
	projects JobRunner
	logger   *slog.Logger

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewDispatcher routes jobs to the pipelines. Job timeouts belong to the
// pipelines, which start the clock only once a permit is held.
func NewDispatcher(resumes JobRunner, archives ArchiveRunner, projects JobRunner, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		resumes:  resumes,
		archives: archives,
		projects: projects,
		logger:   logger,
	}
}

// Enqueue validates job and starts it. The job keeps the values of ctx (request id)
// but not its cancellation, so it outlives the request that triggered it.
func (d *Dispatcher) Enqueue(ctx context.Context, job entity.Job) error {
	if err := common.NewValidator().
		Field("id", job.ID, common.Required).
		Field("filename", job.Filename, common.Required).
		Field("kind", string(job.Kind), common.OneOf(
			string(constants.JobKindResume),
			string(constants.JobKindArchive),
			string(constants.JobKindSpreadsheet),
		)).
		Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.WarnContext(ctx, "cannot enqueue: dispatcher is shutting down", "job_id", job.ID, "kind", job.Kind)
		return ErrShuttingDown
	}
	d.wg.Add(1)
	go d.run(context.WithoutCancel(ctx), job)
	d.logger.InfoContext(ctx, "job accepted", "job_id", job.ID, "kind", job.Kind, "filename", job.Filename)
	return nil
}

func (d *Dispatcher) run(ctx context.Context, job entity.Job) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "job panicked", "job_id", job.ID, "kind", job.Kind, "panic", r)
		}
	}()
	var out pipeline.Outcome
	switch job.Kind {
	case constants.JobKindResume:
		out = d.resumes.Run(ctx, job)
	case constants.JobKindArchive:
		out = d.archives.Run(ctx, job).Outcome
	case constants.JobKindSpreadsheet:
		out = d.projects.Run(ctx, job)
	}
	if out.Err != nil {
		d.logger.WarnContext(ctx, "job finished with error", "job_id", job.ID, "kind", job.Kind, "status", out.Status, "error", out.Err)
		return
	}
	d.logger.DebugContext(ctx, "job finished", "job_id", job.ID, "kind", job.Kind, "status", out.Status)
}

// Shutdown stops accepting jobs and waits for running jobs and archive fan-out
// to finish, or for ctx to end.
func (d *Dispatcher) Shutdown(ctx context.Context) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); d.wg.Wait() }()

	select {
	case <-ctx.Done():
		d.logger.Warn("shutdown interrupted by context", "error", ctx.Err())
		return
	case <-done:
	}
	if err := d.archives.Drain(ctx); err != nil {
		d.logger.Warn("archive fan-out not drained", "error", err)
		return
	}
	d.logger.Info("dispatcher drained, shutdown complete")
}
