package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/common"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
	"github.com/joseph-ayodele/resume-ingestor/internal/repository"
	"github.com/joseph-ayodele/resume-ingestor/internal/spreadsheet"
	"github.com/joseph-ayodele/resume-ingestor/internal/storage"
)

// ProjectImporter loads a CSV or Excel sheet of projects into the projects table.
type ProjectImporter struct {
	Limiter Acquirer
	Store   storage.ArtifactStore
	Records repository.ProjectStore
	Status  *repository.StatusTracker
	Bucket  string
	Timeout time.Duration // bounds the import after the permit is granted
	Logger  *slog.Logger
}

func NewProjectImporter(
	lim Acquirer,
	store storage.ArtifactStore,
	records repository.ProjectStore,
	status *repository.StatusTracker,
	bucket string,
	logger *slog.Logger,
) *ProjectImporter {
	if logger == nil {
		logger = slog.Default()
	}
	if bucket == "" {
		bucket = constants.BucketSpreadsheets
	}
	return &ProjectImporter{
		Limiter: lim,
		Store:   store,
		Records: records,
		Status:  status,
		Bucket:  bucket,
		Logger:  logger,
	}
}

func (p *ProjectImporter) Run(ctx context.Context, job entity.Job) Outcome {
	ctx = jobContext(ctx, job)
	start := time.Now()
	out := Outcome{JobID: job.ID}

	permit, err := p.Limiter.Acquire(ctx)
	if err != nil {
		p.Logger.ErrorContext(ctx, "projects.acquire.failed", "filename", job.Filename, "error", err)
		out.Err = err
		return out
	}
	defer permit.Release()

	ctx, cancel := workContext(ctx, p.Timeout)
	defer cancel()

	p.Status.Processing(ctx, constants.JobKindSpreadsheet, job.ID)

	fail := func(err error) Outcome {
		p.Logger.ErrorContext(ctx, "projects.failed", "filename", job.Filename, "error", err)
		p.Status.Failed(statusContext(ctx), constants.JobKindSpreadsheet, job.ID, common.StatusMessage(err))
		out.Status = constants.JobStatusFailed
		out.Err = err
		return out
	}

	data, err := p.Store.Get(ctx, p.Bucket, job.Filename)
	if err != nil {
		return fail(common.NewFetchError(p.Bucket, job.Filename, err))
	}

	projects, err := spreadsheet.Parse(job.Filename, data)
	if err != nil {
		return fail(common.NewAppError(common.CodeParse, "failed to parse spreadsheet", err))
	}

	n, err := p.Records.InsertProjects(ctx, job.ID, projects)
	if err != nil {
		return fail(common.NewPersistenceError("failed to insert projects", err))
	}

	p.Status.Completed(statusContext(ctx), constants.JobKindSpreadsheet, job.ID)
	p.Logger.InfoContext(ctx, "projects.completed",
		"filename", job.Filename, "rows", n, "elapsed_ms", time.Since(start).Milliseconds())
	out.Status = constants.JobStatusCompleted
	return out
}
