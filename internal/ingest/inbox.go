package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/async"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
	"github.com/joseph-ayodele/resume-ingestor/internal/repository"
	"github.com/joseph-ayodele/resume-ingestor/internal/storage"
)

// Buckets names the destination bucket per job kind.
type Buckets struct {
	Resumes      string
	Archives     string
	Spreadsheets string
}

func (b Buckets) For(kind constants.JobKind) string {
	switch kind {
	case constants.JobKindResume:
		return b.Resumes
	case constants.JobKindArchive:
		return b.Archives
	case constants.JobKindSpreadsheet:
		return b.Spreadsheets
	}
	return ""
}

// Inbox does locally what the upload flow and database webhook do in production:
// upload the file, insert a pending job row and dispatch the job.
type Inbox struct {
	objects storage.ArtifactStore
	jobs    repository.JobStore
	queue   async.Queue
	buckets Buckets
	logger  *slog.Logger
}

func NewInbox(objects storage.ArtifactStore, jobs repository.JobStore, queue async.Queue, buckets Buckets, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	if buckets.Resumes == "" {
		buckets.Resumes = constants.BucketResumes
	}
	if buckets.Archives == "" {
		buckets.Archives = constants.BucketZipArchives
	}
	if buckets.Spreadsheets == "" {
		buckets.Spreadsheets = constants.BucketSpreadsheets
	}
	return &Inbox{objects: objects, jobs: jobs, queue: queue, buckets: buckets, logger: logger}
}

// Submit ingests one local file. Files whose extension no job accepts are ignored.
func (in *Inbox) Submit(ctx context.Context, path string) (entity.Job, error) {
	kind, ok := constants.KindForFile(path)
	if !ok {
		return entity.Job{}, fmt.Errorf("no job accepts %s", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.Job{}, fmt.Errorf("read %s: %w", path, err)
	}

	job := entity.Job{ID: uuid.New(), Kind: kind, Filename: filepath.Base(path)}
	bucket := in.buckets.For(kind)
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := in.objects.Put(ctx, bucket, job.Filename, data, contentType, true); err != nil {
		return job, fmt.Errorf("upload %s/%s: %w", bucket, job.Filename, err)
	}
	if err := in.jobs.CreateJob(ctx, kind, job.ID, job.Filename); err != nil {
		return job, fmt.Errorf("create %s job: %w", kind, err)
	}
	if err := in.queue.Enqueue(ctx, job); err != nil {
		return job, err
	}
	in.logger.InfoContext(ctx, "inbox file submitted", "path", path, "job_id", job.ID, "kind", kind)
	return job, nil
}

// Run submits every path received until paths closes or ctx ends.
func (in *Inbox) Run(ctx context.Context, paths <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-paths:
			if !ok {
				return
			}
			if _, err := in.Submit(ctx, p); err != nil {
				in.logger.ErrorContext(ctx, "inbox submit failed", "path", p, "error", err)
			}
		}
	}
}
