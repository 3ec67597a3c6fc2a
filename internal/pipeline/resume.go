package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/common"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
	"github.com/joseph-ayodele/resume-ingestor/internal/extract"
	"github.com/joseph-ayodele/resume-ingestor/internal/llm"
	"github.com/joseph-ayodele/resume-ingestor/internal/repository"
	"github.com/joseph-ayodele/resume-ingestor/internal/storage"
)

// ResumePipeline turns one uploaded PDF into a structured resume record.
type ResumePipeline struct {
	Limiter      Acquirer
	Store        storage.ArtifactStore
	Extractor    extract.TextExtractor
	Structurer   llm.Structurer
	Records      repository.ResumeStore
	Status       *repository.StatusTracker
	Bucket       string
	SystemPrompt string
	Format       llm.ResponseFormat
	Timeout      time.Duration // bounds the work after the permit is granted, 0 disables
	Logger       *slog.Logger
}

type ResumeOption func(*ResumePipeline)

// WithResponseFormat overrides the resume schema sent to the structuring service.
func WithResponseFormat(f llm.ResponseFormat) ResumeOption {
	return func(p *ResumePipeline) {
		if f != nil {
			p.Format = f
		}
	}
}

func WithResumeBucket(bucket string) ResumeOption {
	return func(p *ResumePipeline) {
		if bucket != "" {
			p.Bucket = bucket
		}
	}
}

func NewResumePipeline(
	lim Acquirer,
	store storage.ArtifactStore,
	extractor extract.TextExtractor,
	structurer llm.Structurer,
	records repository.ResumeStore,
	status *repository.StatusTracker,
	logger *slog.Logger,
	opts ...ResumeOption,
) *ResumePipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &ResumePipeline{
		Limiter:      lim,
		Store:        store,
		Extractor:    extractor,
		Structurer:   structurer,
		Records:      records,
		Status:       status,
		Bucket:       constants.BucketResumes,
		SystemPrompt: llm.ResumeSystemPrompt,
		Format: llm.SchemaFormat{
			Name:   llm.ResumeSchemaName,
			Schema: llm.BuildResumeJSONSchema(),
			Strict: false,
		},
		Logger: logger,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run fetches, extracts, structures and persists one resume. The first failing
// step marks the job failed and ends it. The permit is held from the Processing
// write until the final status write.
func (p *ResumePipeline) Run(ctx context.Context, job entity.Job) Outcome {
	ctx = jobContext(ctx, job)
	start := time.Now()
	out := Outcome{JobID: job.ID}

	permit, err := p.Limiter.Acquire(ctx)
	if err != nil {
		p.Logger.ErrorContext(ctx, "resume.acquire.failed", "filename", job.Filename, "error", err)
		out.Err = err
		return out
	}
	defer permit.Release()

	ctx, cancel := workContext(ctx, p.Timeout)
	defer cancel()

	p.Status.Processing(ctx, constants.JobKindResume, job.ID)

	fail := func(err error) Outcome {
		p.Logger.ErrorContext(ctx, "resume.failed",
			"filename", job.Filename, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		p.Status.Failed(statusContext(ctx), constants.JobKindResume, job.ID, common.StatusMessage(err))
		out.Status = constants.JobStatusFailed
		out.Err = err
		return out
	}

	data, err := p.Store.Get(ctx, p.Bucket, job.Filename)
	if err != nil {
		return fail(common.NewFetchError(p.Bucket, job.Filename, err))
	}
	p.Logger.DebugContext(ctx, "resume.fetch.ok", "filename", job.Filename, "bytes", len(data))

	text, err := p.Extractor.Extract(data)
	if err != nil {
		if !errors.Is(err, common.ErrExtraction) {
			err = common.NewExtractionError(err)
		}
		return fail(err)
	}
	p.Logger.InfoContext(ctx, "resume.extract.ok",
		"pages", text.Pages, "text_len", len(text.Text), "warnings", len(text.Warnings))

	doc, err := p.Structurer.Structure(ctx, llm.StructureRequest{
		SystemPrompt: p.SystemPrompt,
		DocumentText: text.Text,
		Format:       p.Format,
	})
	if err != nil {
		if !errors.Is(err, common.ErrStructuring) {
			err = common.NewStructuringError(common.StructuringKindRequest, "structuring request failed", err)
		}
		return fail(err)
	}

	if err := p.Records.UpsertText(ctx, job.ID, text.Text, doc.Content); err != nil {
		return fail(common.NewPersistenceError("failed to store resume text", err))
	}

	p.Status.Completed(statusContext(ctx), constants.JobKindResume, job.ID)
	p.Logger.InfoContext(ctx, "resume.completed",
		"filename", job.Filename, "elapsed_ms", time.Since(start).Milliseconds())
	out.Status = constants.JobStatusCompleted
	return out
}
