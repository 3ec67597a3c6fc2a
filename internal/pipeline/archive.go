package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/common"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
	"github.com/joseph-ayodele/resume-ingestor/internal/repository"
	"github.com/joseph-ayodele/resume-ingestor/internal/retry"
	"github.com/joseph-ayodele/resume-ingestor/internal/storage"
)

// ArchiveEntry is one file read out of an archive.
type ArchiveEntry struct {
	Name        string
	Data        []byte
	IsDirectory bool
}

// EntryResult reports what happened to one PDF re-uploaded out of an archive.
type EntryResult struct {
	Entry      string
	UploadPath string
	Uploaded   bool
	Linked     bool
	Attempts   int   // link attempts made
	Err        error // upload, link or permit error; never escalated to the archive
}

// Expansion is the result of an archive job. Status reflects enumeration and
// dispatch only; per-entry work continues after Run returns.
type Expansion struct {
	Outcome
	UploadPaths []string

	results []<-chan EntryResult
}

// Results exposes one channel per dispatched entry. Each yields exactly one result and is then closed.
func (e *Expansion) Results() []<-chan EntryResult {
	return e.results
}

// Wait collects every entry result, or stops early when ctx ends.
func (e *Expansion) Wait(ctx context.Context) ([]EntryResult, error) {
	out := make([]EntryResult, 0, len(e.results))
	for _, ch := range e.results {
		select {
		case r, ok := <-ch:
			if ok {
				out = append(out, r)
			}
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
	return out, nil
}

// ArchiveExpander unpacks a ZIP of resumes, re-uploads every PDF to the resume
// bucket and links the resulting resume rows back to the archive.
type ArchiveExpander struct {
	Limiter       Acquirer // admission of archive jobs
	FanoutLimiter Acquirer // admission of per-entry uploads
	Store         storage.ArtifactStore
	Records       repository.ResumeStore
	Status        *repository.StatusTracker
	ArchiveBucket string
	ResumeBucket  string
	LinkRetry     retry.Policy
	Timeout       time.Duration // bounds fetch, unzip and dispatch after the permit is granted
	Logger        *slog.Logger

	inflight sync.WaitGroup
}

type ArchiveOption func(*ArchiveExpander)

// WithFanoutLimiter gives entry uploads their own pool instead of sharing the job limiter.
func WithFanoutLimiter(l Acquirer) ArchiveOption {
	return func(a *ArchiveExpander) {
		if l != nil {
			a.FanoutLimiter = l
		}
	}
}

func WithLinkRetry(p retry.Policy) ArchiveOption {
	return func(a *ArchiveExpander) {
		if p.Attempts > 0 {
			a.LinkRetry = p
		}
	}
}

func WithBuckets(archive, resumes string) ArchiveOption {
	return func(a *ArchiveExpander) {
		if archive != "" {
			a.ArchiveBucket = archive
		}
		if resumes != "" {
			a.ResumeBucket = resumes
		}
	}
}

func NewArchiveExpander(
	lim Acquirer,
	store storage.ArtifactStore,
	records repository.ResumeStore,
	status *repository.StatusTracker,
	logger *slog.Logger,
	opts ...ArchiveOption,
) *ArchiveExpander {
	if logger == nil {
		logger = slog.Default()
	}
	a := &ArchiveExpander{
		Limiter:       lim,
		FanoutLimiter: lim,
		Store:         store,
		Records:       records,
		Status:        status,
		ArchiveBucket: constants.BucketZipArchives,
		ResumeBucket:  constants.BucketResumes,
		LinkRetry:     retry.DefaultPolicy(),
		Logger:        logger,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run expands one archive job. It returns once every qualifying entry has been
// dispatched and the archive is marked Completed; entry uploads and links run on.
func (a *ArchiveExpander) Run(ctx context.Context, job entity.Job) *Expansion {
	ctx = jobContext(ctx, job)
	start := time.Now()
	exp := &Expansion{Outcome: Outcome{JobID: job.ID}}

	permit, err := a.Limiter.Acquire(ctx)
	if err != nil {
		a.Logger.ErrorContext(ctx, "archive.acquire.failed", "filename", job.Filename, "error", err)
		exp.Err = err
		return exp
	}
	defer permit.Release()

	ctx, cancel := workContext(ctx, a.Timeout)
	defer cancel()

	a.Status.Processing(ctx, constants.JobKindArchive, job.ID)

	fail := func(err error) *Expansion {
		a.Logger.ErrorContext(ctx, "archive.failed", "filename", job.Filename, "error", err)
		a.Status.Failed(statusContext(ctx), constants.JobKindArchive, job.ID, common.StatusMessage(err))
		exp.Status = constants.JobStatusFailed
		exp.Err = err
		return exp
	}

	data, err := a.Store.Get(ctx, a.ArchiveBucket, job.Filename)
	if err != nil {
		return fail(common.NewFetchError(a.ArchiveBucket, job.Filename, err))
	}

	entries, err := a.readEntries(ctx, data)
	if err != nil {
		return fail(err)
	}

	// Entries outlive this call; keep the job's log values but drop its cancellation.
	taskCtx := context.WithoutCancel(ctx)
	for _, e := range entries {
		if !constants.IsPDFEntry(e.Name, e.IsDirectory) {
			a.Logger.DebugContext(ctx, "archive.entry.skipped", "entry", e.Name, "is_dir", e.IsDirectory)
			continue
		}
		uploadPath := constants.ArchiveUploadPath(job.Filename, e.Name)
		ch := make(chan EntryResult, 1)
		exp.results = append(exp.results, ch)
		exp.UploadPaths = append(exp.UploadPaths, uploadPath)

		a.inflight.Add(1)
		go a.expandEntry(taskCtx, job.ID, e.Name, uploadPath, e.Data, ch)
	}

	a.Status.Completed(statusContext(ctx), constants.JobKindArchive, job.ID)
	a.Logger.InfoContext(ctx, "archive.dispatched",
		"filename", job.Filename, "entries", len(entries), "uploads", len(exp.results),
		"elapsed_ms", time.Since(start).Milliseconds())
	exp.Status = constants.JobStatusCompleted
	return exp
}

// Drain waits for dispatched entry work to finish or for ctx to end.
func (a *ArchiveExpander) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() { defer close(done); a.inflight.Wait() }()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readEntries opens data as a ZIP and reads every entry in enumeration order.
// Directories are returned without data; unreadable files are logged and left out.
func (a *ArchiveExpander) readEntries(ctx context.Context, data []byte) ([]ArchiveEntry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, common.NewAppError(common.CodeParse, "failed to open ZIP archive", err)
	}

	entries := make([]ArchiveEntry, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			entries = append(entries, ArchiveEntry{Name: f.Name, IsDirectory: true})
			continue
		}
		if !constants.IsPDFEntry(f.Name, false) {
			entries = append(entries, ArchiveEntry{Name: f.Name})
			continue
		}
		b, err := readZipFile(f)
		if err != nil {
			a.Logger.WarnContext(ctx, "archive.entry.unreadable", "entry", f.Name, "error", err)
			continue
		}
		entries = append(entries, ArchiveEntry{Name: f.Name, Data: b})
	}
	return entries, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

func (a *ArchiveExpander) expandEntry(ctx context.Context, archiveID uuid.UUID, entry, uploadPath string, data []byte, out chan<- EntryResult) {
	defer a.inflight.Done()
	defer close(out)
	res := EntryResult{Entry: entry, UploadPath: uploadPath}
	defer func() { out <- res }()

	permit, err := a.FanoutLimiter.Acquire(ctx)
	if err != nil {
		res.Err = err
		a.Logger.ErrorContext(ctx, "archive.entry.acquire_failed", "upload_path", uploadPath, "error", err)
		return
	}
	defer permit.Release()

	if err := a.Store.Put(ctx, a.ResumeBucket, uploadPath, data, constants.ContentTypePDF, false); err != nil {
		res.Err = common.NewUploadError(a.ResumeBucket, uploadPath, err)
		a.Logger.ErrorContext(ctx, "archive.entry.upload_failed", "upload_path", uploadPath, "error", err)
		return
	}
	res.Uploaded = true

	// The resume row is created by a separate trigger reacting to the upload, so it may not exist yet.
	attempts, err := a.LinkRetry.Do(ctx, func(ctx context.Context, attempt int) error {
		n, err := a.Records.LinkToArchive(ctx, archiveID, uploadPath)
		if err != nil {
			a.Logger.WarnContext(ctx, "archive.entry.link_error",
				"upload_path", uploadPath, "attempt", attempt, "error", err)
			return err
		}
		if n == 0 {
			return retry.ErrNotYet
		}
		return nil
	})
	res.Attempts = attempts
	if err != nil {
		if errors.Is(err, retry.ErrNotYet) {
			err = nil
		}
		res.Err = common.NewLinkRetryExhaustedError(uploadPath, attempts, err)
		a.Logger.WarnContext(ctx, "archive.entry.link_retry_exhausted",
			"upload_path", uploadPath, "attempts", attempts, "archive_id", archiveID)
		return
	}
	res.Linked = true
	a.Logger.InfoContext(ctx, "archive.entry.linked",
		"upload_path", uploadPath, "attempts", attempts, "archive_id", archiveID)
}
