package async

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
	"github.com/joseph-ayodele/resume-ingestor/internal/extract"
	"github.com/joseph-ayodele/resume-ingestor/internal/limiter"
	"github.com/joseph-ayodele/resume-ingestor/internal/llm"
	"github.com/joseph-ayodele/resume-ingestor/internal/pipeline"
	"github.com/joseph-ayodele/resume-ingestor/internal/repository"
	"github.com/joseph-ayodele/resume-ingestor/internal/repository/sqlite"
	"github.com/joseph-ayodele/resume-ingestor/internal/storage"
)

type staticStructurer struct{}

func (staticStructurer) Structure(context.Context, llm.StructureRequest) (llm.Document, error) {
	return llm.Document{Content: json.RawMessage(`{"name":"John Doe"}`)}, nil
}

func resumePDF(t *testing.T, line string) []byte {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Cell(0, 10, line)
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestDispatcher_SaturatedLimiterDoesNotDropJobs(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	objects := storage.NewMemoryStore()
	lim := limiter.New(1)

	resumes := pipeline.NewResumePipeline(lim, objects, extract.NewPDFExtractor(nil), staticStructurer{},
		db, repository.NewStatusTracker(db, nil), nil)
	resumes.Timeout = 100 * time.Millisecond
	d := NewDispatcher(resumes, &recordingArchives{}, &recordingRunner{}, nil)

	job := entity.Job{ID: uuid.New(), Kind: constants.JobKindResume, Filename: "waiting.pdf"}
	require.NoError(t, db.CreateJob(ctx, job.Kind, job.ID, job.Filename))
	require.NoError(t, objects.Put(ctx, constants.BucketResumes, job.Filename, resumePDF(t, "John Doe"), constants.ContentTypePDF, true))

	held, err := lim.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, d.Enqueue(ctx, job))

	time.Sleep(300 * time.Millisecond)
	st, _, err := db.JobStatus(ctx, job.Kind, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusPending, st, "still queued behind the held permit")
	held.Release()

	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	d.Shutdown(sctx)

	st, msg, err := db.JobStatus(ctx, job.Kind, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusCompleted, st)
	assert.Nil(t, msg)
	assert.Equal(t, 0, lim.InUse())
}
