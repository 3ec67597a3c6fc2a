package async

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/common"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
	"github.com/joseph-ayodele/resume-ingestor/internal/pipeline"
)

type recordingRunner struct {
	mu      sync.Mutex
	jobs    []entity.Job
	release chan struct{}
	ctxErr  []error
}

func (r *recordingRunner) Run(ctx context.Context, job entity.Job) pipeline.Outcome {
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	r.ctxErr = append(r.ctxErr, ctx.Err())
	return pipeline.Outcome{JobID: job.ID, Status: constants.JobStatusCompleted}
}

func (r *recordingRunner) seen() []entity.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.Job(nil), r.jobs...)
}

type recordingArchives struct {
	recordingRunner
	drained bool
}

func (a *recordingArchives) Run(ctx context.Context, job entity.Job) *pipeline.Expansion {
	return &pipeline.Expansion{Outcome: a.recordingRunner.Run(ctx, job)}
}

func (a *recordingArchives) Drain(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.drained = true
	return nil
}

func newTestDispatcher() (*Dispatcher, *recordingRunner, *recordingArchives, *recordingRunner) {
	resumes, archives, projects := &recordingRunner{}, &recordingArchives{}, &recordingRunner{}
	return NewDispatcher(resumes, archives, projects, nil), resumes, archives, projects
}

func TestDispatcher_RoutesByKind(t *testing.T) {
	d, resumes, archives, projects := newTestDispatcher()
	ctx := context.Background()

	r := entity.Job{ID: uuid.New(), Kind: constants.JobKindResume, Filename: "cv.pdf"}
	a := entity.Job{ID: uuid.New(), Kind: constants.JobKindArchive, Filename: "batch.zip"}
	p := entity.Job{ID: uuid.New(), Kind: constants.JobKindSpreadsheet, Filename: "p.csv"}
	require.NoError(t, d.Enqueue(ctx, r))
	require.NoError(t, d.Enqueue(ctx, a))
	require.NoError(t, d.Enqueue(ctx, p))

	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	d.Shutdown(sctx)

	assert.Equal(t, []entity.Job{r}, resumes.seen())
	assert.Equal(t, []entity.Job{a}, archives.seen())
	assert.Equal(t, []entity.Job{p}, projects.seen())
	assert.True(t, archives.drained)
}

func TestDispatcher_JobOutlivesRequestContext(t *testing.T) {
	d, resumes, _, _ := newTestDispatcher()
	resumes.release = make(chan struct{})

	ctx, cancel := context.WithCancel(common.WithRequestID(context.Background(), "req-1"))
	require.NoError(t, d.Enqueue(ctx, entity.Job{ID: uuid.New(), Kind: constants.JobKindResume, Filename: "cv.pdf"}))
	cancel()
	close(resumes.release)

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	d.Shutdown(sctx)

	require.Len(t, resumes.ctxErr, 1)
	assert.NoError(t, resumes.ctxErr[0])
}

func TestDispatcher_RejectsInvalidJobs(t *testing.T) {
	d, resumes, _, _ := newTestDispatcher()
	ctx := context.Background()

	err := d.Enqueue(ctx, entity.Job{Kind: constants.JobKindResume, Filename: "cv.pdf"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	err = d.Enqueue(ctx, entity.Job{ID: uuid.New(), Kind: "invoice", Filename: "x.pdf"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	err = d.Enqueue(ctx, entity.Job{ID: uuid.New(), Kind: constants.JobKindResume})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	d.Shutdown(ctx)
	assert.Empty(t, resumes.seen())
}

func TestDispatcher_RefusesAfterShutdown(t *testing.T) {
	d, _, _, _ := newTestDispatcher()
	d.Shutdown(context.Background())

	err := d.Enqueue(context.Background(), entity.Job{ID: uuid.New(), Kind: constants.JobKindResume, Filename: "cv.pdf"})
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestDispatcher_ShutdownHonoursDeadline(t *testing.T) {
	d, resumes, archives, _ := newTestDispatcher()
	resumes.release = make(chan struct{})
	defer close(resumes.release)

	require.NoError(t, d.Enqueue(context.Background(), entity.Job{ID: uuid.New(), Kind: constants.JobKindResume, Filename: "slow.pdf"}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	d.Shutdown(ctx)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, archives.drained)
}
