package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/common"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
	"github.com/joseph-ayodele/resume-ingestor/internal/repository"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_StatusLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	id := uuid.New()
	require.NoError(t, s.CreateJob(ctx, constants.JobKindResume, id, "cv.pdf"))

	status, msg, err := s.JobStatus(ctx, constants.JobKindResume, id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusPending, status)
	assert.Nil(t, msg)

	tracker := repository.NewStatusTracker(s, nil)
	tracker.Failed(ctx, constants.JobKindResume, id, "failed to fetch resumes/cv.pdf")
	status, msg, err = s.JobStatus(ctx, constants.JobKindResume, id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, status)
	require.NotNil(t, msg)
	assert.Equal(t, "failed to fetch resumes/cv.pdf", *msg)

	tracker.Completed(ctx, constants.JobKindResume, id)
	status, msg, err = s.JobStatus(ctx, constants.JobKindResume, id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusCompleted, status)
	assert.Nil(t, msg, "completed clears the previous error")

	_, _, err = s.JobStatus(ctx, constants.JobKindArchive, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStore_UpsertTextIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	id := uuid.New()
	require.NoError(t, s.CreateJob(ctx, constants.JobKindResume, id, "cv.pdf"))

	require.NoError(t, s.UpsertText(ctx, id, "first", json.RawMessage(`{"name":"A"}`)))
	require.NoError(t, s.UpsertText(ctx, id, "second", json.RawMessage(`{"name":"B"}`)))

	r, err := s.GetResume(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, r.Text)
	assert.Equal(t, "second", *r.Text)
	assert.JSONEq(t, `{"name":"B"}`, string(r.Structured))
	assert.Nil(t, r.ZipID)
}

func TestStore_LinkToArchive(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	zipID := uuid.New()

	n, err := s.LinkToArchive(ctx, zipID, "batch.zip_a.pdf")
	require.NoError(t, err)
	assert.Zero(t, n)

	id := uuid.New()
	require.NoError(t, s.CreateJob(ctx, constants.JobKindResume, id, "batch.zip_a.pdf"))
	n, err = s.LinkToArchive(ctx, zipID, "batch.zip_a.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	r, err := s.GetResume(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, r.ZipID)
	assert.Equal(t, zipID, *r.ZipID)
}

func TestStore_Projects(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	uploadID := uuid.New()

	n, err := s.InsertProjects(ctx, uploadID, []entity.Project{
		{Title: "Search", Description: "Index", Priority: 2, InternCap: 3},
		{Title: "Billing", InternCap: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := s.ListProjects(ctx, uploadID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Search", got[0].Title)
	assert.Equal(t, int16(3), got[0].InternCap)
	assert.Equal(t, "Billing", got[1].Title)
}

func TestStore_ExecFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := New(db, nil)
	id := uuid.New()
	boom := errors.New("disk I/O error")

	mock.ExpectExec(`UPDATE resumes SET text = \?, structured = \? WHERE id = \?`).
		WithArgs("text", `{"a":1}`, id.String()).
		WillReturnError(boom)
	assert.ErrorIs(t, s.UpsertText(context.Background(), id, "text", json.RawMessage(`{"a":1}`)), boom)

	mock.ExpectExec(`UPDATE resumes SET zip_id = \? WHERE filename = \?`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	n, err := s.LinkToArchive(context.Background(), id, "x.zip_a.pdf")
	require.NoError(t, err)
	assert.Zero(t, n)

	mock.ExpectBegin()
	mock.ExpectPrepare(`INSERT INTO projects`)
	mock.ExpectExec(`INSERT INTO projects`).WillReturnError(boom)
	mock.ExpectRollback()
	_, err = s.InsertProjects(context.Background(), id, []entity.Project{{Title: "A"}})
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}
