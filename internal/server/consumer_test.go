package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/async"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
)

type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, job entity.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockQueue) Shutdown(ctx context.Context) {
	m.Called(ctx)
}

func message(t *testing.T, v any) *nsq.Message {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return &nsq.Message{Body: body}
}

func TestNSQHandler_Enqueues(t *testing.T) {
	q := &fakeQueue{}
	h := NewNSQHandler(constants.JobKindArchive, q, nil)
	id := uuid.New()

	err := h.HandleMessage(message(t, TriggerMessage{JobID: id.String(), Filename: "batch.zip", CorrelationID: "corr-1"}))
	require.NoError(t, err)

	assert.Equal(t, []entity.Job{{ID: id, Kind: constants.JobKindArchive, Filename: "batch.zip"}}, q.seen())
	assert.Equal(t, []string{"corr-1"}, q.requestIDs)
}

func TestNSQHandler_DropsMalformed(t *testing.T) {
	q := &fakeQueue{}
	h := NewNSQHandler(constants.JobKindResume, q, nil)

	assert.NoError(t, h.HandleMessage(&nsq.Message{}))
	assert.NoError(t, h.HandleMessage(&nsq.Message{Body: []byte("{not json")}))
	assert.NoError(t, h.HandleMessage(message(t, TriggerMessage{JobID: "nope", Filename: "cv.pdf"})))
	assert.NoError(t, h.HandleMessage(message(t, TriggerMessage{JobID: uuid.NewString()})))
	assert.Empty(t, q.seen())
}

func TestNSQHandler_RequeuesWhileShuttingDown(t *testing.T) {
	q := new(MockQueue)
	id := uuid.New()
	q.On("Enqueue", mock.Anything, entity.Job{ID: id, Kind: constants.JobKindResume, Filename: "cv.pdf"}).
		Return(async.ErrShuttingDown)

	h := NewNSQHandler(constants.JobKindResume, q, nil)
	err := h.HandleMessage(message(t, TriggerMessage{JobID: id.String(), Filename: "cv.pdf"}))
	assert.ErrorIs(t, err, async.ErrShuttingDown)
	q.AssertExpectations(t)
}

func TestNSQHandler_DropsRejectedJobs(t *testing.T) {
	q := new(MockQueue)
	q.On("Enqueue", mock.Anything, mock.AnythingOfType("entity.Job")).
		Return(errors.New("validation failed"))

	h := NewNSQHandler(constants.JobKindSpreadsheet, q, nil)
	err := h.HandleMessage(message(t, TriggerMessage{JobID: uuid.NewString(), Filename: "p.csv"}))
	assert.NoError(t, err)
	q.AssertNumberOfCalls(t, "Enqueue", 1)
}

func TestTopicsCoverEveryKind(t *testing.T) {
	kinds := map[constants.JobKind]bool{}
	for _, k := range Topics {
		kinds[k] = true
	}
	assert.Len(t, kinds, 3)
}
