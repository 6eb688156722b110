package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pdfstream/internal/queue"
)

type MockDeadLetterQueue struct {
	mock.Mock
}

func (m *MockDeadLetterQueue) ListDead(ctx context.Context) ([]queue.Job, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queue.Job), args.Error(1)
}

func (m *MockDeadLetterQueue) RetryDead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDeadLetterQueue) Get(ctx context.Context, id string) (*queue.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Job), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

func TestHandler_List(t *testing.T) {
	q := new(MockDeadLetterQueue)
	q.On("ListDead", mock.Anything).Return([]queue.Job{
		{ID: "job-1", DocumentRef: "https://cdn.example.com/a.pdf", Status: queue.StatusDead, Error: "embed: quota exceeded"},
	}, nil)

	h := NewHandler(NewService(q, new(MockPublisher)))
	req := httptest.NewRequest("GET", "/jobs/dead", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []queue.Job    `json:"data"`
		Meta map[string]int `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 1, resp.Meta["count"])
	assert.Equal(t, "job-1", resp.Data[0].ID)
}

func TestHandler_List_Empty(t *testing.T) {
	q := new(MockDeadLetterQueue)
	q.On("ListDead", mock.Anything).Return([]queue.Job(nil), nil)

	h := NewHandler(NewService(q, new(MockPublisher)))
	rec := httptest.NewRecorder()

	h.List(rec, httptest.NewRequest("GET", "/jobs/dead", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestHandler_Retry(t *testing.T) {
	q := new(MockDeadLetterQueue)
	pub := new(MockPublisher)
	q.On("RetryDead", mock.Anything, "job-1").Return(nil)
	q.On("Get", mock.Anything, "job-1").Return(&queue.Job{ID: "job-1", DocumentRef: "https://cdn.example.com/a.pdf", Status: queue.StatusPending}, nil)
	pub.On("Publish", "ingest.lifecycle", mock.Anything).Return(nil)

	h := NewHandler(NewService(q, pub))
	req := httptest.NewRequest("POST", "/jobs/dead/job-1/retry", nil)
	req.SetPathValue("id", "job-1")
	rec := httptest.NewRecorder()

	h.Retry(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	q.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestHandler_Retry_NotFound(t *testing.T) {
	q := new(MockDeadLetterQueue)
	q.On("RetryDead", mock.Anything, "nope").Return(sql.ErrNoRows)

	h := NewHandler(NewService(q, new(MockPublisher)))
	req := httptest.NewRequest("POST", "/jobs/dead/nope/retry", nil)
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()

	h.Retry(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestHandler_Retry_PublishFailureStillOK(t *testing.T) {
	q := new(MockDeadLetterQueue)
	pub := new(MockPublisher)
	q.On("RetryDead", mock.Anything, "job-2").Return(nil)
	q.On("Get", mock.Anything, "job-2").Return(&queue.Job{ID: "job-2"}, nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nsqd down"))

	h := NewHandler(NewService(q, pub))
	req := httptest.NewRequest("POST", "/jobs/dead/job-2/retry", nil)
	req.SetPathValue("id", "job-2")
	rec := httptest.NewRecorder()

	h.Retry(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
