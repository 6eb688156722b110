package document

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pdfstream/internal/queue"
)

func newTestHandler(q *MockQueue, pub *MockPublisher) *Handler {
	return NewHandler(NewService(q, pub, defaultOpts()))
}

func TestHandler_Create(t *testing.T) {
	q := new(MockQueue)
	pub := new(MockPublisher)
	q.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).Return("job-1", nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	body := bytes.NewBufferString(`{"document_ref": "https://cdn.example.com/report.pdf", "original_filename": "report.pdf"}`)
	req := httptest.NewRequest("POST", "/documents", body)
	rec := httptest.NewRecorder()

	newTestHandler(q, pub).Create(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		Data queue.Job `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "job-1", resp.Data.ID)
	assert.Equal(t, "pending", resp.Data.Status)
}

func TestHandler_Create_MissingRef(t *testing.T) {
	req := httptest.NewRequest("POST", "/documents", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()

	newTestHandler(new(MockQueue), new(MockPublisher)).Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestHandler_Create_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/documents", bytes.NewBufferString(`{not json`))
	rec := httptest.NewRecorder()

	newTestHandler(new(MockQueue), new(MockPublisher)).Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Get(t *testing.T) {
	q := new(MockQueue)
	q.On("Get", mock.Anything, "job-1").Return(&queue.Job{
		ID:          "job-1",
		DocumentRef: "https://cdn.example.com/report.pdf",
		Status:      queue.StatusCompleted,
		Attempt:     1,
		CreatedAt:   time.Now(),
	}, nil)

	req := httptest.NewRequest("GET", "/documents/job-1", nil)
	req.SetPathValue("id", "job-1")
	rec := httptest.NewRecorder()

	newTestHandler(q, new(MockPublisher)).Get(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)
}

func TestHandler_Get_NotFound(t *testing.T) {
	q := new(MockQueue)
	q.On("Get", mock.Anything, "nope").Return(nil, sql.ErrNoRows)

	req := httptest.NewRequest("GET", "/documents/nope", nil)
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()

	newTestHandler(q, new(MockPublisher)).Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}
