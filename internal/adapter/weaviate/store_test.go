package weaviate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	adapter "pdfstream/internal/adapter/weaviate"
	"pdfstream/internal/worker"
)

func mockWeaviate(t *testing.T, handler http.HandlerFunc) (*weaviate.Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	cfg := weaviate.Config{Host: ts.Listener.Addr().String(), Scheme: "http"}
	client, err := weaviate.NewClient(cfg)
	assert.NoError(t, err)
	return client, ts
}

func TestStore_DeletesThenCreates(t *testing.T) {
	var deleted, created bool

	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/meta":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
		case "/v1/batch/objects":
			assert.Equal(t, "DELETE", r.Method)
			assert.False(t, created, "delete must happen before create")
			deleted = true
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{})
		case "/v1/objects":
			assert.Equal(t, "POST", r.Method)
			created = true

			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "DocumentEmbedding", body["class"])

			props := body["properties"].(map[string]interface{})
			assert.Equal(t, "Hello World", props["content"])
			assert.Equal(t, "https://cdn.example.com/report.pdf", props["source"])
			assert.Equal(t, "report.pdf", props["filename"])

			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{"id": body["id"]})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	rec := worker.EmbeddingRecord{
		Vector:     []float32{0.1, 0.2},
		SourceText: "Hello World",
		Metadata: map[string]string{
			"source":   "https://cdn.example.com/report.pdf",
			"filename": "report.pdf",
		},
	}
	err := store.Store(context.Background(), rec, "DocumentEmbedding")
	assert.NoError(t, err)
	assert.True(t, deleted)
	assert.True(t, created)
}

func TestStore_DeterministicID(t *testing.T) {
	var ids []string

	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/meta":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
		case "/v1/batch/objects":
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{})
		case "/v1/objects":
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			ids = append(ids, body["id"].(string))
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{"id": body["id"]})
		}
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	rec := worker.EmbeddingRecord{
		Vector:     []float32{0.1},
		SourceText: "content",
		Metadata:   map[string]string{"source": "https://cdn.example.com/a.pdf"},
	}

	assert.NoError(t, store.Store(context.Background(), rec, "DocumentEmbedding"))
	assert.NoError(t, store.Store(context.Background(), rec, "DocumentEmbedding"))

	assert.Len(t, ids, 2)
	assert.Equal(t, ids[0], ids[1], "same source must map to the same object ID")
	assert.Equal(t, uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://cdn.example.com/a.pdf")).String(), ids[0])
}
