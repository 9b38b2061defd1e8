package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

func newServer(t *testing.T, path string, status int, body interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func TestChat_RejectsEmptyMessage(t *testing.T) {
	svc := NewService(NewClients("http://unused", "http://unused", "http://unused"))
	_, err := svc.Chat(context.Background(), "   ")
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindValidation, de.Kind)
}

func TestChat_Success(t *testing.T) {
	retrieval := newServer(t, "/api/v1/retrieve", 200, domain.RetrieveResponse{Chunks: []string{"ctx"}, Query: "hi", CollectionName: "docs"})
	defer retrieval.Close()
	generation := newServer(t, "/api/v1/generate", 200, domain.GenerateResponse{Answer: "hello there"})
	defer generation.Close()

	svc := NewService(NewClients(retrieval.URL, generation.URL, "http://unused"))
	resp, err := svc.Chat(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Response)
	assert.Equal(t, "hi", resp.Query)
}

func TestChat_RetrievalFailurePrefixesDetail(t *testing.T) {
	retrieval := newServer(t, "/api/v1/retrieve", 503, map[string]string{"detail": "vector store down"})
	defer retrieval.Close()

	svc := NewService(NewClients(retrieval.URL, "http://unused", "http://unused"))
	_, err := svc.Chat(context.Background(), "hi")

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindUpstream, de.Kind)
	assert.Equal(t, "Error from retrieval: vector store down", de.Detail)
}

func TestChat_GenerationFailurePrefixesDetail(t *testing.T) {
	retrieval := newServer(t, "/api/v1/retrieve", 200, domain.RetrieveResponse{Chunks: []string{}, Query: "hi"})
	defer retrieval.Close()
	generation := newServer(t, "/api/v1/generate", 503, map[string]string{"detail": "llm unavailable"})
	defer generation.Close()

	svc := NewService(NewClients(retrieval.URL, generation.URL, "http://unused"))
	_, err := svc.Chat(context.Background(), "hi")

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindUpstream, de.Kind)
	assert.Equal(t, "Error from generation: llm unavailable", de.Detail)
}

func TestUploadDocument_HealthCheckFailsFirst(t *testing.T) {
	svc := NewService(NewClients("http://unused", "http://unused", "http://127.0.0.1:1"))
	_, err := svc.UploadDocument(context.Background(), "a.pdf", "application/pdf", []byte("x"))

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindUpstream, de.Kind)
}

func TestUploadDocument_RejectsNonPDF(t *testing.T) {
	svc := NewService(NewClients("http://unused", "http://unused", "http://unused"))
	_, err := svc.UploadDocument(context.Background(), "notes.txt", "text/plain", []byte("x"))

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindValidation, de.Kind)
}
