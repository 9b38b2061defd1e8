package orchestrator

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).Register(r)
	return r
}

func TestHandler_Chat_ValidationError(t *testing.T) {
	svc := NewService(NewClients("http://unused", "http://unused", "http://unused"))
	r := newTestRouter(svc)

	body, _ := json.Marshal(domain.ChatRequest{Message: ""})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Chat_Success(t *testing.T) {
	retrieval := newServer(t, "/api/v1/retrieve", 200, domain.RetrieveResponse{Chunks: []string{"ctx"}})
	defer retrieval.Close()
	generation := newServer(t, "/api/v1/generate", 200, domain.GenerateResponse{Answer: "answer"})
	defer generation.Close()

	svc := NewService(NewClients(retrieval.URL, generation.URL, "http://unused"))
	r := newTestRouter(svc)

	body, _ := json.Marshal(domain.ChatRequest{Message: "hi"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "answer", resp.Response)
}

func TestHandler_Health(t *testing.T) {
	svc := NewService(NewClients("http://unused", "http://unused", "http://unused"))
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
