// Package orchestrator implements the Orchestrator (API gateway)
// service: Chat fans out to Retrieval and Generation, and document
// operations proxy through to Ingestion.
package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

const (
	healthCheckTimeout   = 10 * time.Second
	uploadTimeout        = 60 * time.Second
	shortOperationTimeout = 30 * time.Second
)

// Clients holds the base URLs and a shared HTTP client used to reach
// the three downstream services.
type Clients struct {
	httpClient          *http.Client
	retrievalServiceURL string
	generationServiceURL string
	ingestionServiceURL string
}

// NewClients constructs a Clients. Per-call timeouts are applied via
// context, so the shared client itself carries no default timeout.
func NewClients(retrievalURL, generationURL, ingestionURL string) *Clients {
	return &Clients{
		httpClient:            &http.Client{},
		retrievalServiceURL:   strings.TrimRight(retrievalURL, "/"),
		generationServiceURL:  strings.TrimRight(generationURL, "/"),
		ingestionServiceURL:   strings.TrimRight(ingestionURL, "/"),
	}
}

// Retrieve calls POST /api/v1/retrieve on the Retrieval service.
func (c *Clients) Retrieve(ctx context.Context, query string, topK int) (domain.RetrieveResponse, error) {
	var resp domain.RetrieveResponse
	req := domain.RetrieveRequest{Query: query, TopK: topK}
	err := c.postJSON(ctx, c.retrievalServiceURL+"/api/v1/retrieve", shortOperationTimeout, req, &resp)
	return resp, err
}

// Generate calls POST /api/v1/generate on the Generation service.
func (c *Clients) Generate(ctx context.Context, query string, contextChunks []string) (domain.GenerateResponse, error) {
	var resp domain.GenerateResponse
	req := domain.GenerateRequest{Query: query, ContextChunks: contextChunks}
	err := c.postJSON(ctx, c.generationServiceURL+"/api/v1/generate", shortOperationTimeout, req, &resp)
	return resp, err
}

// CheckIngestionHealth calls GET /health on the Ingestion service with
// a short timeout, used to fail fast on document proxy operations
// before attempting the real call.
func (c *Clients) CheckIngestionHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ingestionServiceURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.NewUpstream(http.StatusServiceUnavailable,
			fmt.Sprintf("Ingestion service at %s is unavailable: %v", c.ingestionServiceURL, err), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return domain.NewUpstream(http.StatusServiceUnavailable,
			fmt.Sprintf("Ingestion service at %s is unavailable.", c.ingestionServiceURL), nil)
	}
	return nil
}

// UploadDocument forwards a multipart file upload to the Ingestion
// service's /api/v1/documents/upload.
func (c *Clients) UploadDocument(ctx context.Context, filename, contentType string, content []byte) (domain.UploadResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return domain.UploadResponse{}, domain.NewInternal("failed to build upload request", err)
	}
	if _, err := part.Write(content); err != nil {
		return domain.UploadResponse{}, domain.NewInternal("failed to build upload request", err)
	}
	if err := writer.Close(); err != nil {
		return domain.UploadResponse{}, domain.NewInternal("failed to build upload request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ingestionServiceURL+"/api/v1/documents/upload", &buf)
	if err != nil {
		return domain.UploadResponse{}, domain.NewInternal("failed to build upload request", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	var resp domain.UploadResponse
	if err := c.do(httpReq, &resp); err != nil {
		var de *domain.Error
		if asUpstream(err, &de) && de.Status == 0 {
			// Non-JSON or unparseable 2xx body: synthesize an accepted response.
			return domain.UploadResponse{
				Status:   "Upload accepted",
				Filename: filename,
				Message:  "File upload accepted by ingestion service",
			}, nil
		}
		return domain.UploadResponse{}, err
	}
	return resp, nil
}

// ListDocuments calls GET /api/v1/documents on the Ingestion service.
func (c *Clients) ListDocuments(ctx context.Context) (domain.DocumentListResponse, error) {
	var resp domain.DocumentListResponse
	err := c.getJSON(ctx, c.ingestionServiceURL+"/api/v1/documents", shortOperationTimeout, &resp)
	return resp, err
}

// DeleteAllDocuments calls DELETE /api/v1/collection on the Ingestion service.
func (c *Clients) DeleteAllDocuments(ctx context.Context) (domain.ClearCollectionResponse, error) {
	var resp domain.ClearCollectionResponse
	ctx, cancel := context.WithTimeout(ctx, shortOperationTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.ingestionServiceURL+"/api/v1/collection", nil)
	if err != nil {
		return resp, domain.NewInternal("failed to build request", err)
	}
	err = c.do(httpReq, &resp)
	return resp, err
}

// GetIngestionStatus calls GET /api/v1/ingestion/status on the Ingestion service.
func (c *Clients) GetIngestionStatus(ctx context.Context) (domain.StatusResponse, error) {
	var resp domain.StatusResponse
	err := c.getJSON(ctx, c.ingestionServiceURL+"/api/v1/ingestion/status", shortOperationTimeout, &resp)
	return resp, err
}

func (c *Clients) postJSON(ctx context.Context, url string, timeout time.Duration, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return domain.NewInternal("failed to encode request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return domain.NewInternal("failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq, out)
}

func (c *Clients) getJSON(ctx context.Context, url string, timeout time.Duration, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.NewInternal("failed to build request", err)
	}
	return c.do(httpReq, out)
}

// do performs the request and remaps the downstream's status: 409 ->
// 409, 400 -> 400, 2xx -> 2xx (decoded into out), everything else
// (including connect/timeout failures) -> 503.
func (c *Clients) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewUpstream(http.StatusServiceUnavailable,
			fmt.Sprintf("Error connecting to %s: %v", req.URL, err), nil)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusConflict:
		return domain.NewUpstream(http.StatusConflict, detailFrom(body), nil)
	case resp.StatusCode == http.StatusBadRequest:
		return domain.NewUpstream(http.StatusBadRequest, detailFrom(body), nil)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out != nil && len(body) > 0 {
			if err := json.Unmarshal(body, out); err != nil {
				return domain.NewUpstream(0, "unparseable response body", err)
			}
		}
		return nil
	default:
		return domain.NewUpstream(http.StatusServiceUnavailable, detailFrom(body), nil)
	}
}

func detailFrom(body []byte) string {
	var wrapper struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Detail != "" {
		return wrapper.Detail
	}
	return string(body)
}

func asUpstream(err error, target **domain.Error) bool {
	de, ok := err.(*domain.Error)
	if !ok || de.Kind != domain.KindUpstream {
		return false
	}
	*target = de
	return true
}
