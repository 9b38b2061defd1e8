// Package domain holds the entities, DTOs, and collaborator interfaces
// shared by all four ragomesh services: documents, chunks, ingestion
// state, and the request/response shapes that cross service boundaries.
package domain

import (
	"context"
	"time"
)

// Document is a PDF file addressed by its filename, unique within the
// source directory.
type Document struct {
	Name string `json:"name"`
}

// Chunk is a contiguous text slice of a Document produced by the
// recursive character splitter. ID is stable: "<source>_chunk_<start>".
type Chunk struct {
	ID         string
	Source     string
	StartIndex int
	Text       string
	Vector     []float32
	Distance   float64
}

// IngestionStatus enumerates the lifecycle states of IngestionState.
type IngestionStatus string

const (
	StatusIdle                IngestionStatus = "idle"
	StatusProcessing          IngestionStatus = "processing"
	StatusCompleted           IngestionStatus = "completed"
	StatusCompletedWithErrors IngestionStatus = "completed_with_errors"
)

// IngestionState is the process-wide record of the single ingestion
// controller. Invariant: IsRunning == true iff Status == StatusProcessing.
type IngestionState struct {
	IsRunning          bool
	Status             IngestionStatus
	LastCompletedAt    *time.Time
	DocumentsProcessed int
	ChunksAdded        int
	Errors             []string
}

// IngestionResult carries the counters StopIngestion records.
type IngestionResult struct {
	DocumentsProcessed int
	ChunksAdded        int
}

// ChatRequest / ChatResponse cross the Orchestrator's public boundary.
type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// RetrieveRequest / RetrieveResponse are the service-to-service shape
// between Orchestrator and Retrieval.
type RetrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type RetrieveResponse struct {
	Chunks         []string `json:"chunks"`
	CollectionName string   `json:"collection_name"`
	Query          string   `json:"query"`
}

// GenerateRequest / GenerateResponse are the service-to-service shape
// between Orchestrator and Generation.
type GenerateRequest struct {
	Query         string   `json:"query"`
	ContextChunks []string `json:"context_chunks"`
}

type GenerateResponse struct {
	Answer string `json:"answer"`
}

// DocumentListResponse is returned by Ingestion's /documents and proxied
// verbatim by the Orchestrator.
type DocumentListResponse struct {
	Count     int        `json:"count"`
	Documents []Document `json:"documents"`
}

// UploadResponse is returned by Ingestion's /upload and proxied (or
// synthesized, see internal/orchestrator) by the Orchestrator.
type UploadResponse struct {
	Status         string `json:"status"`
	Filename       string `json:"filename"`
	Message        string `json:"message"`
	DocumentsFound *int   `json:"documents_found,omitempty"`
}

// TriggerIngestionResponse is returned by Ingestion's /ingest.
type TriggerIngestionResponse struct {
	Status         string `json:"status"`
	DocumentsFound int    `json:"documents_found"`
	Message        string `json:"message,omitempty"`
}

// ClearCollectionResponse is the structured body for Ingestion's DELETE
// /collection, always populated regardless of the resulting status code.
type ClearCollectionResponse struct {
	Message            string   `json:"message"`
	FilesDeletedCount  int      `json:"files_deleted_count"`
	CollectionDeleted  bool     `json:"collection_deleted"`
	SourceFilesCleared bool     `json:"source_files_cleared"`
	Details            []string `json:"details"`
}

// StatusResponse is the body for GET /ingestion/status (and its proxy).
type StatusResponse struct {
	IsProcessing       bool     `json:"is_processing"`
	Status             string   `json:"status"`
	LastCompleted      *string  `json:"last_completed"`
	DocumentsProcessed *int     `json:"documents_processed"`
	ChunksAdded        *int     `json:"chunks_added"`
	Errors             []string `json:"errors"`
}

// HealthResponse is the uniform /health body for every service.
type HealthResponse struct {
	Status string `json:"status"`
}

// Embedder turns text into a deterministic fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Health(ctx context.Context) error
}

// Generator obtains a completion from the LLM provider given a fully
// formatted prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Health(ctx context.Context) error
}

// Splitter is the recursive character splitter.
type Splitter interface {
	Split(text string, size, overlap int) []TextSpan
}

// TextSpan is one piece produced by Splitter, before it is turned into a
// Chunk (which additionally needs the source filename).
type TextSpan struct {
	Text       string
	StartIndex int
}

// TextExtractor extracts plain text from a PDF file.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// Collection abstracts the vector index engine's collection CRUD and
// embedding-aware query/add surface. Exactly one Collection instance is
// owned per Ingestion/Retrieval process pair.
type Collection interface {
	EnsureCollection(ctx context.Context, dimension int) error
	DropCollection(ctx context.Context) error
	Upsert(ctx context.Context, chunks []Chunk) error
	Query(ctx context.Context, vector []float32, topK int) ([]Chunk, error)
	SourceNames(ctx context.Context) (map[string]bool, error)
}
