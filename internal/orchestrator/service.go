package orchestrator

import (
	"context"
	"strings"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

const chatTopK = 5

// Service implements the Orchestrator operations: Chat (retrieval +
// generation fan-out) and the document proxy operations forwarded to
// Ingestion.
type Service struct {
	clients *Clients
}

// NewService constructs a Service.
func NewService(clients *Clients) *Service {
	return &Service{clients: clients}
}

// Chat validates message, retrieves context, generates an answer, and
// returns both the echoed query and the answer.
func (s *Service) Chat(ctx context.Context, message string) (domain.ChatResponse, error) {
	if strings.TrimSpace(message) == "" {
		return domain.ChatResponse{}, domain.NewValidation("Message cannot be empty.")
	}

	retrieval, err := s.clients.Retrieve(ctx, message, chatTopK)
	if err != nil {
		var de *domain.Error
		if asUpstream(err, &de) {
			return domain.ChatResponse{}, domain.NewUpstream(de.Status, "Error from retrieval: "+de.Detail, de.Cause)
		}
		return domain.ChatResponse{}, domain.NewInternal("Retrieval service returned data that failed validation or processing.", err)
	}

	generation, err := s.clients.Generate(ctx, message, retrieval.Chunks)
	if err != nil {
		var de *domain.Error
		if asUpstream(err, &de) {
			return domain.ChatResponse{}, domain.NewUpstream(de.Status, "Error from generation: "+de.Detail, de.Cause)
		}
		return domain.ChatResponse{}, domain.NewInternal("An unexpected error occurred while generating a response.", err)
	}

	return domain.ChatResponse{Query: message, Response: generation.Answer}, nil
}

// UploadDocument health-checks Ingestion, then forwards the file.
func (s *Service) UploadDocument(ctx context.Context, filename, contentType string, content []byte) (domain.UploadResponse, error) {
	if filename == "" {
		return domain.UploadResponse{}, domain.NewValidation("No filename provided with the uploaded file.")
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return domain.UploadResponse{}, domain.NewValidation("Invalid file type. Only PDF documents are allowed.")
	}
	if err := s.clients.CheckIngestionHealth(ctx); err != nil {
		return domain.UploadResponse{}, err
	}
	return s.clients.UploadDocument(ctx, filename, contentType, content)
}

// ListDocuments health-checks Ingestion, then forwards the list call.
func (s *Service) ListDocuments(ctx context.Context) (domain.DocumentListResponse, error) {
	if err := s.clients.CheckIngestionHealth(ctx); err != nil {
		return domain.DocumentListResponse{}, err
	}
	return s.clients.ListDocuments(ctx)
}

// DeleteAllDocuments health-checks Ingestion, then forwards the clear call.
func (s *Service) DeleteAllDocuments(ctx context.Context) (domain.ClearCollectionResponse, error) {
	if err := s.clients.CheckIngestionHealth(ctx); err != nil {
		return domain.ClearCollectionResponse{}, err
	}
	return s.clients.DeleteAllDocuments(ctx)
}

// GetIngestionStatus health-checks Ingestion, then forwards the status call.
func (s *Service) GetIngestionStatus(ctx context.Context) (domain.StatusResponse, error) {
	if err := s.clients.CheckIngestionHealth(ctx); err != nil {
		return domain.StatusResponse{}, err
	}
	return s.clients.GetIngestionStatus(ctx)
}
