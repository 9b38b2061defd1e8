package ingestion

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

const maxUploadBytesDefault = 500 * 1024 * 1024

// Service implements the Ingestion operations: UploadDocument,
// TriggerIngestion, GetStatus, ListDocuments, ClearCollection.
type Service struct {
	sourceDirectory string
	maxFileSizeMB   int
	state           *StateService
	pipeline        *Pipeline
	store           domain.Collection
	logger          zerolog.Logger
}

// NewService constructs a Service.
func NewService(sourceDirectory string, maxFileSizeMB int, state *StateService, pipeline *Pipeline, store domain.Collection, logger zerolog.Logger) *Service {
	return &Service{
		sourceDirectory: sourceDirectory,
		maxFileSizeMB:   maxFileSizeMB,
		state:           state,
		pipeline:        pipeline,
		store:           store,
		logger:          logger,
	}
}

// UploadDocument validates and saves an uploaded PDF into the source
// directory, reporting whether it replaced a file already on disk. It
// does not itself trigger ingestion; callers decide whether to follow
// up with TriggerIngestion (the "auto_ingest" knob).
func (s *Service) UploadDocument(ctx context.Context, filename string, size int64, r io.Reader) (overwritten bool, err error) {
	if filename == "" {
		return false, domain.NewValidation("No filename provided with the uploaded file.")
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return false, domain.NewValidation("Invalid file type. Only PDF documents are allowed.")
	}

	maxBytes := int64(s.maxFileSizeMB) * 1024 * 1024
	if maxBytes <= 0 {
		maxBytes = maxUploadBytesDefault
	}
	if size > maxBytes {
		return false, domain.NewTooLarge(fmt.Sprintf("File exceeds the maximum allowed size of %d MB.", s.maxFileSizeMB))
	}

	existing, err := s.store.SourceNames(ctx)
	if err != nil {
		return false, domain.NewInternal("Failed to check existing documents.", err)
	}
	if existing[filename] {
		return false, domain.NewConflict(fmt.Sprintf("File '%s' has already been processed. Upload rejected to prevent duplicates.", filename))
	}

	if err := os.MkdirAll(s.sourceDirectory, 0o755); err != nil {
		return false, domain.NewInternal("Server configuration error: source directory for uploads not available.", err)
	}

	dest := filepath.Join(s.sourceDirectory, filename)
	if _, statErr := os.Stat(dest); statErr == nil {
		overwritten = true
	}

	f, err := os.Create(dest)
	if err != nil {
		return false, domain.NewInternal(fmt.Sprintf("Failed to save uploaded file: %v", err), err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return false, domain.NewInternal(fmt.Sprintf("Failed to save uploaded file: %v", err), err)
	}
	return overwritten, nil
}

// TriggerIngestion starts a background ingestion run unless one is
// already in progress, or short-circuits with a "no new files" result
// when every PDF in the source directory has already been processed.
func (s *Service) TriggerIngestion(ctx context.Context) (started bool, documentsFound int, noNewFiles bool, err error) {
	if s.state.IsRunning() {
		return false, 0, false, domain.ErrAlreadyIngesting
	}

	paths, walkErr := s.pipeline.enumeratePDFs()
	if walkErr != nil {
		return false, 0, false, domain.NewInternal("Failed to scan source directory.", walkErr)
	}
	documentsFound = len(paths)

	existing, srcErr := s.store.SourceNames(ctx)
	if srcErr != nil {
		existing = map[string]bool{}
	}

	hasNew := false
	for _, p := range paths {
		if !existing[filepath.Base(p)] {
			hasNew = true
			break
		}
	}
	if !hasNew {
		return false, documentsFound, true, nil
	}

	if !s.state.StartIngestion() {
		return false, documentsFound, false, domain.ErrAlreadyIngesting
	}

	go s.runBackground()
	return true, documentsFound, false, nil
}

func (s *Service) runBackground() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("ingestion run panicked")
			s.state.StopIngestion(&domain.IngestionResult{}, []string{fmt.Sprintf("ingestion failed unexpectedly: %v", r)})
		}
	}()

	ctx := context.Background()
	result, errs := s.pipeline.Run(ctx)
	if len(errs) > 0 {
		s.logger.Error().Strs("errors", errs).Msg("ingestion completed with errors")
	} else {
		s.logger.Info().Int("documents", result.DocumentsProcessed).Int("chunks", result.ChunksAdded).Msg("ingestion completed")
	}
	s.state.StopIngestion(&result, errs)
}

// GetStatus returns the current ingestion state. Never fails.
func (s *Service) GetStatus() domain.IngestionState {
	return s.state.GetStatus()
}

// ListDocuments returns every PDF currently in the source directory.
func (s *Service) ListDocuments() ([]domain.Document, error) {
	info, err := os.Stat(s.sourceDirectory)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	paths, err := s.pipeline.enumeratePDFs()
	if err != nil {
		return nil, domain.NewInternal(fmt.Sprintf("Failed to list documents: %v", err), err)
	}

	docs := make([]domain.Document, 0, len(paths))
	for _, p := range paths {
		docs = append(docs, domain.Document{Name: filepath.Base(p)})
	}
	return docs, nil
}

// ClearCollection deletes every source file and drops the vector
// collection, returning a structured report of what succeeded.
func (s *Service) ClearCollection(ctx context.Context) domain.ClearCollectionResponse {
	var details []string
	filesCleared := true
	deletedCount := 0

	info, err := os.Stat(s.sourceDirectory)
	if err != nil || !info.IsDir() {
		details = append(details, fmt.Sprintf("Source directory '%s' not found. No files deleted.", s.sourceDirectory))
	} else {
		entries, err := os.ReadDir(s.sourceDirectory)
		if err != nil {
			filesCleared = false
			details = append(details, fmt.Sprintf("Failed to read source directory: %v", err))
		} else {
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				path := filepath.Join(s.sourceDirectory, entry.Name())
				if err := os.Remove(path); err != nil {
					filesCleared = false
					details = append(details, fmt.Sprintf("Failed to delete file %s: %v", entry.Name(), err))
					continue
				}
				deletedCount++
			}
			details = append(details, fmt.Sprintf("Successfully deleted %d file(s) from '%s'.", deletedCount, s.sourceDirectory))
		}
	}

	collectionCleared := true
	if err := s.store.DropCollection(ctx); err != nil {
		collectionCleared = false
		details = append(details, fmt.Sprintf("Failed to delete collection: %v", err))
	} else {
		details = append(details, "Successfully deleted vector collection.")
	}

	message := "Collection and source documents cleared successfully."
	if !collectionCleared && !filesCleared {
		message = "Failed to clear collection and/or source documents."
	} else if !collectionCleared || !filesCleared {
		message = "Partial success in clearing resources. Check details."
	}

	return domain.ClearCollectionResponse{
		Message:            message,
		FilesDeletedCount:  deletedCount,
		CollectionDeleted:  collectionCleared,
		SourceFilesCleared: filesCleared,
		Details:            details,
	}
}
