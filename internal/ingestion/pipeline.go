package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/liliang-cn/ragomesh/internal/chunker"
	"github.com/liliang-cn/ragomesh/internal/domain"
	"github.com/liliang-cn/ragomesh/internal/pdfextract"
)

// PipelineConfig carries the ingestion pipeline's tunables
// (SOURCE_DIRECTORY, CHUNK_SIZE, CHUNK_OVERLAP,
// CLEAN_COLLECTION_BEFORE_INGEST).
type PipelineConfig struct {
	SourceDirectory   string
	ChunkSize         int
	ChunkOverlap      int
	CleanBeforeIngest bool
}

// Pipeline runs the 5-step ingestion process: optional wipe, load,
// split, write, finalize.
type Pipeline struct {
	cfg       PipelineConfig
	extractor domain.TextExtractor
	splitter  *chunker.Service
	embedder  domain.Embedder
	store     domain.Collection
	logger    zerolog.Logger
}

// NewPipeline constructs a Pipeline from its collaborators.
func NewPipeline(cfg PipelineConfig, extractor domain.TextExtractor, splitter *chunker.Service, embedder domain.Embedder, store domain.Collection, logger zerolog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, extractor: extractor, splitter: splitter, embedder: embedder, store: store, logger: logger}
}

const (
	upsertBatchSize   = 64
	upsertMaxRetries  = 3
	upsertBaseBackoff = 200 * time.Millisecond
)

// Run executes the pipeline end to end and returns the accumulated
// result plus any non-fatal errors encountered along the way. It never
// returns a Go error: every step that can fail is caught and folded
// into the errors slice so the caller can always finalize state.
func (p *Pipeline) Run(ctx context.Context) (domain.IngestionResult, []string) {
	var result domain.IngestionResult
	var errs []string

	if p.cfg.CleanBeforeIngest {
		if err := p.store.DropCollection(ctx); err != nil {
			errs = append(errs, fmt.Sprintf("failed to clean collection before ingest: %v", err))
		}
	}

	existing, err := p.store.SourceNames(ctx)
	if err != nil {
		existing = map[string]bool{}
		errs = append(errs, fmt.Sprintf("failed to list already-processed sources: %v", err))
	}

	paths, err := p.enumeratePDFs()
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to enumerate source directory: %v", err))
		return result, errs
	}

	var spans []chunker.TextSpan
	var sources []string

	for _, path := range paths {
		name := filepath.Base(path)
		if existing[name] {
			continue
		}

		text, err := p.extractor.Extract(path)
		if err != nil {
			p.logger.Error().Err(err).Str("file", name).Msg("failed to extract PDF text")
			errs = append(errs, fmt.Sprintf("failed to process %s: %v", name, err))
			continue
		}
		if pdfextract.IsBlank(text) {
			p.logger.Warn().Str("file", name).Msg("skipping blank document")
			continue
		}

		result.DocumentsProcessed++

		for _, span := range p.splitter.Split(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap) {
			spans = append(spans, span)
			sources = append(sources, name)
		}
	}

	if len(spans) == 0 {
		return result, errs
	}

	var chunks []domain.Chunk
	for i, span := range spans {
		vec, err := p.embedder.Embed(ctx, span.Text)
		if err != nil {
			errs = append(errs, fmt.Sprintf("failed to embed chunk from %s at %d: %v", sources[i], span.StartIndex, err))
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:         chunkID(sources[i], span.StartIndex),
			Source:     sources[i],
			StartIndex: span.StartIndex,
			Text:       span.Text,
			Vector:     vec,
		})
	}

	// Recreate the collection if a clear or the pre-ingest wipe dropped it.
	if len(chunks) > 0 {
		if err := p.store.EnsureCollection(ctx, len(chunks[0].Vector)); err != nil {
			errs = append(errs, fmt.Sprintf("failed to ensure collection before write: %v", err))
		}
	}

	added := p.writeBatches(ctx, chunks, &errs)
	result.ChunksAdded = added
	if added < len(spans) {
		errs = append(errs, fmt.Sprintf("only %d of %d chunks were written to the vector store", added, len(spans)))
	}

	return result, errs
}

// chunkID builds the bit-exact <basename>_chunk_<start_index> id.
func chunkID(source string, startIndex int) string {
	return fmt.Sprintf("%s_chunk_%d", source, startIndex)
}

func (p *Pipeline) enumeratePDFs() ([]string, error) {
	info, err := os.Stat(p.cfg.SourceDirectory)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	var paths []string
	err = filepath.WalkDir(p.cfg.SourceDirectory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func (p *Pipeline) writeBatches(ctx context.Context, chunks []domain.Chunk, errs *[]string) int {
	added := 0
	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if err := p.upsertWithRetry(ctx, batch); err != nil {
			*errs = append(*errs, fmt.Sprintf("failed to write batch %d-%d: %v", start, end, err))
			continue
		}
		added += len(batch)
	}
	return added
}

func (p *Pipeline) upsertWithRetry(ctx context.Context, batch []domain.Chunk) error {
	var err error
	backoff := upsertBaseBackoff
	for attempt := 0; attempt < upsertMaxRetries; attempt++ {
		if err = p.store.Upsert(ctx, batch); err == nil {
			return nil
		}
		p.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("upsert failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}
