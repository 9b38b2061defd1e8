package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/ragomesh/internal/chunker"
	"github.com/liliang-cn/ragomesh/internal/domain"
)

type fakeExtractor struct {
	textByPath map[string]string
	errByPath  map[string]error
}

func (f *fakeExtractor) Extract(path string) (string, error) {
	if err, ok := f.errByPath[path]; ok {
		return "", err
	}
	return f.textByPath[path], nil
}

type fakeEmbedder struct{ failOn string }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.failOn != "" && text == f.failOn {
		return nil, domain.ErrEmbeddingFailed
	}
	return []float32{1, 2, 3}, nil
}
func (f *fakeEmbedder) Health(context.Context) error { return nil }

type fakeStore struct {
	sources  map[string]bool
	upserted []domain.Chunk
	dropped  bool
}

func (f *fakeStore) EnsureCollection(context.Context, int) error { return nil }
func (f *fakeStore) DropCollection(context.Context) error        { f.dropped = true; return nil }
func (f *fakeStore) Upsert(_ context.Context, chunks []domain.Chunk) error {
	f.upserted = append(f.upserted, chunks...)
	return nil
}
func (f *fakeStore) Query(context.Context, []float32, int) ([]domain.Chunk, error) { return nil, nil }
func (f *fakeStore) SourceNames(context.Context) (map[string]bool, error) {
	if f.sources == nil {
		return map[string]bool{}, nil
	}
	return f.sources, nil
}

func writeTempPDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("placeholder"), 0o644))
	return path
}

func TestPipeline_Run_SkipsAlreadyProcessed(t *testing.T) {
	dir := t.TempDir()
	newPath := writeTempPDF(t, dir, "new.pdf")
	oldPath := writeTempPDF(t, dir, "old.pdf")

	extractor := &fakeExtractor{textByPath: map[string]string{
		newPath: "This is fresh content about widgets.",
		oldPath: "This should never be read.",
	}}
	store := &fakeStore{sources: map[string]bool{"old.pdf": true}}

	p := NewPipeline(PipelineConfig{SourceDirectory: dir, ChunkSize: 1000, ChunkOverlap: 0}, extractor, chunker.New(), &fakeEmbedder{}, store, zerolog.Nop())

	result, errs := p.Run(context.Background())
	assert.Empty(t, errs)
	assert.Equal(t, 1, result.DocumentsProcessed)
	require.NotEmpty(t, store.upserted)
	for _, c := range store.upserted {
		assert.Equal(t, "new.pdf", c.Source)
	}
}

func TestPipeline_Run_SkipsBlankDocuments(t *testing.T) {
	dir := t.TempDir()
	blankPath := writeTempPDF(t, dir, "blank.pdf")

	extractor := &fakeExtractor{textByPath: map[string]string{blankPath: "   \n\t  "}}
	store := &fakeStore{}

	p := NewPipeline(PipelineConfig{SourceDirectory: dir, ChunkSize: 500, ChunkOverlap: 0}, extractor, chunker.New(), &fakeEmbedder{}, store, zerolog.Nop())

	result, _ := p.Run(context.Background())
	assert.Equal(t, 0, result.DocumentsProcessed)
}

func TestPipeline_Run_CleanBeforeIngestDropsCollection(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{}
	p := NewPipeline(PipelineConfig{SourceDirectory: dir, ChunkSize: 500, ChunkOverlap: 0, CleanBeforeIngest: true}, &fakeExtractor{}, chunker.New(), &fakeEmbedder{}, store, zerolog.Nop())

	p.Run(context.Background())
	assert.True(t, store.dropped)
}

func TestChunkID_Format(t *testing.T) {
	assert.Equal(t, "report.pdf_chunk_120", chunkID("report.pdf", 120))
}
