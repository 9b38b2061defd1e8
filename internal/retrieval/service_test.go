package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

type fakeEmbedder struct {
	err error
	vec []float32
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.vec != nil {
		return f.vec, nil
	}
	return []float32{1, 2, 3}, nil
}
func (f *fakeEmbedder) Health(context.Context) error { return nil }

type fakeStore struct {
	err    error
	chunks []domain.Chunk
}

func (f *fakeStore) EnsureCollection(context.Context, int) error { return nil }
func (f *fakeStore) DropCollection(context.Context) error        { return nil }
func (f *fakeStore) Upsert(context.Context, []domain.Chunk) error { return nil }
func (f *fakeStore) Query(context.Context, []float32, int) ([]domain.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}
func (f *fakeStore) SourceNames(context.Context) (map[string]bool, error) { return nil, nil }

func TestRetrieve_EmptyQuery(t *testing.T) {
	svc := NewService(&fakeEmbedder{}, &fakeStore{}, "docs", 5, 1.0)
	resp, err := svc.Retrieve(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, resp.Chunks)
}

func TestRetrieve_QueryTooLong(t *testing.T) {
	svc := NewService(&fakeEmbedder{}, &fakeStore{}, "docs", 5, 1.0)
	_, err := svc.Retrieve(context.Background(), strings.Repeat("a", 10001))
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindValidation, de.Kind)
}

func TestRetrieve_FiltersByDistance(t *testing.T) {
	store := &fakeStore{chunks: []domain.Chunk{
		{Text: "near", Distance: 0.2},
		{Text: "far", Distance: 1.5},
	}}
	svc := NewService(&fakeEmbedder{}, store, "docs", 5, 1.0)

	resp, err := svc.Retrieve(context.Background(), "what is the answer?")
	require.NoError(t, err)
	assert.Equal(t, []string{"near"}, resp.Chunks)
}

func TestRetrieve_PreservesOrder(t *testing.T) {
	store := &fakeStore{chunks: []domain.Chunk{
		{Text: "first", Distance: 0.9},
		{Text: "second", Distance: 0.1},
	}}
	svc := NewService(&fakeEmbedder{}, store, "docs", 5, 1.0)

	resp, err := svc.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, resp.Chunks)
}

func TestRetrieve_CustomThresholdExcludesMoreChunks(t *testing.T) {
	store := &fakeStore{chunks: []domain.Chunk{
		{Text: "close", Distance: 0.2},
		{Text: "mid", Distance: 0.4},
		{Text: "far", Distance: 0.9},
	}}
	svc := NewService(&fakeEmbedder{}, store, "docs", 5, 0.3)

	resp, err := svc.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []string{"close"}, resp.Chunks)
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	svc := NewService(&fakeEmbedder{err: domain.ErrEmbeddingFailed}, &fakeStore{}, "docs", 5, 1.0)
	_, err := svc.Retrieve(context.Background(), "hello")
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindInternal, de.Kind)
}

func TestRetrieve_StoreFailure(t *testing.T) {
	svc := NewService(&fakeEmbedder{}, &fakeStore{err: domain.ErrVectorStoreFailed}, "docs", 5, 1.0)
	_, err := svc.Retrieve(context.Background(), "hello")
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindInternal, de.Kind)
}
