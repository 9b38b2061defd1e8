// Package retrieval implements the Retrieval service: embed the query,
// search the vector collection, and filter hits by distance.
package retrieval

import (
	"context"
	"strings"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

const maxQueryChars = 10000

// Service performs the embed-search-filter retrieval operation.
type Service struct {
	embedder          domain.Embedder
	store             domain.Collection
	collectionName    string
	topK              int
	distanceThreshold float64
}

// NewService constructs a Service.
func NewService(embedder domain.Embedder, store domain.Collection, collectionName string, topK int, distanceThreshold float64) *Service {
	return &Service{embedder: embedder, store: store, collectionName: collectionName, topK: topK, distanceThreshold: distanceThreshold}
}

// Retrieve embeds query, searches the vector collection for the top-K
// nearest chunks, and drops any whose distance exceeds the configured
// threshold. An empty or whitespace-only query returns an empty result
// rather than an error.
func (s *Service) Retrieve(ctx context.Context, query string) (domain.RetrieveResponse, error) {
	resp := domain.RetrieveResponse{Query: query, CollectionName: s.collectionName, Chunks: []string{}}

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return resp, nil
	}
	if len([]rune(query)) > maxQueryChars {
		return resp, domain.NewValidation("Query too long. Maximum length is 10,000 characters.")
	}

	vector, err := s.embedder.Embed(ctx, trimmed)
	if err != nil {
		return resp, domain.NewInternal("Failed to generate query embedding.", err)
	}

	chunks, err := s.store.Query(ctx, vector, s.topK)
	if err != nil {
		return resp, domain.NewInternal("Failed to query vector database.", err)
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.Distance <= s.distanceThreshold {
			texts = append(texts, c.Text)
		}
	}
	resp.Chunks = texts
	return resp, nil
}
