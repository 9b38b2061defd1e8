// Package embedding implements domain.Embedder against the OpenAI
// embeddings API.
package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

// Provider is an OpenAI-backed domain.Embedder.
type Provider struct {
	client openai.Client
	config *domain.OpenAIProviderConfig
}

// New constructs a Provider from config (EMBEDDING_MODEL_NAME,
// OPENAI_API_KEY, OPENAI_BASE_URL).
func New(config *domain.OpenAIProviderConfig) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("embedding: config cannot be nil")
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		client: openai.NewClient(opts...),
		config: config,
	}, nil
}

// Embed returns the embedding vector for text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrEmbeddingFailed)
	}

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(p.config.EmbeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	}

	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embedding data returned", domain.ErrEmbeddingFailed)
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Health issues a cheap embedding call to verify the provider is reachable.
func (p *Provider) Health(ctx context.Context) error {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(p.config.EmbeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String("health check"),
		},
	}
	_, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return fmt.Errorf("embedding provider unavailable: %w", err)
	}
	return nil
}
