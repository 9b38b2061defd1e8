package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestEmbed_EmptyText(t *testing.T) {
	p, err := New(&domain.OpenAIProviderConfig{APIKey: "sk-test", EmbeddingModel: "text-embedding-3-small"})
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), "")
	assert.Error(t, err)
}

func TestNew_AppliesBaseURL(t *testing.T) {
	p, err := New(&domain.OpenAIProviderConfig{APIKey: "sk-test", EmbeddingModel: "m", BaseURL: "http://localhost:1234/v1"})
	require.NoError(t, err)
	assert.NotNil(t, p)
}
