package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

func TestBuildPrompt_NoContextFallback(t *testing.T) {
	prompt := BuildPrompt("What is the refund policy?", nil)
	assert.Contains(t, prompt, "No context provided.")
	assert.Contains(t, prompt, "What is the refund policy?")
}

func TestBuildPrompt_JoinsContextWithSeparator(t *testing.T) {
	prompt := BuildPrompt("q", []string{"chunk one", "chunk two"})
	assert.Contains(t, prompt, "chunk one\n---\nchunk two")
}

func TestBuildPrompt_ExactTemplate(t *testing.T) {
	prompt := BuildPrompt("my query", []string{"ctx"})
	assert.True(t, strings.HasPrefix(prompt, "SYSTEM: You are a helpful and precise customer support assistant."))
	assert.True(t, strings.HasSuffix(prompt, "ASSISTANT RESPONSE:\n"))
}

type fakeGenerator struct {
	err    error
	answer string
}

func (f *fakeGenerator) Generate(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}
func (f *fakeGenerator) Health(context.Context) error { return nil }

func TestGenerate_RejectsEmptyQuery(t *testing.T) {
	svc := NewService(&fakeGenerator{})
	_, err := svc.Generate(context.Background(), "  ", nil)
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindValidation, de.Kind)
}

func TestGenerate_Success(t *testing.T) {
	svc := NewService(&fakeGenerator{answer: "Here is your answer."})
	resp, err := svc.Generate(context.Background(), "hello", []string{"ctx"})
	require.NoError(t, err)
	assert.Equal(t, "Here is your answer.", resp.Answer)
}

func TestGenerate_UpstreamFailurePreservesKeyword(t *testing.T) {
	svc := NewService(&fakeGenerator{err: errors.New("text generation failed: rate limit exceeded: too many requests")})
	_, err := svc.Generate(context.Background(), "hello", nil)

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindUpstream, de.Kind)
	assert.Contains(t, de.Detail, "rate limit")
}
