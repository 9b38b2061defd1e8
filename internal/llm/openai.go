// Package llm implements domain.Generator against the OpenAI chat
// completions API. It also classifies upstream failures so Generation
// can preserve a useful substring in its 503 detail.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

// Provider is an OpenAI-backed domain.Generator.
type Provider struct {
	client openai.Client
	config *domain.OpenAIProviderConfig
}

// New constructs a Provider from config (LLM_MODEL_NAME,
// LLM_TEMPERATURE, LLM_MAX_TOKENS, LLM_API_KEY).
func New(config *domain.OpenAIProviderConfig) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("llm: config cannot be nil")
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

// Generate sends prompt as a single user message and returns the
// assistant's reply text.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: empty prompt", domain.ErrGenerationFailed)
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.config.LLMModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if p.config.Temperature >= 0 {
		params.Temperature = openai.Float(p.config.Temperature)
	}
	if p.config.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(p.config.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", ClassifyError(err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", domain.ErrGenerationFailed)
	}

	return completion.Choices[0].Message.Content, nil
}

// Health sends a minimal one-token completion to verify the provider is
// reachable and the configured model/key are valid.
func (p *Provider) Health(ctx context.Context) error {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.config.LLMModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Hello"),
		},
		MaxCompletionTokens: openai.Int(1),
	}
	_, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ClassifyError(err)
	}
	return nil
}

// ClassifyError wraps an OpenAI client error in domain.ErrGenerationFailed
// while preserving a rate-limit/authentication/timeout substring callers
// can detect in the 503 detail.
func ClassifyError(err error) error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "rate limit"):
		return fmt.Errorf("%w: rate limit exceeded: %v", domain.ErrGenerationFailed, err)
	case strings.Contains(lower, "authentication"):
		return fmt.Errorf("%w: authentication failed: %v", domain.ErrGenerationFailed, err)
	case strings.Contains(lower, "timed out"), strings.Contains(lower, "timeout"):
		return fmt.Errorf("%w: request timed out: %v", domain.ErrGenerationFailed, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
}
