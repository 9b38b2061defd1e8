// Package generation implements the Generation service: render the RAG
// prompt template and call the LLM.
package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

const promptTemplate = `SYSTEM: You are a helpful and precise customer support assistant. Your goal is to answer the user's query based *only* on the provided context.
- If the context contains the information needed to answer the query, provide a clear and concise answer citing the relevant information from the context.
- If the context does not contain information relevant to the query, politely state that you don't have enough information based on the provided documents. Do not make up information or use external knowledge.
- If the query is a greeting or conversational filler, respond politely as a support assistant.

CONTEXT:
%s

USER QUERY:
%s

ASSISTANT RESPONSE:
`

const noContextPlaceholder = "No context provided."
const contextSeparator = "\n---\n"

// BuildPrompt renders the RAG prompt: context chunks joined by
// "\n---\n", or the literal fallback when there are none.
func BuildPrompt(query string, contextChunks []string) string {
	context := noContextPlaceholder
	if len(contextChunks) > 0 {
		context = strings.Join(contextChunks, contextSeparator)
	}
	return fmt.Sprintf(promptTemplate, context, query)
}

// Service generates an answer from a query and its retrieved context.
type Service struct {
	generator domain.Generator
}

// NewService constructs a Service.
func NewService(generator domain.Generator) *Service {
	return &Service{generator: generator}
}

// Generate validates query is non-empty, builds the prompt, and asks
// the LLM for an answer. Any LLM failure is surfaced as an upstream
// error (503) with the provider's classified detail so callers can
// match on the underlying failure keyword.
func (s *Service) Generate(ctx context.Context, query string, contextChunks []string) (domain.GenerateResponse, error) {
	if strings.TrimSpace(query) == "" {
		return domain.GenerateResponse{}, domain.NewValidation("Query cannot be empty.")
	}

	prompt := BuildPrompt(query, contextChunks)

	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return domain.GenerateResponse{}, domain.NewUpstream(0, err.Error(), nil)
	}

	return domain.GenerateResponse{Answer: answer}, nil
}
