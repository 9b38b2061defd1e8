package domain

// OpenAIProviderConfig configures the OpenAI-backed Embedder and
// Generator implementations (LLM_PROVIDER, LLM_MODEL_NAME, LLM_API_KEY,
// EMBEDDING_MODEL_NAME).
type OpenAIProviderConfig struct {
	BaseURL        string
	APIKey         string
	EmbeddingModel string
	LLMModel       string
	Temperature    float64
	MaxTokens      int
}
