// Package config loads per-service configuration: viper defaults,
// RAGOMESH_-prefixed env var bindings, optional TOML file, and a
// Validate() pass.
package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// ServerConfig is shared by every service.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (c ServerConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Port)
	}
	return nil
}

// QdrantConfig names its fields after the CHROMA_* env vars so the
// config surface stays engine-agnostic even though this build realizes
// it with Qdrant.
type QdrantConfig struct {
	Mode           string `mapstructure:"mode"` // "local" or "docker"
	Path           string `mapstructure:"path"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	CollectionName string `mapstructure:"collection_name"`
}

func (c QdrantConfig) Validate() error {
	switch c.Mode {
	case "local":
		if c.Path == "" {
			return fmt.Errorf("CHROMA_PATH required when CHROMA_MODE=local")
		}
	case "docker":
		if c.Host == "" || c.Port == 0 {
			return fmt.Errorf("CHROMA_HOST and CHROMA_PORT required when CHROMA_MODE=docker")
		}
	default:
		return fmt.Errorf("invalid CHROMA_MODE: %q", c.Mode)
	}
	if c.CollectionName == "" {
		return fmt.Errorf("CHROMA_COLLECTION_NAME cannot be empty")
	}
	return nil
}

// OpenAIConfig configures the OpenAI-backed embedder/LLM collaborators.
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	LLMModel       string `mapstructure:"llm_model"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int    `mapstructure:"max_tokens"`
}

// IngestionConfig is the Ingestion service's configuration.
type IngestionConfig struct {
	Server            ServerConfig `mapstructure:"server"`
	SourceDirectory   string       `mapstructure:"source_directory"`
	MaxFileSizeMB     int          `mapstructure:"max_file_size_mb"`
	Qdrant            QdrantConfig `mapstructure:"qdrant"`
	OpenAI            OpenAIConfig `mapstructure:"openai"`
	ChunkSize         int          `mapstructure:"chunk_size"`
	ChunkOverlap      int          `mapstructure:"chunk_overlap"`
	CleanBeforeIngest bool         `mapstructure:"clean_before_ingest"`
}

func (c *IngestionConfig) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Qdrant.Validate(); err != nil {
		return err
	}
	if c.SourceDirectory == "" {
		return fmt.Errorf("SOURCE_DIRECTORY cannot be empty")
	}
	if c.MaxFileSizeMB < 1 || c.MaxFileSizeMB > 500 {
		return fmt.Errorf("MAX_FILE_SIZE_MB must be between 1 and 500: %d", c.MaxFileSizeMB)
	}
	if c.OpenAI.EmbeddingModel == "" {
		return fmt.Errorf("EMBEDDING_MODEL_NAME cannot be empty")
	}
	if c.ChunkSize <= 100 || c.ChunkSize > 4000 {
		return fmt.Errorf("CHUNK_SIZE must be greater than 100 and at most 4000: %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be between 0 and CHUNK_SIZE-1: %d", c.ChunkOverlap)
	}
	return nil
}

// RetrievalConfig is the Retrieval service's configuration.
type RetrievalConfig struct {
	Server            ServerConfig `mapstructure:"server"`
	Qdrant            QdrantConfig `mapstructure:"qdrant"`
	OpenAI            OpenAIConfig `mapstructure:"openai"`
	TopKResults       int          `mapstructure:"top_k_results"`
	DistanceThreshold float64      `mapstructure:"distance_threshold"`
}

func (c *RetrievalConfig) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Qdrant.Validate(); err != nil {
		return err
	}
	if c.OpenAI.EmbeddingModel == "" {
		return fmt.Errorf("EMBEDDING_MODEL_NAME cannot be empty")
	}
	if c.TopKResults <= 0 {
		return fmt.Errorf("TOP_K_RESULTS must be positive: %d", c.TopKResults)
	}
	if c.DistanceThreshold < 0 {
		return fmt.Errorf("DISTANCE_THRESHOLD must be non-negative: %f", c.DistanceThreshold)
	}
	return nil
}

// GenerationConfig is the Generation service's configuration.
type GenerationConfig struct {
	Server      ServerConfig `mapstructure:"server"`
	LLMProvider string       `mapstructure:"llm_provider"`
	OpenAI      OpenAIConfig `mapstructure:"openai"`
}

func (c *GenerationConfig) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if c.LLMProvider != "openai" {
		return fmt.Errorf("unsupported LLM_PROVIDER: %q", c.LLMProvider)
	}
	if c.OpenAI.LLMModel == "" {
		return fmt.Errorf("LLM_MODEL_NAME cannot be empty")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY cannot be empty")
	}
	return nil
}

// OrchestratorConfig is the Orchestrator service's configuration.
type OrchestratorConfig struct {
	Server               ServerConfig `mapstructure:"server"`
	RetrievalServiceURL  string       `mapstructure:"retrieval_service_url"`
	GenerationServiceURL string       `mapstructure:"generation_service_url"`
	IngestionServiceURL  string       `mapstructure:"ingestion_service_url"`
}

func (c *OrchestratorConfig) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if c.RetrievalServiceURL == "" {
		return fmt.Errorf("RETRIEVAL_SERVICE_URL cannot be empty")
	}
	if c.GenerationServiceURL == "" {
		return fmt.Errorf("GENERATION_SERVICE_URL cannot be empty")
	}
	if c.IngestionServiceURL == "" {
		return fmt.Errorf("INGESTION_SERVICE_URL cannot be empty")
	}
	return nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix("RAGOMESH")
	v.AutomaticEnv()
	return v
}

func readInto(v *viper.Viper, target interface{}) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

func bindEnv(v *viper.Viper, key, env string) {
	if err := v.BindEnv(key, env); err != nil {
		log.Printf("Warning: failed to bind %s env var: %v", key, err)
	}
}

// LoadIngestion loads the Ingestion service's configuration.
func LoadIngestion(configPath string) (*IngestionConfig, error) {
	v := newViper(configPath)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8081)
	v.SetDefault("source_directory", "./data/source")
	v.SetDefault("max_file_size_mb", 50)
	v.SetDefault("qdrant.mode", "docker")
	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.collection_name", "ragomesh_documents")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("chunk_size", 1000)
	v.SetDefault("chunk_overlap", 200)
	v.SetDefault("clean_before_ingest", false)

	bindEnv(v, "server.host", "RAGOMESH_SERVER_HOST")
	bindEnv(v, "server.port", "RAGOMESH_SERVER_PORT")
	bindEnv(v, "source_directory", "RAGOMESH_SOURCE_DIRECTORY")
	bindEnv(v, "max_file_size_mb", "RAGOMESH_MAX_FILE_SIZE_MB")
	bindEnv(v, "qdrant.mode", "RAGOMESH_CHROMA_MODE")
	bindEnv(v, "qdrant.path", "RAGOMESH_CHROMA_PATH")
	bindEnv(v, "qdrant.host", "RAGOMESH_CHROMA_HOST")
	bindEnv(v, "qdrant.port", "RAGOMESH_CHROMA_PORT")
	bindEnv(v, "qdrant.collection_name", "RAGOMESH_CHROMA_COLLECTION_NAME")
	bindEnv(v, "openai.api_key", "RAGOMESH_OPENAI_API_KEY")
	bindEnv(v, "openai.base_url", "RAGOMESH_OPENAI_BASE_URL")
	bindEnv(v, "openai.embedding_model", "RAGOMESH_EMBEDDING_MODEL_NAME")
	bindEnv(v, "chunk_size", "RAGOMESH_CHUNK_SIZE")
	bindEnv(v, "chunk_overlap", "RAGOMESH_CHUNK_OVERLAP")
	bindEnv(v, "clean_before_ingest", "RAGOMESH_CLEAN_COLLECTION_BEFORE_INGEST")

	cfg := &IngestionConfig{}
	if err := readInto(v, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadRetrieval loads the Retrieval service's configuration.
func LoadRetrieval(configPath string) (*RetrievalConfig, error) {
	v := newViper(configPath)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8082)
	v.SetDefault("qdrant.mode", "docker")
	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.collection_name", "ragomesh_documents")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("top_k_results", 5)
	v.SetDefault("distance_threshold", 1.0)

	bindEnv(v, "server.host", "RAGOMESH_SERVER_HOST")
	bindEnv(v, "server.port", "RAGOMESH_SERVER_PORT")
	bindEnv(v, "qdrant.mode", "RAGOMESH_CHROMA_MODE")
	bindEnv(v, "qdrant.path", "RAGOMESH_CHROMA_PATH")
	bindEnv(v, "qdrant.host", "RAGOMESH_CHROMA_HOST")
	bindEnv(v, "qdrant.port", "RAGOMESH_CHROMA_PORT")
	bindEnv(v, "qdrant.collection_name", "RAGOMESH_CHROMA_COLLECTION_NAME")
	bindEnv(v, "openai.api_key", "RAGOMESH_OPENAI_API_KEY")
	bindEnv(v, "openai.base_url", "RAGOMESH_OPENAI_BASE_URL")
	bindEnv(v, "openai.embedding_model", "RAGOMESH_EMBEDDING_MODEL_NAME")
	bindEnv(v, "top_k_results", "RAGOMESH_TOP_K_RESULTS")
	bindEnv(v, "distance_threshold", "RAGOMESH_DISTANCE_THRESHOLD")

	cfg := &RetrievalConfig{}
	if err := readInto(v, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadGeneration loads the Generation service's configuration.
func LoadGeneration(configPath string) (*GenerationConfig, error) {
	v := newViper(configPath)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8083)
	v.SetDefault("llm_provider", "openai")
	v.SetDefault("openai.llm_model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.2)
	v.SetDefault("openai.max_tokens", 1024)

	bindEnv(v, "server.host", "RAGOMESH_SERVER_HOST")
	bindEnv(v, "server.port", "RAGOMESH_SERVER_PORT")
	bindEnv(v, "llm_provider", "RAGOMESH_LLM_PROVIDER")
	bindEnv(v, "openai.llm_model", "RAGOMESH_LLM_MODEL_NAME")
	bindEnv(v, "openai.temperature", "RAGOMESH_LLM_TEMPERATURE")
	bindEnv(v, "openai.max_tokens", "RAGOMESH_LLM_MAX_TOKENS")
	bindEnv(v, "openai.api_key", "RAGOMESH_LLM_API_KEY")
	bindEnv(v, "openai.base_url", "RAGOMESH_OPENAI_BASE_URL")

	cfg := &GenerationConfig{}
	if err := readInto(v, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadOrchestrator loads the Orchestrator service's configuration.
func LoadOrchestrator(configPath string) (*OrchestratorConfig, error) {
	v := newViper(configPath)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("retrieval_service_url", "http://localhost:8082")
	v.SetDefault("generation_service_url", "http://localhost:8083")
	v.SetDefault("ingestion_service_url", "http://localhost:8081")

	bindEnv(v, "server.host", "RAGOMESH_SERVER_HOST")
	bindEnv(v, "server.port", "RAGOMESH_SERVER_PORT")
	bindEnv(v, "retrieval_service_url", "RAGOMESH_RETRIEVAL_SERVICE_URL")
	bindEnv(v, "generation_service_url", "RAGOMESH_GENERATION_SERVICE_URL")
	bindEnv(v, "ingestion_service_url", "RAGOMESH_INGESTION_SERVICE_URL")

	cfg := &OrchestratorConfig{}
	if err := readInto(v, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
