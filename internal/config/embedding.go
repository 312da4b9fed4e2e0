package config

import (
	"context"

	"github.com/caarlos0/env/v11"

	"github.com/alphamail/chatbot/pkg/log"
)

// EmbeddingConfig selects the embedding backend. Provider "hash" needs no
// network and is meant for tests and local trials.
type EmbeddingConfig struct {
	Provider     string `env:"CHATBOT_EMBEDDING_PROVIDER" envDefault:"ollama"`
	Model        string `env:"CHATBOT_EMBEDDING_MODEL" envDefault:"bge-m3"`
	Dims         int    `env:"CHATBOT_EMBEDDING_DIMS" envDefault:"1024"`
	ChunkTokens  int    `env:"CHATBOT_EMBEDDING_CHUNK_TOKENS" envDefault:"480"`
	ChunkOverlap int    `env:"CHATBOT_EMBEDDING_CHUNK_OVERLAP" envDefault:"48"`

	OllamaBaseURL string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
}

func NewEmbeddingConfig(ctx context.Context) *EmbeddingConfig {
	c := &EmbeddingConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse embedding config")
	}
	return c
}

func (c EmbeddingConfig) GetEmbeddingProvider() string  { return c.Provider }
func (c EmbeddingConfig) GetEmbeddingModel() string     { return c.Model }
func (c EmbeddingConfig) GetEmbeddingDims() int         { return c.Dims }
func (c EmbeddingConfig) GetEmbeddingChunkTokens() int  { return c.ChunkTokens }
func (c EmbeddingConfig) GetEmbeddingChunkOverlap() int { return c.ChunkOverlap }
