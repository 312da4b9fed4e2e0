package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/pkg/log"
)

// EmbeddingKeys carries the provider credentials EmbeddingConfig does not.
type EmbeddingKeys struct {
	OllamaBaseURL string
	OpenAIAPIKey  string
	GeminiAPIKey  string
}

// NewEmbeddingModel creates the backend named by cfg.GetEmbeddingProvider().
func NewEmbeddingModel(ctx context.Context, cfg core.EmbeddingConfig, keys EmbeddingKeys) (DualEncoder, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.GetEmbeddingProvider()).
		Str("model", cfg.GetEmbeddingModel()).
		Int("dims", cfg.GetEmbeddingDims()).
		Msg("starting embedding model")

	switch cfg.GetEmbeddingProvider() {
	case "ollama":
		return NewOllamaModel(keys.OllamaBaseURL, cfg.GetEmbeddingModel(), cfg.GetEmbeddingDims()), nil
	case "openai":
		return NewOpenAIModel(keys.OpenAIAPIKey, cfg.GetEmbeddingModel(), cfg.GetEmbeddingDims()), nil
	case "gemini":
		return NewGenAIModel(ctx, keys.GeminiAPIKey, cfg.GetEmbeddingModel(), cfg.GetEmbeddingDims())
	case "hash":
		return NewHashModel(cfg.GetEmbeddingDims()), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.GetEmbeddingProvider())
	}
}

// NewConfiguredEmbedder wires the model, per-call timeout and chunking.
func NewConfiguredEmbedder(ctx context.Context, cfg core.EmbeddingConfig, keys EmbeddingKeys, timeout time.Duration) (*Embedder, error) {
	model, err := NewEmbeddingModel(ctx, cfg, keys)
	if err != nil {
		return nil, err
	}
	chunkConf := NewChunkerConfig(cfg.GetEmbeddingChunkTokens(), cfg.GetEmbeddingChunkOverlap())
	return NewEmbedder(model, timeout, chunkConf), nil
}
