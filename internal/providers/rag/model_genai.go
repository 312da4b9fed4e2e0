package rag

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// GenAIModel embeds with the Gemini API, using the retrieval task types so
// queries and documents land in the same space.
type GenAIModel struct {
	client *genai.Client
	model  string
	dims   int
}

func NewGenAIModel(ctx context.Context, apiKey, model string, dims int) (*GenAIModel, error) {
	return newGenAIModel(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}, model, dims)
}

func newGenAIModel(ctx context.Context, cfg *genai.ClientConfig, model string, dims int) (*GenAIModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIModel{client: client, model: model, dims: dims}, nil
}

func (m *GenAIModel) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	return m.embed(ctx, text, taskRetrievalQuery)
}

func (m *GenAIModel) EncodePassage(ctx context.Context, text string) ([]float32, error) {
	return m.embed(ctx, text, taskRetrievalDocument)
}

func (m *GenAIModel) Dims() int { return m.dims }

func (m *GenAIModel) Shutdown() error { return nil }

func (m *GenAIModel) embed(ctx context.Context, text string, task string) ([]float32, error) {
	cfg := &genai.EmbedContentConfig{TaskType: task}
	if m.dims > 0 {
		dims := int32(m.dims)
		cfg.OutputDimensionality = &dims
	}

	result, err := m.client.Models.EmbedContent(ctx, m.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, cfg)
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return checkDims(result.Embeddings[0].Values, m.dims)
}
