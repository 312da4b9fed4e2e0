package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alphamail/chatbot/internal/core"
)

type Ollama struct {
	*OpenAICompatible
}

func NewOllama(baseURL, apiKey, model string) *Ollama {
	return &Ollama{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			Model:      model,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}),
	}
}

// Models lists locally pulled models via /api/tags.
func (o *Ollama) Models(ctx context.Context) ([]core.Model, error) {
	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := o.doJSON(ctx, http.MethodGet, "/api/tags", nil, o.headers(), &result); err != nil {
		return nil, fmt.Errorf("ollama not available: %w", err)
	}

	models := make([]core.Model, 0, len(result.Models))
	for _, m := range result.Models {
		models = append(models, core.Model{ID: m.Name, Name: m.Name})
	}
	return models, nil
}
