package llm

import (
	"context"
	"fmt"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/pkg/log"
)

// Provider is what every backend offers.
type Provider interface {
	core.Completer
	core.ModelLister
}

// NewProvider creates the backend named by cfg.GetProvider().
func NewProvider(ctx context.Context, cfg core.ProviderConfig) (Provider, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.GetProvider()).
		Str("model", cfg.GetModel()).
		Msg("starting llm provider")

	switch cfg.GetProvider() {
	case "openai":
		return NewOpenAI(cfg.GetOpenAIAPIKey(), cfg.GetModel()), nil
	case "anthropic":
		return NewAnthropic(cfg.GetAnthropicAPIKey(), cfg.GetModel()), nil
	case "openrouter":
		return NewOpenRouter(cfg.GetOpenRouterAPIKey(), cfg.GetModel()), nil
	case "ollama":
		return NewOllama(cfg.GetOllamaBaseURL(), cfg.GetOllamaAPIKey(), cfg.GetModel()), nil
	case "custom":
		return NewCustomOpenAI(cfg.GetCustomOpenAIBaseURL(), cfg.GetCustomOpenAIAPIKey(), cfg.GetModel()), nil
	case "gemini":
		return NewGemini(ctx, cfg.GetGeminiAPIKey(), cfg.GetModel())
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.GetProvider())
	}
}
