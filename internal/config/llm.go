package config

import (
	"context"

	"github.com/caarlos0/env/v11"

	"github.com/alphamail/chatbot/pkg/log"
)

type LLMConfig struct {
	Provider string `env:"CHATBOT_LLM_PROVIDER" envDefault:"openrouter"`
	Model    string `env:"CHATBOT_LLM_MODEL" envDefault:"google/gemma-3-27b-it:free"`

	AnthropicAPIKey     string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey        string `env:"OPENAI_API_KEY"`
	OpenRouterAPIKey    string `env:"OPENROUTER_API_KEY"`
	GeminiAPIKey        string `env:"GEMINI_API_KEY"`
	OllamaAPIKey        string `env:"OLLAMA_API_KEY"`
	OllamaBaseURL       string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	CustomOpenAIBaseURL string `env:"CUSTOM_OPENAI_BASE_URL"`
	CustomOpenAIAPIKey  string `env:"CUSTOM_OPENAI_API_KEY"`
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	return c
}

func (c LLMConfig) GetProvider() string            { return c.Provider }
func (c LLMConfig) GetModel() string               { return c.Model }
func (c LLMConfig) GetAnthropicAPIKey() string     { return c.AnthropicAPIKey }
func (c LLMConfig) GetOpenAIAPIKey() string        { return c.OpenAIAPIKey }
func (c LLMConfig) GetOpenRouterAPIKey() string    { return c.OpenRouterAPIKey }
func (c LLMConfig) GetGeminiAPIKey() string        { return c.GeminiAPIKey }
func (c LLMConfig) GetOllamaAPIKey() string        { return c.OllamaAPIKey }
func (c LLMConfig) GetOllamaBaseURL() string       { return c.OllamaBaseURL }
func (c LLMConfig) GetCustomOpenAIBaseURL() string { return c.CustomOpenAIBaseURL }
func (c LLMConfig) GetCustomOpenAIAPIKey() string  { return c.CustomOpenAIAPIKey }
