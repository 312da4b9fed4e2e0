package installer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alphamail/chatbot/internal/config"
	"github.com/alphamail/chatbot/pkg/env"
)

// InstallState collects answers as the config structs the server parses,
// so the written .env round-trips through caarlos0/env unchanged.
type InstallState struct {
	App       config.AppConfig
	LLM       config.LLMConfig
	Embedding config.EmbeddingConfig
	Database  config.DatabaseConfig
	Telegram  config.TelegramConfig
}

func NewInstallState() *InstallState {
	return &InstallState{}
}

// embeddingDefaults are model and width per embedding provider.
var embeddingDefaults = map[string]struct {
	model string
	dims  int
}{
	"ollama": {"bge-m3", 1024},
	"openai": {"text-embedding-3-small", 1536},
	"gemini": {"gemini-embedding-001", 768},
	"hash":   {"", 256},
}

// finalize fills derived values once every step has run.
func (s *InstallState) finalize() {
	s.Embedding.OllamaBaseURL = firstNonEmpty(s.Embedding.OllamaBaseURL, s.LLM.OllamaBaseURL)
	s.Embedding.OpenAIAPIKey = firstNonEmpty(s.Embedding.OpenAIAPIKey, s.LLM.OpenAIAPIKey)
	s.Embedding.GeminiAPIKey = firstNonEmpty(s.Embedding.GeminiAPIKey, s.LLM.GeminiAPIKey)

	if d, ok := embeddingDefaults[s.Embedding.Provider]; ok {
		if s.Embedding.Model == "" {
			s.Embedding.Model = d.model
		}
		if s.Embedding.Dims == 0 {
			s.Embedding.Dims = d.dims
		}
	}

	s.App.EnableTelegram = s.Telegram.Token != ""
	if !s.App.EnableTelegram {
		s.Telegram = config.TelegramConfig{}
	}
}

// render returns the .env content for the collected answers. Keys shared
// by the LLM and embedding configs are written once.
func (s *InstallState) render() (string, error) {
	content, err := env.MarshalEnv(s)
	if err != nil {
		return "", err
	}
	return env.Merge("", content), nil
}

func (s *InstallState) needsEmbeddingKey() bool {
	switch s.Embedding.Provider {
	case "openai":
		return s.LLM.OpenAIAPIKey == "" && s.Embedding.OpenAIAPIKey == ""
	case "gemini":
		return s.LLM.GeminiAPIKey == "" && s.Embedding.GeminiAPIKey == ""
	default:
		return false
	}
}

// parseUsers reads "telegramID:userID" pairs separated by commas.
func parseUsers(s string) (map[int64]int64, error) {
	users := make(map[int64]int64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		tg, user, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("want telegramID:userID, got %q", pair)
		}
		tgID, err := strconv.ParseInt(strings.TrimSpace(tg), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("telegram id %q: %w", tg, err)
		}
		userID, err := strconv.ParseInt(strings.TrimSpace(user), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("user id %q: %w", user, err)
		}
		users[tgID] = userID
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("at least one telegramID:userID pair is required")
	}
	return users, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
