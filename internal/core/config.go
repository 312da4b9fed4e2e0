package core

type ProviderConfig interface {
	GetProvider() string
	GetModel() string
	GetAnthropicAPIKey() string
	GetOpenAIAPIKey() string
	GetOpenRouterAPIKey() string
	GetGeminiAPIKey() string
	GetOllamaAPIKey() string
	GetOllamaBaseURL() string
	GetCustomOpenAIBaseURL() string
	GetCustomOpenAIAPIKey() string
}

type EmbeddingConfig interface {
	GetEmbeddingProvider() string
	GetEmbeddingModel() string
	GetEmbeddingDims() int
	GetEmbeddingChunkTokens() int
	GetEmbeddingChunkOverlap() int
}

type TelegramConfig interface {
	GetTelegramToken() string
	GetTelegramUsers() map[int64]int64
}
