package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/alphamail/chatbot/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"CHATBOT_RUNTIME_PATH"`

	// Retrieval
	TopK int `env:"CHATBOT_TOP_K" envDefault:"5"`
	// Applied to every completion and index call.
	CallTimeout time.Duration `env:"CHATBOT_CALL_TIMEOUT" envDefault:"30s"`
	// Used when a request carries no or an invalid time zone.
	DefaultTimezone string `env:"CHATBOT_DEFAULT_TIMEZONE" envDefault:"Asia/Seoul"`

	ReindexInterval time.Duration `env:"CHATBOT_REINDEX_INTERVAL" envDefault:"5m"`

	HTTPAddr       string `env:"CHATBOT_HTTP_ADDR" envDefault:":8080"`
	EnableTelegram bool   `env:"CHATBOT_ENABLE_TELEGRAM" envDefault:"false"`
	EnableReindex  bool   `env:"CHATBOT_ENABLE_REINDEX" envDefault:"true"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse app config")
	}
	if c.RuntimePath == "" {
		c.RuntimePath = GetRuntimePath()
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetIndexPath() string {
	return filepath.Join(c.RuntimePath, "index.db")
}

func (c AppConfig) GetTopK() int {
	if c.TopK <= 0 {
		return 5
	}
	return c.TopK
}

func (c AppConfig) GetCallTimeout() time.Duration {
	return c.CallTimeout
}

func (c AppConfig) GetDefaultTimezone() string {
	return c.DefaultTimezone
}

func (c AppConfig) GetReindexInterval() time.Duration {
	return c.ReindexInterval
}
