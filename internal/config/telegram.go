package config

import (
	"context"

	"github.com/caarlos0/env/v11"

	"github.com/alphamail/chatbot/pkg/log"
)

type TelegramConfig struct {
	Token string `env:"TELEGRAM_TOKEN,required,notEmpty"`
	// Telegram user id → business user id, e.g. "12345:7,67890:8".
	// Unlisted senders are ignored.
	Users map[int64]int64 `env:"TELEGRAM_USERS,required" envSeparator:"," envKeyValSeparator:":"`
}

func NewTelegramConfig(ctx context.Context) *TelegramConfig {
	c := &TelegramConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Telegram config")
	}
	return c
}

func (c TelegramConfig) GetTelegramToken() string {
	return c.Token
}

func (c TelegramConfig) GetTelegramUsers() map[int64]int64 {
	return c.Users
}
