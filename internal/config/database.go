package config

import (
	"context"

	"github.com/caarlos0/env/v11"

	"github.com/alphamail/chatbot/pkg/log"
)

// DatabaseConfig points at the business database (users, schedules, ERP).
type DatabaseConfig struct {
	URL      string `env:"CHATBOT_DATABASE_URL,required,notEmpty"`
	MaxConns int32  `env:"CHATBOT_DATABASE_MAX_CONNS" envDefault:"8"`
	// Migrate applies the bundled schema on startup. Off when the tables
	// are owned by another service.
	Migrate bool `env:"CHATBOT_DATABASE_MIGRATE" envDefault:"false"`
}

func NewDatabaseConfig(ctx context.Context) *DatabaseConfig {
	c := &DatabaseConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse database config")
	}
	return c
}
