package config

import (
	"context"

	"github.com/caarlos0/env/v11"

	"github.com/alphamail/chatbot/pkg/log"
)

// MCPConfig binds the stdio MCP server to one business user, the way a
// desktop client runs it on behalf of its owner.
type MCPConfig struct {
	UserID int64 `env:"CHATBOT_MCP_USER_ID,required"`
}

func NewMCPConfig(ctx context.Context) *MCPConfig {
	c := &MCPConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse MCP config")
	}
	return c
}
