package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/alphamail/chatbot/internal/config"
	"github.com/alphamail/chatbot/internal/transport/mcp"
	"github.com/alphamail/chatbot/pkg/log"
	"github.com/alphamail/chatbot/pkg/srv"
)

var mcpCmd = &cobra.Command{
	Use:          "mcp",
	Short:        "Serve the assistant as MCP tools over stdio",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// stdout carries the protocol
		var flushLog func()
		ctx, flushLog = setupLoggerTo(ctx, os.Stderr)
		defer flushLog()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		mcpCfg := config.NewMCPConfig(ctx)
		if mcpCfg.UserID <= 0 {
			a.close(ctx)
			return fmt.Errorf("CHATBOT_MCP_USER_ID must be a positive user id")
		}
		log.FromCtx(ctx).Info().Int64("user_id", mcpCfg.UserID).Msg("starting mcp server")

		services := append([]srv.Service{}, a.cleanups...)
		services = append(services, mcp.NewServer(a.chat, mcpCfg.UserID, a.cfg.GetDefaultTimezone()))
		return srv.Run(ctx, services...)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

