package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alphamail/chatbot/internal/config"
	httptransport "github.com/alphamail/chatbot/internal/transport/http"
	"github.com/alphamail/chatbot/internal/transport/telegram"
	"github.com/alphamail/chatbot/pkg/log"
	"github.com/alphamail/chatbot/pkg/srv"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the Telegram bot and the reindex worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Str("version", cmd.Root().Version).Msg("starting chatbot")

		a, err := newApp(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize")
		}

		// closers first so they are shut down last
		services := append([]srv.Service{}, a.cleanups...)

		if a.cfg.EnableReindex {
			services = append(services, a.worker)
		}

		if a.cfg.EnableTelegram {
			tgCfg := config.NewTelegramConfig(ctx)
			bot, err := telegram.NewBot(ctx, tgCfg, a.chat, a.cfg.GetDefaultTimezone())
			if err != nil {
				a.close(ctx)
				logger.Fatal().Err(err).Msg("failed to initialize telegram bot")
			}
			services = append(services, bot)
		}

		services = append(services, httptransport.NewServer(ctx, a.cfg.HTTPAddr, a.chat))

		if err := srv.Run(ctx, services...); err != nil {
			return err
		}
		logger.Info().Msg("chatbot has been shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
