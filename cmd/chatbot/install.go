package main

import (
	"github.com/spf13/cobra"

	"github.com/alphamail/chatbot/internal/config"
	"github.com/alphamail/chatbot/internal/service/installer"
	"github.com/alphamail/chatbot/pkg/log"
)

var installCmd = &cobra.Command{
	Use:          "install",
	Short:        "Write the runtime configuration interactively",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		runtimePath := config.GetRuntimePath()

		if _, err := installer.RunWizard(runtimePath); err != nil {
			return err
		}

		logger.Info().
			Str("path", config.EnvFilePath(runtimePath)).
			Msg("installation complete, run 'chatbot reindex --full' and then 'chatbot serve'")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
