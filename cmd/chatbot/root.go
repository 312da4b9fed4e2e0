package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alphamail/chatbot/internal/config"
	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/internal/service/ui"
	"github.com/alphamail/chatbot/pkg/log"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:     core.AppName,
	Version: core.AppVersion,
	Short: "Business assistant for schedules, orders, quotes and mail",
	Long: `chatbot answers questions over a company's purchase orders, quotes,
schedules and mail, and registers schedules from plain messages.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	return setupLoggerTo(ctx, os.Stdout)
}

// setupLoggerTo is used by commands whose stdout carries a protocol.
func setupLoggerTo(ctx context.Context, out io.Writer) (context.Context, func()) {
	return log.NewContext(ctx, log.Options{
		Debug: debug || config.IsDebug(),
		Out:   out,
	})
}

func CustomizeHelp(rootCmd *cobra.Command) {
	cobra.AddTemplateFunc("StyleTitle", func(s string) string { return ui.TitleStyle.Render(s) })
	cobra.AddTemplateFunc("StyleUsage", func(s string) string { return ui.UsageStyle.Render(s) })
	cobra.AddTemplateFunc("StyleFlag", func(s string) string { return ui.FlagStyle.Render(s) })
	cobra.AddTemplateFunc("StyleDesc", func(s string) string { return ui.DescStyle.Render(s) })

	template := `
{{StyleTitle "USAGE"}}
  {{StyleUsage .UseLine}}
{{if gt (len .Commands) 0}}{{StyleTitle "AVAILABLE COMMANDS"}}
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding}} {{StyleDesc .Short}}{{end}}
{{end}}{{end}}
{{if .HasAvailableLocalFlags}}{{StyleTitle "FLAGS"}}
{{StyleFlag (.LocalFlags.FlagUsages | trimTrailingWhitespaces)}}
{{end}}
`
	rootCmd.SetHelpTemplate(template)
}
