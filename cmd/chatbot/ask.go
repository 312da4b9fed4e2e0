package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/internal/service/ui"
)

var askOpts struct {
	userID   int64
	timezone string
	json     bool
}

var askCmd = &cobra.Command{
	Use:          "ask <message>",
	Short:        "Send one message through the assistant",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if askOpts.userID <= 0 {
			return fmt.Errorf("--user must be a positive user id")
		}

		ctx, flushLog := setupLoggerTo(cmd.Context(), cmd.ErrOrStderr())
		defer flushLog()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		resp, err := a.chat.Handle(ctx, askOpts.userID, core.ChatRequest{
			Message:  strings.Join(args, " "),
			Timezone: askOpts.timezone,
		})
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.ErrorStyle.Render(core.UserMessage(err)))
			return err
		}

		out := cmd.OutOrStdout()
		if askOpts.json {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		fmt.Fprintln(out, resp.Answer)
		if len(resp.DocumentIDs) > 0 {
			fmt.Fprintln(out, ui.DescStyle.Render("documents: "+strings.Join(resp.DocumentIDs, ", ")))
		}
		return nil
	},
}

func init() {
	askCmd.Flags().Int64VarP(&askOpts.userID, "user", "u", 0, "business user id the request runs as")
	askCmd.Flags().StringVar(&askOpts.timezone, "tz", "", "IANA time zone of the user (default CHATBOT_DEFAULT_TIMEZONE)")
	askCmd.Flags().BoolVar(&askOpts.json, "json", false, "print the full response as JSON")
	rootCmd.AddCommand(askCmd)
}
