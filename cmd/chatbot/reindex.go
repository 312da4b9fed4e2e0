package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/alphamail/chatbot/pkg/log"
)

var reindexOpts struct {
	full  bool
	since string
}

var reindexCmd = &cobra.Command{
	Use:          "reindex",
	Short:        "Sync the search index with the business database",
	Long:         `Without flags, indexes what changed since the last run. --full and --since ignore the stored watermarks.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()
		logger := log.FromCtx(ctx)

		var since time.Time
		switch {
		case reindexOpts.full && reindexOpts.since != "":
			return fmt.Errorf("--full and --since are mutually exclusive")
		case reindexOpts.since != "":
			t, err := time.Parse(time.RFC3339, reindexOpts.since)
			if err != nil {
				return fmt.Errorf("parse --since: %w", err)
			}
			since = t
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		if !reindexOpts.full && since.IsZero() {
			a.worker.RunOnce(ctx)
			return nil
		}

		start := time.Now()
		n, err := a.indexer.Reindex(ctx, since)
		if err != nil {
			return err
		}
		logger.Info().Int("documents", n).Dur("took", time.Since(start)).Msg("reindex finished")
		return nil
	},
}

func init() {
	reindexCmd.Flags().BoolVar(&reindexOpts.full, "full", false, "reindex every entity")
	reindexCmd.Flags().StringVar(&reindexOpts.since, "since", "", "reindex entities changed after this RFC3339 time")
	rootCmd.AddCommand(reindexCmd)
}
