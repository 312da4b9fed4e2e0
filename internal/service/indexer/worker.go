package indexer

import (
	"context"
	"sync"
	"time"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/pkg/log"
)

const DefaultInterval = 5 * time.Minute

// WatermarkStore persists the last indexed change per entity kind.
type WatermarkStore interface {
	Get(ctx context.Context, kind string) (core.Cursor, error)
	Set(ctx context.Context, kind string, at core.Cursor) error
}

// Worker keeps the index in step with the business database. It runs once
// on start and then every interval.
type Worker struct {
	indexer    *Indexer
	watermarks WatermarkStore
	interval   time.Duration
}

func NewWorker(indexer *Indexer, watermarks WatermarkStore, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Worker{
		indexer:    indexer,
		watermarks: watermarks,
		interval:   interval,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	ctx = log.WithComponent(ctx, "reindex_worker")
	logger := log.FromCtx(ctx)
	logger.Info().Dur("interval", w.interval).Msg("starting reindex worker")

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down reindex worker")
			return nil
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

func (w *Worker) Shutdown(ctx context.Context) error {
	return nil
}

// RunOnce syncs every entity kind concurrently. A failing kind is logged and
// retried on the next tick without holding back the others.
func (w *Worker) RunOnce(ctx context.Context) {
	var wg sync.WaitGroup
	for _, k := range w.indexer.kinds() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.syncKind(ctx, k)
		}()
	}
	wg.Wait()
}

func (w *Worker) syncKind(ctx context.Context, k kind) {
	logger := log.FromCtx(ctx).With().Str("kind", k.name).Logger()

	since, err := w.watermarks.Get(ctx, k.name)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read watermark")
		return
	}

	n, watermark, syncErr := w.indexer.syncKind(ctx, k, since, true)
	if syncErr != nil {
		logger.Error().Err(syncErr).Int("indexed", n).Msg("reindex failed")
	}

	if since.Less(watermark) {
		if err := w.watermarks.Set(ctx, k.name, watermark); err != nil {
			logger.Error().Err(err).Msg("failed to store watermark")
			return
		}
	}
	if n > 0 {
		logger.Info().Int("indexed", n).Time("watermark", watermark.UpdatedAt).Int64("watermark_id", watermark.ID).Msg("reindexed changes")
	}
}
