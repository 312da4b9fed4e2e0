// Package indexer writes business entities into the document index.
package indexer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/internal/service/vectorize"
	"github.com/alphamail/chatbot/pkg/log"
	"github.com/alphamail/chatbot/pkg/retry"
)

// Entity kind names, also used as watermark keys.
const (
	KindPurchaseOrder = "purchase_order"
	KindQuote         = "quote"
	KindSchedule      = "schedule"
	KindEmail         = "email"
)

type changed struct {
	entity core.VectorizableEntity
	cursor core.Cursor
}

type kind struct {
	name  string
	fetch func(ctx context.Context, after core.Cursor) ([]changed, error)
}

type Indexer struct {
	index   core.DocumentIndex
	source  core.EntitySource
	zone    *time.Location
	retrier *retry.Retrier
}

// NewIndexer returns an indexer. source may be nil when only Index is used.
// Entity times are written into document text in zone; nil means UTC.
func NewIndexer(index core.DocumentIndex, source core.EntitySource, zone *time.Location) *Indexer {
	return &Indexer{
		index:   index,
		source:  source,
		zone:    zone,
		retrier: retry.NewDefaultRetrier(),
	}
}

// Index upserts one entity.
func (i *Indexer) Index(ctx context.Context, e core.VectorizableEntity) error {
	if z, ok := e.(vectorize.Zoned); ok {
		e = z.InZone(i.zone)
	}
	doc := vectorize.ToDocument(e)
	if err := i.index.Upsert(ctx, doc); err != nil {
		return fmt.Errorf("index %s/%s: %w", doc.DocumentType, doc.ID, err)
	}
	return nil
}

// Reindex indexes every entity changed after since and returns how many
// documents were written. Kinds are fetched concurrently; the first failing
// kind cancels the others.
func (i *Indexer) Reindex(ctx context.Context, since time.Time) (int, error) {
	var total atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for _, k := range i.kinds() {
		g.Go(func() error {
			n, _, err := i.syncKind(gctx, k, core.CursorAt(since), true)
			total.Add(int64(n))
			return err
		})
	}
	err := g.Wait()
	return int(total.Load()), err
}

// syncKind indexes changes for k after the cursor. It returns the number of
// documents written and the cursor that is safe to store: every change at
// or before it has been indexed. With drain set it keeps fetching until a
// batch comes back empty.
func (i *Indexer) syncKind(ctx context.Context, k kind, after core.Cursor, drain bool) (int, core.Cursor, error) {
	logger := log.FromCtx(ctx).With().Str("kind", k.name).Logger()
	written := 0
	cursor := after

	for {
		batch, err := k.fetch(ctx, cursor)
		if err != nil {
			return written, cursor, fmt.Errorf("fetch %s changes: %w", k.name, err)
		}
		if len(batch) == 0 {
			return written, cursor, nil
		}

		before := cursor
		for _, c := range batch {
			err := i.retrier.Do(ctx, func(ctx context.Context) error {
				return i.Index(ctx, c.entity)
			})
			if err != nil {
				// batches are ordered by cursor, so the failed entity is the
				// first one fetched next time
				return written, cursor, err
			}
			written++
			if cursor.Less(c.cursor) {
				cursor = c.cursor
			}
		}

		logger.Debug().Int("count", len(batch)).Time("watermark", cursor.UpdatedAt).Int64("watermark_id", cursor.ID).Msg("indexed batch")
		if !drain || !before.Less(cursor) {
			return written, cursor, nil
		}
	}
}

func (i *Indexer) kinds() []kind {
	src := i.source
	return []kind{
		{KindPurchaseOrder, func(ctx context.Context, after core.Cursor) ([]changed, error) {
			rows, err := src.PurchaseOrdersSince(ctx, after)
			return adaptAll(rows, err, func(p core.PurchaseOrder) changed {
				return changed{vectorize.PurchaseOrderAdapter{PO: p}, core.Cursor{UpdatedAt: p.UpdatedAt, ID: p.ID}}
			})
		}},
		{KindQuote, func(ctx context.Context, after core.Cursor) ([]changed, error) {
			rows, err := src.QuotesSince(ctx, after)
			return adaptAll(rows, err, func(q core.Quote) changed {
				return changed{vectorize.QuoteAdapter{Quote: q}, core.Cursor{UpdatedAt: q.UpdatedAt, ID: q.ID}}
			})
		}},
		{KindSchedule, func(ctx context.Context, after core.Cursor) ([]changed, error) {
			rows, err := src.SchedulesSince(ctx, after)
			return adaptAll(rows, err, func(s core.Schedule) changed {
				return changed{vectorize.ScheduleAdapter{Schedule: s}, core.Cursor{UpdatedAt: s.UpdatedAt, ID: s.ID}}
			})
		}},
		{KindEmail, func(ctx context.Context, after core.Cursor) ([]changed, error) {
			rows, err := src.EmailsSince(ctx, after)
			return adaptAll(rows, err, func(e core.Email) changed {
				return changed{vectorize.EmailAdapter{Email: e}, core.Cursor{UpdatedAt: e.UpdatedAt, ID: e.ID}}
			})
		}},
	}
}

func adaptAll[T any](rows []T, err error, adapt func(T) changed) ([]changed, error) {
	if err != nil {
		return nil, err
	}
	out := make([]changed, 0, len(rows))
	for _, r := range rows {
		out = append(out, adapt(r))
	}
	return out, nil
}
