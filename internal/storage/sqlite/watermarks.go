package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alphamail/chatbot/internal/core"
)

// WatermarkStore remembers, per entity kind, the newest change the reindex
// worker has indexed.
type WatermarkStore struct {
	db *sql.DB
}

func NewWatermarkStore(db *sql.DB) *WatermarkStore {
	return &WatermarkStore{db: db}
}

// Get returns the zero cursor for kinds never synced.
func (s *WatermarkStore) Get(ctx context.Context, entity string) (core.Cursor, error) {
	var c core.Cursor
	err := s.db.QueryRowContext(ctx,
		`SELECT synced_at, synced_id FROM reindex_watermarks WHERE entity = ?`, entity,
	).Scan(&c.UpdatedAt, &c.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Cursor{}, nil
	}
	if err != nil {
		return core.Cursor{}, fmt.Errorf("read watermark %s: %w", entity, err)
	}
	return c, nil
}

func (s *WatermarkStore) Set(ctx context.Context, entity string, at core.Cursor) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reindex_watermarks (entity, synced_at, synced_id) VALUES (?, ?, ?)
		 ON CONFLICT(entity) DO UPDATE SET synced_at = excluded.synced_at, synced_id = excluded.synced_id`,
		entity, at.UpdatedAt.UTC(), at.ID,
	)
	if err != nil {
		return fmt.Errorf("write watermark %s: %w", entity, err)
	}
	return nil
}
