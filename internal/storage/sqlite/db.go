// Package sqlite is the embedded document index: document rows in a plain
// table, embeddings in a sqlite-vec vec0 table keyed by the same rowid.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/alphamail/chatbot/pkg/log"
	"github.com/alphamail/chatbot/pkg/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// goose keeps its FS and dialect in package globals.
var gooseMu sync.Mutex

func NewDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open(sqlite.DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A :memory: database lives on a single connection; files get one writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(log.NewGooseLoggerFromCtx(ctx))

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}

// ensureVecTable creates the vec0 table for dims, or checks that an
// existing one was built with the same width. The width cannot live in a
// migration because it depends on the configured embedding model.
func ensureVecTable(ctx context.Context, db *sql.DB, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dims)
	}

	var stored string
	err := db.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = 'dims'`).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("read index dims: %w", err)
	default:
		if stored != strconv.Itoa(dims) {
			return fmt.Errorf("index was built with %s dimensions, embedder produces %d: run reindex with a fresh index file", stored, dims)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ddl := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS documents_vec USING vec0(
		embedding float[%d] distance_metric=cosine,
		document_type text,
		owner_type text,
		owner_id integer
	)`, dims)
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create vec table: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO index_meta (key, value) VALUES ('dims', ?) ON CONFLICT(key) DO NOTHING`,
		strconv.Itoa(dims),
	); err != nil {
		return fmt.Errorf("store index dims: %w", err)
	}
	return tx.Commit()
}
