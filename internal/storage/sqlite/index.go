package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/pkg/sqlite"
)

// DocumentIndex implements core.DocumentIndex. Scope and document type are
// vec0 metadata columns, so filtering happens inside the KNN scan and a
// query can never rank another tenant's rows.
type DocumentIndex struct {
	db       *sql.DB
	embedder core.Embedder
}

func NewDocumentIndex(ctx context.Context, db *sql.DB, embedder core.Embedder) (*DocumentIndex, error) {
	if err := ensureVecTable(ctx, db, embedder.Dims()); err != nil {
		return nil, err
	}
	return &DocumentIndex{db: db, embedder: embedder}, nil
}

// Upsert replaces any previous version of the document. The replacement gets
// a fresh rowid, which is what ranks it first among equal distances.
func (i *DocumentIndex) Upsert(ctx context.Context, doc core.VectorDocument) error {
	vec, err := i.embedder.EncodePassage(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("embed document %s/%s: %w", doc.DocumentType, doc.ID, err)
	}
	blob, err := sqlite.SerializeFloat32(vec)
	if err != nil {
		return fmt.Errorf("serialize vector: %w", err)
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var oldRowID int64
	err = tx.QueryRowContext(ctx,
		`SELECT row_id FROM documents WHERE document_type = ? AND doc_id = ?`,
		doc.DocumentType, doc.ID,
	).Scan(&oldRowID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("lookup document: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents_vec WHERE rowid = ?`, oldRowID); err != nil {
			return fmt.Errorf("delete old vector: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE row_id = ?`, oldRowID); err != nil {
			return fmt.Errorf("delete old document: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO documents (doc_id, document_type, text, owner_id, owner_type, user_id, domain_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.DocumentType, doc.Text, doc.OwnerID, doc.OwnerType, doc.UserID, doc.DomainID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents_vec (rowid, embedding, document_type, owner_type, owner_id) VALUES (?, ?, ?, ?, ?)`,
		rowID, blob, string(doc.DocumentType), string(doc.OwnerType), doc.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document vector: %w", err)
	}

	return tx.Commit()
}

func (i *DocumentIndex) Query(ctx context.Context, q core.IndexQuery) ([]core.VectorDocument, error) {
	if q.TopK <= 0 {
		return nil, nil
	}

	vec, err := i.embedder.EncodeQuery(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	blob, err := sqlite.SerializeFloat32(vec)
	if err != nil {
		return nil, fmt.Errorf("serialize vector: %w", err)
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT d.doc_id, d.document_type, d.text, d.owner_id, d.owner_type, d.user_id, d.domain_id
		FROM documents_vec v
		JOIN documents d ON d.row_id = v.rowid
		WHERE v.embedding MATCH ?
		  AND k = ?
		  AND v.document_type = ?
		  AND v.owner_type = ?
		  AND v.owner_id = ?
		ORDER BY v.distance, d.row_id DESC`,
		blob, q.TopK, string(q.DocumentType), string(q.Scope.OwnerType), q.Scope.OwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("document search failed: %w", err)
	}
	defer rows.Close()

	var docs []core.VectorDocument
	for rows.Next() {
		var d core.VectorDocument
		var docType, ownerType string
		if err := rows.Scan(&d.ID, &docType, &d.Text, &d.OwnerID, &ownerType, &d.UserID, &d.DomainID); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.DocumentType = core.DocumentType(docType)
		d.OwnerType = core.OwnerType(ownerType)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Count returns how many documents of a type are indexed.
func (i *DocumentIndex) Count(ctx context.Context, docType core.DocumentType) (int, error) {
	var n int
	err := i.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE document_type = ?`, docType).Scan(&n)
	return n, err
}
