package core

import (
	"context"
	"math"
	"time"
)

// DocumentIndex stores VectorDocuments and answers filtered similarity
// queries. Query returns at most TopK documents matching DocumentType and
// Scope exactly, by descending similarity; ties go to the most recent upsert.
type DocumentIndex interface {
	Upsert(ctx context.Context, doc VectorDocument) error
	Query(ctx context.Context, q IndexQuery) ([]VectorDocument, error)
}

// VectorizableEntity is the capability a business entity needs to be indexed.
type VectorizableEntity interface {
	ID() string
	DocumentType() DocumentType
	VectorText() string
	Metadata() DocumentMetadata
}

// Directory resolves the user → group → company chain.
type Directory interface {
	ResolveCompanyForUser(ctx context.Context, userID int64) (int64, error)
}

// ScheduleCreator persists an extracted schedule and returns its id.
type ScheduleCreator interface {
	Create(ctx context.Context, s ExtractedSchedule, userID int64) (int64, error)
}

type ScheduleRepository interface {
	InsertSchedule(ctx context.Context, s Schedule) (int64, error)
	GetSchedule(ctx context.Context, id, userID int64) (Schedule, error)
}

// Cursor is a position in change order. Rows sort by (UpdatedAt, ID), so
// rows sharing one timestamp still have a total order.
type Cursor struct {
	UpdatedAt time.Time
	ID        int64
}

// CursorAt positions after every row changed at or before t.
func CursorAt(t time.Time) Cursor {
	return Cursor{UpdatedAt: t, ID: math.MaxInt64}
}

// Less reports whether c sorts before o.
func (c Cursor) Less(o Cursor) bool {
	if !c.UpdatedAt.Equal(o.UpdatedAt) {
		return c.UpdatedAt.Before(o.UpdatedAt)
	}
	return c.ID < o.ID
}

// EntitySource lists business entities positioned after a cursor, in
// cursor order.
type EntitySource interface {
	PurchaseOrdersSince(ctx context.Context, after Cursor) ([]PurchaseOrder, error)
	QuotesSince(ctx context.Context, after Cursor) ([]Quote, error)
	SchedulesSince(ctx context.Context, after Cursor) ([]Schedule, error)
	EmailsSince(ctx context.Context, after Cursor) ([]Email, error)
}
