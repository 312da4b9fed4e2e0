// Package vectorize adapts business entities to core.VectorizableEntity.
//
// Texts are Korean labeled lines with fixed formatting: the same entity
// always yields the same text, so re-indexing is idempotent.
package vectorize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alphamail/chatbot/internal/core"
)

const timeLayout = "2006-01-02 15:04"

// ToDocument builds the index document for e.
func ToDocument(e core.VectorizableEntity) core.VectorDocument {
	meta := e.Metadata()
	return core.VectorDocument{
		ID:           e.ID(),
		DocumentType: e.DocumentType(),
		Text:         e.VectorText(),
		OwnerID:      meta.OwnerID,
		OwnerType:    meta.OwnerType,
		UserID:       meta.UserID,
		DomainID:     meta.DomainID,
	}
}

type labeledLines struct {
	b strings.Builder
}

func (l *labeledLines) add(label, value string) {
	l.b.WriteString(label)
	l.b.WriteString(": ")
	l.b.WriteString(strings.TrimSpace(value))
	l.b.WriteByte('\n')
}

func (l *labeledLines) String() string {
	return l.b.String()
}

// Zoned adapters render their times in a fixed zone, so the same instant
// yields the same text whichever path loaded it. A nil zone means UTC.
type Zoned interface {
	InZone(loc *time.Location) core.VectorizableEntity
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(timeLayout)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatWon(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out) + "원"
	}
	return string(out) + "원"
}

// Adapt picks the adapter for a known entity value.
func Adapt(entity any) (core.VectorizableEntity, error) {
	switch e := entity.(type) {
	case core.PurchaseOrder:
		return PurchaseOrderAdapter{PO: e}, nil
	case core.Quote:
		return QuoteAdapter{Quote: e}, nil
	case core.Schedule:
		return ScheduleAdapter{Schedule: e}, nil
	case core.Email:
		return EmailAdapter{Email: e}, nil
	default:
		return nil, fmt.Errorf("no vector adapter for %T", entity)
	}
}
