package vectorize

import (
	"fmt"
	"strings"
	"time"

	"github.com/alphamail/chatbot/internal/core"
)

// QuoteAdapter indexes quotes for the whole company.
type QuoteAdapter struct {
	Quote core.Quote
	Zone  *time.Location
}

func (a QuoteAdapter) InZone(loc *time.Location) core.VectorizableEntity {
	a.Zone = loc
	return a
}

func (a QuoteAdapter) ID() string {
	return formatID(a.Quote.ID)
}

func (a QuoteAdapter) DocumentType() core.DocumentType {
	return core.DocumentTypeQuote
}

func (a QuoteAdapter) VectorText() string {
	var l labeledLines
	l.add("견적번호", a.Quote.QuoteNo)
	l.add("거래처명", a.Quote.Client.CorpName)
	l.add("견적일", formatTime(a.Quote.CreatedAt, a.Zone))
	l.add("납품 장소", a.Quote.ShippingAddress)
	l.add("거래처 담당자", a.Quote.Manager)
	l.add("거래처 담당자 연락처", a.Quote.ManagerNumber)

	var total int64
	products := make([]string, 0, len(a.Quote.Products))
	for _, p := range a.Quote.Products {
		products = append(products, fmt.Sprintf("%s %d개 %s", p.Name, p.Count, formatWon(p.Price)))
		total += int64(p.Count) * p.Price
	}
	l.add("품목", strings.Join(products, ", "))
	l.add("합계", formatWon(total))
	return l.String()
}

func (a QuoteAdapter) Metadata() core.DocumentMetadata {
	return core.DocumentMetadata{
		OwnerID:      a.Quote.CompanyID,
		OwnerType:    core.OwnerTypeCompany,
		UserID:       a.Quote.UserID,
		DocumentType: core.DocumentTypeQuote,
		DomainID:     a.Quote.ID,
	}
}
