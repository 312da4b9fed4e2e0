package vectorize

import (
	"time"

	"github.com/alphamail/chatbot/internal/core"
)

// PurchaseOrderAdapter indexes purchase orders for the whole company.
type PurchaseOrderAdapter struct {
	PO   core.PurchaseOrder
	Zone *time.Location
}

func (a PurchaseOrderAdapter) InZone(loc *time.Location) core.VectorizableEntity {
	a.Zone = loc
	return a
}

func (a PurchaseOrderAdapter) ID() string {
	return formatID(a.PO.ID)
}

func (a PurchaseOrderAdapter) DocumentType() core.DocumentType {
	return core.DocumentTypePurchaseOrder
}

func (a PurchaseOrderAdapter) VectorText() string {
	var l labeledLines
	l.add("발주번호", a.PO.OrderNo)
	l.add("거래처명", a.PO.Client.CorpName)
	l.add("발주일(발주서 등록일)", formatTime(a.PO.CreatedAt, a.Zone))
	l.add("납기일", formatTime(a.PO.DeliverAt, a.Zone))
	l.add("납품 장소", a.PO.ShippingAddress)
	l.add("거래처 담당자", a.PO.Manager)
	l.add("거래처 담당자 연락처", a.PO.ManagerNumber)
	l.add("결제 조건", a.PO.PaymentTerm)
	return l.String()
}

func (a PurchaseOrderAdapter) Metadata() core.DocumentMetadata {
	return core.DocumentMetadata{
		OwnerID:      a.PO.CompanyID,
		OwnerType:    core.OwnerTypeCompany,
		UserID:       a.PO.UserID,
		DocumentType: core.DocumentTypePurchaseOrder,
		DomainID:     a.PO.ID,
	}
}
