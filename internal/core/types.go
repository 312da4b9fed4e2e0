package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	AppName      = "chatbot"
	AppUserAgent = "alphamail-chatbot/0.1"
	AppVersion   = "0.1.0"
)

// Category is the intent assigned to a user message.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryCreateSchedule
	CategorySearchSchedule
	CategorySearchPurchaseOrder
	CategorySearchQuote
)

func (c Category) String() string {
	switch c {
	case CategoryCreateSchedule:
		return "CREATE_SCHEDULE"
	case CategorySearchSchedule:
		return "SEARCH_SCHEDULE"
	case CategorySearchPurchaseOrder:
		return "SEARCH_PURCHASE_ORDER"
	case CategorySearchQuote:
		return "SEARCH_QUOTE"
	case CategoryUnknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// DocumentType is the search target a category maps to. Search categories
// only; CategoryCreateSchedule and CategoryUnknown return false.
func (c Category) DocumentType() (DocumentType, bool) {
	switch c {
	case CategorySearchSchedule:
		return DocumentTypeSchedule, true
	case CategorySearchPurchaseOrder:
		return DocumentTypePurchaseOrder, true
	case CategorySearchQuote:
		return DocumentTypeQuote, true
	default:
		return "", false
	}
}

// ClassificationResult is produced once per request. Message is the
// residual request text and is empty only for CategoryUnknown.
type ClassificationResult struct {
	Category Category
	Message  string
}

type DocumentType string

const (
	DocumentTypeSchedule      DocumentType = "SCHEDULE"
	DocumentTypePurchaseOrder DocumentType = "PURCHASE_ORDER"
	DocumentTypeQuote         DocumentType = "QUOTE"
	DocumentTypeEmail         DocumentType = "EMAIL"
)

// ParseDocumentType accepts the wire names above, case-insensitively.
func ParseDocumentType(s string) (DocumentType, error) {
	for _, dt := range []DocumentType{DocumentTypeSchedule, DocumentTypePurchaseOrder, DocumentTypeQuote, DocumentTypeEmail} {
		if strings.EqualFold(string(dt), strings.TrimSpace(s)) {
			return dt, nil
		}
	}
	return "", fmt.Errorf("unknown document type %q", s)
}

// OwnerType says which identifier OwnerID holds.
type OwnerType string

const (
	OwnerTypeUser    OwnerType = "USER"
	OwnerTypeCompany OwnerType = "COMPANY"
)

// OwnerScope is the tenant boundary of a query or document.
type OwnerScope struct {
	OwnerID   int64
	OwnerType OwnerType
}

func (s OwnerScope) String() string {
	return fmt.Sprintf("%s:%d", s.OwnerType, s.OwnerID)
}

// Contains reports whether a document with the given metadata belongs to s.
func (s OwnerScope) Contains(doc VectorDocument) bool {
	return doc.OwnerID == s.OwnerID && doc.OwnerType == s.OwnerType
}

// DocumentMetadata accompanies every indexed document.
type DocumentMetadata struct {
	OwnerID      int64
	OwnerType    OwnerType
	UserID       int64
	DocumentType DocumentType
	DomainID     int64
}

// VectorDocument is one indexed unit. ID is unique within DocumentType.
type VectorDocument struct {
	ID           string
	DocumentType DocumentType
	Text         string
	OwnerID      int64
	OwnerType    OwnerType
	UserID       int64
	DomainID     int64
}

func (d VectorDocument) Scope() OwnerScope {
	return OwnerScope{OwnerID: d.OwnerID, OwnerType: d.OwnerType}
}

// RetrievalQuery is built by the orchestrator. Scope always comes from the
// authenticated caller, never from message content.
type RetrievalQuery struct {
	DocumentType DocumentType
	Scope        OwnerScope
	UserID       int64
	QueryText    string
	TopK         int
	Timezone     string
}

// IndexQuery is what a DocumentIndex filters and ranks by.
type IndexQuery struct {
	DocumentType DocumentType
	Scope        OwnerScope
	Text         string
	TopK         int
}

// ExtractedSchedule holds whatever the model could extract. Nil means the
// field is unknown.
type ExtractedSchedule struct {
	Name        *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
}

// Complete reports whether the fields a schedule cannot exist without are set.
func (s ExtractedSchedule) Complete() bool {
	return s.Name != nil && *s.Name != "" && s.StartTime != nil
}

// ChatRequest is the boundary input. The caller identity travels separately.
type ChatRequest struct {
	Message  string `json:"message"`
	Timezone string `json:"timezone"`
}

type ResponseKind string

const (
	ResponseDefault ResponseKind = "default"
	ResponseSearch  ResponseKind = "search"
	ResponseCreate  ResponseKind = "create"
)

type ChatResponse struct {
	Kind        ResponseKind `json:"type"`
	Answer      string       `json:"answer"`
	DocumentIDs []string     `json:"document_ids,omitempty"`
	ScheduleID  int64        `json:"schedule_id,omitempty"`
}
