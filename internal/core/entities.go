package core

import "time"

// Business entity snapshots. They are read from the business database and
// handed to the vectorize adapters; the pipeline never writes them back
// except through ScheduleRepository.

type Client struct {
	ID       int64
	CorpName string
}

type PurchaseOrder struct {
	ID              int64
	CompanyID       int64
	UserID          int64
	OrderNo         string
	Client          Client
	CreatedAt       time.Time
	DeliverAt       time.Time
	ShippingAddress string
	Manager         string
	ManagerNumber   string
	PaymentTerm     string
	UpdatedAt       time.Time
}

type QuoteProduct struct {
	Name  string
	Count int
	Price int64
}

type Quote struct {
	ID              int64
	CompanyID       int64
	UserID          int64
	QuoteNo         string
	Client          Client
	CreatedAt       time.Time
	ShippingAddress string
	Manager         string
	ManagerNumber   string
	Products        []QuoteProduct
	UpdatedAt       time.Time
}

type Schedule struct {
	ID          int64
	UserID      int64
	Name        string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Completed   bool
	UpdatedAt   time.Time
}

type Email struct {
	ID         int64
	UserID     int64
	Sender     string
	Recipients []string
	Subject    string
	BodyText   string
	BodyHTML   string
	ReceivedAt time.Time
	UpdatedAt  time.Time
}
