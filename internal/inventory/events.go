package inventory

import "time"

// PostingKind names the ledger operation behind a PostedEvent.
type PostingKind string

const (
	// PostingPurchase is a stock-in.
	PostingPurchase PostingKind = "purchase"
	// PostingSale is a stock-out.
	PostingSale PostingKind = "sale"
)

// PostedEvent describes a committed purchase or sale.
type PostedEvent struct {
	Kind          PostingKind
	TransactionID int64
	ProductID     int64
	Date          time.Time
	Qty           string
	Amount        string
	AvgCost       string
}
