package journal

import "context"

// Writer appends journal records. Implementations run inside the caller's unit of work.
type Writer interface {
	InsertPurchase(ctx context.Context, p PurchaseTransaction) (int64, error)
	InsertSale(ctx context.Context, s SaleTransaction) (int64, error)
	InsertOther(ctx context.Context, e OtherEntry) (int64, error)
}

// Reader lists journal records inside a date range, newest date first.
type Reader interface {
	ListPurchases(ctx context.Context, r Range) ([]PurchaseTransaction, error)
	ListSales(ctx context.Context, r Range) ([]SaleTransaction, error)
	ListOthers(ctx context.Context, r Range) ([]OtherEntry, error)
}

// Store is the full journal persistence contract.
type Store interface {
	Reader
	Writer
}
