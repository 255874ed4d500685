package journal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// EntryKind distinguishes non-inventory revenue from expense.
type EntryKind string

const (
	// KindRevenue marks other income such as maintenance or service fees.
	KindRevenue EntryKind = "revenue"
	// KindExpense marks operating costs such as rent or dues.
	KindExpense EntryKind = "expense"
)

// Valid reports whether k is a known kind.
func (k EntryKind) Valid() bool {
	return k == KindRevenue || k == KindExpense
}

// PurchaseTransaction is the immutable record of one stock-in event.
type PurchaseTransaction struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product_id"`
	Date         time.Time       `json:"date"`
	Qty          decimal.Decimal `json:"qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Currency     string          `json:"currency"`
	Rate         decimal.Decimal `json:"rate"`
	UnitCostBase decimal.Decimal `json:"unit_cost_base"`
	TotalBase    decimal.Decimal `json:"total_base"`
	Note         string          `json:"note"`
	Ref          string          `json:"ref,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SaleTransaction is the immutable record of one stock-out event.
type SaleTransaction struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Date      time.Time       `json:"date"`
	Qty       decimal.Decimal `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Revenue   decimal.Decimal `json:"revenue"`
	COGS      decimal.Decimal `json:"cogs"`
	Note      string          `json:"note"`
	Ref       string          `json:"ref,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// OtherEntry is a non-inventory cash event in base currency.
type OtherEntry struct {
	ID        int64           `json:"id"`
	Date      time.Time       `json:"date"`
	Kind      EntryKind       `json:"kind"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
	CreatedAt time.Time       `json:"created_at"`
}

// OtherInput describes a request to record an other entry.
type OtherInput struct {
	Date     time.Time
	Kind     EntryKind
	Category string
	Amount   decimal.Decimal
	Note     string
}

var (
	// ErrInvalidKind indicates a kind other than revenue or expense.
	ErrInvalidKind = shared.NewError(shared.ErrValidation, "journal: kind must be revenue or expense")
	// ErrInvalidAmount indicates a negative amount.
	ErrInvalidAmount = shared.NewError(shared.ErrValidation, "journal: amount must be >= 0")
	// ErrInvalidCategory indicates a blank category label.
	ErrInvalidCategory = shared.NewError(shared.ErrValidation, "journal: category required")
	// ErrInvalidDate indicates a date not formatted YYYY-MM-DD.
	ErrInvalidDate = shared.NewError(shared.ErrValidation, "journal: invalid date")
	// ErrInvalidRange indicates a range whose lower bound is after its upper bound.
	ErrInvalidRange = shared.NewError(shared.ErrValidation, "journal: from date after to date")
)
