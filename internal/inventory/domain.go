package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/journal"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// StockEpsilon is the tolerance applied when a sale drains the last units.
var StockEpsilon = decimal.New(1, -9)

// Product is the only mutable aggregate: running quantity and weighted-average unit cost.
type Product struct {
	ID        int64           `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Qty       decimal.Decimal `json:"qty"`
	AvgCost   decimal.Decimal `json:"avg_cost"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Value is the inventory valuation of the product in base currency.
func (p Product) Value() decimal.Decimal {
	return p.Qty.Mul(p.AvgCost)
}

// RegisterInput describes a new product.
type RegisterInput struct {
	SKU  string
	Name string
}

// PurchaseInput describes a stock-in request. A zero Date means today.
type PurchaseInput struct {
	ProductID int64
	Date      time.Time
	Qty       decimal.Decimal
	UnitCost  decimal.Decimal
	Currency  string
	Rate      decimal.NullDecimal
	Note      string
	Ref       string
	ActorID   int64
}

// SaleInput describes a stock-out request. A zero Date means today.
type SaleInput struct {
	ProductID int64
	Date      time.Time
	Qty       decimal.Decimal
	UnitPrice decimal.Decimal
	Note      string
	Ref       string
	ActorID   int64
}

// PurchaseResult pairs the journal record with the product state it produced.
type PurchaseResult struct {
	Purchase journal.PurchaseTransaction `json:"purchase"`
	Product  Product                     `json:"product"`
}

// SaleResult pairs the journal record with the product state it produced.
type SaleResult struct {
	Sale    journal.SaleTransaction `json:"sale"`
	Product Product                 `json:"product"`
}

// ValuationLine is one row of the inventory valuation report.
type ValuationLine struct {
	ProductID int64           `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Qty       decimal.Decimal `json:"qty"`
	AvgCost   decimal.Decimal `json:"avg_cost"`
	Value     decimal.Decimal `json:"value"`
}

// Valuation is the inventory valuation report.
type Valuation struct {
	Currency string          `json:"currency"`
	Lines    []ValuationLine `json:"lines"`
	Total    decimal.Decimal `json:"total"`
}

var (
	// ErrProductNotFound indicates an unregistered product.
	ErrProductNotFound = shared.NewError(shared.ErrNotFound, "inventory: product not found")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = shared.NewError(shared.ErrValidation, "inventory: quantity must be > 0")
	// ErrInvalidPrice indicates a negative selling price.
	ErrInvalidPrice = shared.NewError(shared.ErrValidation, "inventory: unit price must be >= 0")
	// ErrInvalidSKU indicates a blank SKU.
	ErrInvalidSKU = shared.NewError(shared.ErrValidation, "inventory: sku required")
	// ErrInvalidRef indicates a reference that is not a UUID.
	ErrInvalidRef = shared.NewError(shared.ErrValidation, "inventory: ref must be a UUID")
	// ErrDuplicateProductKey indicates the SKU is already registered.
	ErrDuplicateProductKey = shared.NewError(shared.ErrConflict, "inventory: sku already registered")
	// ErrInsufficientStock indicates a sale larger than the quantity on hand.
	ErrInsufficientStock = shared.NewError(shared.ErrRejected, "inventory: insufficient stock")
)

// InsufficientStockError carries the quantities of a rejected sale.
type InsufficientStockError struct {
	ProductID int64
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("inventory: insufficient stock for product %d: requested %s, available %s",
		e.ProductID, e.Requested.String(), e.Available.String())
}

// Is matches ErrInsufficientStock and its class.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock || errors.Is(ErrInsufficientStock, target)
}
