package fx

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

var (
	// ErrInvalidRate signals a supplied exchange rate that is not a positive number.
	ErrInvalidRate = shared.NewError(shared.ErrValidation, "fx: exchange rate must be > 0")
	// ErrInvalidUnitCost signals a negative unit cost.
	ErrInvalidUnitCost = shared.NewError(shared.ErrValidation, "fx: unit cost must be >= 0")
	// ErrInvalidCurrency signals a currency code outside ISO 4217.
	ErrInvalidCurrency = shared.NewError(shared.ErrValidation, "fx: unknown currency code")
)

// Conversion is the result of normalising a unit cost into the base currency.
type Conversion struct {
	Currency     string
	Rate         decimal.Decimal
	UnitCost     decimal.Decimal
	UnitCostBase decimal.Decimal
}

// Converter turns foreign-currency unit costs into base-currency unit costs.
type Converter struct {
	policy Policy
}

// NewConverter constructs a converter bound to the policy.
func NewConverter(policy Policy) *Converter {
	return &Converter{policy: policy}
}

// BaseCurrency returns the ISO code every amount is normalised into.
func (c *Converter) BaseCurrency() string {
	if c == nil {
		return DefaultBaseCurrency
	}
	return c.policy.base()
}

// ToBase multiplies unitCost by rate. An absent rate counts as parity; a supplied
// rate must be strictly positive. No rounding is applied.
func (c *Converter) ToBase(unitCost decimal.Decimal, code string, rate decimal.NullDecimal) (Conversion, error) {
	if unitCost.IsNegative() {
		return Conversion{}, ErrInvalidUnitCost
	}
	cur, err := c.NormalizeCurrency(code)
	if err != nil {
		return Conversion{}, err
	}
	applied := decimal.NewFromInt(1)
	switch {
	case rate.Valid:
		if !rate.Decimal.IsPositive() {
			return Conversion{}, ErrInvalidRate
		}
		applied = rate.Decimal
	case c != nil && c.policy.RequireForeignRate && cur != c.BaseCurrency():
		return Conversion{}, fmt.Errorf("%w: rate required for %s", ErrInvalidRate, cur)
	}
	return Conversion{
		Currency:     cur,
		Rate:         applied,
		UnitCost:     unitCost,
		UnitCostBase: unitCost.Mul(applied),
	}, nil
}

// NormalizeCurrency upper-cases and validates an ISO 4217 code. Empty means base.
func (c *Converter) NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return c.BaseCurrency(), nil
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return unit.String(), nil
}
