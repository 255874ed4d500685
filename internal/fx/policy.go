package fx

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// DefaultBaseCurrency is the reporting currency used when none is configured.
const DefaultBaseCurrency = "EGP"

// Policy describes how foreign-currency costs are normalised into the base currency.
type Policy struct {
	BaseCurrency string
	// RequireForeignRate rejects purchases in a foreign currency that come without a rate.
	RequireForeignRate bool
}

// DefaultPolicy returns the policy used by the point of sale out of the box.
func DefaultPolicy() Policy {
	return Policy{BaseCurrency: DefaultBaseCurrency}
}

func (p Policy) base() string {
	code := strings.ToUpper(strings.TrimSpace(p.BaseCurrency))
	if code == "" {
		return DefaultBaseCurrency
	}
	return code
}

// Validate reports whether the base currency is a known ISO 4217 code.
func (p Policy) Validate() error {
	if _, err := currency.ParseISO(p.base()); err != nil {
		return fmt.Errorf("%w: base %q", ErrInvalidCurrency, p.base())
	}
	return nil
}
