// Package pnl aggregates journal records into profit-and-loss summaries.
package pnl

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/journal"
)

// Summary is the profit and loss of a date range. Amounts are in base currency and unrounded.
type Summary struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	Currency     string          `json:"currency"`
	Revenue      decimal.Decimal `json:"revenue"`
	COGS         decimal.Decimal `json:"cogs"`
	GrossProfit  decimal.Decimal `json:"gross_profit"`
	OtherRevenue decimal.Decimal `json:"other_revenue"`
	OtherExpense decimal.Decimal `json:"other_expense"`
	NetProfit    decimal.Decimal `json:"net_profit"`
	SaleCount    int             `json:"sale_count"`
	EntryCount   int             `json:"entry_count"`
}

// Aggregate folds sales and other entries into a Summary.
func Aggregate(rng journal.Range, currency string, sales []journal.SaleTransaction, others []journal.OtherEntry) Summary {
	s := Summary{
		From:         rng.From,
		To:           rng.To,
		Currency:     currency,
		Revenue:      decimal.Zero,
		COGS:         decimal.Zero,
		OtherRevenue: decimal.Zero,
		OtherExpense: decimal.Zero,
		SaleCount:    len(sales),
		EntryCount:   len(others),
	}
	for _, sale := range sales {
		s.Revenue = s.Revenue.Add(sale.Revenue)
		s.COGS = s.COGS.Add(sale.COGS)
	}
	for _, e := range others {
		switch e.Kind {
		case journal.KindRevenue:
			s.OtherRevenue = s.OtherRevenue.Add(e.Amount)
		case journal.KindExpense:
			s.OtherExpense = s.OtherExpense.Add(e.Amount)
		}
	}
	s.GrossProfit = s.Revenue.Sub(s.COGS)
	s.NetProfit = s.GrossProfit.Add(s.OtherRevenue).Sub(s.OtherExpense)
	return s
}
