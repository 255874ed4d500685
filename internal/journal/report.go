package journal

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ProductLabel names a product in reports.
type ProductLabel struct {
	SKU  string
	Name string
}

// ProductDirectory resolves product IDs to labels for report rows.
type ProductDirectory interface {
	ProductLabels(ctx context.Context) (map[int64]ProductLabel, error)
}

// PurchaseLine is a purchase record joined with its product.
type PurchaseLine struct {
	PurchaseTransaction
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// SaleLine is a sale record joined with its product.
type SaleLine struct {
	SaleTransaction
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

func (s *Service) labels(ctx context.Context) (map[int64]ProductLabel, error) {
	if s.products == nil {
		return map[int64]ProductLabel{}, nil
	}
	labels, err := s.products.ProductLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("journal: product labels: %w", err)
	}
	return labels, nil
}

// WritePurchasesCSV writes the purchase report as CSV with unrounded amounts.
func WritePurchasesCSV(w io.Writer, lines []PurchaseLine, currency string) error {
	return writeCSV(w,
		[]string{"ID", "SKU", "Name", "Date", "Qty", "UnitCost", "Currency", "Rate", "UnitCost(" + currency + ")", "Total(" + currency + ")", "Notes"},
		len(lines), func(i int) []string {
			l := lines[i]
			return []string{
				strconv.FormatInt(l.ID, 10), l.SKU, l.Name, l.Date.Format(DateLayout),
				l.Qty.String(), l.UnitCost.String(), l.Currency, l.Rate.String(),
				l.UnitCostBase.String(), l.TotalBase.String(), l.Note,
			}
		})
}

// WriteSalesCSV writes the sales report as CSV with unrounded amounts.
func WriteSalesCSV(w io.Writer, lines []SaleLine, currency string) error {
	return writeCSV(w,
		[]string{"ID", "SKU", "Name", "Date", "Qty", "UnitPrice", "Total(" + currency + ")", "COGS(" + currency + ")", "Notes"},
		len(lines), func(i int) []string {
			l := lines[i]
			return []string{
				strconv.FormatInt(l.ID, 10), l.SKU, l.Name, l.Date.Format(DateLayout),
				l.Qty.String(), l.UnitPrice.String(), l.Revenue.String(), l.COGS.String(), l.Note,
			}
		})
}

// WriteOthersCSV writes other entries as CSV.
func WriteOthersCSV(w io.Writer, entries []OtherEntry, currency string) error {
	return writeCSV(w,
		[]string{"ID", "Date", "Type", "Category", "Amount(" + currency + ")", "Notes"},
		len(entries), func(i int) []string {
			e := entries[i]
			return []string{
				strconv.FormatInt(e.ID, 10), e.Date.Format(DateLayout), string(e.Kind), e.Category, e.Amount.String(), e.Note,
			}
		})
}

func writeCSV(w io.Writer, header []string, n int, row func(int) []string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := writer.Write(row(i)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
