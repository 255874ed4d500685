package inventory

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-erp/odyssey-pos/internal/journal"
)

// WriteValuationCSV writes one row per product followed by the grand total.
func WriteValuationCSV(w io.Writer, v Valuation) error {
	writer := csv.NewWriter(w)
	header := []string{"ID", "SKU", "Name", "Qty", "AvgCost(" + v.Currency + ")", "Value(" + v.Currency + ")"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, line := range v.Lines {
		record := []string{
			strconv.FormatInt(line.ProductID, 10),
			line.SKU,
			line.Name,
			line.Qty.String(),
			line.AvgCost.String(),
			line.Value.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"", "", "Total", "", "", v.Total.String()}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// ProductLabels maps every product ID to its SKU and name for journal reports.
func (s *Service) ProductLabels(ctx context.Context) (map[int64]journal.ProductLabel, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	labels := make(map[int64]journal.ProductLabel, len(products))
	for _, p := range products {
		labels[p.ID] = journal.ProductLabel{SKU: p.SKU, Name: p.Name}
	}
	return labels, nil
}
