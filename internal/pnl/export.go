package pnl

import (
	"encoding/csv"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/journal"
)

// WriteCSV serialises the summary as metric/value rows with unrounded amounts.
func WriteCSV(w io.Writer, s Summary) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	records := [][]string{
		{"Metric", "Value"},
		{"From", formatBound(s.From)},
		{"To", formatBound(s.To)},
		{"Currency", s.Currency},
		{"Revenue", s.Revenue.String()},
		{"COGS", s.COGS.String()},
		{"Gross Profit", s.GrossProfit.String()},
		{"Other Revenue", s.OtherRevenue.String()},
		{"Other Expense", s.OtherExpense.String()},
		{"Net Profit", s.NetProfit.String()},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Render writes a human-readable report, amounts formatted in the summary currency.
func Render(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	lines := []struct {
		label string
		value decimal.Decimal
	}{
		{"Revenue", s.Revenue},
		{"COGS", s.COGS},
		{"Gross Profit", s.GrossProfit},
		{"Other Revenue", s.OtherRevenue},
		{"Other Expense", s.OtherExpense},
		{"Net Profit", s.NetProfit},
	}
	if _, err := fmt.Fprintf(tw, "Period\t%s .. %s\t\n", formatBound(s.From), formatBound(s.To)); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t\n", line.label, FormatAmount(line.value, s.Currency)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// FormatAmount rounds value to the currency's minor unit and formats it with its symbol.
func FormatAmount(value decimal.Decimal, code string) string {
	cur := money.New(0, code).Currency()
	minor := value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return t.Format(journal.DateLayout)
}
