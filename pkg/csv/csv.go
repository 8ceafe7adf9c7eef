package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/yurifrl/vizbuck/pkg/models"
)

type FilterFunc[T any] func(T) bool

// Columns describes how one record becomes a CSV row.
type Columns[T any] struct {
	Header []string
	Row    func(T) []string
}

func Create[T any](records []T, cols Columns[T], filter FilterFunc[T]) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(cols.Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if filter != nil && !filter(r) {
			continue
		}
		if err := w.Write(cols.Row(r)); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func date(t models.ReviewTransaction) string {
	if t.Date.IsZero() {
		return ""
	}
	return t.Date.Format("2006-01-02")
}

// Transactions exports stored ledger entries.
var Transactions = Columns[models.Transaction]{
	Header: []string{"Date", "Description", "Amount", "Type", "Category", "Nature", "Payment Method", "ID"},
	Row: func(t models.Transaction) []string {
		return []string{
			t.Date.Format("2006-01-02"),
			t.Description,
			amount(t.Amount),
			string(t.Type),
			string(t.Category),
			string(t.Nature),
			string(t.PaymentMethod),
			t.ID,
		}
	},
}

// Review exports the rows of an import still under review.
var Review = Columns[models.ReviewTransaction]{
	Header: []string{"Date", "Description", "Amount", "Type", "Category", "Nature"},
	Row: func(t models.ReviewTransaction) []string {
		return []string{
			date(t),
			t.Description,
			amount(t.Amount),
			string(t.Type),
			string(t.Category),
			string(t.Nature),
		}
	},
}
