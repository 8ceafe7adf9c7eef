package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yurifrl/vizbuck/pkg/csv"
	"github.com/yurifrl/vizbuck/pkg/models"
)

const filterDateLayout = "2006/01/02"

type filters struct {
	startDate   string
	endDate     string
	minAmount   float64
	maxAmount   float64
	description string
	method      string
}

var listFilters filters

// toFilterFunc parses the flag values once. Bounds are inclusive and the end
// date covers the whole day.
func (f *filters) toFilterFunc() (csv.FilterFunc[models.Transaction], error) {
	var start, end time.Time
	var err error
	if f.startDate != "" {
		if start, err = time.Parse(filterDateLayout, f.startDate); err != nil {
			return nil, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if f.endDate != "" {
		if end, err = time.Parse(filterDateLayout, f.endDate); err != nil {
			return nil, fmt.Errorf("invalid --end: %w", err)
		}
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	var method models.PaymentMethod
	if f.method != "" {
		m, ok := models.ParsePaymentMethod(f.method)
		if !ok {
			return nil, fmt.Errorf("unknown payment method %q", f.method)
		}
		method = m
	}
	needle := strings.ToLower(f.description)

	return func(t models.Transaction) bool {
		if !start.IsZero() && t.Date.Before(start) {
			return false
		}
		if !end.IsZero() && t.Date.After(end) {
			return false
		}
		if f.minAmount != 0 && t.Amount < f.minAmount {
			return false
		}
		if f.maxAmount != 0 && t.Amount > f.maxAmount {
			return false
		}
		if needle != "" && !strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
		if method != "" && t.PaymentMethod != method {
			return false
		}
		return true
	}, nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Export stored transactions as CSV",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
		filter, err := listFilters.toFilterFunc()
		if err != nil {
			return err
		}
		ledger, err := e.importer.Store().Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load ledger: %w", err)
		}

		txns := ledger.Transactions
		sort.SliceStable(txns, func(i, j int) bool {
			return txns[i].Date.Before(txns[j].Date)
		})

		out, err := csv.Create(txns, csv.Transactions, filter)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}),
}

func init() {
	f := listCmd.Flags()
	f.StringVar(&listFilters.startDate, "start", "", "Start date (YYYY/MM/DD)")
	f.StringVar(&listFilters.endDate, "end", "", "End date (YYYY/MM/DD)")
	f.Float64Var(&listFilters.minAmount, "min", 0, "Minimum amount")
	f.Float64Var(&listFilters.maxAmount, "max", 0, "Maximum amount")
	f.StringVar(&listFilters.description, "description", "", "Filter by description (case insensitive)")
	f.StringVar(&listFilters.method, "method", "", "Filter by payment method")
}
