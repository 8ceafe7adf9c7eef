package cashflow

import (
	"sort"
	"time"

	"github.com/yurifrl/vizbuck/pkg/models"
)

// MonthKey identifies a calendar month as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthLabel renders a month for display, e.g. "February 2024".
func MonthLabel(t time.Time) string {
	return t.Format("January 2006")
}

// Monthly groups transactions by calendar month and chains balances forward.
// The first month opens at override or base; every later month opens at its
// override or the previous closing balance. Overrides never affect earlier
// months. Adjustment transactions are counted like any other here.
func Monthly(txns []models.ReviewTransaction, base float64, overrides map[string]float64) []models.MonthlyMetric {
	byKey := make(map[string]*models.MonthlyMetric)
	for _, t := range txns {
		if t.Date.IsZero() {
			continue
		}
		key := MonthKey(t.Date)
		m, ok := byKey[key]
		if !ok {
			m = &models.MonthlyMetric{MonthKey: key, Label: MonthLabel(t.Date)}
			byKey[key] = m
		}
		m.TransactionCount++
		if t.Type == models.Credit {
			m.TotalCredits += t.Amount
		} else {
			m.TotalDebits += t.Amount
		}
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.MonthlyMetric, 0, len(keys))
	running := base
	for _, k := range keys {
		m := *byKey[k]
		m.NetChange = m.TotalCredits - m.TotalDebits
		m.OpeningBalance = running
		if v, ok := overrides[k]; ok {
			m.OpeningBalance = v
		}
		m.ClosingBalance = m.OpeningBalance + m.NetChange
		running = m.ClosingBalance
		out = append(out, m)
	}
	return out
}

// FinalClosingBalance is the closing balance of the latest month, or 0.
func FinalClosingBalance(metrics []models.MonthlyMetric) float64 {
	if len(metrics) == 0 {
		return 0
	}
	latest := metrics[0]
	for _, m := range metrics[1:] {
		if m.MonthKey > latest.MonthKey {
			latest = m
		}
	}
	return latest.ClosingBalance
}
