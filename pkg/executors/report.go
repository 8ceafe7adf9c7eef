package executors

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/yurifrl/vizbuck/pkg/models"
	"github.com/yurifrl/vizbuck/pkg/reconcile"
	"github.com/yurifrl/vizbuck/pkg/rollup"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	creditStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	debitStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
)

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func renderPreview(w io.Writer, pv Preview) {
	s := pv.Session
	target := pv.Statement.AssetID
	if target == "" {
		target = "new account " + pv.Statement.NewAssetName
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s -> %s", pv.Statement.File, target)))
	if s.Classification.Fallback {
		fmt.Fprintln(w, warnStyle.Render("! classification skipped: "+s.Classification.Reason))
	}

	RenderMetrics(w, s.Metrics)
	for _, t := range s.Transactions {
		RenderReviewLine(w, t)
	}
	fmt.Fprintf(w, "\nPlan: %d transaction(s) will be added, %d row(s) skipped\n\n", len(s.Transactions), s.SkippedRows)
}

// RenderMetrics prints the monthly balance table of a review.
func RenderMetrics(w io.Writer, metrics []models.MonthlyMetric) {
	for _, m := range metrics {
		line := fmt.Sprintf("%-15s | %3d txns | open %12s | +%12s | -%12s | close %12s",
			m.Label, m.TransactionCount, money(m.OpeningBalance), money(m.TotalCredits), money(m.TotalDebits), money(m.ClosingBalance))
		fmt.Fprintln(w, mutedStyle.Render(line))
	}
}

func RenderReviewLine(w io.Writer, t models.ReviewTransaction) {
	date := "----------"
	if !t.Date.IsZero() {
		date = t.Date.Format("2006-01-02")
	}
	line := fmt.Sprintf("%s | %-30s | %-25s | %s", date, clip(t.Description, 30), t.Category, money(t.Amount))
	if t.Type == models.Credit {
		fmt.Fprintln(w, creditStyle.Render("+ "+line))
		return
	}
	fmt.Fprintln(w, debitStyle.Render("- "+line))
}

// RenderDashboard prints a month summary.
func RenderDashboard(w io.Writer, s rollup.Summary) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s %d", s.Month, s.Year)))
	rows := []struct {
		name string
		flow rollup.Flow
	}{
		{"Bank", s.Current.Bank},
		{"Cash", s.Current.Cash},
		{"Credit", s.Current.Credit},
		{"Receivable", s.Current.Receivable},
		{"Liquidity", s.Liquidity},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-10s | open %12s | in %12s | out %12s | close %12s\n",
			r.name, money(r.flow.Opening), money(r.flow.Inflow), money(r.flow.Outflow), money(r.flow.Closing))
	}
	change := s.LiquidityChange.Closing
	style := creditStyle
	if change < 0 {
		style = debitStyle
	}
	fmt.Fprintln(w, style.Render(fmt.Sprintf("Liquidity vs previous month: %.1f%%", change)))
	fmt.Fprintf(w, "Reserves %s | Net worth %s | %d transaction(s)\n", money(s.TotalReserves), money(s.NetWorth), len(s.MonthTransactions))
}

func renderSync(w io.Writer, report *reconcile.Report) {
	for _, m := range report.Items {
		line := fmt.Sprintf("%s | %-30s | %s | %s", m.Local.Date.Format("2006-01-02"), clip(m.Local.Description, 30), m.Local.ID, money(m.Local.Signed()))
		if m.Status == reconcile.Synced {
			fmt.Fprintln(w, mutedStyle.Render("= "+line))
			continue
		}
		fmt.Fprintln(w, creditStyle.Render("+ "+line))
	}

	if report.MissingCount() == 0 {
		fmt.Fprintf(w, "\nPlan: All %d transaction(s) are in sync\n", report.InSyncCount())
	} else {
		fmt.Fprintf(w, "\nPlan: %d transaction(s) will be added, %d already in sync\n", report.MissingCount(), report.InSyncCount())
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
