package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yurifrl/vizbuck/pkg/executors"
	"github.com/yurifrl/vizbuck/pkg/models"
	"github.com/yurifrl/vizbuck/pkg/rollup"
	"github.com/yurifrl/vizbuck/pkg/ynab"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the monthly liquidity and net worth rollup",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
		now := e.importer.Now()
		year, _ := cmd.Flags().GetInt("year")
		if year == 0 {
			year = now.Year()
		}
		month := now.Month()
		if raw, _ := cmd.Flags().GetString("month"); raw != "" {
			m, err := rollup.ParseMonth(raw)
			if err != nil {
				return err
			}
			month = m
		}

		ledger, err := e.importer.Store().Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load ledger: %w", err)
		}
		executors.RenderDashboard(os.Stdout, rollup.Dashboard(year, month, ledger.Assets, ledger.Transactions))
		return nil
	}),
}

const syncDateLayout = "2006-01-02"

var syncCmd = &cobra.Command{
	Use:   "sync-ynab",
	Short: "Mirror stored transactions to a YNAB account",
	Long: `Reconcile stored transactions against the configured YNAB account
(ynab.token, ynab.budget_id, ynab.account_id) and create the missing ones.`,
	Args: cobra.NoArgs,
	RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
		flags := cmd.Flags()
		opts := executors.SyncOptions{
			BudgetID:    e.cfg.YNAB.BudgetID,
			AccountID:   e.cfg.YNAB.AccountID,
			UseCustomID: e.cfg.UseCustomID,
		}
		opts.DryRun, _ = flags.GetBool("dry-run")

		var err error
		if opts.Since, err = parseDateFlag(cmd, "since"); err != nil {
			return err
		}
		if opts.Until, err = parseDateFlag(cmd, "until"); err != nil {
			return err
		}
		if !opts.Until.IsZero() {
			opts.Until = opts.Until.Add(24*time.Hour - time.Nanosecond)
		}
		methods, _ := flags.GetStringSlice("method")
		for _, raw := range methods {
			m, ok := models.ParsePaymentMethod(raw)
			if !ok {
				return fmt.Errorf("unknown payment method %q", raw)
			}
			opts.Methods = append(opts.Methods, m)
		}

		if e.cfg.YNAB.Token == "" {
			return fmt.Errorf("ynab.token is required")
		}
		report, err := e.executor().Sync(cmd.Context(), ynab.New(e.cfg.YNAB.Token), opts)
		if err != nil {
			return err
		}
		if opts.DryRun {
			fmt.Printf("Dry run: %d transaction(s) would be created\n", report.MissingCount())
		}
		return nil
	}),
}

func parseDateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(syncDateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return t, nil
}

func init() {
	dashboardCmd.Flags().Int("year", 0, "Year (default current)")
	dashboardCmd.Flags().String("month", "", "Month name, e.g. March or mar (default current)")

	f := syncCmd.Flags()
	f.String("since", "", "First date to sync (YYYY-MM-DD)")
	f.String("until", "", "Last date to sync (YYYY-MM-DD)")
	f.StringSlice("method", nil, "Only sync these payment methods")
	f.Bool("dry-run", false, "Print the reconciliation without creating anything")
}
