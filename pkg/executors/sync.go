package executors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yurifrl/vizbuck/pkg/models"
	"github.com/yurifrl/vizbuck/pkg/reconcile"
	"github.com/yurifrl/vizbuck/pkg/ynab"
)

type SyncOptions struct {
	BudgetID    string
	AccountID   string
	Since       time.Time // inclusive, zero for no lower bound
	Until       time.Time // inclusive, zero for no upper bound
	Methods     []models.PaymentMethod
	UseCustomID bool
	DryRun      bool
}

// Sync mirrors stored transactions in the window to a YNAB account, creating
// the ones YNAB does not have yet. With DryRun it only prints the report.
func (e *Executor) Sync(ctx context.Context, remote ynab.Remote, opts SyncOptions) (*reconcile.Report, error) {
	if opts.BudgetID == "" || opts.AccountID == "" {
		return nil, errors.New("ynab budget and account ids are required")
	}

	ledger, err := e.importer.Store().Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	local := window(ledger.Transactions, opts)

	remoteTxs, err := remote.GetTransactionsByAccount(opts.BudgetID, opts.AccountID, opts.Since)
	if err != nil {
		return nil, err
	}

	report := reconcile.Build(local, remoteTxs, opts.UseCustomID)
	e.logger.Debug("processing sync report", "total", len(report.Items), "in_sync", report.InSyncCount(), "to_add", report.MissingCount())
	renderSync(e.out, report)

	if opts.DryRun || report.MissingCount() == 0 {
		return report, nil
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	if err := remote.CreateTransactions(opts.BudgetID, report.Payloads(opts.AccountID)); err != nil {
		return report, err
	}
	e.logger.Info("created transactions", "count", report.MissingCount(), "account_id", opts.AccountID)
	return report, nil
}

func window(txns []models.Transaction, opts SyncOptions) []models.Transaction {
	out := make([]models.Transaction, 0, len(txns))
	for _, t := range txns {
		if t.Nature == models.Adjustment {
			continue
		}
		if !opts.Since.IsZero() && t.Date.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && t.Date.After(opts.Until) {
			continue
		}
		if len(opts.Methods) > 0 && !containsMethod(opts.Methods, t.PaymentMethod) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func containsMethod(methods []models.PaymentMethod, m models.PaymentMethod) bool {
	for _, x := range methods {
		if x == m {
			return true
		}
	}
	return false
}
