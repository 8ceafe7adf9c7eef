package executors

import (
	"context"
	"fmt"

	"github.com/yurifrl/vizbuck/pkg/importer"
	"github.com/yurifrl/vizbuck/pkg/plan"
)

// Apply analyzes the whole plan first, then commits statements in plan order.
// Each commit reloads the ledger, so a later statement sees the assets an
// earlier one created.
func (e *Executor) Apply(ctx context.Context, p *plan.Plan) ([]importer.Result, error) {
	e.logger.Debug("applying plan", "statements", len(p.Statements))

	previews, err := e.Analyze(ctx, p)
	if err != nil {
		return nil, err
	}

	results := make([]importer.Result, 0, len(previews))
	for _, pv := range previews {
		done, err := e.importer.Commit(ctx, pv.Session, pv.Statement.Target())
		if err != nil {
			return results, fmt.Errorf("failed to commit %s: %w", pv.Statement.File, err)
		}
		e.logger.Info("committed statement", "file", pv.Statement.File, "asset", done.Result.AssetID, "transactions", done.Result.Imported)
		fmt.Fprintf(e.out, "%s -> %s: %d transaction(s), closing %s\n",
			pv.Statement.File, done.Result.AssetID, done.Result.Imported, money(done.Result.ClosingBalance))
		results = append(results, *done.Result)
	}
	return results, nil
}
