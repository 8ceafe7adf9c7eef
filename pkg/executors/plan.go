package executors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/yurifrl/vizbuck/pkg/importer"
	"github.com/yurifrl/vizbuck/pkg/plan"
)

// Preview is the reviewed state of one plan statement before commit.
type Preview struct {
	Statement plan.Statement
	Session   importer.Session
}

// Analyze reads and analyzes every statement in the plan concurrently. The
// plan's opening balance and overrides are applied on top of each analysis.
// Any failing statement fails the whole plan.
func (e *Executor) Analyze(ctx context.Context, p *plan.Plan) ([]Preview, error) {
	previews := make([]Preview, len(p.Statements))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, st := range p.Statements {
		path := p.File(st)
		g.Go(func() error {
			e.logger.Debug("analyzing statement", "file", path)
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read statement %s: %w", path, err)
			}
			s := e.importer.AnalyzeFile(gctx, data, filepath.Base(path), st.PaymentMethod)
			if s.State == importer.Error {
				return fmt.Errorf("statement %s: %s", path, s.Err)
			}
			if s, err = adjust(s, st); err != nil {
				return fmt.Errorf("statement %s: %w", path, err)
			}
			previews[i] = Preview{Statement: st, Session: s}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return previews, nil
}

func adjust(s importer.Session, st plan.Statement) (importer.Session, error) {
	var err error
	if st.OpeningBalance != nil {
		if s, err = s.SetOpeningBalance(*st.OpeningBalance); err != nil {
			return s, err
		}
	}
	for key, v := range st.Overrides {
		if s, err = s.SetOverride(key, v); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Plan prints what Apply would commit without writing anything.
func (e *Executor) Plan(ctx context.Context, p *plan.Plan) ([]Preview, error) {
	previews, err := e.Analyze(ctx, p)
	if err != nil {
		return nil, err
	}
	for _, pv := range previews {
		renderPreview(e.out, pv)
	}
	return previews, nil
}
