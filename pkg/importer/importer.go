// Package importer runs the two-phase statement import: analyze a file into
// a reviewable session, let the caller edit it, then commit it to the ledger
// in one write.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/yurifrl/vizbuck/pkg/classify"
	"github.com/yurifrl/vizbuck/pkg/models"
	"github.com/yurifrl/vizbuck/pkg/parser"
	"github.com/yurifrl/vizbuck/pkg/store"
	"github.com/yurifrl/vizbuck/pkg/telemetry"
)

// Importer is decoupled from CLI and HTTP details so both layers share it.
type Importer struct {
	logger     *log.Logger
	parser     *parser.Parser
	classifier classify.Classifier
	store      store.Store
	metrics    *telemetry.Metrics
	now        func() time.Time
	newID      func() string

	// commitMu serializes load-finalize-save so concurrent commits never
	// write over each other's batch.
	commitMu sync.Mutex
}

type Option func(*Importer)

func WithMetrics(m *telemetry.Metrics) Option {
	return func(i *Importer) { i.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(i *Importer) { i.now = now }
}

func WithIDs(newID func() string) Option {
	return func(i *Importer) { i.newID = newID }
}

// New returns an Importer. A nil classifier leaves every record on its
// extraction defaults.
func New(logger *log.Logger, st store.Store, c classify.Classifier, opts ...Option) *Importer {
	i := &Importer{
		logger:     logger,
		parser:     parser.New(logger),
		classifier: c,
		store:      st,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

func (i *Importer) Now() time.Time {
	return i.now()
}

func (i *Importer) Store() store.Store {
	return i.store
}

// Analyze parses data and classifies the rows. s must be in the analyzing
// state. Failures come back as an error-state session rather than an error,
// so the caller can show the message and let the user retry.
func (i *Importer) Analyze(ctx context.Context, s Session, data []byte) Session {
	if s.State != Analyzing {
		return s.fail(fmt.Errorf("%w: cannot analyze from %s", ErrInvalidTransition, s.State))
	}

	st, err := i.parser.ProcessBytes(data, s.Filename)
	if st != nil {
		for _, sk := range st.Skipped {
			i.metrics.RecordSkippedRow(string(sk.Reason))
		}
	}
	if err != nil {
		i.logger.Warn("failed to analyze statement", "filename", s.Filename, "error", err)
		i.metrics.RecordImport(telemetry.OutcomeError)
		return s.fail(err)
	}

	records, outcome := classify.Apply(ctx, i.classifier, st.Records)
	if outcome.Fallback {
		i.logger.Warn("classification fell back to defaults", "filename", s.Filename, "reason", outcome.Reason)
		i.metrics.RecordFallback(fallbackLabel(ctx, i.classifier))
	}

	out := s
	out.State = Review
	header := st.Header
	out.Header = &header
	out.Transactions = records
	out.Overrides = map[string]float64{}
	out.OpeningBalance = st.OpeningBalance
	out.Classification = outcome
	out.SkippedRows = len(st.Skipped)
	out = out.recompute()

	i.metrics.RecordImport(telemetry.OutcomeReview)
	i.logger.Info("statement analyzed", "filename", s.Filename, "transactions", len(records), "months", len(out.Metrics))
	return out
}

func fallbackLabel(ctx context.Context, c classify.Classifier) string {
	switch {
	case c == nil:
		return "disabled"
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "timeout"
	default:
		return "rejected"
	}
}

// AnalyzeFile is Begin followed by Analyze on a fresh session.
func (i *Importer) AnalyzeFile(ctx context.Context, data []byte, filename string, method models.PaymentMethod) Session {
	s, _ := NewSession().Begin(filename, method)
	return i.Analyze(ctx, s, data)
}

// Commit finalizes a reviewed session against the latest stored ledger and
// writes both lists in a single save. On failure the session stays in review.
func (i *Importer) Commit(ctx context.Context, s Session, target Target) (Session, error) {
	if err := s.editable(); err != nil {
		return s, err
	}

	i.commitMu.Lock()
	defer i.commitMu.Unlock()

	ledger, err := i.store.Load(ctx)
	if err != nil {
		return s, fmt.Errorf("failed to load ledger: %w", err)
	}
	next, res, err := Finalize(ledger, s, target, i.now(), i.newID)
	if err != nil {
		return s, err
	}
	if err := i.store.Save(ctx, next); err != nil {
		i.logger.Error("failed to save ledger", "session", s.ID, "error", err)
		return s, fmt.Errorf("failed to save ledger: %w", err)
	}

	i.metrics.RecordImport(telemetry.OutcomeCommitted)
	i.logger.Info("import committed", "asset", res.AssetID, "transactions", res.Imported, "closing", res.ClosingBalance)

	out := s.clone()
	out.State = Success
	out.Result = &res
	return out, nil
}
