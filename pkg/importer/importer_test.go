package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/vizbuck/pkg/classify"
	"github.com/yurifrl/vizbuck/pkg/models"
	"github.com/yurifrl/vizbuck/pkg/parser"
	"github.com/yurifrl/vizbuck/pkg/store"
	"github.com/yurifrl/vizbuck/pkg/telemetry"
)

const statement = `Date,Narration,Withdrawal,Deposit,Balance
01/01/2024,Opening Balance,,,1000
05/01/2024,SWIGGY ORDER,200,,800
20/01/2024,ACME SALARY,,5000,5800
03/02/2024,RENT FEB,3000,,2800
`

type keywordClassifier map[string]classify.Result

func (k keywordClassifier) Classify(_ context.Context, descriptions []string) ([]classify.Result, error) {
	out := make([]classify.Result, len(descriptions))
	for i, d := range descriptions {
		out[i] = classify.Result{Category: models.Others, Nature: models.Want}
		for word, r := range k {
			if strings.Contains(d, word) {
				out[i] = r
			}
		}
	}
	return out, nil
}

var testClassifier = keywordClassifier{
	"SWIGGY": {Category: models.FoodDining, Nature: models.Want},
	"SALARY": {Category: models.SalaryIncome, Nature: models.Income},
	"RENT":   {Category: models.Housing, Nature: models.Need},
}

type failingStore struct{ store.Store }

func (failingStore) Save(context.Context, models.Ledger) error { return errors.New("disk full") }

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newImporter(st store.Store, c classify.Classifier) *Importer {
	return New(log.Default(), st, c, WithClock(func() time.Time { return fixedNow }), WithIDs(sequentialIDs()))
}

func analyzed(t *testing.T, im *Importer) Session {
	t.Helper()
	s := im.AnalyzeFile(context.Background(), []byte(statement), "hdfc.csv", models.UPI)
	if s.State != Review {
		t.Fatalf("expected review state, got %s (%s)", s.State, s.Err)
	}
	return s
}

func TestAnalyze(t *testing.T) {
	metrics := telemetry.New()
	im := New(log.Default(), store.NewMemory(models.Ledger{}), testClassifier, WithMetrics(metrics))
	s := analyzed(t, im)

	if len(s.Transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(s.Transactions))
	}
	if s.OpeningBalance != 1000 {
		t.Errorf("expected opening balance 1000, got %v", s.OpeningBalance)
	}
	if s.Transactions[1].Category != models.SalaryIncome || s.Transactions[1].Nature != models.Income {
		t.Errorf("classification not merged: %+v", s.Transactions[1])
	}
	if s.Classification.Fallback {
		t.Errorf("unexpected fallback: %s", s.Classification.Reason)
	}
	if s.SkippedRows != 1 {
		t.Errorf("expected the opening balance row to be skipped, got %d", s.SkippedRows)
	}

	if len(s.Metrics) != 2 {
		t.Fatalf("expected 2 months, got %d", len(s.Metrics))
	}
	jan, feb := s.Metrics[0], s.Metrics[1]
	if jan.MonthKey != "2024-01" || jan.OpeningBalance != 1000 || jan.ClosingBalance != 5800 {
		t.Errorf("unexpected january %+v", jan)
	}
	if feb.OpeningBalance != 5800 || feb.ClosingBalance != 2800 {
		t.Errorf("unexpected february %+v", feb)
	}
}

func TestAnalyzeFailure(t *testing.T) {
	im := newImporter(store.NewMemory(models.Ledger{}), nil)
	s := im.AnalyzeFile(context.Background(), []byte("just,some\nwords,here\n"), "junk.csv", "")
	if s.State != Error {
		t.Fatalf("expected error state, got %s", s.State)
	}
	if s.Err != parser.ErrNoHeader.Error() {
		t.Errorf("unexpected error message %q", s.Err)
	}

	retry, err := s.Begin("fixed.csv", "")
	if err != nil || retry.State != Analyzing || retry.Err != "" {
		t.Errorf("expected retry from error state, got %+v %v", retry, err)
	}
}

func TestAnalyzeWithoutClassifier(t *testing.T) {
	im := newImporter(store.NewMemory(models.Ledger{}), nil)
	s := analyzed(t, im)
	if !s.Classification.Fallback {
		t.Error("expected fallback without a classifier")
	}
	if s.Transactions[1].Category != models.Others || s.Transactions[1].Nature != models.Income {
		t.Errorf("expected extraction defaults, got %+v", s.Transactions[1])
	}
}

func TestCommitNewAsset(t *testing.T) {
	existing := models.Transaction{ID: "old", Description: "OLD", Amount: 1, Type: models.Debit, Date: fixedNow}
	mem := store.NewMemory(models.Ledger{Transactions: []models.Transaction{existing}})
	im := newImporter(mem, testClassifier)
	s := analyzed(t, im)

	done, err := im.Commit(context.Background(), s, Target{New: true, NewAssetName: "HDFC Savings"})
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if done.State != Success || done.Result == nil {
		t.Fatalf("expected success with result, got %+v", done)
	}
	if s.State != Review {
		t.Error("commit mutated the reviewed snapshot")
	}

	if mem.Saves() != 1 {
		t.Errorf("expected a single save, got %d", mem.Saves())
	}
	ledger, _ := mem.Load(context.Background())
	if len(ledger.Transactions) != 4 || ledger.Transactions[3].ID != "old" {
		t.Fatalf("expected new transactions before existing ones, got %+v", ledger.Transactions)
	}
	for _, txn := range ledger.Transactions[:3] {
		if txn.PaymentMethod != models.UPI {
			t.Errorf("expected statement payment method, got %s", txn.PaymentMethod)
		}
		if txn.ID == "" {
			t.Error("expected a generated id")
		}
	}

	if len(ledger.Assets) != 1 {
		t.Fatalf("expected one asset, got %d", len(ledger.Assets))
	}
	a := ledger.Assets[0]
	if a.Name != "HDFC Savings" || a.Type != models.Bank || a.Amount != 2800 || a.Change != 0 {
		t.Errorf("unexpected asset %+v", a)
	}
	if !a.AsOfDate.Equal(time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected as of the newest transaction, got %v", a.AsOfDate)
	}
	if done.Result.AssetID != a.ID || done.Result.ClosingBalance != 2800 || done.Result.Imported != 3 {
		t.Errorf("unexpected result %+v", done.Result)
	}
}

// gatedStore holds every Load until release is closed.
type gatedStore struct {
	*store.Memory
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Load(ctx context.Context) (models.Ledger, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.Memory.Load(ctx)
}

func TestConcurrentCommitsKeepBothBatches(t *testing.T) {
	gate := &gatedStore{
		Memory:  store.NewMemory(models.Ledger{}),
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	im := newImporter(gate, testClassifier)
	first, second := analyzed(t, im), analyzed(t, im)

	errs := make(chan error, 2)
	for _, c := range []struct {
		s    Session
		name string
	}{{first, "HDFC Savings"}, {second, "Axis Savings"}} {
		go func(s Session, name string) {
			_, err := im.Commit(context.Background(), s, Target{New: true, NewAssetName: name})
			errs <- err
		}(c.s, c.name)
	}

	<-gate.entered
	select {
	case <-gate.entered:
		t.Fatal("second commit loaded the ledger while the first was still in flight")
	case <-time.After(50 * time.Millisecond):
	}
	close(gate.release)

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
	}

	ledger, _ := gate.Memory.Load(context.Background())
	if len(ledger.Assets) != 2 {
		t.Fatalf("expected both assets, got %+v", ledger.Assets)
	}
	if len(ledger.Transactions) != 6 {
		t.Errorf("expected both batches of 3 transactions, got %d", len(ledger.Transactions))
	}
	if gate.Saves() != 2 {
		t.Errorf("expected 2 saves, got %d", gate.Saves())
	}
}

func TestCommitExistingAsset(t *testing.T) {
	mem := store.NewMemory(models.Ledger{Assets: []models.Asset{
		{ID: "bank-1", Name: "Axis", Amount: 10, Type: models.Bank, AsOfDate: fixedNow, Change: 4},
	}})
	im := newImporter(mem, testClassifier)
	s := analyzed(t, im)
	s, _ = s.SetOverride("2024-02", 6000)

	if _, err := im.Commit(context.Background(), s, Target{AssetID: "bank-1"}); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	ledger, _ := mem.Load(context.Background())
	a := ledger.Assets[0]
	if a.Amount != 3000 || a.Name != "Axis" || a.Change != 4 {
		t.Errorf("unexpected patched asset %+v", a)
	}
}

func TestCommitErrors(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(models.Ledger{})
	im := newImporter(mem, testClassifier)
	s := analyzed(t, im)

	cases := []struct {
		name   string
		target Target
		want   error
	}{
		{"no target", Target{}, ErrNoTarget},
		{"missing name", Target{New: true}, ErrMissingAssetName},
		{"unknown asset", Target{AssetID: "nope"}, ErrUnknownAsset},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := im.Commit(ctx, s, tc.target)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
			if got.State != Review {
				t.Errorf("expected review state, got %s", got.State)
			}
		})
	}
	if mem.Saves() != 0 {
		t.Errorf("expected no saves, got %d", mem.Saves())
	}

	if _, err := im.Commit(ctx, NewSession(), Target{AssetID: "x"}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected invalid transition from idle, got %v", err)
	}
}

func TestCommitSaveFailure(t *testing.T) {
	im := newImporter(failingStore{store.NewMemory(models.Ledger{})}, testClassifier)
	s := analyzed(t, im)
	got, err := im.Commit(context.Background(), s, Target{New: true, NewAssetName: "X"})
	if err == nil {
		t.Fatal("expected save error")
	}
	if got.State != Review || len(got.Transactions) != 3 {
		t.Errorf("expected the review to survive, got %+v", got)
	}
}

func TestEditsReturnNewSnapshots(t *testing.T) {
	im := newImporter(store.NewMemory(models.Ledger{}), testClassifier)
	s := analyzed(t, im)
	first := s.Transactions[0].TempID

	amount := 500.0
	edited, err := s.UpdateTransaction(first, Patch{Amount: &amount})
	if err != nil {
		t.Fatal(err)
	}
	if s.Transactions[0].Amount != 200 {
		t.Error("update mutated the previous snapshot")
	}
	if edited.Metrics[0].TotalDebits != 500 || edited.Metrics[0].ClosingBalance != 5500 {
		t.Errorf("metrics not recomputed: %+v", edited.Metrics[0])
	}

	deleted, err := edited.DeleteTransaction(first)
	if err != nil {
		t.Fatal(err)
	}
	if len(deleted.Transactions) != 2 || len(edited.Transactions) != 3 {
		t.Errorf("delete mutated the previous snapshot")
	}

	desc := "CASH GIFT"
	kind := models.Credit
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	added, txn, err := deleted.AddTransaction(Patch{Description: &desc, Type: &kind, Date: &date, Amount: &amount}, fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	if added.Transactions[0].TempID != txn.TempID || txn.Category != models.Others || txn.PaymentMethod != models.UPI {
		t.Errorf("unexpected added transaction %+v", txn)
	}
	if len(added.Metrics) != 3 || added.Metrics[2].ClosingBalance != 3500 {
		t.Errorf("unexpected metrics after add %+v", added.Metrics)
	}

	cat := models.Shopping
	ids := []string{added.Transactions[0].TempID, added.Transactions[1].TempID}
	bulk, err := added.BulkUpdate(ids, Patch{Category: &cat})
	if err != nil {
		t.Fatal(err)
	}
	if bulk.Transactions[0].Category != models.Shopping || bulk.Transactions[1].Category != models.Shopping {
		t.Errorf("bulk edit not applied")
	}
	if added.Transactions[0].Category != models.Others {
		t.Error("bulk edit mutated the previous snapshot")
	}
	if _, err := bulk.BulkUpdate([]string{"missing"}, Patch{Category: &cat}); !errors.Is(err, ErrUnknownTransaction) {
		t.Errorf("expected unknown transaction, got %v", err)
	}

	opened, _ := s.SetOpeningBalance(0)
	if opened.Metrics[0].OpeningBalance != 0 || s.Metrics[0].OpeningBalance != 1000 {
		t.Errorf("opening balance edit leaked")
	}

	over, _ := s.SetOverride("2024-02", 100)
	if over.Metrics[1].OpeningBalance != 100 || over.Metrics[0].OpeningBalance != 1000 {
		t.Errorf("override applied to the wrong month: %+v", over.Metrics)
	}
	if len(s.Overrides) != 0 {
		t.Error("override mutated the previous snapshot")
	}
	cleared, _ := over.ClearOverride("2024-02")
	if cleared.Metrics[1].OpeningBalance != 5800 {
		t.Errorf("override not cleared: %+v", cleared.Metrics[1])
	}
	if _, err := s.SetOverride("Feb", 1); err == nil {
		t.Error("expected invalid month key error")
	}
}

func TestEditValidation(t *testing.T) {
	im := newImporter(store.NewMemory(models.Ledger{}), nil)
	s := analyzed(t, im)
	id := s.Transactions[0].TempID

	bad := models.Category("Rockets")
	if _, err := s.UpdateTransaction(id, Patch{Category: &bad}); err == nil {
		t.Error("expected unknown category error")
	}
	neg := -1.0
	if _, err := s.UpdateTransaction(id, Patch{Amount: &neg}); err == nil {
		t.Error("expected negative amount error")
	}
	if _, err := s.UpdateTransaction("missing", Patch{}); !errors.Is(err, ErrUnknownTransaction) {
		t.Errorf("expected unknown transaction, got %v", err)
	}
	if _, err := NewSession().DeleteTransaction(id); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected invalid transition, got %v", err)
	}
}

func TestList(t *testing.T) {
	im := newImporter(store.NewMemory(models.Ledger{}), testClassifier)
	s := analyzed(t, im)

	all := s.List(Query{})
	if len(all) != 3 || all[0].Description != "RENT FEB" {
		t.Errorf("expected newest first, got %+v", all)
	}

	credits := s.List(Query{Type: "credit"})
	if len(credits) != 1 || credits[0].Description != "ACME SALARY" {
		t.Errorf("unexpected credits %+v", credits)
	}

	byCategory := s.List(Query{Search: "food"})
	if len(byCategory) != 1 || byCategory[0].Description != "SWIGGY ORDER" {
		t.Errorf("expected search to match category, got %+v", byCategory)
	}

	asc := s.List(Query{SortBy: "amount", Order: "asc"})
	if asc[0].Amount != 200 || asc[2].Amount != 5000 {
		t.Errorf("unexpected amount order %+v", asc)
	}
}

func TestFinalizeDefaults(t *testing.T) {
	s := Session{
		State: Review,
		Transactions: []models.ReviewTransaction{
			{TempID: "a", Amount: 10},
		},
	}
	ledger, res, err := Finalize(models.Ledger{}, s, Target{New: true, NewAssetName: "Wallet", AssetType: models.CashWallet}, fixedNow, sequentialIDs())
	if err != nil {
		t.Fatal(err)
	}
	txn := ledger.Transactions[0]
	if txn.Description != DefaultDescription || txn.Category != models.Others || txn.Type != models.Debit ||
		txn.PaymentMethod != models.OtherMethod || txn.Nature != models.Want || !txn.Date.Equal(fixedNow) {
		t.Errorf("defaults not applied: %+v", txn)
	}
	if ledger.Assets[0].Type != models.CashWallet {
		t.Errorf("expected cash wallet, got %s", ledger.Assets[0].Type)
	}
	if !res.AsOfDate.Equal(fixedNow) || res.ClosingBalance != 0 {
		t.Errorf("expected as of now and zero closing without dated rows, got %+v", res)
	}

	if _, _, err := Finalize(models.Ledger{}, Session{State: Review}, Target{AssetID: "x"}, fixedNow, sequentialIDs()); !errors.Is(err, ErrEmptyImport) {
		t.Errorf("expected empty import error, got %v", err)
	}
}
