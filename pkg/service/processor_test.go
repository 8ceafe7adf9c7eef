package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/vizbuck/pkg/importer"
	"github.com/yurifrl/vizbuck/pkg/models"
	"github.com/yurifrl/vizbuck/pkg/store"
)

const january = `Date,Narration,Withdrawal,Deposit
05/01/2024,SWIGGY ORDER,200,
20/01/2024,ACME SALARY,,5000
`

const february = `Date,Narration,Withdrawal,Deposit
03/02/2024,RENT FEB,3000,
`

func writeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"jan.csv":    january,
		"feb.CSV":    february,
		"notes.md":   "# not a statement",
		"broken.csv": "hello\nworld\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o700); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestCollect(t *testing.T) {
	dir := writeDir(t)

	got, err := Collect(dir)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	want := []string{
		filepath.Join(dir, "broken.csv"),
		filepath.Join(dir, "feb.CSV"),
		filepath.Join(dir, "jan.csv"),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("at %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	got, err = Collect(filepath.Join(dir, "j*.csv"))
	if err != nil || len(got) != 1 {
		t.Errorf("expected one glob match, got %v (%v)", got, err)
	}

	if _, err := Collect(filepath.Join(dir, "missing-*.csv")); err == nil {
		t.Error("expected error for a pattern with no matches")
	}
}

func TestProcessAndCommit(t *testing.T) {
	dir := writeDir(t)
	mem := store.NewMemory(models.Ledger{})
	p := NewProcessor(log.Default(), importer.New(log.Default(), mem, nil))

	paths, err := Collect(dir)
	if err != nil {
		t.Fatal(err)
	}
	analyses, err := p.Process(context.Background(), paths, models.UPI)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(analyses) != 2 {
		t.Fatalf("expected the broken file to be left out, got %d analyses", len(analyses))
	}

	results, err := p.CommitAll(context.Background(), analyses, importer.Target{New: true, NewAssetName: "HDFC"})
	if err != nil {
		t.Fatalf("CommitAll failed: %v", err)
	}
	if len(results) != 2 || results[0].AssetID != results[1].AssetID {
		t.Fatalf("expected both files in one new account, got %+v", results)
	}

	ledger, _ := mem.Load(context.Background())
	if len(ledger.Assets) != 1 || len(ledger.Transactions) != 3 {
		t.Errorf("unexpected ledger %+v", ledger)
	}
}

func TestProcessNothingUsable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.csv")
	if err := os.WriteFile(path, []byte("hello\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	p := NewProcessor(log.Default(), importer.New(log.Default(), store.NewMemory(models.Ledger{}), nil))
	if _, err := p.Process(context.Background(), []string{path}, ""); err == nil {
		t.Error("expected error when no file could be analyzed")
	}
}
