package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yurifrl/vizbuck/pkg/models"
)

func ledger() models.Ledger {
	qty := 2.5
	return models.Ledger{
		Transactions: []models.Transaction{{
			ID: "t1", Description: "RENT", Amount: 20000, Category: models.Housing,
			Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Type: models.Debit,
			PaymentMethod: models.NetBanking, Nature: models.Need,
		}},
		Assets: []models.Asset{{
			ID: "a1", Name: "Gold", Amount: 150000, Type: models.Metal, Quantity: &qty,
			AsOfDate: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
		}},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, name := range []string{"ledger.json", "ledger.yaml"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s, err := New(filepath.Join(t.TempDir(), "nested", name))
			if err != nil {
				t.Fatal(err)
			}

			empty, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load on missing file failed: %v", err)
			}
			if len(empty.Transactions) != 0 {
				t.Errorf("expected empty ledger, got %+v", empty)
			}

			if err := s.Save(ctx, ledger()); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(got.Transactions) != 1 || got.Transactions[0].Category != models.Housing {
				t.Errorf("unexpected transactions %+v", got.Transactions)
			}
			if got.Assets[0].Quantity == nil || *got.Assets[0].Quantity != 2.5 {
				t.Errorf("quantity lost: %+v", got.Assets[0])
			}
			if !got.Assets[0].AsOfDate.Equal(ledger().Assets[0].AsOfDate) {
				t.Errorf("as of date changed: %v", got.Assets[0].AsOfDate)
			}

			entries, _ := os.ReadDir(filepath.Dir(s.Path()))
			if len(entries) != 1 {
				t.Errorf("expected only the ledger file, found %d entries", len(entries))
			}
		})
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, _ := New(path)
	if _, err := s.Load(context.Background()); err == nil {
		t.Error("expected error for corrupt ledger")
	}
}
