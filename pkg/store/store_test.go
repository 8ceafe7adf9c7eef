package store

import (
	"context"
	"testing"
	"time"

	"github.com/yurifrl/vizbuck/pkg/models"
)

func sampleLedger() models.Ledger {
	return models.Ledger{
		Transactions: []models.Transaction{{
			ID: "t1", Description: "ZOMATO", Amount: 320, Category: models.FoodDining,
			Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Type: models.Debit,
			PaymentMethod: models.UPI, Nature: models.Want,
		}},
		Assets: []models.Asset{{
			ID: "a1", Name: "HDFC", Amount: 1000, Type: models.Bank,
			AsOfDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		}},
	}
}

func TestMemoryCopiesInAndOut(t *testing.T) {
	ctx := context.Background()
	seed := sampleLedger()
	m := NewMemory(seed)

	seed.Transactions[0].Amount = 1
	got, err := m.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Transactions[0].Amount != 320 {
		t.Errorf("store shares memory with seed")
	}

	got.Assets[0].Amount = 0
	again, _ := m.Load(ctx)
	if again.Assets[0].Amount != 1000 {
		t.Errorf("store shares memory with a loaded ledger")
	}

	if err := m.Save(ctx, models.Ledger{}); err != nil {
		t.Fatal(err)
	}
	if m.Saves() != 1 {
		t.Errorf("expected 1 save, got %d", m.Saves())
	}
	empty, _ := m.Load(ctx)
	if len(empty.Transactions) != 0 || len(empty.Assets) != 0 {
		t.Errorf("expected empty ledger after save, got %+v", empty)
	}
}

func TestEncodeDecode(t *testing.T) {
	data, err := Encode(sampleLedger())
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Transactions) != 1 || got.Transactions[0].PaymentMethod != models.UPI || !got.Assets[0].AsOfDate.Equal(sampleLedger().Assets[0].AsOfDate) {
		t.Errorf("unexpected decoded ledger %+v", got)
	}

	empty, err := Encode(models.Ledger{})
	if err != nil {
		t.Fatal(err)
	}
	if string(empty) != "{\n  \"transactions\": [],\n  \"assets\": []\n}" {
		t.Errorf("expected empty lists, got %s", empty)
	}

	if l, err := Decode(nil); err != nil || len(l.Transactions) != 0 {
		t.Errorf("expected empty ledger from empty input, got %+v %v", l, err)
	}
	if _, err := Decode([]byte("{")); err == nil {
		t.Error("expected decode error")
	}
}
