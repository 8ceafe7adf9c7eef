package main

import (
	"testing"
	"time"

	"github.com/yurifrl/vizbuck/pkg/models"
)

func TestFilters(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 15, 0, 0, 0, time.UTC) }
	tx := models.Transaction{Description: "Swiggy Order", Amount: 250, Date: day(10), PaymentMethod: models.UPI}

	tests := []struct {
		name string
		f    filters
		want bool
	}{
		{"no filters", filters{}, true},
		{"inside range", filters{startDate: "2024/03/10", endDate: "2024/03/10"}, true},
		{"before start", filters{startDate: "2024/03/11"}, false},
		{"after end", filters{endDate: "2024/03/09"}, false},
		{"below min", filters{minAmount: 300}, false},
		{"above max", filters{maxAmount: 100}, false},
		{"description match", filters{description: "swiggy"}, true},
		{"description miss", filters{description: "zomato"}, false},
		{"method match", filters{method: "upi"}, true},
		{"method miss", filters{method: "Cash"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := tt.f.toFilterFunc()
			if err != nil {
				t.Fatal(err)
			}
			if got := fn(tx); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFiltersInvalid(t *testing.T) {
	for _, f := range []filters{
		{startDate: "10-03-2024"},
		{endDate: "tomorrow"},
		{method: "cheque"},
	} {
		if _, err := f.toFilterFunc(); err == nil {
			t.Errorf("expected error for %+v", f)
		}
	}
}
