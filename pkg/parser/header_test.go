package parser

import (
	"errors"
	"testing"
)

func TestDetectHeaderWithdrawalDeposit(t *testing.T) {
	grid := [][]string{
		{"HDFC BANK Ltd.", "", "", ""},
		{"Statement of account", "", "", ""},
		{"Date", "Narration", "Withdrawal", "Deposit"},
		{"01/01/2024", "ATM WDL", "500", ""},
	}

	h, err := DetectHeader(grid)
	if err != nil {
		t.Fatalf("DetectHeader failed: %v", err)
	}
	if h.Row != 2 {
		t.Errorf("expected header row 2, got %d", h.Row)
	}
	assertColumn(t, h, RoleDate, 0)
	assertColumn(t, h, RoleDescription, 1)
	assertColumn(t, h, RoleDebit, 2)
	assertColumn(t, h, RoleCredit, 3)
	if _, ok := h.Column(RoleAmount); ok {
		t.Errorf("did not expect an amount column")
	}
	if h.Score != 10+5+8+8 {
		t.Errorf("expected score 31, got %d", h.Score)
	}
}

func TestDetectHeaderNoDateColumn(t *testing.T) {
	grid := [][]string{
		{"Narration", "Withdrawal", "Deposit"},
		{"ATM WDL", "500", ""},
	}
	if _, err := DetectHeader(grid); !errors.Is(err, ErrNoHeader) {
		t.Fatalf("expected ErrNoHeader, got %v", err)
	}
}

func TestDetectHeaderNeedsMoneyColumn(t *testing.T) {
	// debit without credit and no amount column is not enough
	grid := [][]string{
		{"Date", "Description", "Withdrawal"},
		{"01/01/2024", "ATM", "500"},
	}
	if _, err := DetectHeader(grid); !errors.Is(err, ErrNoHeader) {
		t.Fatalf("expected ErrNoHeader, got %v", err)
	}
}

func TestDetectHeaderTieKeepsFirstRow(t *testing.T) {
	grid := [][]string{
		{"Date", "Amount"},
		{"Date", "Amount"},
	}
	h, err := DetectHeader(grid)
	if err != nil {
		t.Fatalf("DetectHeader failed: %v", err)
	}
	if h.Row != 0 {
		t.Errorf("expected first row to win a tie, got %d", h.Row)
	}
}

func TestDetectHeaderHighestScoreWins(t *testing.T) {
	grid := [][]string{
		{"Date", "Amount"},
		{"Txn Date", "Description", "Amount", "Dr/Cr"},
	}
	h, err := DetectHeader(grid)
	if err != nil {
		t.Fatalf("DetectHeader failed: %v", err)
	}
	if h.Row != 1 {
		t.Errorf("expected row 1, got %d", h.Row)
	}
	assertColumn(t, h, RoleAmount, 2)
	assertColumn(t, h, RoleType, 3)
	if _, ok := h.Column(RoleCredit); ok {
		t.Errorf("description must not be mistaken for a credit column")
	}
}

func TestDetectHeaderOnlyScansFirstRows(t *testing.T) {
	grid := make([][]string, 0, HeaderScanRows+2)
	for i := 0; i < HeaderScanRows; i++ {
		grid = append(grid, []string{"filler", "row"})
	}
	grid = append(grid, []string{"Date", "Amount"})

	if _, err := DetectHeader(grid); !errors.Is(err, ErrNoHeader) {
		t.Fatalf("expected header past the scan window to be ignored, got %v", err)
	}
}

func TestScoreRowShortTokensMatchWholeCell(t *testing.T) {
	h := ScoreRow([]string{"Value Date", "Particulars", "Dr", "Cr", "Balance"}, Vocabulary)
	assertColumn(t, h, RoleDate, 0)
	assertColumn(t, h, RoleDescription, 1)
	assertColumn(t, h, RoleDebit, 2)
	assertColumn(t, h, RoleCredit, 3)
}

func assertColumn(t *testing.T, h Header, role Role, want int) {
	t.Helper()
	got, ok := h.Column(role)
	if !ok || got != want {
		t.Errorf("column %s: expected %d, got %d (mapped=%v)", role, want, got, ok)
	}
}
