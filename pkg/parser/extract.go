package parser

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/yurifrl/vizbuck/pkg/models"
)

var ErrNoTransactions = errors.New("headers detected, but no valid transactions found")

// DefaultDescription is used when the statement has no description column.
const DefaultDescription = "Transaction"

// SkipReason labels why a row after the header did not become a transaction.
type SkipReason string

const (
	SkipEmpty          SkipReason = "empty"
	SkipOpeningBalance SkipReason = "opening_balance"
	SkipSummary        SkipReason = "summary"
	SkipDate           SkipReason = "date"
	SkipDescription    SkipReason = "description"
	SkipAmount         SkipReason = "amount"
)

type Skip struct {
	Row    int        `json:"row"`
	Reason SkipReason `json:"reason"`
}

// Extraction is the outcome of walking the rows below a header.
type Extraction struct {
	Records        []models.ReviewTransaction `json:"records"`
	OpeningBalance float64                    `json:"openingBalance"`
	Skipped        []Skip                     `json:"skipped"`
}

var (
	openingMarkers     = []string{"opening balance", "b/f", "brought forward"}
	summaryMarkers     = []string{"total", "closing balance"}
	placeholderDescs   = []string{"-", "no description"}
	carryForwardInDesc = []string{"opening balance", "brought forward"}
	quoteStripper      = strings.NewReplacer(`"`, "", `'`, "")
)

// Extract walks the rows after h.Row in order and builds review records
// tagged with the default category and nature. Records keep row order.
func Extract(grid [][]string, h Header) (Extraction, error) {
	var out Extraction
	for i := h.Row + 1; i < len(grid); i++ {
		row := grid[i]
		if len(row) == 0 {
			out.skip(i, SkipEmpty)
			continue
		}

		joined := strings.ToLower(strings.Join(row, " "))
		if containsAny(joined, openingMarkers) {
			if bal := largestAmount(row); bal > 0 {
				out.OpeningBalance = bal
			}
			out.skip(i, SkipOpeningBalance)
			continue
		}
		if containsAny(joined, summaryMarkers) {
			out.skip(i, SkipSummary)
			continue
		}

		rawDate := cell(row, h, RoleDate)
		if rawDate == "" {
			out.skip(i, SkipDate)
			continue
		}
		date, ok := NormalizeDate(rawDate)
		if !ok {
			out.skip(i, SkipDate)
			continue
		}

		rawDesc := DefaultDescription
		if h.has(RoleDescription) {
			rawDesc = cell(row, h, RoleDescription)
		}
		desc := strings.TrimSpace(quoteStripper.Replace(rawDesc))
		if !validDescription(desc) {
			out.skip(i, SkipDescription)
			continue
		}

		amount, kind := resolveAmount(row, h, rawDesc)
		if amount <= 0 {
			out.skip(i, SkipAmount)
			continue
		}

		out.Records = append(out.Records, models.ReviewTransaction{
			TempID:      uuid.NewString(),
			Date:        date,
			Description: desc,
			Amount:      amount,
			Type:        kind,
			Category:    models.Others,
			Nature:      DefaultNature(kind),
		})
	}

	if len(out.Records) == 0 {
		return out, ErrNoTransactions
	}
	return out, nil
}

// DefaultNature is the nature a record carries before classification.
func DefaultNature(kind models.TransactionType) models.Nature {
	if kind == models.Credit {
		return models.Income
	}
	return models.Want
}

func (e *Extraction) skip(row int, reason SkipReason) {
	e.Skipped = append(e.Skipped, Skip{Row: row, Reason: reason})
}

// resolveAmount applies the column layout rules in priority order:
// separate debit/credit columns, amount plus type column, then a lone amount
// column whose direction is guessed from the cell and finally the description.
func resolveAmount(row []string, h Header, rawDesc string) (float64, models.TransactionType) {
	switch {
	case h.has(RoleDebit) && h.has(RoleCredit):
		if dr := CleanAmount(cell(row, h, RoleDebit)); dr > 0 {
			return dr, models.Debit
		}
		if cr := CleanAmount(cell(row, h, RoleCredit)); cr > 0 {
			return cr, models.Credit
		}
		return 0, models.Debit

	case h.has(RoleAmount) && h.has(RoleType):
		amount := CleanAmount(cell(row, h, RoleAmount))
		kind := strings.ToLower(cell(row, h, RoleType))
		if strings.Contains(kind, "cr") || strings.Contains(kind, "deposit") {
			return amount, models.Credit
		}
		return amount, models.Debit

	case h.has(RoleAmount):
		raw := cell(row, h, RoleAmount)
		amount := CleanAmount(raw)
		lower := strings.ToLower(raw)
		switch {
		case strings.Contains(raw, "-"):
			return amount, models.Debit
		case strings.Contains(lower, "cr"):
			return amount, models.Credit
		case strings.Contains(lower, "dr"):
			return amount, models.Debit
		}
		desc := strings.ToLower(rawDesc)
		if strings.Contains(desc, "credit") || strings.Contains(desc, "deposit") {
			return amount, models.Credit
		}
		return amount, models.Debit
	}
	return 0, models.Debit
}

func validDescription(desc string) bool {
	if desc == "" {
		return false
	}
	lower := strings.ToLower(desc)
	for _, p := range placeholderDescs {
		if lower == p {
			return false
		}
	}
	return !containsAny(lower, carryForwardInDesc)
}

func largestAmount(row []string) float64 {
	var best float64
	for _, c := range row {
		if amt := CleanAmount(c); amt > best {
			best = amt
		}
	}
	return best
}

func cell(row []string, h Header, role Role) string {
	idx, ok := h.Column(role)
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
