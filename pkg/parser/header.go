package parser

import (
	"errors"
	"strings"
)

// HeaderScanRows bounds how deep into a sheet the header may be buried.
const HeaderScanRows = 100

var ErrNoHeader = errors.New("could not detect header row. Ensure columns like 'Date' and 'Amount' exist")

// Role is the meaning a statement column plays.
type Role string

const (
	RoleDate        Role = "date"
	RoleDescription Role = "description"
	RoleDebit       Role = "debit"
	RoleCredit      Role = "credit"
	RoleAmount      Role = "amount"
	RoleType        Role = "type"
)

// Term scores a header cell for one role. Contains keywords match anywhere in
// the lower-cased cell; Exact keywords must be the whole cell, which keeps
// short tokens like "cr" from matching "description".
type Term struct {
	Role     Role
	Weight   int
	Contains []string
	Exact    []string
}

func (t Term) matches(cell string) bool {
	for _, k := range t.Exact {
		if cell == k {
			return true
		}
	}
	for _, k := range t.Contains {
		if strings.Contains(cell, k) {
			return true
		}
	}
	return false
}

// Vocabulary is the table the detector scores against. Extend it here rather
// than in the scoring loop.
var Vocabulary = []Term{
	{Role: RoleDate, Weight: 10, Contains: []string{"date", "txn date", "value date", "txn_date", "transaction date"}},
	{Role: RoleDescription, Weight: 5, Contains: []string{"description", "narration", "particulars", "details", "remarks"}},
	{Role: RoleDebit, Weight: 8, Contains: []string{"withdrawal", "debit"}, Exact: []string{"dr", "dr."}},
	{Role: RoleCredit, Weight: 8, Contains: []string{"deposit", "credit"}, Exact: []string{"cr", "cr."}},
	{Role: RoleAmount, Weight: 5, Contains: []string{"amount", "txn amount", "transaction amount"}},
	{Role: RoleType, Weight: 5, Contains: []string{"type", "dr/cr", "cr/dr"}},
}

// Header is the detected header row and the column index for each role found in it.
type Header struct {
	Row     int          `json:"row"`
	Score   int          `json:"score"`
	Columns map[Role]int `json:"columns"`
}

// Column returns the mapped index for role.
func (h Header) Column(role Role) (int, bool) {
	idx, ok := h.Columns[role]
	return idx, ok
}

func (h Header) has(role Role) bool {
	_, ok := h.Columns[role]
	return ok
}

// eligible requires a date column and something that carries money: either
// both debit and credit columns or a single amount column.
func (h Header) eligible() bool {
	if !h.has(RoleDate) {
		return false
	}
	return (h.has(RoleDebit) && h.has(RoleCredit)) || h.has(RoleAmount)
}

// ScoreRow scores a single row. The first matching cell wins a role's column.
func ScoreRow(row []string, vocab []Term) Header {
	h := Header{Columns: make(map[Role]int)}
	for idx, raw := range row {
		cell := strings.ToLower(strings.TrimSpace(raw))
		if cell == "" {
			continue
		}
		for _, term := range vocab {
			if !term.matches(cell) {
				continue
			}
			h.Score += term.Weight
			if _, seen := h.Columns[term.Role]; !seen {
				h.Columns[term.Role] = idx
			}
		}
	}
	return h
}

// DetectHeader picks the highest scoring eligible row within the first
// HeaderScanRows rows. Ties keep the earlier row.
func DetectHeader(grid [][]string) (Header, error) {
	return DetectHeaderWith(grid, Vocabulary)
}

func DetectHeaderWith(grid [][]string, vocab []Term) (Header, error) {
	best := Header{Row: -1}
	limit := min(len(grid), HeaderScanRows)
	for i := 0; i < limit; i++ {
		h := ScoreRow(grid[i], vocab)
		if !h.eligible() || h.Score <= best.Score {
			continue
		}
		h.Row = i
		best = h
	}
	if best.Row < 0 {
		return Header{}, ErrNoHeader
	}
	return best, nil
}
