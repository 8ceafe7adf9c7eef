package importer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yurifrl/vizbuck/pkg/cashflow"
	"github.com/yurifrl/vizbuck/pkg/classify"
	"github.com/yurifrl/vizbuck/pkg/models"
	"github.com/yurifrl/vizbuck/pkg/parser"
)

type State string

const (
	Idle      State = "idle"
	Analyzing State = "analyzing"
	Review    State = "review"
	Success   State = "success"
	Error     State = "error"
)

var (
	ErrInvalidTransition  = errors.New("invalid session transition")
	ErrUnknownTransaction = errors.New("unknown review transaction")
	ErrInvalidEdit        = errors.New("invalid edit")
)

// Session is one import attempt. Every operation returns a new snapshot and
// leaves the receiver untouched, so a snapshot can be shared freely.
type Session struct {
	ID             string                     `json:"id"`
	State          State                      `json:"state"`
	Filename       string                     `json:"filename,omitempty"`
	PaymentMethod  models.PaymentMethod       `json:"paymentMethod,omitempty"`
	Header         *parser.Header             `json:"header,omitempty"`
	Transactions   []models.ReviewTransaction `json:"transactions"`
	OpeningBalance float64                    `json:"openingBalance"`
	Overrides      map[string]float64         `json:"overrides,omitempty"`
	Metrics        []models.MonthlyMetric     `json:"metrics"`
	Classification classify.Outcome           `json:"classification"`
	SkippedRows    int                        `json:"skippedRows"`
	Err            string                     `json:"error,omitempty"`
	Result         *Result                    `json:"result,omitempty"`
}

// NewSession returns an idle session with a fresh id.
func NewSession() Session {
	return Session{ID: uuid.NewString(), State: Idle}
}

// Begin moves an idle or failed session into analysis of filename.
func (s Session) Begin(filename string, method models.PaymentMethod) (Session, error) {
	if s.State != Idle && s.State != Error {
		return s, fmt.Errorf("%w: cannot analyze from %s", ErrInvalidTransition, s.State)
	}
	return Session{ID: s.ID, State: Analyzing, Filename: filename, PaymentMethod: method}, nil
}

// Reset discards everything but the id.
func (s Session) Reset() Session {
	return Session{ID: s.ID, State: Idle}
}

func (s Session) fail(err error) Session {
	out := Session{ID: s.ID, State: Error, Filename: s.Filename, PaymentMethod: s.PaymentMethod}
	out.Err = err.Error()
	return out
}

func (s Session) clone() Session {
	out := s
	out.Transactions = make([]models.ReviewTransaction, len(s.Transactions))
	copy(out.Transactions, s.Transactions)
	out.Overrides = make(map[string]float64, len(s.Overrides))
	for k, v := range s.Overrides {
		out.Overrides[k] = v
	}
	return out
}

// recompute refreshes the monthly metrics after any edit.
func (s Session) recompute() Session {
	s.Metrics = cashflow.Monthly(s.Transactions, s.OpeningBalance, s.Overrides)
	return s
}

func (s Session) editable() error {
	if s.State != Review {
		return fmt.Errorf("%w: session is %s", ErrInvalidTransition, s.State)
	}
	return nil
}

func (s Session) index(tempID string) int {
	for i, t := range s.Transactions {
		if t.TempID == tempID {
			return i
		}
	}
	return -1
}

// Patch carries the fields of an edit; nil fields are left alone.
type Patch struct {
	Date          *time.Time              `json:"date,omitempty"`
	Description   *string                 `json:"description,omitempty"`
	Amount        *float64                `json:"amount,omitempty"`
	Type          *models.TransactionType `json:"type,omitempty"`
	Category      *models.Category        `json:"category,omitempty"`
	Nature        *models.Nature          `json:"nature,omitempty"`
	PaymentMethod *models.PaymentMethod   `json:"paymentMethod,omitempty"`
}

func (p Patch) apply(t models.ReviewTransaction) models.ReviewTransaction {
	if p.Date != nil {
		t.Date = p.Date.UTC()
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	// enum fields are already validated; store the canonical spelling
	if p.Category != nil {
		t.Category, _ = models.ParseCategory(string(*p.Category))
	}
	if p.Nature != nil {
		t.Nature, _ = models.ParseNature(string(*p.Nature))
	}
	if p.PaymentMethod != nil {
		t.PaymentMethod, _ = models.ParsePaymentMethod(string(*p.PaymentMethod))
	}
	return t
}

// Validate rejects values outside the known enumerations and negative amounts.
func (p Patch) Validate() error {
	if p.Amount != nil && *p.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative: %v", ErrInvalidEdit, *p.Amount)
	}
	if p.Type != nil && *p.Type != models.Credit && *p.Type != models.Debit {
		return fmt.Errorf("%w: unknown transaction type %q", ErrInvalidEdit, *p.Type)
	}
	if p.Category != nil {
		if _, ok := models.ParseCategory(string(*p.Category)); !ok {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidEdit, *p.Category)
		}
	}
	if p.Nature != nil {
		if _, ok := models.ParseNature(string(*p.Nature)); !ok {
			return fmt.Errorf("%w: unknown nature %q", ErrInvalidEdit, *p.Nature)
		}
	}
	if p.PaymentMethod != nil {
		if _, ok := models.ParsePaymentMethod(string(*p.PaymentMethod)); !ok {
			return fmt.Errorf("%w: unknown payment method %q", ErrInvalidEdit, *p.PaymentMethod)
		}
	}
	return nil
}

func (s Session) UpdateTransaction(tempID string, p Patch) (Session, error) {
	if err := s.editable(); err != nil {
		return s, err
	}
	if err := p.Validate(); err != nil {
		return s, err
	}
	i := s.index(tempID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrUnknownTransaction, tempID)
	}
	out := s.clone()
	out.Transactions[i] = p.apply(out.Transactions[i])
	return out.recompute(), nil
}

func (s Session) DeleteTransaction(tempID string) (Session, error) {
	if err := s.editable(); err != nil {
		return s, err
	}
	i := s.index(tempID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrUnknownTransaction, tempID)
	}
	out := s.clone()
	out.Transactions = append(out.Transactions[:i], out.Transactions[i+1:]...)
	return out.recompute(), nil
}

// AddTransaction puts a manual entry at the top of the review list. Missing
// fields start as a zero-amount debit dated now.
func (s Session) AddTransaction(p Patch, now time.Time) (Session, models.ReviewTransaction, error) {
	if err := s.editable(); err != nil {
		return s, models.ReviewTransaction{}, err
	}
	if err := p.Validate(); err != nil {
		return s, models.ReviewTransaction{}, err
	}
	method := s.PaymentMethod
	if method == "" {
		method = models.OtherMethod
	}
	t := p.apply(models.ReviewTransaction{
		TempID:        uuid.NewString(),
		Date:          now.UTC(),
		Description:   "New Transaction",
		Type:          models.Debit,
		Category:      models.Others,
		Nature:        models.Want,
		PaymentMethod: method,
	})

	out := s.clone()
	out.Transactions = append([]models.ReviewTransaction{t}, out.Transactions...)
	return out.recompute(), t, nil
}

// BulkUpdate applies one patch to every listed transaction. Unknown ids fail
// the whole edit.
func (s Session) BulkUpdate(tempIDs []string, p Patch) (Session, error) {
	if err := s.editable(); err != nil {
		return s, err
	}
	if err := p.Validate(); err != nil {
		return s, err
	}
	out := s.clone()
	for _, id := range tempIDs {
		i := out.index(id)
		if i < 0 {
			return s, fmt.Errorf("%w: %s", ErrUnknownTransaction, id)
		}
		out.Transactions[i] = p.apply(out.Transactions[i])
	}
	return out.recompute(), nil
}

func (s Session) SetOpeningBalance(v float64) (Session, error) {
	if err := s.editable(); err != nil {
		return s, err
	}
	out := s.clone()
	out.OpeningBalance = v
	return out.recompute(), nil
}

func (s Session) SetOverride(monthKey string, v float64) (Session, error) {
	if err := s.editable(); err != nil {
		return s, err
	}
	if _, err := time.Parse("2006-01", monthKey); err != nil {
		return s, fmt.Errorf("%w: invalid month key %q", ErrInvalidEdit, monthKey)
	}
	out := s.clone()
	out.Overrides[monthKey] = v
	return out.recompute(), nil
}

func (s Session) ClearOverride(monthKey string) (Session, error) {
	if err := s.editable(); err != nil {
		return s, err
	}
	out := s.clone()
	delete(out.Overrides, monthKey)
	return out.recompute(), nil
}

// Query filters and orders the review list.
type Query struct {
	Search string `json:"q"`
	Type   string `json:"type"`  // all, debit or credit
	SortBy string `json:"sort"`  // date, amount or category
	Order  string `json:"order"` // asc or desc
}

// List returns the matching transactions, newest first by default.
func (s Session) List(q Query) []models.ReviewTransaction {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	kind := strings.ToLower(q.Type)

	out := make([]models.ReviewTransaction, 0, len(s.Transactions))
	for _, t := range s.Transactions {
		if term != "" &&
			!strings.Contains(strings.ToLower(t.Description), term) &&
			!strings.Contains(strings.ToLower(string(t.Category)), term) {
			continue
		}
		if kind != "" && kind != "all" && string(t.Type) != kind {
			continue
		}
		out = append(out, t)
	}

	var less func(a, b models.ReviewTransaction) bool
	switch strings.ToLower(q.SortBy) {
	case "amount":
		less = func(a, b models.ReviewTransaction) bool { return a.Amount < b.Amount }
	case "category":
		less = func(a, b models.ReviewTransaction) bool { return a.Category < b.Category }
	default:
		less = func(a, b models.ReviewTransaction) bool { return a.Date.Before(b.Date) }
	}
	asc := strings.EqualFold(q.Order, "asc")
	sort.SliceStable(out, func(i, j int) bool {
		if asc {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	return out
}
