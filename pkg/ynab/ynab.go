package ynab

import (
	"fmt"
	"strings"
	"time"

	"github.com/brunomvsouza/ynab.go"
	"github.com/brunomvsouza/ynab.go/api"
	"github.com/brunomvsouza/ynab.go/api/account"
	"github.com/brunomvsouza/ynab.go/api/budget"
	"github.com/brunomvsouza/ynab.go/api/transaction"
	"github.com/shopspring/decimal"

	"github.com/yurifrl/vizbuck/pkg/models"
)

const (
	maxPayeeLen = 50
	maxMemoLen  = 200
)

// Remote is the slice of the YNAB API the mirror needs.
type Remote interface {
	GetTransactionsByAccount(budgetID, accountID string, since time.Time) ([]*Transaction, error)
	CreateTransactions(budgetID string, payloads []transaction.PayloadTransaction) error
}

// YNABClient wraps the original YNAB client.
type YNABClient struct {
	client ynab.ClientServicer
}

var _ Remote = (*YNABClient)(nil)

// Transaction wraps the core YNAB transaction adding CustomID extracted from
// the memo first CSV field.
type Transaction struct {
	*transaction.Transaction
	customID string
}

func Wrap(tx *transaction.Transaction) *Transaction {
	return &Transaction{Transaction: tx, customID: extractCustomID(tx)}
}

func extractCustomID(tx *transaction.Transaction) string {
	if tx == nil || tx.Memo == nil {
		return ""
	}
	memo := strings.Trim(*tx.Memo, "\"")
	if idx := strings.Index(memo, ","); idx > 0 {
		return memo[:idx]
	}
	return ""
}

func (t *Transaction) CustomID() string {
	return t.customID
}

func New(token string) *YNABClient {
	return &YNABClient{
		client: ynab.NewClient(token),
	}
}

func (c *YNABClient) Budget() *budget.Service {
	return c.client.Budget()
}

func (c *YNABClient) Account() *account.Service {
	return c.client.Account()
}

// GetTransactionsByAccount lists the account's transactions on or after
// since; a zero since lists everything.
func (c *YNABClient) GetTransactionsByAccount(budgetID, accountID string, since time.Time) ([]*Transaction, error) {
	var filter *transaction.Filter
	if !since.IsZero() {
		filter = &transaction.Filter{Since: &api.Date{Time: since}}
	}
	original, err := c.client.Transaction().GetTransactionsByAccount(budgetID, accountID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list YNAB transactions: %w", err)
	}

	out := make([]*Transaction, 0, len(original))
	for _, tx := range original {
		out = append(out, Wrap(tx))
	}
	return out, nil
}

// CreateTransactions creates multiple transactions in one API call
func (c *YNABClient) CreateTransactions(budgetID string, payloads []transaction.PayloadTransaction) error {
	if len(payloads) == 0 {
		return nil
	}
	if _, err := c.client.Transaction().CreateTransactions(budgetID, payloads); err != nil {
		return fmt.Errorf("failed to create YNAB transactions: %w", err)
	}
	return nil
}

// Milliunits converts a ledger amount to YNAB's signed thousandths.
func Milliunits(t models.Transaction) int64 {
	v := decimal.NewFromFloat(t.Amount).Mul(decimal.NewFromInt(1000)).Round(0).IntPart()
	if t.Type == models.Debit {
		return -v
	}
	return v
}

// Payee is the description as YNAB will store it.
func Payee(t models.Transaction) string {
	return truncate(strings.TrimSpace(t.Description), maxPayeeLen)
}

// Memo starts with the ledger id so a later sync can match on it.
func Memo(t models.Transaction) string {
	return truncate(fmt.Sprintf("%s,%s", t.ID, t.Category), maxMemoLen)
}

func Payload(t models.Transaction, accountID string) transaction.PayloadTransaction {
	payee := Payee(t)
	memo := Memo(t)
	return transaction.PayloadTransaction{
		AccountID: accountID,
		Date:      api.Date{Time: t.Date},
		Amount:    Milliunits(t),
		Cleared:   transaction.ClearingStatusCleared,
		Approved:  true,
		PayeeName: &payee,
		Memo:      &memo,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
