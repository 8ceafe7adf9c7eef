package compare

import (
	"strings"

	"github.com/yurifrl/vizbuck/pkg/models"
	"github.com/yurifrl/vizbuck/pkg/ynab"
)

// Equal compares a ledger transaction with a YNAB one on the three fields
// both systems keep stable: calendar day, payee and signed milliunits.
func Equal(local models.Transaction, remote *ynab.Transaction) bool {
	if remote == nil || remote.Transaction == nil {
		return false
	}
	if ynab.Milliunits(local) != remote.Amount {
		return false
	}
	if remote.PayeeName == nil || !strings.EqualFold(ynab.Payee(local), strings.TrimSpace(*remote.PayeeName)) {
		return false
	}
	return local.Date.Format("2006-01-02") == remote.Date.Format("2006-01-02")
}
