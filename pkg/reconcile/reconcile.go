// Package reconcile compares ledger transactions with the ones already in a
// YNAB account. It holds no client, so the CLI and tests share it.
package reconcile

import (
	"github.com/brunomvsouza/ynab.go/api/transaction"

	"github.com/yurifrl/vizbuck/pkg/compare"
	"github.com/yurifrl/vizbuck/pkg/models"
	"github.com/yurifrl/vizbuck/pkg/ynab"
)

type Status int

const (
	Synced Status = iota
	ToAdd
)

// Entry links a local transaction with its remote counterpart, if any.
type Entry struct {
	Local  models.Transaction
	Remote *ynab.Transaction // nil when status == ToAdd
	Status Status
}

func (e Entry) RemoteCustomID() string {
	if e.Remote == nil {
		return ""
	}
	return e.Remote.CustomID()
}

type Report struct {
	Items  []Entry
	toSync []models.Transaction
}

// Build matches each local transaction to at most one remote transaction,
// by the memo custom id or by day/payee/amount. A remote transaction is
// never matched twice.
func Build(local []models.Transaction, remote []*ynab.Transaction, useCustomID bool) *Report {
	items := make([]Entry, 0, len(local))
	toSync := make([]models.Transaction, 0)
	used := make(map[*ynab.Transaction]bool, len(remote))

	byID := make(map[string]*ynab.Transaction, len(remote))
	if useCustomID {
		for _, rt := range remote {
			if id := rt.CustomID(); id != "" {
				byID[id] = rt
			}
		}
	}

	for _, lt := range local {
		var found *ynab.Transaction
		if useCustomID {
			if rt := byID[lt.ID]; rt != nil && !used[rt] {
				found = rt
			}
		}
		if found == nil {
			for _, rt := range remote {
				if !used[rt] && compare.Equal(lt, rt) {
					found = rt
					break
				}
			}
		}

		status := ToAdd
		if found != nil {
			status = Synced
			used[found] = true
		}
		items = append(items, Entry{Local: lt, Remote: found, Status: status})
		if status == ToAdd {
			toSync = append(toSync, lt)
		}
	}

	return &Report{Items: items, toSync: toSync}
}

func (r *Report) InSyncCount() int {
	return len(r.Items) - len(r.toSync)
}

func (r *Report) MissingCount() int {
	return len(r.toSync)
}

func (r *Report) TransactionsToSync() []models.Transaction {
	return r.toSync
}

// Payloads converts the transactions that still need syncing into YNAB API payloads.
func (r *Report) Payloads(accountID string) []transaction.PayloadTransaction {
	out := make([]transaction.PayloadTransaction, 0, len(r.toSync))
	for _, lt := range r.toSync {
		out = append(out, ynab.Payload(lt, accountID))
	}
	return out
}
