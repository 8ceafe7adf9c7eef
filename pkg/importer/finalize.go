package importer

import (
	"errors"
	"fmt"
	"time"

	"github.com/yurifrl/vizbuck/pkg/cashflow"
	"github.com/yurifrl/vizbuck/pkg/models"
)

var (
	ErrNoTarget         = errors.New("no target account selected")
	ErrMissingAssetName = errors.New("new account needs a name")
	ErrUnknownAsset     = errors.New("unknown target account")
	ErrEmptyImport      = errors.New("nothing to import")
)

// DefaultDescription replaces blank descriptions at commit time.
const DefaultDescription = "Imported Transaction"

// Target names the account an import lands in: an existing asset, or a new
// one when New is set.
type Target struct {
	AssetID      string           `json:"asset_id,omitempty" yaml:"asset_id"`
	New          bool             `json:"new,omitempty" yaml:"-"`
	NewAssetName string           `json:"new_asset_name,omitempty" yaml:"new_asset_name"`
	AssetType    models.AssetType `json:"asset_type,omitempty" yaml:"asset_type"`
}

func (t Target) Validate() error {
	if t.New {
		if t.NewAssetName == "" {
			return ErrMissingAssetName
		}
		if t.AssetType != "" {
			if _, ok := models.ParseAssetType(string(t.AssetType)); !ok {
				return fmt.Errorf("unknown asset type %q", t.AssetType)
			}
		}
		return nil
	}
	if t.AssetID == "" {
		return ErrNoTarget
	}
	return nil
}

// Result summarizes a commit.
type Result struct {
	AssetID        string    `json:"assetId"`
	ClosingBalance float64   `json:"closingBalance"`
	AsOfDate       time.Time `json:"asOfDate"`
	Imported       int       `json:"imported"`
}

// Finalize merges a reviewed session into ledger and returns the ledger to
// persist. The target asset ends at the last month's closing balance as of
// the newest transaction date. Imported transactions go first.
func Finalize(ledger models.Ledger, s Session, target Target, now time.Time, newID func() string) (models.Ledger, Result, error) {
	if err := target.Validate(); err != nil {
		return models.Ledger{}, Result{}, err
	}
	if len(s.Transactions) == 0 {
		return models.Ledger{}, Result{}, ErrEmptyImport
	}

	out := ledger.Clone()
	closing := cashflow.FinalClosingBalance(cashflow.Monthly(s.Transactions, s.OpeningBalance, s.Overrides))
	asOf := latestDate(s.Transactions, now)

	res := Result{ClosingBalance: closing, AsOfDate: asOf, Imported: len(s.Transactions)}
	if target.New {
		kind := target.AssetType
		if kind == "" {
			kind = models.Bank
		}
		a := models.Asset{
			ID:       newID(),
			Name:     target.NewAssetName,
			Amount:   closing,
			Type:     kind,
			AsOfDate: asOf,
		}
		out.Assets = append(out.Assets, a)
		res.AssetID = a.ID
	} else {
		i := out.FindAsset(target.AssetID)
		if i < 0 {
			return models.Ledger{}, Result{}, fmt.Errorf("%w: %s", ErrUnknownAsset, target.AssetID)
		}
		out.Assets[i].Amount = closing
		out.Assets[i].AsOfDate = asOf
		res.AssetID = target.AssetID
	}

	method := s.PaymentMethod
	if method == "" {
		method = models.OtherMethod
	}
	txns := make([]models.Transaction, 0, len(s.Transactions)+len(out.Transactions))
	for _, r := range s.Transactions {
		txns = append(txns, commitTransaction(r, newID(), method, now))
	}
	out.Transactions = append(txns, out.Transactions...)
	return out, res, nil
}

func commitTransaction(r models.ReviewTransaction, id string, method models.PaymentMethod, now time.Time) models.Transaction {
	t := models.Transaction{
		ID:            id,
		Description:   r.Description,
		Amount:        r.Amount,
		Category:      r.Category,
		Date:          r.Date,
		Type:          r.Type,
		PaymentMethod: r.PaymentMethod,
		Nature:        r.Nature,
	}
	if t.Date.IsZero() {
		t.Date = now.UTC()
	}
	if t.Description == "" {
		t.Description = DefaultDescription
	}
	if t.Category == "" {
		t.Category = models.Others
	}
	if t.Type == "" {
		t.Type = models.Debit
	}
	if t.PaymentMethod == "" {
		t.PaymentMethod = method
	}
	if t.Nature == "" {
		t.Nature = models.Want
	}
	return t
}

func latestDate(txns []models.ReviewTransaction, now time.Time) time.Time {
	var latest time.Time
	for _, t := range txns {
		if t.Date.After(latest) {
			latest = t.Date
		}
	}
	if latest.IsZero() {
		return now.UTC()
	}
	return latest
}
