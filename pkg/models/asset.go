package models

import (
	"strings"
	"time"
)

type AssetType string

const (
	Bank       AssetType = "bank"
	CreditCard AssetType = "credit"
	CashWallet AssetType = "cash"
	Receivable AssetType = "receivable"

	Stock      AssetType = "stock"
	USStock    AssetType = "us_stock"
	Fund       AssetType = "fund"
	Crypto     AssetType = "crypto"
	Metal      AssetType = "metal"
	Deposit    AssetType = "deposit"
	RealEstate AssetType = "real_estate"
	PF         AssetType = "pf"
	EPF        AssetType = "epf"
	NPS        AssetType = "nps"
	ELSS       AssetType = "elss"
	OtherAsset AssetType = "other"
)

var assetTypes = []AssetType{
	Bank, CreditCard, CashWallet, Receivable,
	Stock, USStock, Fund, Crypto, Metal, Deposit, RealEstate, PF, EPF, NPS, ELSS, OtherAsset,
}

func ParseAssetType(s string) (AssetType, bool) {
	for _, t := range assetTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, true
		}
	}
	return "", false
}

// Asset holds a balance snapshot. Amount is only accurate as of AsOfDate.
type Asset struct {
	ID           string    `json:"id" yaml:"id" bson:"id"`
	Name         string    `json:"name" yaml:"name" bson:"name"`
	Amount       float64   `json:"amount" yaml:"amount" bson:"amount"`
	Type         AssetType `json:"type" yaml:"type" bson:"type"`
	AsOfDate     time.Time `json:"asOfDate" yaml:"as_of_date" bson:"asOfDate"`
	Change       float64   `json:"change,omitempty" yaml:"change,omitempty" bson:"change,omitempty"`
	Quantity     *float64  `json:"quantity,omitempty" yaml:"quantity,omitempty" bson:"quantity,omitempty"`
	CostPerUnit  *float64  `json:"costPerUnit,omitempty" yaml:"cost_per_unit,omitempty" bson:"costPerUnit,omitempty"`
	CurrentPrice *float64  `json:"currentPrice,omitempty" yaml:"current_price,omitempty" bson:"currentPrice,omitempty"`
}

// Ledger is the persisted unit: both lists are always written together.
type Ledger struct {
	Transactions []Transaction `json:"transactions" yaml:"transactions" bson:"transactions"`
	Assets       []Asset       `json:"assets" yaml:"assets" bson:"assets"`
}

// Clone returns a copy that shares no slices with l.
func (l Ledger) Clone() Ledger {
	out := Ledger{
		Transactions: make([]Transaction, len(l.Transactions)),
		Assets:       make([]Asset, len(l.Assets)),
	}
	copy(out.Transactions, l.Transactions)
	copy(out.Assets, l.Assets)
	return out
}

// FindAsset returns the index of the asset with the given id, or -1.
func (l Ledger) FindAsset(id string) int {
	for i, a := range l.Assets {
		if a.ID == id {
			return i
		}
	}
	return -1
}
