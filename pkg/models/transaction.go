package models

import (
	"strings"
	"time"
)

// TransactionType carries the direction of a transaction; amounts are always positive.
type TransactionType string

const (
	Credit TransactionType = "credit"
	Debit  TransactionType = "debit"
)

// PaymentMethod decides which liquidity channel a transaction moves.
type PaymentMethod string

const (
	UPI         PaymentMethod = "UPI"
	Card        PaymentMethod = "Card"
	NetBanking  PaymentMethod = "Net Banking"
	Cash        PaymentMethod = "Cash"
	OtherMethod PaymentMethod = "Other"
)

var paymentMethods = []PaymentMethod{UPI, Card, NetBanking, Cash, OtherMethod}

// ParsePaymentMethod matches s case-insensitively against the known methods.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	for _, m := range paymentMethods {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, true
		}
	}
	return "", false
}

// Nature is the need/want/luxury/saving/income dimension, independent of category.
// Adjustment transactions only correct balances and never count as period flow.
type Nature string

const (
	Need       Nature = "need"
	Want       Nature = "want"
	Luxury     Nature = "luxury"
	Saving     Nature = "saving"
	Income     Nature = "income"
	Adjustment Nature = "adjustment"
)

var natures = []Nature{Need, Want, Luxury, Saving, Income, Adjustment}

func ParseNature(s string) (Nature, bool) {
	for _, n := range natures {
		if strings.EqualFold(strings.TrimSpace(s), string(n)) {
			return n, true
		}
	}
	return "", false
}

type Category string

const (
	FoodDining    Category = "Food & Dining"
	Groceries     Category = "Groceries (Blinkit/Zepto)"
	Transport     Category = "Transport & Fuel"
	Utilities     Category = "Utilities & Bills"
	Shopping      Category = "Shopping"
	Housing       Category = "Housing/Rent"
	Entertainment Category = "Entertainment"
	Health        Category = "Health & Medical"
	DomesticHelp  Category = "Domestic Help (Maid/Cook)"
	Investments   Category = "SIP & Investments"
	SalaryIncome  Category = "Salary & Income"
	Others        Category = "Others"
)

var categories = []Category{
	FoodDining, Groceries, Transport, Utilities, Shopping, Housing,
	Entertainment, Health, DomesticHelp, Investments, SalaryIncome, Others,
}

// Categories returns the closed category enumeration in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func ParseCategory(s string) (Category, bool) {
	for _, c := range categories {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return "", false
}

// Transaction is a committed ledger entry.
type Transaction struct {
	ID            string          `json:"id" yaml:"id" bson:"id"`
	Description   string          `json:"description" yaml:"description" bson:"description"`
	Amount        float64         `json:"amount" yaml:"amount" bson:"amount"`
	Category      Category        `json:"category" yaml:"category" bson:"category"`
	Date          time.Time       `json:"date" yaml:"date" bson:"date"`
	Type          TransactionType `json:"type" yaml:"type" bson:"type"`
	PaymentMethod PaymentMethod   `json:"paymentMethod" yaml:"payment_method" bson:"paymentMethod"`
	Nature        Nature          `json:"nature" yaml:"nature" bson:"nature"`
}

// Signed returns the amount with the direction applied: credits positive, debits negative.
func (t Transaction) Signed() float64 {
	if t.Type == Debit {
		return -t.Amount
	}
	return t.Amount
}

// ReviewTransaction is a partially populated transaction living only inside an
// import review. TempID identifies it until commit replaces it with a real ID.
type ReviewTransaction struct {
	TempID        string          `json:"_tempId"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	Amount        float64         `json:"amount"`
	Type          TransactionType `json:"type"`
	Category      Category        `json:"category"`
	Nature        Nature          `json:"nature"`
	PaymentMethod PaymentMethod   `json:"paymentMethod,omitempty"`
}

// MonthlyMetric is a derived row of the import review table.
type MonthlyMetric struct {
	MonthKey         string  `json:"monthKey"`
	Label            string  `json:"label"`
	TransactionCount int     `json:"transactionCount"`
	OpeningBalance   float64 `json:"openingBalance"`
	TotalCredits     float64 `json:"totalCredits"`
	TotalDebits      float64 `json:"totalDebits"`
	NetChange        float64 `json:"netChange"`
	ClosingBalance   float64 `json:"closingBalance"`
}
