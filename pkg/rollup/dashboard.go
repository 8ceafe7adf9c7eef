package rollup

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/yurifrl/vizbuck/pkg/models"
)

// Channel is a liquidity channel: the asset types it holds and the payment
// methods whose transactions move it.
type Channel struct {
	Name       string
	AssetTypes []models.AssetType
	Methods    []models.PaymentMethod
}

var (
	BankChannel = Channel{Name: "bank", AssetTypes: []models.AssetType{models.Bank},
		Methods: []models.PaymentMethod{models.UPI, models.NetBanking, models.OtherMethod}}
	CashChannel = Channel{Name: "cash", AssetTypes: []models.AssetType{models.CashWallet},
		Methods: []models.PaymentMethod{models.Cash}}
	CreditChannel = Channel{Name: "credit", AssetTypes: []models.AssetType{models.CreditCard},
		Methods: []models.PaymentMethod{models.Card}}
	// receivables are pure snapshots; no transaction ever moves them
	ReceivableChannel = Channel{Name: "receivable", AssetTypes: []models.AssetType{models.Receivable}}
)

// ReserveTypes are taken at face value with no reconciliation.
var ReserveTypes = []models.AssetType{
	models.Stock, models.USStock, models.Crypto, models.Fund, models.Deposit, models.RealEstate,
	models.ELSS, models.PF, models.Metal, models.NPS, models.OtherAsset,
}

func (c Channel) Flow(end time.Time, assets []models.Asset, txns []models.Transaction) Flow {
	return CalculateAssetFlow(c.AssetTypes, c.Methods, end, assets, txns)
}

// Change holds period-over-period percentage changes.
type Change struct {
	Opening float64 `json:"opening"`
	Closing float64 `json:"closing"`
	Inflow  float64 `json:"inflow"`
	Outflow float64 `json:"outflow"`
}

func changeOf(curr, prev Flow) Change {
	return Change{
		Opening: PercentageChange(curr.Opening, prev.Opening),
		Closing: PercentageChange(curr.Closing, prev.Closing),
		Inflow:  PercentageChange(curr.Inflow, prev.Inflow),
		Outflow: PercentageChange(curr.Outflow, prev.Outflow),
	}
}

type Channels struct {
	Bank       Flow `json:"bank"`
	Cash       Flow `json:"cash"`
	Credit     Flow `json:"credit"`
	Receivable Flow `json:"receivable"`
}

// Liquidity sums bank, cash and credit. Receivables are not liquid.
func (c Channels) Liquidity() Flow {
	return c.Bank.Add(c.Cash).Add(c.Credit)
}

// Summary is everything the dashboard shows for one month.
type Summary struct {
	Year        int       `json:"year"`
	Month       string    `json:"month"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`

	Current  Channels `json:"current"`
	Previous Channels `json:"previous"`

	Liquidity       Flow   `json:"liquidity"`
	PrevLiquidity   Flow   `json:"prevLiquidity"`
	LiquidityChange Change `json:"liquidityChange"`

	TotalReserves float64        `json:"totalReserves"`
	ReserveAssets []models.Asset `json:"reserveAssets"`
	NetWorth      float64        `json:"netWorth"`

	MonthTransactions []models.Transaction `json:"monthTransactions"`
}

// Dashboard computes the rollup for the given month and the one before it.
func Dashboard(year int, month time.Month, assets []models.Asset, txns []models.Transaction) Summary {
	end := MonthEnd(year, month)
	prevEnd := MonthEnd(year, month-1)

	s := Summary{
		Year:        year,
		Month:       month.String(),
		PeriodStart: MonthStart(end),
		PeriodEnd:   end,
		Current:     channelsAt(end, assets, txns),
		Previous:    channelsAt(prevEnd, assets, txns),
	}
	s.Liquidity = s.Current.Liquidity()
	s.PrevLiquidity = s.Previous.Liquidity()
	s.LiquidityChange = changeOf(s.Liquidity, s.PrevLiquidity)

	for _, a := range assets {
		if slices.Contains(ReserveTypes, a.Type) {
			s.ReserveAssets = append(s.ReserveAssets, a)
			s.TotalReserves += a.Amount
		}
	}
	s.NetWorth = s.Current.Bank.Closing + s.Current.Cash.Closing + s.Current.Credit.Closing +
		s.Current.Receivable.Closing + s.TotalReserves

	s.MonthTransactions = MonthTransactions(s.PeriodStart, end, txns)
	return s
}

func channelsAt(end time.Time, assets []models.Asset, txns []models.Transaction) Channels {
	return Channels{
		Bank:       BankChannel.Flow(end, assets, txns),
		Cash:       CashChannel.Flow(end, assets, txns),
		Credit:     CreditChannel.Flow(end, assets, txns),
		Receivable: ReceivableChannel.Flow(end, assets, txns),
	}
}

// MonthTransactions returns the period's transactions without adjustments.
func MonthTransactions(start, end time.Time, txns []models.Transaction) []models.Transaction {
	var out []models.Transaction
	for _, t := range txns {
		if t.Date.Before(start) || t.Date.After(end) || t.Nature == models.Adjustment {
			continue
		}
		out = append(out, t)
	}
	return out
}

// PercentageChange is (curr-prev)/prev*100, with 0 when both are zero and 100
// when only prev is zero.
func PercentageChange(curr, prev float64) float64 {
	if prev == 0 {
		if curr == 0 {
			return 0
		}
		return 100
	}
	return (curr - prev) / prev * 100
}

// ParseMonth accepts full or three-letter English month names, any case.
func ParseMonth(name string) (time.Month, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for m := time.January; m <= time.December; m++ {
		full := strings.ToLower(m.String())
		if n == full || (len(n) == 3 && strings.HasPrefix(full, n)) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", name)
}

// Years lists the distinct transaction years, newest first. With no
// transactions it returns the year of now.
func Years(txns []models.Transaction, now time.Time) []int {
	seen := map[int]bool{}
	var out []int
	for _, t := range txns {
		if y := t.Date.Year(); !seen[y] {
			seen[y] = true
			out = append(out, y)
		}
	}
	if len(out) == 0 {
		return []int{now.Year()}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
