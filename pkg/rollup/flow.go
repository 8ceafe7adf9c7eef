package rollup

import (
	"slices"
	"time"

	"github.com/yurifrl/vizbuck/pkg/models"
)

// Direction is how an asset snapshot is walked to a reference date.
type Direction int

const (
	// ForwardApply walks a snapshot taken at or before the reference date forward.
	ForwardApply Direction = iota
	// Rewind undoes transactions between the reference date and a later snapshot.
	Rewind
)

func (d Direction) String() string {
	if d == Rewind {
		return "rewind"
	}
	return "forward"
}

// DecideDirection rewinds only when the snapshot is strictly after end.
func DecideDirection(asOf, end time.Time) Direction {
	if asOf.After(end) {
		return Rewind
	}
	return ForwardApply
}

// Flow is a channel's movement over one period.
type Flow struct {
	Opening float64 `json:"opening"`
	Closing float64 `json:"closing"`
	Inflow  float64 `json:"inflow"`
	Outflow float64 `json:"outflow"`
}

func (f Flow) Add(o Flow) Flow {
	return Flow{
		Opening: f.Opening + o.Opening,
		Closing: f.Closing + o.Closing,
		Inflow:  f.Inflow + o.Inflow,
		Outflow: f.Outflow + o.Outflow,
	}
}

// Reconcile walks asset.Amount from asset.AsOfDate to end using the
// transactions paid with one of methods. The window is (end, asOf] when
// rewinding and (asOf, end] when applying forward.
func Reconcile(asset models.Asset, end time.Time, methods []models.PaymentMethod, txns []models.Transaction) float64 {
	value := asset.Amount
	asOf := asset.AsOfDate

	switch DecideDirection(asOf, end) {
	case Rewind:
		for _, t := range txns {
			if !t.Date.After(end) || t.Date.After(asOf) || !slices.Contains(methods, t.PaymentMethod) {
				continue
			}
			value -= t.Signed()
		}
	case ForwardApply:
		for _, t := range txns {
			if !t.Date.After(asOf) || t.Date.After(end) || !slices.Contains(methods, t.PaymentMethod) {
				continue
			}
			value += t.Signed()
		}
	}
	return value
}

// CalculateAssetFlow reconciles every asset of the given types to end for the
// closing balance, then walks back through the period's non-adjustment
// transactions from the first of end's month to end to derive the opening.
// A channel without assets reports a zero flow.
func CalculateAssetFlow(types []models.AssetType, methods []models.PaymentMethod, end time.Time, assets []models.Asset, txns []models.Transaction) Flow {
	var (
		f     Flow
		found bool
	)
	for _, a := range assets {
		if !slices.Contains(types, a.Type) {
			continue
		}
		found = true
		f.Closing += Reconcile(a, end, methods, txns)
	}
	if !found {
		return Flow{}
	}

	start := MonthStart(end)
	f.Opening = f.Closing
	for _, t := range txns {
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		if !slices.Contains(methods, t.PaymentMethod) || t.Nature == models.Adjustment {
			continue
		}
		if t.Type == models.Debit {
			f.Opening += t.Amount
			f.Outflow += t.Amount
		} else {
			f.Opening -= t.Amount
			f.Inflow += t.Amount
		}
	}
	return f
}

// MonthStart is midnight on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthEnd is 23:59:59 on the last day of the given month.
func MonthEnd(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 0, 23, 59, 59, 0, time.UTC)
}
