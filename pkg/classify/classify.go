// Package classify assigns a category and nature to statement descriptions.
// A Classifier answers for a whole batch; Apply merges the answers back by
// position and falls back to the extraction defaults when the batch cannot be
// trusted.
package classify

import (
	"context"
	"fmt"

	"github.com/yurifrl/vizbuck/pkg/models"
)

// Result is the classification of one description.
type Result struct {
	Category models.Category `json:"category"`
	Nature   models.Nature   `json:"nature"`
}

// Classifier returns exactly one Result per description, in input order.
type Classifier interface {
	Classify(ctx context.Context, descriptions []string) ([]Result, error)
}

// Outcome reports whether a batch was classified or fell back to defaults.
type Outcome struct {
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
}

// Apply classifies every record in one request and returns updated copies.
// Any error, a result count that differs from the input, or a value outside
// the known enumerations rejects the whole batch.
func Apply(ctx context.Context, c Classifier, records []models.ReviewTransaction) ([]models.ReviewTransaction, Outcome) {
	out := make([]models.ReviewTransaction, len(records))
	copy(out, records)
	if len(records) == 0 {
		return out, Outcome{}
	}
	if c == nil {
		return out, Outcome{Fallback: true, Reason: "classifier disabled"}
	}

	descriptions := make([]string, len(records))
	for i, r := range records {
		descriptions[i] = r.Description
	}

	results, err := c.Classify(ctx, descriptions)
	if err != nil {
		return out, Outcome{Fallback: true, Reason: err.Error()}
	}
	if len(results) != len(records) {
		return out, Outcome{
			Fallback: true,
			Reason:   fmt.Sprintf("classifier returned %d results for %d descriptions", len(results), len(records)),
		}
	}
	clean := make([]Result, len(results))
	for i, res := range results {
		if clean[i], err = res.normalize(); err != nil {
			return out, Outcome{Fallback: true, Reason: fmt.Sprintf("result %d: %v", i, err)}
		}
	}

	for i, res := range clean {
		out[i].Category = res.Category
		out[i].Nature = res.Nature
	}
	return out, Outcome{}
}

func (r Result) normalize() (Result, error) {
	c, ok := models.ParseCategory(string(r.Category))
	if !ok {
		return Result{}, fmt.Errorf("unknown category %q", r.Category)
	}
	n, ok := models.ParseNature(string(r.Nature))
	if !ok || n == models.Adjustment {
		return Result{}, fmt.Errorf("unknown nature %q", r.Nature)
	}
	return Result{Category: c, Nature: n}, nil
}
