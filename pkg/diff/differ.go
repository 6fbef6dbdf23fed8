package diff

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/lesotho-health/cost-api/pkg/estimator"
	"github.com/lesotho-health/cost-api/pkg/types"
)

// Differ compares two predictions for what-if analysis
type Differ struct{}

func New() *Differ {
	return &Differ{}
}

// Diff compares the inputs and costs of two predictions
func (d *Differ) Diff(beforeReq, afterReq types.PredictionRequest, before, after *types.PredictionResult) *DetailedDiff {
	delta := decimal.NewFromFloat(after.Cost).Sub(decimal.NewFromFloat(before.Cost))

	diff := &DetailedDiff{
		BeforeID:      before.ID,
		AfterID:       after.ID,
		BeforeTotal:   before.Cost,
		AfterTotal:    after.Cost,
		TotalDelta:    delta.InexactFloat64(),
		ChangedFields: d.changedFields(beforeReq, afterReq),
	}

	if before.Cost > 0 {
		diff.PercentChange = delta.Div(decimal.NewFromFloat(before.Cost)).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}
	return diff
}

// DiffBreakdowns provides term-by-term comparison of two heuristic breakdowns
func (d *Differ) DiffBreakdowns(before, after estimator.Breakdown) []TermDiff {
	var diffs []TermDiff

	beforeMap := make(map[string]estimator.Contribution)
	for _, c := range before.Contributions {
		beforeMap[c.Name] = c
	}

	for _, a := range after.Contributions {
		b := beforeMap[a.Name]
		termDiff := TermDiff{
			Name:        a.Name,
			BeforeValue: b.Value,
			AfterValue:  a.Value,
			Before:      b.Amount,
			After:       a.Amount,
			Delta:       a.Amount - b.Amount,
		}
		if termDiff.Delta != 0 {
			termDiff.ChangeType = "MODIFIED"
		} else {
			termDiff.ChangeType = "UNCHANGED"
		}
		diffs = append(diffs, termDiff)
	}

	return diffs
}

func (d *Differ) changedFields(before, after types.PredictionRequest) []FieldChange {
	b := fieldValues(before)
	a := fieldValues(after)

	var changes []FieldChange
	for _, field := range types.InputFields {
		if b[field] != a[field] {
			changes = append(changes, FieldChange{Field: field, Before: b[field], After: a[field]})
		}
	}
	return changes
}

func fieldValues(r types.PredictionRequest) map[string]string {
	values := r.Categorical()
	for k, v := range r.Numeric() {
		values[k] = fmt.Sprintf("%g", v)
	}
	return values
}

// Data structures

type DetailedDiff struct {
	BeforeID      string        `json:"before_id"`
	AfterID       string        `json:"after_id"`
	BeforeTotal   float64       `json:"before_total"`
	AfterTotal    float64       `json:"after_total"`
	TotalDelta    float64       `json:"total_delta"`
	PercentChange float64       `json:"percent_change"`
	ChangedFields []FieldChange `json:"changed_fields"`
	// Terms is only set for heuristic estimates
	Terms []TermDiff `json:"terms,omitempty"`
}

type FieldChange struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

type TermDiff struct {
	Name        string  `json:"name"`
	ChangeType  string  `json:"change_type"`
	BeforeValue string  `json:"before_value,omitempty"`
	AfterValue  string  `json:"after_value,omitempty"`
	Before      float64 `json:"before"`
	After       float64 `json:"after"`
	Delta       float64 `json:"delta"`
}

// Changed returns only the terms whose amount moved, largest first
func Changed(terms []TermDiff) []TermDiff {
	var out []TermDiff
	for _, t := range terms {
		if t.ChangeType == "MODIFIED" {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return abs(out[i].Delta) > abs(out[j].Delta)
	})
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
