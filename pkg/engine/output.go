package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lesotho-health/cost-api/pkg/diff"
	"github.com/lesotho-health/cost-api/pkg/explainability"
	"github.com/lesotho-health/cost-api/pkg/types"
)

// OutputJSON writes v as indented JSON
func OutputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// OutputPrediction writes a human-readable prediction report
func OutputPrediction(w io.Writer, r *types.PredictionResult) error {
	fmt.Fprintln(w, "\n╔════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║           HEALTHCARE COST PREDICTION                       ║")
	fmt.Fprintln(w, "╚════════════════════════════════════════════════════════════╝")

	fmt.Fprintf(w, "\nPrediction ID: %s\n", r.ID)
	fmt.Fprintf(w, "Model:         %s\n", r.ModelUsed)
	fmt.Fprintf(w, "Mode:          %s\n", methodSymbol(r.Method))
	fmt.Fprintf(w, "\n  %s\n", r.ConfidenceInfo)

	fmt.Fprintln(w, "\n╔════════════════════════════════════════════════════════════╗")
	fmt.Fprintf(w, "║  PREDICTED ANNUAL COST:  M%-12.2f                     ║\n", r.Cost)
	fmt.Fprintln(w, "╚════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(w)
	return nil
}

// OutputExplanation writes an explanation as a table
func OutputExplanation(w io.Writer, x *explainability.Explanation) error {
	fmt.Fprintln(w, "\n╔════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║           PREDICTION EXPLANATION                           ║")
	fmt.Fprintln(w, "╚════════════════════════════════════════════════════════════╝")
	fmt.Fprintf(w, "\nModel: %s (%s)\n", x.ModelUsed, methodSymbol(x.Method))

	if len(x.Terms) > 0 {
		section(w, "COST FACTORS")
		for _, t := range x.Terms {
			label := t.Name
			if t.Value != "" {
				label = fmt.Sprintf("%s (%s)", t.Name, t.Value)
			}
			marker := ""
			if t.Defaulted {
				marker = "  ⚠ unknown, counted as 0"
			}
			fmt.Fprintf(w, "  %-34s %+10.2f  = M%10.2f%s\n", label, t.Amount, t.RunningTotal, marker)
		}
	}

	if len(x.Features) > 0 {
		section(w, "MODEL INPUT")
		if x.Intercept != nil {
			fmt.Fprintf(w, "  %-34s %10s %10s %+10.2f\n", "intercept", "", "", *x.Intercept)
		}
		for _, f := range x.Features {
			contribution := ""
			if f.Contribution != nil {
				contribution = fmt.Sprintf("%+10.2f", *f.Contribution)
			}
			fmt.Fprintf(w, "  %-34s %10.2f %10.4f %s\n", f.Name, f.Value, f.Scaled, contribution)
		}
	}

	if len(x.Summary) > 0 {
		section(w, "SUMMARY")
		for _, line := range x.Summary {
			fmt.Fprintf(w, "  • %s\n", line)
		}
	}

	fmt.Fprintln(w, "\n╔════════════════════════════════════════════════════════════╗")
	fmt.Fprintf(w, "║  PREDICTED ANNUAL COST:  M%-12.2f                     ║\n", x.Cost)
	fmt.Fprintln(w, "╚════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(w)
	return nil
}

// OutputDiff writes a what-if comparison
func OutputDiff(w io.Writer, d *diff.DetailedDiff) error {
	fmt.Fprintln(w, "\n╔════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║           COST DIFFERENCE REPORT                           ║")
	fmt.Fprintln(w, "╚════════════════════════════════════════════════════════════╝")

	if len(d.ChangedFields) > 0 {
		section(w, "CHANGED INPUTS")
		for _, c := range d.ChangedFields {
			fmt.Fprintf(w, "  %-28s %s → %s\n", c.Field, c.Before, c.After)
		}
	}

	if changed := diff.Changed(d.Terms); len(changed) > 0 {
		section(w, "COST FACTOR CHANGES")
		for _, t := range changed {
			fmt.Fprintf(w, "  %-28s %+10.2f\n", t.Name, t.Delta)
		}
	}

	fmt.Fprintf(w, "\nBefore:  M%.2f\n", d.BeforeTotal)
	fmt.Fprintf(w, "After:   M%.2f\n", d.AfterTotal)

	deltaSymbol := "↑"
	if d.TotalDelta < 0 {
		deltaSymbol = "↓"
	}
	fmt.Fprintf(w, "Delta:   %s M%.2f (%.1f%%)\n", deltaSymbol, d.TotalDelta, d.PercentChange)

	fmt.Fprintln(w)
	return nil
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w, "\n┌─────────────────────────────────────────────────────────────┐")
	fmt.Fprintf(w, "│ %-60s│\n", title)
	fmt.Fprintln(w, "└─────────────────────────────────────────────────────────────┘")
}

func methodSymbol(m types.EstimationMethod) string {
	switch m {
	case types.MethodModel:
		return "✓ TRAINED MODEL"
	case types.MethodHeuristic:
		return "● DEMO MODE"
	default:
		return strings.ToUpper(string(m))
	}
}
