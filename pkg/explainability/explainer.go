package explainability

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lesotho-health/cost-api/pkg/artifact"
	"github.com/lesotho-health/cost-api/pkg/estimator"
	"github.com/lesotho-health/cost-api/pkg/types"
)

// Explainer generates step-by-step explanations of cost estimates
type Explainer struct{}

func New() *Explainer {
	return &Explainer{}
}

// Explain estimates req with est and records how the number came about
func (e *Explainer) Explain(ctx context.Context, est estimator.Estimator, req types.PredictionRequest) (*Explanation, error) {
	result, err := est.Estimate(ctx, req)
	if err != nil {
		return nil, err
	}

	explanation := &Explanation{
		Method:       result.Method,
		ModelUsed:    result.Label,
		Currency:     types.Currency,
		Cost:         decimal.NewFromFloat(result.Cost).Round(2).InexactFloat64(),
		RawCost:      result.Raw,
		FloorApplied: result.Floored,
		Request:      req,
	}
	if f, ok := est.(interface{ MinCost() float64 }); ok {
		explanation.MinCost = f.MinCost()
	}

	switch est := est.(type) {
	case *estimator.HeuristicEstimator:
		e.explainHeuristic(explanation, est, req)
	case *estimator.ModelEstimator:
		if err := e.explainModel(explanation, est, req); err != nil {
			return nil, err
		}
	}

	explanation.Summary = e.summarize(explanation)
	return explanation, nil
}

func (e *Explainer) explainHeuristic(x *Explanation, h *estimator.HeuristicEstimator, req types.PredictionRequest) {
	b := h.Breakdown(req)
	x.Subtotal = b.Subtotal
	x.Perturbed = h.Perturbed()

	running := 0.0
	for _, c := range b.Contributions {
		running += c.Amount
		x.Terms = append(x.Terms, TermExplanation{
			Name:         c.Name,
			Field:        c.Field,
			Value:        c.Value,
			Amount:       c.Amount,
			RunningTotal: running,
			Defaulted:    c.Defaulted,
		})
	}
}

func (e *Explainer) explainModel(x *Explanation, m *estimator.ModelEstimator, req types.PredictionRequest) error {
	trace, err := m.Inspect(req)
	if err != nil {
		return err
	}

	a := m.Artifact()
	x.Subtotal = trace.Raw
	x.MissingFeatures = trace.Missing
	x.DroppedFeatures = trace.Dropped
	x.Encoding = string(a.Scheme)

	linear, _ := a.Model.(*artifact.LinearRegression)
	if linear != nil {
		intercept := linear.Intercept
		x.Intercept = &intercept
	}

	for i, name := range a.Features {
		f := FeatureExplanation{
			Name:   name,
			Value:  trace.Aligned[i],
			Scaled: trace.Scaled[i],
		}
		if linear != nil {
			c := linear.Coefficients[i] * trace.Scaled[i]
			f.Contribution = &c
		}
		x.Features = append(x.Features, f)
	}
	return nil
}

func (e *Explainer) summarize(x *Explanation) []string {
	var lines []string

	switch x.Method {
	case types.MethodHeuristic:
		lines = append(lines, fmt.Sprintf("Additive heuristic: %d terms sum to M%.2f", len(x.Terms), x.Subtotal))
		for _, t := range x.Terms {
			if t.Defaulted {
				lines = append(lines, fmt.Sprintf("%s value %q has no known cost and counted as M0", t.Field, t.Value))
			}
		}
		if x.Perturbed {
			lines = append(lines, fmt.Sprintf("Random variation of up to ±%.0f%% applied: M%.2f", estimator.DefaultSpread*100, x.RawCost))
		}
	case types.MethodModel:
		lines = append(lines, fmt.Sprintf("%s over %d %s-encoded features produced M%.2f", x.ModelUsed, len(x.Features), x.Encoding, x.RawCost))
		if len(x.MissingFeatures) > 0 {
			lines = append(lines, fmt.Sprintf("%d features absent from the request were set to 0", len(x.MissingFeatures)))
		}
	}

	if x.FloorApplied {
		lines = append(lines, fmt.Sprintf("Raised to the minimum cost of M%.2f", x.MinCost))
	}
	return lines
}

// Data structures for explanations

type Explanation struct {
	Method       types.EstimationMethod  `json:"method"`
	ModelUsed    string                  `json:"model_used"`
	Currency     string                  `json:"currency"`
	Cost         float64                 `json:"predicted_healthcare_cost"`
	RawCost      float64                 `json:"raw_cost"`
	Subtotal     float64                 `json:"subtotal"`
	MinCost      float64                 `json:"min_cost"`
	FloorApplied bool                    `json:"floor_applied"`
	Perturbed    bool                    `json:"perturbed"`
	Request      types.PredictionRequest `json:"request"`

	// Heuristic path
	Terms []TermExplanation `json:"terms,omitempty"`

	// Model path
	Encoding        string               `json:"encoding,omitempty"`
	Intercept       *float64             `json:"intercept,omitempty"`
	Features        []FeatureExplanation `json:"features,omitempty"`
	MissingFeatures []string             `json:"missing_features,omitempty"`
	DroppedFeatures []string             `json:"dropped_features,omitempty"`

	Summary []string `json:"summary"`
}

type TermExplanation struct {
	Name         string  `json:"name"`
	Field        string  `json:"field,omitempty"`
	Value        string  `json:"value,omitempty"`
	Amount       float64 `json:"amount"`
	RunningTotal float64 `json:"running_total"`
	Defaulted    bool    `json:"defaulted,omitempty"`
}

type FeatureExplanation struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Scaled float64 `json:"scaled"`
	// Contribution is coefficient × scaled value, linear models only
	Contribution *float64 `json:"contribution,omitempty"`
}
