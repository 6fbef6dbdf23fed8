package estimator

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/lesotho-health/cost-api/pkg/artifact"
	"github.com/lesotho-health/cost-api/pkg/encoding"
	"github.com/lesotho-health/cost-api/pkg/types"
)

// ModelEstimator runs requests through a trained artifact
type ModelEstimator struct {
	artifact *artifact.Artifact
	opts     Options
}

func NewModel(a *artifact.Artifact, opts Options) *ModelEstimator {
	return &ModelEstimator{artifact: a, opts: opts.withDefaults()}
}

func (m *ModelEstimator) Method() types.EstimationMethod { return types.MethodModel }

func (m *ModelEstimator) Label() string { return m.artifact.DisplayName() }

func (m *ModelEstimator) MinCost() float64 { return m.opts.MinCost }

func (m *ModelEstimator) Artifact() *artifact.Artifact { return m.artifact }

// Trace records what the regressor saw for one request
type Trace struct {
	Encoded map[string]float64 `json:"encoded"`
	Missing []string           `json:"missing_features,omitempty"`
	Dropped []string           `json:"dropped_features,omitempty"`
	Aligned []float64          `json:"aligned"`
	Scaled  []float64          `json:"scaled"`
	Raw     float64            `json:"raw"`
}

func (m *ModelEstimator) Estimate(ctx context.Context, req types.PredictionRequest) (Estimate, error) {
	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}

	trace, err := m.Inspect(req)
	if err != nil {
		return Estimate{}, err
	}

	cost, floored := floor(trace.Raw, m.opts.MinCost)
	return Estimate{
		Cost:    cost,
		Raw:     trace.Raw,
		Floored: floored,
		Method:  types.MethodModel,
		Label:   m.Label(),
	}, nil
}

// Inspect runs the pipeline step by step. Unknown categories surface as
// *encoding.UnknownCategoryError; anything else wraps ErrEstimationFailure.
func (m *ModelEstimator) Inspect(req types.PredictionRequest) (*Trace, error) {
	a := m.artifact

	encoded, err := a.Encoder.Encode(req.Numeric(), req.Categorical())
	if err != nil {
		if errors.Is(err, encoding.ErrUnknownCategory) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: encode: %v", ErrEstimationFailure, err)
	}

	alignment := encoding.AlignWithReport(encoded, a.Features)

	scaled, err := a.Scaler.Transform(alignment.Vector)
	if err != nil {
		return nil, fmt.Errorf("%w: scale: %v", ErrEstimationFailure, err)
	}

	raw, err := a.Model.Predict(scaled)
	if err != nil {
		return nil, fmt.Errorf("%w: regress: %v", ErrEstimationFailure, err)
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return nil, fmt.Errorf("%w: model produced non-finite output", ErrEstimationFailure)
	}

	return &Trace{
		Encoded: encoded,
		Missing: alignment.Missing,
		Dropped: alignment.Dropped,
		Aligned: alignment.Vector,
		Scaled:  scaled,
		Raw:     raw,
	}, nil
}
