// Package estimator turns validated requests into healthcare cost estimates,
// either from a trained artifact or from a fixed heuristic formula.
package estimator

import (
	"context"
	"errors"

	"github.com/lesotho-health/cost-api/pkg/artifact"
	"github.com/lesotho-health/cost-api/pkg/types"
)

// DefaultMinCost is the lowest cost either path will return
const DefaultMinCost = 1000.0

// ErrEstimationFailure means the computation itself failed for a valid request
var ErrEstimationFailure = errors.New("estimation failure")

// Estimate is the unrounded outcome of one estimation
type Estimate struct {
	Cost    float64
	Raw     float64
	Floored bool
	Method  types.EstimationMethod
	Label   string
}

// Estimator computes a cost for a validated request. Implementations hold no
// mutable state and are safe for concurrent use.
type Estimator interface {
	Estimate(ctx context.Context, req types.PredictionRequest) (Estimate, error)
	Method() types.EstimationMethod
	Label() string
}

// Options configures estimator construction
type Options struct {
	// MinCost floors every estimate. Zero means DefaultMinCost.
	MinCost float64

	// Perturber adjusts heuristic estimates. Nil means NoPerturbation.
	Perturber Perturber
}

func (o Options) withDefaults() Options {
	if o.MinCost <= 0 {
		o.MinCost = DefaultMinCost
	}
	if o.Perturber == nil {
		o.Perturber = NoPerturbation{}
	}
	return o
}

// New picks the model path when an artifact is present, the heuristic
// path otherwise
func New(a *artifact.Artifact, opts Options) Estimator {
	if a != nil {
		return NewModel(a, opts)
	}
	return NewHeuristic(opts)
}

func floor(raw, min float64) (float64, bool) {
	if raw < min {
		return min, true
	}
	return raw, false
}
