package engine

import (
	"github.com/lesotho-health/cost-api/pkg/estimator"
	"github.com/lesotho-health/cost-api/pkg/types"
)

// Status describes the estimator serving predictions
type Status struct {
	Method       types.EstimationMethod
	ModelType    string
	ModelLoaded  bool
	ScalerLoaded bool
	// Features the estimator consumes; the request fields in demo mode
	Features    []string
	Encoding    string
	Version     string
	Location    string
	Performance map[string]float64
	MinCost     float64
}

func (s Status) FeaturesCount() int {
	return len(s.Features)
}

// ModelStatus is "loaded" or "demo_mode"
func (s Status) ModelStatus() string {
	return s.Method.ModelStatus()
}

func (e *Engine) Status() Status {
	status := Status{
		Method:    e.estimator.Method(),
		ModelType: e.estimator.Label(),
		Features:  types.InputFields,
		Encoding:  "none",
		MinCost:   minCost(e.estimator),
	}

	if a := e.artifact; a != nil {
		status.ModelLoaded = true
		status.ScalerLoaded = a.Scaler != nil
		status.Features = a.Features
		status.Encoding = string(a.Scheme)
		status.Version = a.Manifest.Version
		status.Location = a.Location
		status.Performance = a.Manifest.Performance
	}
	return status
}

func minCost(est estimator.Estimator) float64 {
	if f, ok := est.(interface{ MinCost() float64 }); ok {
		return f.MinCost()
	}
	return estimator.DefaultMinCost
}
