package engine

import (
	"fmt"

	"github.com/lesotho-health/cost-api/pkg/estimator"
	"github.com/lesotho-health/cost-api/pkg/types"
)

// ConfidenceInfo describes how a prediction was produced
func ConfidenceInfo(est estimator.Estimate, req types.PredictionRequest) string {
	var info string
	if est.Method == types.MethodModel {
		info = fmt.Sprintf("Prediction based on %s trained on Lesotho healthcare data", est.Label)
	} else {
		info = fmt.Sprintf("Prediction based on %s using realistic cost factors", est.Label)
	}

	if req.Insured() {
		info += ". Insurance coverage may reduce actual out-of-pocket costs."
	}
	if req.HealthcareType == types.HealthcarePrivate {
		info += " Private healthcare costs included."
	}
	return info
}
