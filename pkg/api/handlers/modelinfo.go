package handlers

import (
	"net/http"
	"time"

	"github.com/lesotho-health/cost-api/pkg/types"
)

const demoPerformance = "Demo mode - no model performance data"

type ModelInfoResponse struct {
	ModelType        string         `json:"model_type"`
	ModelLoaded      bool           `json:"model_loaded"`
	ScalerLoaded     bool           `json:"scaler_loaded"`
	FeaturesCount    int            `json:"features_count"`
	FeatureNames     []string       `json:"feature_names"`
	ExpectedFeatures []string       `json:"expected_features"`
	SupportedRegions []types.Region `json:"supported_regions"`
	Currency         string         `json:"currency"`
	Encoding         string         `json:"encoding"`
	ArtifactVersion  string         `json:"artifact_version,omitempty"`
	MinPredictedCost float64        `json:"min_predicted_cost"`
	// ModelPerformance is a metrics map, or a note in demo mode
	ModelPerformance interface{} `json:"model_performance"`
	Timestamp        time.Time   `json:"timestamp"`
}

// ModelInfoHandler describes the serving model. It answers 200 in demo mode too.
type ModelInfoHandler struct {
	engine Predictor
}

func NewModelInfoHandler(engine Predictor) *ModelInfoHandler {
	return &ModelInfoHandler{engine: engine}
}

func (h *ModelInfoHandler) Handle(w http.ResponseWriter, r *http.Request) {
	status := h.engine.Status()

	var performance interface{} = demoPerformance
	if status.ModelLoaded {
		metrics := map[string]interface{}{"model_type": status.ModelType}
		for k, v := range status.Performance {
			metrics[k] = v
		}
		performance = metrics
	}

	WriteJSON(w, http.StatusOK, ModelInfoResponse{
		ModelType:        status.ModelType,
		ModelLoaded:      status.ModelLoaded,
		ScalerLoaded:     status.ScalerLoaded,
		FeaturesCount:    status.FeaturesCount(),
		FeatureNames:     status.Features,
		ExpectedFeatures: types.InputFields,
		SupportedRegions: types.Regions,
		Currency:         types.Currency,
		Encoding:         status.Encoding,
		ArtifactVersion:  status.Version,
		MinPredictedCost: status.MinCost,
		ModelPerformance: performance,
		Timestamp:        time.Now(),
	})
}
