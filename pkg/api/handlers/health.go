package handlers

import (
	"net/http"
	"time"
)

type HealthResponse struct {
	Status         string    `json:"status"`
	ModelStatus    string    `json:"model_status"`
	FeaturesLoaded int       `json:"features_loaded"`
	Timestamp      time.Time `json:"timestamp"`
}

// HealthHandler reports liveness and which estimator is serving
type HealthHandler struct {
	engine Predictor
}

func NewHealthHandler(engine Predictor) *HealthHandler {
	return &HealthHandler{engine: engine}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	status := h.engine.Status()

	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:         "healthy",
		ModelStatus:    status.ModelStatus(),
		FeaturesLoaded: status.FeaturesCount(),
		Timestamp:      time.Now(),
	})
}
