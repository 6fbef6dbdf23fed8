package handlers

import (
	"net/http"
	"time"
)

// APIVersion is reported by the root endpoint
const APIVersion = "1.0.0"

type endpoint struct {
	Path        string
	Description string
}

var endpoints = []endpoint{
	{"/", "GET - API information"},
	{"/predict", "POST - Make a healthcare cost prediction"},
	{"/health", "GET - Check API and model health"},
	{"/model-info", "GET - Get information about the prediction model"},
	{"/metrics", "GET - Prometheus metrics"},
}

// AvailableEndpoints lists every route path
func AvailableEndpoints() []string {
	paths := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		paths = append(paths, e.Path)
	}
	return paths
}

type RootResponse struct {
	Message     string            `json:"message"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Root handles API information requests
func Root(w http.ResponseWriter, r *http.Request) {
	described := make(map[string]string, len(endpoints))
	for _, e := range endpoints {
		described[e.Path] = e.Description
	}

	WriteJSON(w, http.StatusOK, RootResponse{
		Message:     "Lesotho Healthcare Cost Prediction API",
		Version:     APIVersion,
		Description: "Predict healthcare costs based on demographic and socioeconomic factors",
		Endpoints:   described,
		Timestamp:   time.Now(),
	})
}
