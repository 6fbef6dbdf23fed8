package handlers

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Error codes returned in the envelope
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnknownCategory  = "UNKNOWN_CATEGORY"
	CodeEstimation       = "ESTIMATION_FAILURE"
	CodeTimeout          = "TIMEOUT"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeRateLimited      = "RATE_LIMITED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("Failed to encode JSON response")
	}
}

// WriteError writes an error response
func WriteError(w http.ResponseWriter, code string, message string, status int, details map[string]interface{}) {
	response := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Status:  status,
			Details: details,
		},
	}

	WriteJSON(w, status, response)
}

// WriteBadRequest writes a 400 error
func WriteBadRequest(w http.ResponseWriter, code, message string, details map[string]interface{}) {
	WriteError(w, code, message, http.StatusBadRequest, details)
}

// WriteInternalError writes a 500 error
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, CodeEstimation, message, http.StatusInternalServerError, nil)
}

// WriteValidationError writes a validation error
func WriteValidationError(w http.ResponseWriter, message string, details map[string]interface{}) {
	WriteError(w, CodeValidation, message, http.StatusBadRequest, details)
}

// NotFound answers unknown routes with the list of real ones
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, CodeNotFound, "Endpoint not found", http.StatusNotFound, map[string]interface{}{
		"path":                r.URL.Path,
		"available_endpoints": AvailableEndpoints(),
	})
}

// MethodNotAllowed answers known routes called with the wrong method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, CodeMethodNotAllowed, "Method not allowed", http.StatusMethodNotAllowed, map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
	})
}
