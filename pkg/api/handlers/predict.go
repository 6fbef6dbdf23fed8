package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/lesotho-health/cost-api/pkg/encoding"
	"github.com/lesotho-health/cost-api/pkg/engine"
	"github.com/lesotho-health/cost-api/pkg/types"
	"github.com/lesotho-health/cost-api/pkg/validation"
)

// maxBodyBytes caps prediction request bodies
const maxBodyBytes = 64 << 10

// Predictor is the part of the engine the handlers use
type Predictor interface {
	Predict(ctx context.Context, req types.PredictionRequest) (*types.PredictionResult, error)
	Status() engine.Status
}

// PredictHandler handles prediction requests
type PredictHandler struct {
	engine    Predictor
	validator *validation.Validator
}

func NewPredictHandler(engine Predictor) *PredictHandler {
	return &PredictHandler{
		engine:    engine,
		validator: validation.New(),
	}
}

func (h *PredictHandler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := h.validator.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			WriteValidationError(w, verr.Error(), map[string]interface{}{
				"fields": verr.Fields,
			})
			return
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, CodePayloadTooLarge,
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit),
				http.StatusRequestEntityTooLarge, nil)
			return
		}
		if errors.Is(err, validation.ErrUnreadableBody) {
			WriteBadRequest(w, CodeValidation, "Failed to read request body", nil)
			return
		}
		WriteInternalError(w, "Failed to validate request")
		return
	}

	result, err := h.engine.Predict(r.Context(), req)
	if err != nil {
		h.writePredictError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

func (h *PredictHandler) writePredictError(w http.ResponseWriter, r *http.Request, err error) {
	var unknown *encoding.UnknownCategoryError
	switch {
	case errors.As(err, &unknown):
		WriteBadRequest(w, CodeUnknownCategory, err.Error(), map[string]interface{}{
			"field": unknown.Field,
			"value": unknown.Value,
		})

	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		WriteError(w, CodeTimeout, "Prediction timed out", http.StatusServiceUnavailable, nil)

	default:
		log.WithFields(log.Fields{
			"request_id": chimiddleware.GetReqID(r.Context()),
			"error":      err,
		}).Error("Prediction failed")
		WriteInternalError(w, "Prediction error: please contact the API administrator")
	}
}
