package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"leasingedge-engine/internal/availability"
	"leasingedge-engine/internal/llm"
	"leasingedge-engine/internal/prospect"
	"leasingedge-engine/internal/report"
	"leasingedge-engine/internal/store"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// classify maps pipeline errors onto a status and a stable error code.
func classify(err error) (int, string) {
	var missing *availability.MissingDataError
	var malformed *availability.MalformedLayoutError
	var svc *llm.ServiceError
	var bad *badParam

	switch {
	case errors.Is(err, prospect.ErrEmptyID), errors.Is(err, prospect.ErrInvalidID):
		return http.StatusBadRequest, "invalid_id"
	case errors.As(err, &bad):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, prospect.ErrNotFound):
		return http.StatusNotFound, "prospect_not_found"
	case errors.Is(err, prospect.ErrInactive):
		return http.StatusUnprocessableEntity, "prospect_inactive"
	case errors.Is(err, report.ErrNoBedroomPreferences):
		return http.StatusUnprocessableEntity, "bedroom_preferences_required"
	case errors.Is(err, report.ErrNoComparables):
		return http.StatusUnprocessableEntity, "no_comparables"
	case errors.Is(err, report.ErrNoAvailability):
		return http.StatusUnprocessableEntity, "no_availability"
	case errors.Is(err, report.ErrUnknownMode):
		return http.StatusBadRequest, "invalid_mode"
	case errors.As(err, &missing):
		return http.StatusUnprocessableEntity, "internal_comp_missing_data"
	case errors.As(err, &malformed):
		return http.StatusUnprocessableEntity, "malformed_layout"
	case errors.As(err, &svc):
		return http.StatusBadGateway, "llm_failed"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	WriteError(w, r, status, code, err.Error())
}
