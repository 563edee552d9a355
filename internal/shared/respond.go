package shared

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorBody is the stable JSON error envelope returned by every handler.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondJSON writes v as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError maps the error taxonomy onto stable HTTP outcomes. Callers
// never see raw internal errors.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		RespondJSON(w, http.StatusUnauthorized, ErrorBody{Code: "UNAUTHENTICATED", Message: "authentication required"})
	case errors.Is(err, ErrForbidden):
		RespondJSON(w, http.StatusForbidden, ErrorBody{Code: "FORBIDDEN", Message: "capability not granted"})
	case errors.Is(err, ErrNotFound):
		RespondJSON(w, http.StatusNotFound, ErrorBody{Code: "NOT_FOUND", Message: "resource not found"})
	case errors.Is(err, ErrInvalidRange):
		RespondJSON(w, http.StatusUnprocessableEntity, ErrorBody{Code: "INVALID_RANGE", Message: "identifier range misconfigured"})
	case errors.Is(err, ErrRangeExhausted):
		RespondJSON(w, http.StatusConflict, ErrorBody{Code: "RANGE_EXHAUSTED", Message: "identifier range exhausted"})
	case errors.Is(err, ErrStorageUnavailable):
		RespondJSON(w, http.StatusServiceUnavailable, ErrorBody{Code: "STORAGE_UNAVAILABLE", Message: "persistence unavailable"})
	default:
		RespondJSON(w, http.StatusInternalServerError, ErrorBody{Code: "INTERNAL", Message: "internal error"})
	}
}
