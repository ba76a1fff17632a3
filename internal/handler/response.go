package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cambial/cambio/internal/domain"
)

// timeLayout is the timestamp format used in every JSON response.
const timeLayout = "2006-01-02T15:04:05Z"

// WriteJSON writes a JSON response with the given status code and data.
// Sets Content-Type to application/json before writing the status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // Write error intentionally ignored in response helper
}

// errorResponse is the standard error response format.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standard error response with the given status code,
// error code, and human-readable message.
func WriteError(w http.ResponseWriter, status int, errorCode, message string) {
	WriteJSON(w, status, errorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// ParseJSON decodes the request body as JSON into v.
// It validates that the Content-Type header is application/json and
// returns an error for missing/incorrect content type or malformed JSON.
func ParseJSON(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	return nil
}

// MapError maps domain errors to HTTP responses. Every handler funnels
// service errors through here so the status mapping stays in one place.
func MapError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}
	var persistenceErr *domain.PersistenceError
	if errors.As(err, &persistenceErr) {
		WriteError(w, http.StatusInternalServerError, "persistence_error",
			"The operation could not be recorded and was aborted")
		return
	}

	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		WriteError(w, http.StatusBadRequest, "insufficient_funds", err.Error())
	case errors.Is(err, domain.ErrInvalidOperation):
		WriteError(w, http.StatusBadRequest, "invalid_operation", err.Error())
	case errors.Is(err, domain.ErrEmailTaken):
		WriteError(w, http.StatusBadRequest, "email_taken", "Email already registered")
	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid credentials")
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "You are not allowed to do that")
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		WriteError(w, http.StatusConflict, "invalid_state", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
