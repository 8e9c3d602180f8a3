package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/storage"
)

// writeJSON encodes v as the response body. Encoding failures surface as
// a truncated body; by then the status line is already written.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the {"error": ...} envelope every failure shares.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps domain and storage errors onto HTTP statuses.
// Unknown errors become an opaque 500 so internals never leak.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		auth.ErrInvalidEmail,
		auth.ErrWeakPassword,
		auth.ErrEmptyName,
		core.ErrInvalidAmount,
		core.ErrInvalidType,
		core.ErrInvalidPeriod,
		core.ErrEmptyCategory,
		core.ErrEmptyName,
		core.ErrInvalidDate,
		core.ErrNegativeAmount,
		core.ErrDescriptionSize,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
