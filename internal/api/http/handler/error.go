package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dtroode/filedepot-server/internal/apierrors"
	"github.com/dtroode/filedepot-server/internal/model"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps an error onto an HTTP response. Expected domain
// failures arrive as *apierrors.APIError and keep their status and code;
// everything else is reported as internal without leaking detail.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		WriteJSON(w, apiErr.Status, apiErr)
		return
	}

	if errors.Is(err, model.ErrNotFound) {
		WriteJSON(w, http.StatusNotFound, apierrors.New(http.StatusNotFound, "NOT_FOUND", "resource not found"))
		return
	}

	WriteJSON(w, http.StatusInternalServerError, apierrors.New(http.StatusInternalServerError, "INTERNAL", "internal server error"))
}
