package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Sepehrmasihpour/seshat-backend/internal/middleware"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/errors"
)

// respondJSON writes data as a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError maps an error onto the JSON error shape. Structured AppErrors
// keep their taxonomy and status code; anything else becomes a 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.NewInternalError("unexpected error", err)
	}

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if requestID, ok := r.Context().Value(middleware.RequestIDContextKey).(string); ok {
		response.Error.RequestID = requestID
	}

	respondJSON(w, appErr.StatusCode, response)
}
