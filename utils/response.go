package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"localchef/logger"
	"localchef/models"
)

type M map[string]any

// RespondWithJSON sends data as a JSON body with the given status.
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithRawJSON sends an already encoded JSON body.
func RespondWithRawJSON(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

// RespondWithError sends {"message": msg}.
func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, M{"message": msg})
}

// RespondWithErr maps a handler error onto a status code. Validation errors
// carry their own message; anything unclassified is logged and reported as a
// generic server error so store details never reach the client.
func RespondWithErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, models.ErrFraud):
		RespondWithError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, context.DeadlineExceeded):
		logger.FromContext(r.Context()).WithError(err).Warn("request timed out")
		RespondWithError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		logger.FromContext(r.Context()).WithError(err).Error("request failed")
		RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
