package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/freeeve/chesscoach/internal/coach"
	"github.com/freeeve/chesscoach/internal/engine"
)

// unavailableMessage is what clients see when every provider failed.
const unavailableMessage = "analysis unavailable, check connectivity"

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// errorStatus maps service errors to an HTTP status and client message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, coach.ErrInvalidPosition),
		errors.Is(err, coach.ErrIllegalMove),
		errors.Is(err, coach.ErrGameOver):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, engine.ErrAllProvidersFailed):
		return http.StatusServiceUnavailable, unavailableMessage
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
